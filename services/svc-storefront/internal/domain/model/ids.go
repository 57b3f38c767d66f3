package model

import "github.com/google/uuid"

// ID is the surrogate key of every persisted row. Version 7 UUIDs keep
// insertion order, which the stores rely on for stable listings.
type ID struct {
	uuid.UUID
}

func NewID() ID {
	return ID{UUID: uuid.Must(uuid.NewV7())}
}

func ParseID(s string) (ID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return ID{}, err
	}

	return ID{UUID: id}, nil
}

func (id ID) String() string {
	return id.UUID.String()
}

func (id ID) IsZero() bool {
	return id.UUID == uuid.Nil
}
