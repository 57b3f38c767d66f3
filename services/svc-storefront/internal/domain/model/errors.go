package model

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

var (
	ErrDeviceNotFound            = fmt.Errorf("device %w", ErrNotFound)
	ErrCustomizationNotFound     = fmt.Errorf("customization %w", ErrNotFound)
	ErrOptionNotFound            = fmt.Errorf("option %w", ErrNotFound)
	ErrAddonNotFound             = fmt.Errorf("add-on %w", ErrNotFound)
	ErrSaleNotFound              = fmt.Errorf("sale %w", ErrNotFound)
	ErrNoOptionsForCustomization = fmt.Errorf("options for customization %w", ErrNotFound)
)

var (
	ErrOptionNotInCustomization = errors.New("option does not belong to the selected customization")
	ErrCustomizationNotInDevice = errors.New("customization does not belong to the device")
	ErrAddonNotInDevice         = errors.New("add-on does not belong to the device")
	ErrNegativeFinalPrice       = errors.New("final price is negative")
	ErrInvalidCurrency          = errors.New("invalid currency")
	ErrInvalidCatalogRecord     = errors.New("invalid catalog record")
	ErrSyncInProgress           = errors.New("catalog synchronization already in progress")
	ErrCatalogUnavailable       = errors.New("catalog source unavailable")
	ErrDatabaseConnection       = errors.New("database connection error")
	ErrDatabaseQuery            = errors.New("database query error")
)

type ValidationError struct {
	Field   string
	Message string
	Code    string
}

type ValidationErrors struct {
	Errors []ValidationError
}

func (v *ValidationErrors) Error() string {
	if len(v.Errors) == 0 {
		return "validation failed"
	}

	return v.Errors[0].Message
}

func (v *ValidationErrors) Add(field, message, code string) {
	v.Errors = append(v.Errors, ValidationError{
		Field:   field,
		Message: message,
		Code:    code,
	})
}

func (v *ValidationErrors) HasErrors() bool {
	return len(v.Errors) > 0
}

// Unwrap exposes the sentinel carried by each error code so callers can
// match a validation failure with errors.Is.
func (v *ValidationErrors) Unwrap() []error {
	errs := make([]error, 0, len(v.Errors))

	for _, e := range v.Errors {
		if sentinel, ok := validationSentinels[e.Code]; ok {
			errs = append(errs, sentinel)
		}
	}

	return errs
}

func NewValidationErrors() *ValidationErrors {
	return &ValidationErrors{
		Errors: make([]ValidationError, 0),
	}
}

const (
	CodeOptionNotInCustomization = "option_not_in_customization"
	CodeCustomizationNotInDevice = "customization_not_in_device"
	CodeAddonNotInDevice         = "addon_not_in_device"
	CodeNegativeFinalPrice       = "negative_final_price"
)

var validationSentinels = map[string]error{
	CodeOptionNotInCustomization: ErrOptionNotInCustomization,
	CodeCustomizationNotInDevice: ErrCustomizationNotInDevice,
	CodeAddonNotInDevice:         ErrAddonNotInDevice,
	CodeNegativeFinalPrice:       ErrNegativeFinalPrice,
}
