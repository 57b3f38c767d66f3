package ports

import (
	"context"

	"github.com/hashicorp/vault/api"
)

// SecretsRepository reads service secrets from Vault. It is used by the
// config loader before any other dependency exists.
type SecretsRepository interface {
	SetToken(v string)
	GetSecrets(ctx context.Context, path string) (*api.Secret, error)
	// WriteWithContext is used for login flows such as approle.
	WriteWithContext(ctx context.Context, path string, data map[string]any) (*api.Secret, error)
}
