package idempotency

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name        string
		raw         string
		expectedKey Key
		expectedErr error
	}{
		{
			name:        "uuid",
			raw:         "550e8400-e29b-41d4-a716-446655440000",
			expectedKey: "550e8400-e29b-41d4-a716-446655440000",
		},
		{
			name:        "order number with separators",
			raw:         "order:2026-03-01.0001",
			expectedKey: "order:2026-03-01.0001",
		},
		{
			name:        "surrounding whitespace is trimmed",
			raw:         "  checkout_session_42a  ",
			expectedKey: "checkout_session_42a",
		},
		{
			name:        "exactly minimum length",
			raw:         "1234567890123456",
			expectedKey: "1234567890123456",
		},
		{
			name:        "exactly maximum length",
			raw:         strings.Repeat("k", MaxKeyLength),
			expectedKey: Key(strings.Repeat("k", MaxKeyLength)),
		},
		{
			name:        "too short",
			raw:         "short",
			expectedErr: ErrKeyTooShort,
		},
		{
			name:        "too short once trimmed",
			raw:         "   sale-123456   ",
			expectedErr: ErrKeyTooShort,
		},
		{
			name:        "too long",
			raw:         strings.Repeat("k", MaxKeyLength+1),
			expectedErr: ErrKeyTooLong,
		},
		{
			name:        "inner spaces",
			raw:         "order 2026 03 01 0001",
			expectedErr: ErrKeyInvalid,
		},
		{
			name:        "punctuation",
			raw:         "order!2026@03#01/0001",
			expectedErr: ErrKeyInvalid,
		},
		{
			name:        "non ascii letters",
			raw:         "pedido-número-000001",
			expectedErr: ErrKeyInvalid,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			key, err := Parse(tc.raw)

			if tc.expectedErr != nil {
				require.ErrorIs(t, err, tc.expectedErr)
				require.Empty(t, key)

				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.expectedKey, key)
			require.Equal(t, string(tc.expectedKey), key.String())
		})
	}
}

func TestKey_Scope(t *testing.T) {
	t.Parallel()

	key := Key("order:2026-03-01.0001")

	t.Run("stable for the same operation", func(t *testing.T) {
		t.Parallel()

		require.Equal(t, key.Scope(http.MethodPost, "/v1/sales"), key.Scope(http.MethodPost, "/v1/sales"))
	})

	t.Run("namespaced by service and method", func(t *testing.T) {
		t.Parallel()

		scoped := key.Scope(http.MethodPost, "/v1/sales")

		require.True(t, strings.HasPrefix(scoped, "storefront:idempotency:post:"))
		require.Len(t, strings.TrimPrefix(scoped, "storefront:idempotency:post:"), 64)
		require.NotContains(t, scoped, key.String())
	})

	cases := []struct {
		name   string
		method string
		path   string
		other  Key
	}{
		{name: "other path", method: http.MethodPost, path: "/v1/catalog/sync", other: key},
		{name: "other method", method: http.MethodPut, path: "/v1/sales", other: key},
		{name: "other key", method: http.MethodPost, path: "/v1/sales", other: "order:2026-03-01.0002"},
	}

	for _, tc := range cases {
		t.Run(tc.name+" gets its own entry", func(t *testing.T) {
			t.Parallel()

			require.NotEqual(t, key.Scope(http.MethodPost, "/v1/sales"), tc.other.Scope(tc.method, tc.path))
		})
	}
}
