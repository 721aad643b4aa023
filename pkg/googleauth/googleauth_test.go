package googleauth

import (
	"context"
	"errors"
	"net"
	"testing"

	"salon-booking/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/idtoken"
)

func TestVerify(t *testing.T) {
	v := NewVerifier("client-1")

	t.Run("ValidToken", func(t *testing.T) {
		v.validate = func(_ context.Context, token, audience string) (*idtoken.Payload, error) {
			assert.Equal(t, "tok", token)
			assert.Equal(t, "client-1", audience)
			return &idtoken.Payload{
				Subject: "g-123",
				Claims: map[string]any{
					"email":          "jane@example.com",
					"email_verified": true,
					"name":           "Jane Doe",
				},
			}, nil
		}

		id, err := v.Verify(context.Background(), "tok")
		require.NoError(t, err)
		assert.Equal(t, "g-123", id.Subject)
		assert.Equal(t, "jane@example.com", id.Email)
		assert.True(t, id.EmailVerified)
		assert.Equal(t, "Jane Doe", id.Name)
	})

	t.Run("InvalidToken", func(t *testing.T) {
		v.validate = func(context.Context, string, string) (*idtoken.Payload, error) {
			return nil, errors.New("idtoken: audience provided does not match aud claim in the JWT")
		}

		_, err := v.Verify(context.Background(), "tok")
		assert.ErrorIs(t, err, utils.ErrUnauthorized)
	})

	t.Run("NetworkFailure", func(t *testing.T) {
		v.validate = func(context.Context, string, string) (*idtoken.Payload, error) {
			return nil, &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}
		}

		_, err := v.Verify(context.Background(), "tok")
		assert.ErrorIs(t, err, utils.ErrUnavailable)
	})

	t.Run("MissingToken", func(t *testing.T) {
		_, err := v.Verify(context.Background(), "")
		assert.ErrorIs(t, err, utils.ErrValidation)
	})
}

func TestVerifyNotConfigured(t *testing.T) {
	_, err := NewVerifier("").Verify(context.Background(), "tok")
	assert.ErrorIs(t, err, utils.ErrUnavailable)
}
