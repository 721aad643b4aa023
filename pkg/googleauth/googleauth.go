// Package googleauth verifies Google Sign-In ID tokens.
package googleauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"salon-booking/pkg/utils"

	"google.golang.org/api/idtoken"
)

type Identity struct {
	Subject       string
	Email         string
	EmailVerified bool
	Name          string
	Picture       string
}

type validateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

type Verifier struct {
	clientID string
	validate validateFunc
}

func NewVerifier(clientID string) *Verifier {
	return &Verifier{clientID: clientID, validate: idtoken.Validate}
}

// Verify checks the token signature and audience. Network failures map to
// utils.ErrUnavailable, every other rejection to utils.ErrUnauthorized.
func (v *Verifier) Verify(ctx context.Context, token string) (*Identity, error) {
	if v.clientID == "" {
		return nil, fmt.Errorf("google login: %w: client id not configured", utils.ErrUnavailable)
	}
	if token == "" {
		return nil, fmt.Errorf("google login: %w: missing token", utils.ErrValidation)
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	payload, err := v.validate(ctx, token, v.clientID)
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("google login: %w: %v", utils.ErrUnavailable, err)
		}
		return nil, fmt.Errorf("google login: %w: %v", utils.ErrUnauthorized, err)
	}

	identity := &Identity{Subject: payload.Subject}
	if email, ok := payload.Claims["email"].(string); ok {
		identity.Email = email
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok {
		identity.EmailVerified = verified
	}
	if name, ok := payload.Claims["name"].(string); ok {
		identity.Name = name
	}
	if picture, ok := payload.Claims["picture"].(string); ok {
		identity.Picture = picture
	}

	if identity.Email == "" {
		return nil, fmt.Errorf("google login: %w: token has no email", utils.ErrUnauthorized)
	}

	return identity, nil
}
