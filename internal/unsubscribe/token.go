// internal/unsubscribe/token.go
package unsubscribe

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	appErrors "github.com/relaycrm/outreach-backend/internal/errors"
)

// TokenTTL bounds how long a one-click unsubscribe link stays valid.
const TokenTTL = 90 * 24 * time.Hour

// Payload identifies exactly one queued send for one recipient. Tokens are
// independent of session auth so the link works from any mail client.
type Payload struct {
	OrgID       int    `json:"org_id"`
	ContactID   int    `json:"contact_id"`
	QueueItemID int    `json:"queue_item_id"`
	Email       string `json:"email"`
}

type claims struct {
	Payload
	jwt.RegisteredClaims
}

// Signer issues and verifies unsubscribe tokens. It shares the app secret
// with the credential vault; the two have disjoint blast radii.
type Signer struct {
	secret []byte
	now    func() time.Time
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), now: time.Now}
}

// Sign issues an HS256 token that expires TokenTTL after issuance.
func (s *Signer) Sign(p Payload) (string, error) {
	now := s.now()
	c := claims{
		Payload: p,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, c).SignedString(s.secret)
}

// Verify returns the payload for a valid token. Tampered, malformed and
// expired tokens all collapse into the same "expired or invalid" error.
func (s *Signer) Verify(token string) (*Payload, error) {
	var c claims
	parsed, err := jwt.ParseWithClaims(token, &c, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !parsed.Valid {
		return nil, appErrors.NewTokenInvalid()
	}
	return &c.Payload, nil
}
