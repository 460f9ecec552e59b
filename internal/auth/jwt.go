package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Claims carry the ephemeral player identity. There are no accounts: a
// token only proves "same player as before" across reconnects.
type Claims struct {
	PlayerID    string `json:"pid"`
	DisplayName string `json:"name,omitempty"`
	jwt.RegisteredClaims
}

// Verifier is the part the game server needs; tests plug in a stub.
type Verifier interface {
	Verify(token string) (*Claims, error)
}

type Service struct {
	secret []byte
	ttl    time.Duration
}

func NewService(secret []byte, ttl time.Duration) *Service {
	return &Service{secret: secret, ttl: ttl}
}

// Issue signs a token for a freshly minted player id.
func (s *Service) Issue(playerID, displayName string) (string, error) {
	claims := Claims{
		PlayerID:    playerID,
		DisplayName: displayName,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString(s.secret)
}

func (s *Service) Verify(token string) (*Claims, error) {
	t, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (any, error) {
		return s.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := t.Claims.(*Claims)
	if !ok || !t.Valid {
		return nil, jwt.ErrTokenInvalidClaims
	}
	return claims, nil
}
