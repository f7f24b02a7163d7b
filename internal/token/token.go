package token

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"

	"github.com/websubhamdevloper/votecore/internal/domain"
)

// Claims defines the session token payload. Voted is the flag observed at
// login; it is advisory and never gates the vote transaction itself.
type Claims struct {
	VoterID  string `json:"voter_id"`
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Voted    bool   `json:"voted"`
	jwtlib.RegisteredClaims
}

// Generate issues a signed session token for an authenticated voter.
func Generate(session domain.Session, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		VoterID:  session.VoterID,
		FullName: session.FullName,
		Email:    session.Email,
		Voted:    session.Voted,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Issuer:    "votecore",
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(ttl)),
		},
	}
	t := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims)
	return t.SignedString([]byte(secret))
}

// Parse validates a session token and re-materializes the Session it carries.
func Parse(token string, secret string) (domain.Session, error) {
	parsed, err := jwtlib.ParseWithClaims(token, &Claims{}, func(t *jwtlib.Token) (interface{}, error) {
		return []byte(secret), nil
	}, jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Name}))
	if err != nil {
		return domain.Session{}, err
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return domain.Session{}, jwtlib.ErrTokenInvalidClaims
	}
	return domain.Session{
		VoterID:  claims.VoterID,
		FullName: claims.FullName,
		Email:    claims.Email,
		Voted:    claims.Voted,
	}, nil
}
