package jwt

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidSigningMethod = errors.New("jwt: invalid signing method")
	ErrSigningKeyTooShort   = errors.New("jwt: HS512 signing key must be at least 64 bytes")
	ErrTokenExpired         = errors.New("jwt: token has expired")
	ErrInvalidToken         = errors.New("jwt: invalid token")
	// ErrSubjectMismatch means the subject and company_id claims disagree.
	ErrSubjectMismatch = errors.New("jwt: subject does not match company")
)

// JWT issues and checks company tokens.
type JWT interface {
	// Generate creates a signed token for the company acting with role.
	Generate(companyID, role string) (string, error)
	// Verify parses and validates the token and returns claims.
	Verify(tokenStr string) (Claims, error)
}

type clocker interface {
	Now() time.Time
}

type generator interface {
	Generate() string
}

type jwtContextKey struct{}

// Config defines the inputs for building a JWT implementation.
type Config struct {
	Secret    []byte
	Issuer    string
	Audiences []string
	TTL       time.Duration
	Clock     clocker
	// UUID generates token ids (jti).
	UUID generator
}

// Claims identifies the calling company. The subject always equals CompanyID.
type Claims struct {
	jwt.RegisteredClaims
	CompanyID string `json:"company_id"`
	// Role is the casbin subject checked by inbound handlers.
	Role string `json:"role"`
}

// GetAuth returns the claims stored by the authentication middleware, or nil.
func GetAuth(ctx context.Context) *Claims {
	clm, ok := ctx.Value(jwtContextKey{}).(Claims)
	if !ok {
		return nil
	}
	return &clm
}

func SetAuth(ctx context.Context, clm Claims) context.Context {
	return context.WithValue(ctx, jwtContextKey{}, clm)
}
