package jwt

import (
	"errors"
	"strings"
	"time"

	libJWT "github.com/golang-jwt/jwt/v5"
)

const minHS512KeyLen = 64

// Symmetric signs and verifies company tokens with a shared HS512 secret.
type Symmetric struct {
	secret []byte
	issuer string
	aud    []string
	ttl    time.Duration
	clock  clocker
	uuid   generator
	parser *libJWT.Parser
}

func NewHS512(cfg Config) (*Symmetric, error) {
	if len(cfg.Secret) < minHS512KeyLen {
		return nil, ErrSigningKeyTooShort
	}

	s := &Symmetric{
		secret: cfg.Secret,
		issuer: cfg.Issuer,
		aud:    cfg.Audiences,
		ttl:    cfg.TTL,
		clock:  cfg.Clock,
		uuid:   cfg.UUID,
	}
	s.parser = libJWT.NewParser(
		libJWT.WithIssuer(cfg.Issuer),
		libJWT.WithAudience(cfg.Audiences...),
		libJWT.WithValidMethods([]string{libJWT.SigningMethodHS512.Alg()}),
		libJWT.WithIssuedAt(),
		libJWT.WithExpirationRequired(),
		libJWT.WithTimeFunc(func() time.Time { return s.clock.Now() }),
	)
	return s, nil
}

func (s *Symmetric) Generate(companyID, role string) (string, error) {
	companyID = strings.TrimSpace(companyID)
	if companyID == "" {
		return "", ErrInvalidToken
	}

	now := s.clock.Now()
	claims := Claims{
		RegisteredClaims: libJWT.RegisteredClaims{
			ID:        s.uuid.Generate(),
			Subject:   companyID,
			Issuer:    s.issuer,
			Audience:  s.aud,
			IssuedAt:  libJWT.NewNumericDate(now),
			NotBefore: libJWT.NewNumericDate(now),
			ExpiresAt: libJWT.NewNumericDate(now.Add(s.ttl)),
		},
		CompanyID: companyID,
		Role:      role,
	}

	return libJWT.NewWithClaims(libJWT.SigningMethodHS512, claims).SignedString(s.secret)
}

func (s *Symmetric) Verify(tokenStr string) (Claims, error) {
	var claims Claims
	token, err := s.parser.ParseWithClaims(tokenStr, &claims, s.key)
	switch {
	case errors.Is(err, libJWT.ErrTokenExpired):
		return Claims{}, ErrTokenExpired
	case err != nil:
		return Claims{}, err
	case !token.Valid || claims.CompanyID == "":
		return Claims{}, ErrInvalidToken
	case claims.Subject != "" && claims.Subject != claims.CompanyID:
		return Claims{}, ErrSubjectMismatch
	}
	return claims, nil
}

func (s *Symmetric) key(t *libJWT.Token) (any, error) {
	if t.Method != libJWT.SigningMethodHS512 {
		return nil, ErrInvalidSigningMethod
	}
	return s.secret, nil
}
