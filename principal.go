package memberkit

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

// PrincipalClaims are the token claims that identify a principal.
type PrincipalClaims struct {
	Email string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// ParsePrincipalToken validates an HS256 token and returns the principal it names.
func ParsePrincipalToken(token string, secret []byte) (Principal, error) {
	claims := &PrincipalClaims{}
	tkn, err := jwt.ParseWithClaims(token, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return secret, nil
	})
	if err != nil {
		return Principal{}, NewError(ErrNotAuthenticated, "invalid token").WithCause(err)
	}
	if !tkn.Valid || claims.Subject == "" {
		return Principal{}, NewError(ErrNotAuthenticated, "token has no subject")
	}
	return Principal{ID: claims.Subject, Email: claims.Email}, nil
}

// SignPrincipalToken issues an HS256 token for p. Used by tests and tooling.
func SignPrincipalToken(p Principal, secret []byte, claims jwt.RegisteredClaims) (string, error) {
	claims.Subject = p.ID
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, PrincipalClaims{
		Email:            p.Email,
		RegisteredClaims: claims,
	})
	return token.SignedString(secret)
}

// BearerPrincipalExtractor reads the principal from an "Authorization: Bearer" header.
// Missing, malformed or invalid tokens count as unauthenticated.
func BearerPrincipalExtractor(secret []byte) PrincipalExtractor {
	return func(r *http.Request) (Principal, bool) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			return Principal{}, false
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			return Principal{}, false
		}

		p, err := ParsePrincipalToken(parts[1], secret)
		if err != nil {
			return Principal{}, false
		}
		return p, true
	}
}
