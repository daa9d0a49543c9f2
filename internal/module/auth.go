package module

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

const (
	authorization = "Authorization"
	bearerPrefix  = "bearer "
)

var (
	ErrMissingToken = errors.New("authorization token not found")
	ErrInvalidToken = errors.New("access token verification failed")
)

// TokenService resolves a bearer token to the owner it was issued to.
type TokenService interface {
	VerifyToken(ctx context.Context, token string) (owner string, err error)
}

type ownerKey struct{}

// WithOwner returns a context carrying the authenticated owner.
func WithOwner(ctx context.Context, owner string) context.Context {
	return context.WithValue(ctx, ownerKey{}, owner)
}

// OwnerFromContext returns the authenticated owner or "".
func OwnerFromContext(ctx context.Context) string {
	owner, _ := ctx.Value(ownerKey{}).(string)
	return owner
}

// AuthMiddleware verifies the bearer token of every request and injects the
// owner into the request context. onError writes the rejection.
func AuthMiddleware(verifyToken TokenService, onError func(w http.ResponseWriter, r *http.Request, err error)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			accessToken, err := AccessTokenFromHeader(r.Header)
			if err != nil {
				onError(w, r, err)
				return
			}

			owner, err := verifyToken.VerifyToken(r.Context(), accessToken)
			if err != nil || owner == "" {
				onError(w, r, ErrInvalidToken)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithOwner(r.Context(), owner)))
		})
	}
}

// AccessTokenFromHeader returns the token of a "Bearer <token>" header.
func AccessTokenFromHeader(header http.Header) (string, error) {
	authToken := header.Get(authorization)
	if len(authToken) <= len(bearerPrefix) || !strings.EqualFold(authToken[:len(bearerPrefix)], bearerPrefix) {
		return "", ErrMissingToken
	}

	// remove prefix Bearer
	token := strings.TrimSpace(authToken[len(bearerPrefix):])
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}
