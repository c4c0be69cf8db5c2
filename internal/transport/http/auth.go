package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/tessera-live/tessera/internal/domain"
)

type callerKey struct{}

// Auth validates a Bearer token (HS256) and injects the token's subject as
// the caller account. The hosting environment is whoever signs tokens with
// the shared secret; handlers read the identity with CallerFromContext.
func Auth(secret string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if !strings.HasPrefix(header, "Bearer ") {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing bearer token")
			return
		}
		raw := strings.TrimPrefix(header, "Bearer ")

		token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "invalid token")
			return
		}

		subject, err := token.Claims.GetSubject()
		if err != nil || subject == "" {
			writeError(w, http.StatusUnauthorized, codeUnauthorized, "token has no subject")
			return
		}

		ctx := context.WithValue(r.Context(), callerKey{}, domain.Account(subject))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// CallerFromContext returns the authenticated caller account, if any.
func CallerFromContext(ctx context.Context) (domain.Account, bool) {
	caller, ok := ctx.Value(callerKey{}).(domain.Account)
	return caller, ok
}

// withCaller is a test hook for injecting a caller without a token.
func withCaller(ctx context.Context, caller domain.Account) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

func requireCaller(w http.ResponseWriter, r *http.Request) (domain.Account, bool) {
	caller, ok := CallerFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, codeUnauthorized, "missing caller identity")
		return "", false
	}
	return caller, true
}
