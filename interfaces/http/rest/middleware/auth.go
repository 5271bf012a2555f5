package middleware

import (
	"net/http"
	"strings"

	"go.uber.org/zap"

	"mindweave/pkg/auth"
	"mindweave/pkg/common"
)

// Authenticate validates the bearer token on every request and attaches
// the caller's identity to the request context.
func Authenticate(validator *auth.JWTValidator, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := extractToken(r)
			if token == "" {
				common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "missing authentication token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				logger.Warn("token rejected",
					zap.Error(err),
					zap.String("path", r.URL.Path),
				)
				message := "invalid token"
				if err == auth.ErrExpiredToken {
					message = "token has expired"
				}
				common.RespondError(w, http.StatusUnauthorized, "UNAUTHORIZED", message)
				return
			}

			ctx := auth.WithUser(r.Context(), auth.UserContext{
				UserID: claims.UserID,
				Email:  claims.Email,
			})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// extractToken pulls the JWT from the Authorization header or cookie
func extractToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader != "" {
		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
			return parts[1]
		}
		return authHeader
	}
	if cookie, err := r.Cookie("auth_token"); err == nil {
		return cookie.Value
	}
	return ""
}
