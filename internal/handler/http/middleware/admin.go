package middleware

import (
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/handler/http/response"
)

// AdminOnly restricts mutating billing operations to club administrators.
func AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, claims, err := jwtauth.FromContext(r.Context())
		if err != nil {
			response.Unauthorized(w, "invalid access token")
			return
		}

		admin, ok := claims["is_admin"].(bool)
		if !ok || !admin {
			response.Forbidden(w, "administrator privilege required")
			return
		}

		next.ServeHTTP(w, r)
	})
}
