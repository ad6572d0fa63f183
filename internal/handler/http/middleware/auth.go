package middleware

import (
	"context"
	"net/http"

	"github.com/go-chi/jwtauth/v5"

	"github.com/CSteenkamp/gymnastics-club-manager-sub000/internal/handler/http/response"
)

type contextKey string

const (
	ClubIDKey contextKey = "club_id"
	UserIDKey contextKey = "user_id"
)

// AuthRequired validates the access token and puts the caller's club and
// user ids on the request context. Every billing route is tenant-scoped
// through the club_id claim.
func AuthRequired(ja *jwtauth.JWTAuth) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		hfn := func(w http.ResponseWriter, r *http.Request) {
			token, _, err := jwtauth.FromContext(r.Context())
			if err != nil {
				response.Unauthorized(w, err.Error())
				return
			}
			if token == nil {
				response.Unauthorized(w, "missing access token")
				return
			}

			claims, err := token.AsMap(r.Context())
			if err != nil {
				response.Unauthorized(w, "invalid access token")
				return
			}
			tokenType, ok := claims["type"].(string)
			if !ok || tokenType != "access" {
				response.Unauthorized(w, "invalid access token")
				return
			}
			clubID, ok := claims["club_id"].(string)
			if !ok || clubID == "" {
				response.Unauthorized(w, "token is not bound to a club")
				return
			}

			ctx := context.WithValue(r.Context(), ClubIDKey, clubID)
			if userID, ok := claims["user_id"].(string); ok {
				ctx = context.WithValue(ctx, UserIDKey, userID)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(hfn)
	}
}

// ClubID returns the authenticated caller's club id.
func ClubID(ctx context.Context) string {
	id, _ := ctx.Value(ClubIDKey).(string)
	return id
}

// UserID returns the authenticated caller's user id.
func UserID(ctx context.Context) string {
	id, _ := ctx.Value(UserIDKey).(string)
	return id
}
