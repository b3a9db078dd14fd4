package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/waving/storefront/internal/cart/domain"
	"github.com/waving/storefront/pkg/auth"
)

type contextKey string

const sessionKey contextKey = "cart_session"

// GuestCookieName is the cookie carrying the anonymous visitor's cart
// identity. It is kept after login so the reconciliation path can locate the
// local cart.
const GuestCookieName = "storefront_guest"

// SessionMiddleware resolves the caller's session: a validated bearer token
// when one is presented, plus a guest ID cookie issued on first contact.
func SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var sess domain.Session

		if authHeader := r.Header.Get("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				respondError(w, http.StatusUnauthorized, "Invalid authorization header format")
				return
			}

			claims, err := auth.ValidateToken(parts[1])
			if err != nil {
				respondError(w, http.StatusUnauthorized, "Invalid token")
				return
			}
			sess.Token = parts[1]
			sess.UserID = claims.UserID
		}

		if cookie, err := r.Cookie(GuestCookieName); err == nil && cookie.Value != "" {
			sess.GuestID = cookie.Value
		} else {
			sess.GuestID = uuid.NewString()
			http.SetCookie(w, &http.Cookie{
				Name:     GuestCookieName,
				Value:    sess.GuestID,
				Path:     "/",
				MaxAge:   60 * 60 * 24 * 30,
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		ctx := context.WithValue(r.Context(), sessionKey, sess)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// SessionFromContext returns the session resolved by SessionMiddleware.
func SessionFromContext(ctx context.Context) domain.Session {
	sess, _ := ctx.Value(sessionKey).(domain.Session)
	return sess
}

func respondError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
