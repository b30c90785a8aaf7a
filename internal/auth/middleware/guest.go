package auth

import (
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const guestCookie = "ic_guest_id"

// GuestLoginHandler issues a student token for an anonymous learner. The guest id
// is kept in a cookie so a returning browser keeps its history.
func GuestLoginHandler(a *AuthService, secure bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := ""
		if c, err := r.Cookie(guestCookie); err == nil && strings.HasPrefix(c.Value, "guest|") {
			id = c.Value
		}
		if id == "" {
			id = "guest|" + uuid.NewString()
		}
		http.SetCookie(w, &http.Cookie{
			Name:     guestCookie,
			Value:    id,
			Path:     "/",
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
			Expires:  time.Now().Add(30 * 24 * time.Hour),
		})
		a.writeToken(w, Principal{Subject: id, Role: "student"})
	}
}
