package server

import (
	"net/http"
	"time"
)

// SetPassCookie stores a signed pass. The cookie is never readable by page
// scripts; pages learn about their pass through the verify endpoint.
func (s *Server) SetPassCookie(w http.ResponseWriter, token string, lifetime time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     s.config.GetPassCookieName(),
		Value:    token,
		Path:     "/",
		HttpOnly: true,
		Secure:   true,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(lifetime / time.Second),
	})
}

// passFromRequest returns the raw pass token, or "" when there is none.
func (s *Server) passFromRequest(r *http.Request) string {
	cookie, err := r.Cookie(s.config.GetPassCookieName())
	if err != nil {
		return ""
	}
	return cookie.Value
}
