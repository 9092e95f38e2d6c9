package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// CookieSettings describes how the session cookie is written. Production
// deployments serve the frontend from a different origin, so the cookie must
// be Secure with SameSite=None there; local development uses Lax over HTTP.
type CookieSettings struct {
	Name       string
	Domain     string
	Production bool
}

func (s CookieSettings) sameSite() http.SameSite {
	if s.Production {
		return http.SameSiteNoneMode
	}
	return http.SameSiteLaxMode
}

func (s CookieSettings) write(c *gin.Context, token string, maxAge time.Duration) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     s.Name,
		Value:    token,
		Path:     "/",
		Domain:   s.Domain,
		MaxAge:   int(maxAge.Seconds()),
		Secure:   s.Production,
		HttpOnly: true,
		SameSite: s.sameSite(),
	})
}

func (s CookieSettings) clear(c *gin.Context) {
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     s.Name,
		Value:    "",
		Path:     "/",
		Domain:   s.Domain,
		MaxAge:   -1,
		Secure:   s.Production,
		HttpOnly: true,
		SameSite: s.sameSite(),
	})
}
