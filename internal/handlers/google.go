package handlers

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	iauth "github.com/akash12888/note-taking-app/internal/auth"
	"github.com/akash12888/note-taking-app/internal/services"
	"github.com/akash12888/note-taking-app/pkg/logger"
)

// GoogleHandler drives the federated sign-in redirect handshake. Outcomes
// are reported back to the frontend via redirect query parameters rather
// than JSON, since the browser lands here from the provider.
type GoogleHandler struct {
	google      *iauth.GoogleService
	auth        *services.AuthService
	cookies     CookieSettings
	frontendURL string
}

func NewGoogleHandler(google *iauth.GoogleService, auth *services.AuthService, cookies CookieSettings, frontendURL string) *GoogleHandler {
	return &GoogleHandler{
		google:      google,
		auth:        auth,
		cookies:     cookies,
		frontendURL: strings.TrimRight(frontendURL, "/"),
	}
}

// GET /api/auth/google
func (h *GoogleHandler) Start(c *gin.Context) {
	begin, err := h.google.Begin(requestContext(c))
	if err != nil {
		logger.WithModule("auth").Error("google auth begin failed", zap.Error(err))
		h.redirectWithError(c, "google_auth_failed")
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, begin.RedirectURL)
}

// GET /api/auth/google/callback
func (h *GoogleHandler) Callback(c *gin.Context) {
	if providerErr := c.Query("error"); providerErr != "" {
		logger.WithModule("auth").Warn("google auth rejected by provider", zap.String("error", providerErr))
		h.redirectWithError(c, "google_auth_failed")
		return
	}

	identity, err := h.google.Callback(requestContext(c), c.Query("state"), c.Query("code"))
	if err != nil {
		logger.WithModule("auth").Error("google auth callback failed", zap.Error(err))
		h.redirectWithError(c, "google_auth_failed")
		return
	}

	_, token, err := h.auth.ResolveFederated(requestContext(c), identity)
	if err != nil {
		logger.WithModule("auth").Error("google account resolution failed", zap.Error(err))
		h.redirectWithError(c, "google_auth_failed")
		return
	}

	h.cookies.write(c, token, h.auth.TokenTTL())
	c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/?auth=success")
}

// GET /api/auth/google/failure
func (h *GoogleHandler) Failure(c *gin.Context) {
	h.redirectWithError(c, "google_auth_failed")
}

func (h *GoogleHandler) redirectWithError(c *gin.Context, code string) {
	c.Redirect(http.StatusTemporaryRedirect, h.frontendURL+"/signin?error="+url.QueryEscape(code))
}
