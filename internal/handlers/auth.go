package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/akash12888/note-taking-app/internal/middleware"
	"github.com/akash12888/note-taking-app/internal/services"
	appErrors "github.com/akash12888/note-taking-app/pkg/errors"
	"github.com/akash12888/note-taking-app/pkg/response"
)

// AuthHandler exposes the passwordless signup and sign-in endpoints.
type AuthHandler struct {
	auth    *services.AuthService
	cookies CookieSettings
}

func NewAuthHandler(auth *services.AuthService, cookies CookieSettings) *AuthHandler {
	return &AuthHandler{auth: auth, cookies: cookies}
}

type signupRequest struct {
	Name        string `json:"name" validate:"required,min=2,max=50"`
	Email       string `json:"email" validate:"required,email"`
	DateOfBirth string `json:"dateOfBirth" validate:"required,beforetoday"`
}

type signinCodeRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type verifyRequest struct {
	Email string `json:"email" validate:"required,email"`
	OTP   string `json:"otp" validate:"required,numeric,len=6"`
}

// POST /api/auth/send-otp
func (h *AuthHandler) SendOTP(c *gin.Context) {
	var req signupRequest
	if !bindAndValidate(c, &req) {
		return
	}

	parsed, err := time.Parse("2006-01-02", req.DateOfBirth)
	if err != nil {
		response.Error(c, appErrors.NewValidationError("dateOfBirth must be a date in YYYY-MM-DD form"))
		return
	}
	input := services.SignupInput{Name: req.Name, Email: req.Email, DateOfBirth: &parsed}

	if err := h.auth.RequestSignupCode(requestContext(c), input); err != nil {
		response.Error(c, mapAuthError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "OTP sent to your email"})
}

// POST /api/auth/send-signin-otp
func (h *AuthHandler) SendSigninOTP(c *gin.Context) {
	var req signinCodeRequest
	if !bindAndValidate(c, &req) {
		return
	}

	if err := h.auth.RequestSigninCode(requestContext(c), req.Email); err != nil {
		response.Error(c, mapAuthError(err))
		return
	}

	response.Success(c, http.StatusOK, gin.H{"message": "OTP sent to your email"})
}

// POST /api/auth/verify-otp
func (h *AuthHandler) VerifyOTP(c *gin.Context) {
	var req verifyRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, token, err := h.auth.VerifySignup(requestContext(c), req.Email, req.OTP)
	if err != nil {
		response.Error(c, mapAuthError(err))
		return
	}

	h.cookies.write(c, token, h.auth.TokenTTL())
	response.Success(c, http.StatusOK, gin.H{"token": token, "user": user})
}

// POST /api/auth/signin
func (h *AuthHandler) SignIn(c *gin.Context) {
	var req verifyRequest
	if !bindAndValidate(c, &req) {
		return
	}

	user, token, err := h.auth.SignIn(requestContext(c), req.Email, req.OTP)
	if err != nil {
		response.Error(c, mapAuthError(err))
		return
	}

	h.cookies.write(c, token, h.auth.TokenTTL())
	response.Success(c, http.StatusOK, gin.H{"token": token, "user": user})
}

// GET /api/auth/me
func (h *AuthHandler) Me(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	response.Success(c, http.StatusOK, gin.H{"user": user})
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	h.cookies.clear(c)
	response.Success(c, http.StatusOK, gin.H{"message": "Logged out successfully"})
}

func mapAuthError(err error) error {
	switch {
	case errors.Is(err, services.ErrEmailExists):
		return appErrors.ErrEmailExists
	case errors.Is(err, services.ErrUserNotFound):
		return appErrors.ErrNotFound
	case errors.Is(err, services.ErrInvalidCode):
		return appErrors.ErrInvalidOTP
	case errors.Is(err, services.ErrSignInDenied):
		return appErrors.ErrUnauthorized
	default:
		return err
	}
}
