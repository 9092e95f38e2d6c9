package api

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"gorm.io/gorm"

	"github.com/akash12888/note-taking-app/internal/app"
	iauth "github.com/akash12888/note-taking-app/internal/auth"
	"github.com/akash12888/note-taking-app/internal/handlers"
	"github.com/akash12888/note-taking-app/internal/middleware"
	"github.com/akash12888/note-taking-app/internal/services"
	"github.com/akash12888/note-taking-app/pkg/mail"
)

// Deps carries the constructed collaborators the router wires together.
type Deps struct {
	DB     *gorm.DB
	JWT    *iauth.JWTService
	Mailer mail.Mailer
	Google *iauth.GoogleService
}

// NewRouter builds the Gin engine, wires middleware and registers all routes.
func NewRouter(cfg *app.Config, deps Deps) (*gin.Engine, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must be provided")
	}
	if deps.DB == nil {
		return nil, fmt.Errorf("database handle must be provided")
	}
	if deps.JWT == nil {
		return nil, fmt.Errorf("jwt service must be provided")
	}

	authSvc, err := services.NewAuthService(deps.DB, deps.JWT, deps.Mailer,
		services.WithCodeLength(cfg.Auth.CodeLength()),
		services.WithCodeExpiry(cfg.Auth.OTP.TTL),
	)
	if err != nil {
		return nil, err
	}

	noteSvc, err := services.NewNoteService(deps.DB)
	if err != nil {
		return nil, err
	}

	cookies := handlers.CookieSettings{
		Name:       cfg.Auth.Cookie.Name,
		Domain:     cfg.Auth.Cookie.Domain,
		Production: strings.EqualFold(cfg.Server.Environment, "production"),
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Frontend.URL))
	r.Use(middleware.RateLimit(cfg.Server.RateLimit.MaxRequests, cfg.Server.RateLimit.Window))

	// Public endpoints
	r.GET("/health", handlers.Health(deps.DB))
	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := cfg.Monitoring.Prometheus.Endpoint
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	authHandler := handlers.NewAuthHandler(authSvc, cookies)

	// Public auth routes
	auth := r.Group("/api/auth")
	{
		auth.POST("/send-otp", authHandler.SendOTP)
		auth.POST("/send-signin-otp", authHandler.SendSigninOTP)
		auth.POST("/verify-otp", authHandler.VerifyOTP)
		auth.POST("/signin", authHandler.SignIn)
	}

	if deps.Google != nil {
		googleHandler := handlers.NewGoogleHandler(deps.Google, authSvc, cookies, cfg.Frontend.URL)
		auth.GET("/google", googleHandler.Start)
		auth.GET("/google/callback", googleHandler.Callback)
		auth.GET("/google/failure", googleHandler.Failure)
	}

	// Protected routes
	requireAuth := middleware.Auth(deps.JWT, authSvc, cfg.Auth.Cookie.Name)

	api := r.Group("/api")
	api.Use(requireAuth)

	api.GET("/auth/me", authHandler.Me)
	api.POST("/auth/logout", authHandler.Logout)

	notesHandler := handlers.NewNotesHandler(noteSvc)
	notes := api.Group("/notes")
	{
		notes.GET("", notesHandler.List)
		notes.POST("", notesHandler.Create)
		notes.GET("/:id", notesHandler.Get)
		notes.PUT("/:id", notesHandler.Update)
		notes.DELETE("/:id", notesHandler.Delete)
	}

	r.NoRoute(middleware.NotFoundHandler)

	return r, nil
}
