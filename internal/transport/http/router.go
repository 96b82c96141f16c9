package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/notespace-api/internal/application/auth"
	"github.com/notespace-api/internal/config"
	"github.com/notespace-api/internal/transport/http/handler"
	appmiddleware "github.com/notespace-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	authMw := appmiddleware.Auth(deps.JWTProvider)

	// 5 send-code requests per client per 15 minutes: one token refills
	// every 3 minutes, burst of 5.
	sendCodeRL := appmiddleware.NewRateLimiter(rate.Every(3*time.Minute), 5)

	authSvc := auth.NewService(deps.OTP, deps.Refresh, deps.Users, deps.Mailer, deps.JWTProvider, !cfg.IsProduction())

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)

	r.Get("/health-check", healthH.Ping)

	r.Route("/auth", func(r chi.Router) {
		r.With(sendCodeRL.Limit).Post("/send-code", authH.SendCode)
		r.Post("/verify-code", authH.VerifyCode)
		r.Get("/verify-magic-link", authH.VerifyMagicLink)
		r.Post("/refresh", authH.Refresh)
		r.Post("/logout", authH.Logout)

		r.Group(func(r chi.Router) {
			r.Use(authMw)
			r.Get("/me", authH.Me)
		})
	})

	return r
}
