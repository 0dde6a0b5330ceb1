package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"go.uber.org/zap"

	"github.com/atikhonov/helpdesk/internal/middleware"
	"github.com/atikhonov/helpdesk/internal/models"
)

// NewRouter constructs the HTTP handler serving the help-desk API.
//
// Routes:
//
//	POST  /api/auth/register        → AuthHandler.Register
//	POST  /api/auth/login           → AuthHandler.Login
//	POST  /api/auth/logout          → AuthHandler.Logout
//	POST  /api/auth/recover         → AuthHandler.Recover
//	POST  /api/auth/reset           → AuthHandler.Reset
//	GET   /api/tickets              → TicketHandler.List (scope from session)
//	POST  /api/tickets              → TicketHandler.Create (auth optional)
//	GET   /api/tickets/feed         → FeedHub.Handle (websocket)
//	PATCH /api/tickets/{id}/status  → TicketHandler.UpdateStatus (admin)
//	DELETE /api/tickets/{id}        → TicketHandler.Delete (admin)
//
// Auth routes are rate limited per IP; everything passes through request
// logging and the token-parsing middleware.
func NewRouter(
	authHandler *AuthHandler,
	ticketHandler *TicketHandler,
	feed *FeedHub,
	jwtSecret string,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(middleware.WithAuth(jwtSecret))

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			// Credential endpoints are the brute-force surface.
			r.Use(httprate.LimitByIP(20, time.Minute))
			r.Post("/register", authHandler.Register)
			r.Post("/login", authHandler.Login)
			r.Post("/logout", authHandler.Logout)
			r.Post("/recover", authHandler.Recover)
			r.Post("/reset", authHandler.Reset)
		})

		r.Route("/tickets", func(r chi.Router) {
			// Public: anonymous list is an empty collection, anonymous
			// submission is allowed.
			r.Get("/", ticketHandler.List)
			r.Post("/", ticketHandler.Create)
			r.Get("/feed", feed.Handle)

			// Protected group: status transitions and deletes are
			// admin-only.
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAuth)
				r.Use(middleware.RequireRoles(models.RoleAdmin))
				r.Patch("/{id}/status", ticketHandler.UpdateStatus)
				r.Delete("/{id}", ticketHandler.Delete)
			})
		})
	})

	return r
}
