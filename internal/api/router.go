package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/savegress/staysync/internal/config"
	"github.com/savegress/staysync/internal/report"
)

// Server represents the API server
type Server struct {
	config   *config.Config
	router   chi.Router
	handlers *Handlers
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, svc *report.Service) *Server {
	s := &Server{
		config:   cfg,
		router:   chi.NewRouter(),
		handlers: NewHandlers(svc),
	}

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Compress(5))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handlers.HealthCheck)

	s.router.Route("/api/v1/reports", func(r chi.Router) {
		// Auth is opt-in: report endpoints are open when no secret is set
		if s.config.Server.JWTSecret != "" {
			r.Use(AuthMiddleware(s.config.Server.JWTSecret))
		}

		r.Post("/by-date", s.handlers.ReportByDate)
		r.Post("/by-stays", s.handlers.ReportByStays)
		r.Get("/", s.handlers.ListReports)
		r.Get("/{id}", s.handlers.GetReport)
	})
}

// Router returns the chi router
func (s *Server) Router() http.Handler {
	return s.router
}
