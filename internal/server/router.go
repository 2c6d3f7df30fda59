package server

import (
	"net/http"

	"github.com/ezBadminton/gobeachtennis/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"
)

type Server struct {
	progression *service.Progression
	validate    *validator.Validate
	log         logrus.FieldLogger
}

func New(progression *service.Progression, logger logrus.FieldLogger) *Server {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Server{
		progression: progression,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		log:         logger,
	}
}

// Creates the HTTP handler with all routes and middleware
func (s *Server) Routes(allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogging(s.log))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))

	r.Route("/tournaments/{id}", func(r chi.Router) {
		r.Post("/groups", s.createGroupStage)
		r.Get("/groups/rankings", s.groupRankings)

		r.Post("/elimination", s.startElimination)
		r.Get("/elimination", s.getBracket)
		r.Delete("/elimination", s.resetElimination)
	})

	r.Post("/matches/{id}/result", s.recordResult)

	return r
}
