// internal/api/server.go
package api

import (
	"context"
	"net/http"

	"vahan-chatbot/internal/chatbot/audit"
	"vahan-chatbot/internal/chatbot/pipeline"
	"vahan-chatbot/internal/chatbot/session"
	"vahan-chatbot/internal/common/logger"
	"vahan-chatbot/internal/common/observability"
	"vahan-chatbot/internal/models"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Authenticator interface {
	Login(ctx context.Context, username, password string) (*session.LoginResult, error)
	Logout(ctx context.Context, claims *session.Claims) error
	Authenticate(ctx context.Context, token string) (*session.Claims, error)
}

type Answerer interface {
	Answer(ctx context.Context, raw string, caller models.Caller) (*pipeline.Result, error)
}

type AuditLog interface {
	Record(ctx context.Context, e audit.Entry) error
	Analytics(ctx context.Context, days int) ([]audit.DailyStats, error)
}

type DenialNotifier interface {
	AccessDenied(ctx context.Context, caller models.Caller, question string)
}

type HealthChecker interface {
	PingContext(ctx context.Context) error
}

type Config struct {
	ServiceName        string
	Version            string
	Production         bool
	CORSOrigins        []string
	RateLimitPerMinute int
	AnalyticsDays      int
}

// Deps are the collaborators behind the routes. Alerts, DB, Limiter and
// Observability may be nil.
type Deps struct {
	Sessions      Authenticator
	Pipeline      Answerer
	Audit         AuditLog
	Alerts        DenialNotifier
	DB            HealthChecker
	Limiter       Limiter
	Observability *observability.Observability
}

type Server struct {
	config Config
	deps   Deps
	logger logger.Logger
}

func NewServer(config Config, deps Deps, log logger.Logger) *Server {
	if config.AnalyticsDays <= 0 {
		config.AnalyticsDays = 7
	}
	return &Server{
		config: config,
		deps:   deps,
		logger: log.WithFields(map[string]interface{}{"component": "api"}),
	}
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(s.recoverer)
	r.Use(CORSMiddleware(s.config.CORSOrigins))
	r.Use(s.requestLogger)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Endpoint not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "Endpoint not found")
	})

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/", s.handleIndex)
		r.Get("/health", s.handleHealth)

		r.Post("/auth/login", s.handleLogin)
		r.With(s.authenticate).Post("/auth/logout", s.handleLogout)

		r.Group(func(r chi.Router) {
			r.Use(s.authenticate)
			r.With(s.rateLimit).Post("/chat", s.handleChat)
			r.Get("/chat/analytics", s.handleAnalytics)
		})
	})
	return r
}
