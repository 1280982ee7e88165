// internal/api/handlers.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"vahan-chatbot/internal/chatbot/audit"
	"vahan-chatbot/internal/chatbot/pipeline"
	"vahan-chatbot/internal/chatbot/session"
	"vahan-chatbot/internal/common/logger"
	"vahan-chatbot/internal/common/metrics"
	"vahan-chatbot/internal/common/validation"
	"vahan-chatbot/internal/models"

	"go.opentelemetry.io/otel/attribute"
)

const (
	maxBodyBytes = 64 << 10
	alertTimeout = 10 * time.Second
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginUser struct {
	Username  string      `json:"username"`
	Role      models.Role `json:"role"`
	State     string      `json:"state"`
	District  string      `json:"district"`
	RTOOffice string      `json:"rto_office"`
}

type loginResponse struct {
	Token string    `json:"token"`
	User  loginUser `json:"user"`
}

type chatRequest struct {
	Message string `json:"message"`
}

type chatResponse struct {
	Reply string `json:"reply"`
}

func readBody(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	return io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": s.config.ServiceName,
		"version": s.config.Version,
		"endpoints": map[string]string{
			"health": "/api/health",
			"login":  "/api/auth/login",
			"chat":   "/api/chat",
		},
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	database := "not configured"
	if s.deps.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.deps.DB.PingContext(ctx); err != nil {
			database = "unavailable"
		} else {
			database = "connected"
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		"service":   s.config.ServiceName,
		"database":  database,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context(), s.logger)

	body, err := readBody(w, r)
	if err != nil || !validation.LoginRequest.ValidateJSON(body).Valid {
		writeError(w, http.StatusBadRequest, "Username and password required")
		return
	}
	var req loginRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Username and password required")
		return
	}

	res, err := s.deps.Sessions.Login(r.Context(), req.Username, req.Password)
	var locked *session.LockedError
	switch {
	case err == nil:
	case errors.Is(err, session.ErrCredentialsRequired):
		writeError(w, http.StatusBadRequest, "Username and password required")
		return
	case errors.Is(err, session.ErrInvalidUsername):
		writeError(w, http.StatusBadRequest, "Invalid username format")
		return
	case errors.Is(err, session.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	case errors.As(err, &locked):
		writeError(w, http.StatusForbidden, locked.Error())
		return
	default:
		log.WithError(err).Error("login failed", nil)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	writeJSON(w, http.StatusOK, loginResponse{
		Token: res.Token,
		User: loginUser{
			Username:  res.User.Username,
			Role:      res.User.Role,
			State:     res.User.State,
			District:  res.User.District,
			RTOOffice: res.User.RTOOffice,
		},
	})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.deps.Sessions.Logout(r.Context(), claimsFrom(r.Context())); err != nil {
		logger.FromContext(r.Context(), s.logger).WithError(err).Error("logout failed", nil)
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx, s.logger)
	caller := claimsFrom(ctx).Caller()

	body, err := readBody(w, r)
	if err != nil || !validation.ChatRequest.ValidateJSON(body).Valid {
		writeJSON(w, http.StatusBadRequest, chatResponse{Reply: pipeline.MsgInvalidMessage})
		return
	}
	var req chatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, chatResponse{Reply: pipeline.MsgInvalidMessage})
		return
	}

	ctx, span := s.deps.Observability.StartSpan(ctx, "chat.answer",
		attribute.String("role", string(caller.Role)))
	defer span.End()

	res, err := s.deps.Pipeline.Answer(ctx, req.Message, caller)
	reply := res.Text
	if err != nil {
		span.RecordError(err)
		if !s.config.Production {
			reply = "Error: " + err.Error()
		}
	}

	queryType := "unrecognized"
	if res.Intent.Recognized {
		queryType = res.Intent.QueryType()
	}
	metrics.ChatQueriesTotal.WithLabelValues(queryType, string(res.Status)).Inc()
	s.deps.Observability.RecordQuery(ctx, "api", queryType, string(res.Status), res.Duration)

	if res.Status == models.StatusForbidden {
		metrics.ChatAccessDenied.WithLabelValues(string(caller.Role)).Inc()
		s.notifyDenied(ctx, caller, res.Question)
	}

	if res.Status != models.StatusBadRequest {
		entry := audit.NewEntry(caller, res)
		if err != nil {
			entry.ResponseText = reply
		}
		if err := s.deps.Audit.Record(context.WithoutCancel(ctx), entry); err != nil {
			log.Warn("failed to record audit entry", map[string]interface{}{"error": err.Error()})
		}
	}

	writeJSON(w, statusCode(res.Status), chatResponse{Reply: reply})
}

// notifyDenied sends the alert off the request path.
func (s *Server) notifyDenied(ctx context.Context, caller models.Caller, question string) {
	if s.deps.Alerts == nil {
		return
	}
	ctx = context.WithoutCancel(ctx)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, alertTimeout)
		defer cancel()
		s.deps.Alerts.AccessDenied(ctx, caller, question)
	}()
}

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r.Context())
	if claims.Role != models.RoleAdmin {
		writeError(w, http.StatusForbidden, "Admin access required")
		return
	}

	stats, err := s.deps.Audit.Analytics(r.Context(), s.config.AnalyticsDays)
	if err != nil {
		logger.FromContext(r.Context(), s.logger).WithError(err).Error("analytics query failed", nil)
		writeError(w, http.StatusInternalServerError, "Failed to fetch analytics")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"analytics": stats})
}

func statusCode(hint models.StatusHint) int {
	switch hint {
	case models.StatusOK:
		return http.StatusOK
	case models.StatusBadRequest:
		return http.StatusBadRequest
	case models.StatusForbidden:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
