// internal/chatbot/pipeline/pipeline.go
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"vahan-chatbot/internal/chatbot/access"
	"vahan-chatbot/internal/chatbot/filters"
	"vahan-chatbot/internal/chatbot/intent"
	"vahan-chatbot/internal/chatbot/querybuilder"
	"vahan-chatbot/internal/chatbot/render"
	"vahan-chatbot/internal/common/logger"
	"vahan-chatbot/internal/models"
)

// Executor runs a query plan and returns its rows in order.
type Executor interface {
	Query(ctx context.Context, template string, params []interface{}) ([]models.Row, error)
}

// Result is everything one question produced. Text and Status are what the
// caller sees; the rest is kept for auditing.
type Result struct {
	Question string
	Text     string
	Status   models.StatusHint
	Intent   models.Intent
	Filters  models.Filters
	Scope    models.AccessScope
	Plan     models.QueryPlan
	Executed bool
	Success  bool
	Duration time.Duration
}

type Pipeline struct {
	builder  *querybuilder.Builder
	executor Executor
	log      logger.Logger
}

func New(builder *querybuilder.Builder, executor Executor, log logger.Logger) *Pipeline {
	return &Pipeline{
		builder:  builder,
		executor: executor,
		log:      log,
	}
}

// Sanitize trims the question and caps its length. ok is false when the
// message is empty.
func Sanitize(raw string) (question string, ok bool) {
	if raw == "" {
		return "", false
	}
	question = strings.TrimSpace(raw)
	if r := []rune(question); len(r) > MaxMessageLength {
		question = string(r[:MaxMessageLength])
	}
	return question, true
}

// Answer runs a question through classification, extraction, scoping, query
// building, execution and rendering. Every outcome except an executor failure
// comes back as a Result with a nil error. An executor error is returned as is,
// alongside a Result carrying the server error status.
func (p *Pipeline) Answer(ctx context.Context, raw string, caller models.Caller) (*Result, error) {
	start := time.Now()
	res := &Result{}
	defer func() { res.Duration = time.Since(start) }()

	question, ok := Sanitize(raw)
	if !ok {
		res.Text, res.Status = MsgInvalidMessage, models.StatusBadRequest
		return res, nil
	}
	res.Question = question
	if len([]rune(question)) < MinMessageLength {
		res.Text, res.Status = MsgTooShort, models.StatusBadRequest
		return res, nil
	}

	log := p.log.WithFields(map[string]interface{}{
		"userId": caller.UserID,
		"role":   caller.Role,
	})

	res.Intent = intent.Classify(question)
	res.Filters = filters.Extract(question)
	if !res.Intent.Recognized {
		log.Info("intent not recognized", map[string]interface{}{"question": question})
		res.Text, res.Status = HelpText, models.StatusOK
		res.Plan.Error = "Intent not recognized"
		return res, nil
	}

	res.Scope = access.Resolve(caller, res.Filters)

	log = log.WithFields(map[string]interface{}{"queryType": res.Intent.QueryType()})
	log.Debug("intent recognized", map[string]interface{}{
		"filters": res.Filters,
		"scope":   res.Scope,
	})

	if !res.Scope.Allowed {
		log.Warn("access denied", map[string]interface{}{
			"requestedState":    res.Filters.State,
			"requestedDistrict": res.Filters.District,
		})
		res.Plan = models.QueryPlan{Allowed: false, Error: querybuilder.MsgAccessDenied}
		res.Text, res.Status = AccessDeniedText(caller), models.StatusForbidden
		return res, nil
	}

	plan, err := p.builder.Build(res.Intent, res.Filters, res.Scope)
	res.Plan = plan
	if err != nil {
		log.WithError(err).Error("failed to build query", nil)
		if errors.Is(err, querybuilder.ErrAccessDenied) {
			res.Text, res.Status = AccessDeniedText(caller), models.StatusForbidden
			return res, nil
		}
		res.Text, res.Status = plan.Error, models.StatusServerError
		return res, nil
	}

	rows, err := p.executor.Query(ctx, plan.Template, plan.Params)
	res.Executed = true
	if err != nil {
		log.WithError(err).Error("query execution failed", nil)
		res.Text, res.Status = MsgServerError, models.StatusServerError
		return res, err
	}

	text, err := render.Render(res.Intent, res.Filters, rows)
	if err != nil {
		log.WithError(err).Error("failed to format response", nil)
		res.Text, res.Status = text, models.StatusServerError
		return res, nil
	}

	res.Text, res.Status, res.Success = text, models.StatusOK, true
	log.Info("query answered", map[string]interface{}{
		"rows":       len(rows),
		"durationMs": time.Since(start).Milliseconds(),
	})
	return res, nil
}
