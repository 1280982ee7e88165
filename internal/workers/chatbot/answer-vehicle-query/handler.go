package answervehiclequery

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"vahan-chatbot/internal/chatbot/audit"
	"vahan-chatbot/internal/chatbot/executor"
	"vahan-chatbot/internal/chatbot/pipeline"
	"vahan-chatbot/internal/common/errors"
	"vahan-chatbot/internal/common/logger"
	"vahan-chatbot/internal/common/metrics"
	"vahan-chatbot/internal/common/observability"
	"vahan-chatbot/internal/common/validation"
	"vahan-chatbot/internal/models"
)

const (
	TaskType = "answer-vehicle-query"
)

type Answerer interface {
	Answer(ctx context.Context, raw string, caller models.Caller) (*pipeline.Result, error)
}

type AuditLog interface {
	Record(ctx context.Context, e audit.Entry) error
}

type Handler struct {
	config       *Config
	pipeline     Answerer
	audit        AuditLog
	obs          *observability.Observability
	errorHandler *errors.ErrorHandler
	logger       logger.Logger
}

func NewHandler(config *Config, p Answerer, auditLog AuditLog, obs *observability.Observability, log logger.Logger) *Handler {
	l := log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:       config,
		pipeline:     p,
		audit:        auditLog,
		obs:          obs,
		errorHandler: errors.NewErrorHandler(l),
		logger:       l,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.run(ctx, job.Variables)
	if err != nil {
		bpmnErr := h.errorHandler.HandleJobError(context.Background(), client, job, err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, bpmnErr.Code).Inc()
		h.obs.RecordJobProcessed(ctx, TaskType, "failed")
		return
	}

	h.completeJob(client, job, output)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())
	h.obs.RecordJobProcessed(ctx, TaskType, "completed")
	h.obs.RecordJobDuration(ctx, TaskType, time.Since(start))
}

func (h *Handler) run(ctx context.Context, variables string) (*Output, error) {
	input, err := parseInput(variables)
	if err != nil {
		return nil, err
	}
	return h.execute(ctx, input)
}

// parseInput validates the job variables against the AnswerJob schema.
func parseInput(variables string) (*Input, error) {
	result := validation.AnswerJob.ValidateJSON([]byte(variables))
	if !result.Valid {
		return nil, errors.NewInvalidMessageError(strings.Join(result.GetErrorMessages(), "; "))
	}
	var input Input
	if err := json.Unmarshal([]byte(variables), &input); err != nil {
		return nil, errors.NewInvalidMessageError(err.Error())
	}
	return &input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	caller := input.caller()

	ctx, span := h.obs.StartSpan(ctx, "worker."+TaskType)
	defer span.End()

	res, err := h.pipeline.Answer(ctx, input.Question, caller)
	queryType := "unrecognized"
	if res.Intent.Recognized {
		queryType = res.Intent.QueryType()
	}
	h.obs.RecordQuery(ctx, "worker", queryType, string(res.Status), res.Duration)

	if res.Status != models.StatusBadRequest && h.audit != nil {
		if auditErr := h.audit.Record(ctx, audit.NewEntry(caller, res)); auditErr != nil {
			h.logger.Warn("failed to record audit entry", map[string]interface{}{"error": auditErr.Error()})
		}
	}

	switch {
	case err != nil:
		span.RecordError(err)
		if stderrors.Is(err, executor.ErrQueryTimeout) {
			return nil, errors.NewQueryTimeoutError(queryType)
		}
		return nil, errors.NewQueryExecutionFailedError(queryType, err)
	case res.Status == models.StatusBadRequest:
		return nil, errors.NewInvalidMessageError(res.Text)
	case res.Status == models.StatusServerError && res.Executed:
		return nil, errors.NewResponseFormatFailedError(stderrors.New(res.Text))
	case res.Status == models.StatusServerError:
		return nil, errors.NewQueryBuildFailedError(stderrors.New(res.Plan.Error))
	}

	if res.Status == models.StatusForbidden {
		metrics.ChatAccessDenied.WithLabelValues(string(caller.Role)).Inc()
	}
	metrics.ChatQueriesTotal.WithLabelValues(queryType, string(res.Status)).Inc()

	return &Output{
		Reply:      res.Text,
		Status:     string(res.Status),
		Category:   string(res.Intent.Category),
		Action:     string(res.Intent.Action),
		Recognized: res.Intent.Recognized,
	}, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err := cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
