package answervehiclequery

import (
	"context"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"vahan-chatbot/internal/chatbot/audit"
	"vahan-chatbot/internal/chatbot/executor"
	"vahan-chatbot/internal/chatbot/pipeline"
	"vahan-chatbot/internal/chatbot/querybuilder"
	"vahan-chatbot/internal/common/config"
	"vahan-chatbot/internal/common/errors"
	"vahan-chatbot/internal/common/logger"
	"vahan-chatbot/internal/models"
)

// ==========================
// Test Helpers
// ==========================

func createTestConfig() *Config {
	return &Config{
		Timeout: 5 * time.Second,
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

type MockAnswerer struct {
	mock.Mock
}

func (m *MockAnswerer) Answer(ctx context.Context, raw string, caller models.Caller) (*pipeline.Result, error) {
	args := m.Called(ctx, raw, caller)
	return args.Get(0).(*pipeline.Result), args.Error(1)
}

type MockAudit struct {
	mock.Mock
}

func (m *MockAudit) Record(ctx context.Context, e audit.Entry) error {
	return m.Called(ctx, e).Error(0)
}

func clerkInput(question string) *Input {
	return &Input{
		Question: question,
		UserID:   3,
		Caller: CallerInput{
			Username: "rto_lko", Role: models.RoleRTOClerk,
			State: "Uttar Pradesh", District: "Lucknow", RTOOffice: "UP32",
		},
	}
}

func requireStdErr(t *testing.T, err error, code errors.ErrorCode) *errors.StandardError {
	t.Helper()
	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr), "expected StandardError, got %v", err)
	assert.Equal(t, code, stdErr.Code)
	return stdErr
}

// ==========================
// Input Parsing
// ==========================

func TestParseInput(t *testing.T) {
	tests := []struct {
		name  string
		vars  string
		valid bool
	}{
		{"valid", `{"question":"total challans","userId":3,"caller":{"role":"rto_clerk","state":"Uttar Pradesh","rtoOffice":"UP32"}}`, true},
		{"admin without region", `{"question":"total challans","caller":{"role":"admin"}}`, true},
		{"missing caller", `{"question":"total challans"}`, false},
		{"unknown role", `{"question":"total challans","caller":{"role":"superuser"}}`, false},
		{"empty question", `{"question":"","caller":{"role":"admin"}}`, false},
		{"question not a string", `{"question":7,"caller":{"role":"admin"}}`, false},
		{"not json", `question=total`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input, err := parseInput(tt.vars)
			if tt.valid {
				require.NoError(t, err)
				assert.Equal(t, "total challans", input.Question)
				return
			}
			requireStdErr(t, err, errors.ErrCodeInvalidMessage)
		})
	}
}

func TestInput_Caller(t *testing.T) {
	c := clerkInput("x").caller()
	assert.Equal(t, models.Caller{UserID: 3, Username: "rto_lko", Role: models.RoleRTOClerk,
		State: "Uttar Pradesh", District: "Lucknow", RTOOffice: "UP32"}, c)
}

// ==========================
// Execute
// ==========================

func TestHandler_Execute_Success(t *testing.T) {
	answerer, auditLog := new(MockAnswerer), new(MockAudit)
	input := clerkInput("total challans in lucknow")
	answerer.On("Answer", mock.Anything, input.Question, input.caller()).Return(&pipeline.Result{
		Question: input.Question,
		Text:     "🚔 Total challan collection: ₹1,200",
		Status:   models.StatusOK,
		Intent:   models.Intent{Recognized: true, Category: models.CategoryChallan, Action: models.ActionTotal},
		Executed: true,
		Success:  true,
	}, nil)
	auditLog.On("Record", mock.Anything, mock.MatchedBy(func(e audit.Entry) bool {
		return e.UserID == 3 && e.Success
	})).Return(nil)

	h := NewHandler(createTestConfig(), answerer, auditLog, nil, createTestLogger(t))
	out, err := h.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, &Output{
		Reply:      "🚔 Total challan collection: ₹1,200",
		Status:     "ok",
		Category:   "challan",
		Action:     "total",
		Recognized: true,
	}, out)
	answerer.AssertExpectations(t)
	auditLog.AssertExpectations(t)
}

func TestHandler_Execute_ForbiddenCompletes(t *testing.T) {
	answerer, auditLog := new(MockAnswerer), new(MockAudit)
	input := clerkInput("registrations in Pune")
	answerer.On("Answer", mock.Anything, mock.Anything, mock.Anything).Return(&pipeline.Result{
		Question: input.Question,
		Text:     pipeline.AccessDeniedText(input.caller()),
		Status:   models.StatusForbidden,
		Intent:   models.Intent{Recognized: true, Category: models.CategoryRegistration, Action: models.ActionCount},
	}, nil)
	auditLog.On("Record", mock.Anything, mock.Anything).Return(stderrors.New("insert failed"))

	h := NewHandler(createTestConfig(), answerer, auditLog, nil, createTestLogger(t))
	out, err := h.Execute(context.Background(), input)

	require.NoError(t, err)
	assert.Equal(t, "forbidden", out.Status)
	assert.True(t, strings.HasPrefix(out.Reply, "🔒 Access denied."))
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name    string
		result  *pipeline.Result
		err     error
		code    errors.ErrorCode
		retries int
		audited bool
	}{
		{
			name:    "query timeout",
			result:  &pipeline.Result{Status: models.StatusServerError, Executed: true, Intent: models.Intent{Recognized: true, Category: models.CategoryAccident, Action: models.ActionCount}},
			err:     fmt.Errorf("%w: canceling statement", executor.ErrQueryTimeout),
			code:    errors.ErrCodeQueryTimeout,
			retries: 2,
			audited: true,
		},
		{
			name:    "execution failure",
			result:  &pipeline.Result{Status: models.StatusServerError, Executed: true},
			err:     fmt.Errorf("%w: relation does not exist", executor.ErrQueryExecutionFailed),
			code:    errors.ErrCodeQueryExecutionFailed,
			retries: 3,
			audited: true,
		},
		{
			name:   "too short",
			result: &pipeline.Result{Text: pipeline.MsgTooShort, Status: models.StatusBadRequest},
			code:   errors.ErrCodeInvalidMessage,
		},
		{
			name:    "build failure",
			result:  &pipeline.Result{Status: models.StatusServerError, Plan: models.QueryPlan{Error: "Violation not specified"}},
			code:    errors.ErrCodeQueryBuildFailed,
			audited: true,
		},
		{
			name:    "format failure",
			result:  &pipeline.Result{Status: models.StatusServerError, Executed: true, Text: "Error formatting response"},
			code:    errors.ErrCodeResponseFormatFailed,
			audited: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			answerer, auditLog := new(MockAnswerer), new(MockAudit)
			answerer.On("Answer", mock.Anything, mock.Anything, mock.Anything).Return(tt.result, tt.err)
			auditLog.On("Record", mock.Anything, mock.Anything).Return(nil)

			h := NewHandler(createTestConfig(), answerer, auditLog, nil, createTestLogger(t))
			out, err := h.Execute(context.Background(), clerkInput("total accidents"))

			assert.Nil(t, out)
			stdErr := requireStdErr(t, err, tt.code)
			assert.Equal(t, tt.retries, errors.ConvertToBPMNError(stdErr).Retries)
			if tt.audited {
				auditLog.AssertNumberOfCalls(t, "Record", 1)
			} else {
				auditLog.AssertNotCalled(t, "Record", mock.Anything, mock.Anything)
			}
		})
	}
}

// ==========================
// Through the real pipeline
// ==========================

func TestHandler_Execute_WithPostgresExecutor(t *testing.T) {
	db, sqlMock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	sqlMock.ExpectQuery(`SELECT`).
		WithArgs("uttar pradesh", 2023, 3, "car").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(15234)))

	log := createTestLogger(t)
	p := pipeline.New(querybuilder.NewBuilder(), executor.NewPostgres(db, time.Second, log), log)
	h := NewHandler(createTestConfig(), p, nil, nil, log)

	out, err := h.Execute(context.Background(), &Input{
		Question: "How many cars registered in UP in March 2023?",
		Caller:   CallerInput{Role: models.RoleAdmin},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", out.Status)
	assert.Equal(t, "registration", out.Category)
	assert.True(t, strings.HasPrefix(out.Reply, "📊 Total 15,234 Cars registered in Uttar Pradesh in March 2023."))
	assert.NoError(t, sqlMock.ExpectationsWereMet())
}

func TestLoadConfig(t *testing.T) {
	assert.Equal(t, 12*time.Second, LoadConfig(config.WorkerConfig{Timeout: 12000}).Timeout)
	assert.Equal(t, 30*time.Second, LoadConfig(config.WorkerConfig{}).Timeout)
}
