package audit

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"regexp"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vahan-chatbot/internal/chatbot/pipeline"
	"vahan-chatbot/internal/common/logger"
	"vahan-chatbot/internal/models"
)

// ==========================
// Test Helper Functions
// ==========================

type indexCapture struct {
	mu     sync.Mutex
	paths  []string
	bodies []map[string]interface{}
}

func newFakeElasticsearch(t *testing.T, status int) (*elasticsearch.Client, *indexCapture) {
	capture := &indexCapture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var doc map[string]interface{}
		_ = json.Unmarshal(body, &doc)

		capture.mu.Lock()
		capture.paths = append(capture.paths, r.Method+" "+r.URL.Path)
		capture.bodies = append(capture.bodies, doc)
		capture.mu.Unlock()

		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"result":"created"}`))
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return es, capture
}

func createTestRecorder(t *testing.T, es *elasticsearch.Client) (*Recorder, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewRecorder(db, es, "chatbot-logs", logger.NewTestLogger(t)), mock
}

func createEntry() Entry {
	return Entry{
		ID:             "3f1c9a52-8d1e-4c57-9a0b-0c8f1f0f5e11",
		UserID:         42,
		Username:       "mh_officer",
		Role:           models.RoleStateOfficer,
		QueryText:      "total accidents in maharashtra in 2024",
		QueryType:      "accident/count",
		ExecutedSQL:    "SELECT COUNT(*) as count FROM accident_records ar",
		ResponseText:   "🚨 Total 3,120 accidents recorded in Maharashtra in 2024.",
		Status:         "ok",
		Success:        true,
		ResponseTimeMs: 37,
		Timestamp:      time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

// ==========================
// Record
// ==========================

func TestRecorder_Record_Success(t *testing.T) {
	es, capture := newFakeElasticsearch(t, http.StatusCreated)
	rec, mock := createTestRecorder(t, es)
	e := createEntry()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO chatbot_logs")).
		WithArgs(int64(42), e.QueryText, e.ExecutedSQL, e.ResponseText, true, int64(37)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := rec.Record(context.Background(), e)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())

	require.Len(t, capture.paths, 1)
	assert.Equal(t, "PUT /chatbot-logs/_doc/"+e.ID, capture.paths[0])
	assert.Equal(t, "accident/count", capture.bodies[0]["queryType"])
	assert.Equal(t, true, capture.bodies[0]["success"])
}

func TestRecorder_Record_NullSQLWhenNotExecuted(t *testing.T) {
	rec, mock := createTestRecorder(t, nil)
	e := createEntry()
	e.ExecutedSQL = ""
	e.Success = false

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO chatbot_logs")).
		WithArgs(int64(42), e.QueryText, nil, e.ResponseText, false, int64(37)).
		WillReturnResult(sqlmock.NewResult(1, 1))

	require.NoError(t, rec.Record(context.Background(), e))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecorder_Record_InsertFailure(t *testing.T) {
	es, capture := newFakeElasticsearch(t, http.StatusCreated)
	rec, mock := createTestRecorder(t, es)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO chatbot_logs")).
		WillReturnError(errors.New("disk full"))

	err := rec.Record(context.Background(), createEntry())
	assert.ErrorIs(t, err, ErrDatabaseInsertFailed)
	assert.Empty(t, capture.paths)
}

func TestRecorder_Record_IndexFailureIgnored(t *testing.T) {
	es, capture := newFakeElasticsearch(t, http.StatusServiceUnavailable)
	rec, mock := createTestRecorder(t, es)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO chatbot_logs")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := rec.Record(context.Background(), createEntry())
	assert.NoError(t, err)
	assert.NotEmpty(t, capture.paths)
}

// ==========================
// NewEntry
// ==========================

func TestNewEntry(t *testing.T) {
	caller := models.Caller{UserID: 9, Username: "pune_do", Role: models.RoleDistrictOfficer}

	t.Run("executed query keeps sql and reply", func(t *testing.T) {
		res := &pipeline.Result{
			Question: "how many vehicles sold this year",
			Text:     "💰 Total 10 vehicles sold this year.",
			Status:   models.StatusOK,
			Intent:   models.Intent{Recognized: true, Category: models.CategorySales, Action: models.ActionCount},
			Plan:     models.QueryPlan{Allowed: true, Template: "SELECT 1"},
			Executed: true,
			Success:  true,
			Duration: 12 * time.Millisecond,
		}
		e := NewEntry(caller, res)
		assert.Equal(t, "SELECT 1", e.ExecutedSQL)
		assert.Equal(t, res.Text, e.ResponseText)
		assert.Equal(t, "sales/count", e.QueryType)
		assert.Equal(t, int64(12), e.ResponseTimeMs)
		assert.NotEmpty(t, e.ID)
	})

	t.Run("rejected query stores reason", func(t *testing.T) {
		res := &pipeline.Result{
			Question: "registrations in lucknow",
			Text:     "🔒 Access denied.",
			Status:   models.StatusForbidden,
			Intent:   models.Intent{Recognized: true, Category: models.CategoryRegistration, Action: models.ActionCount},
			Plan:     models.QueryPlan{Error: "Access denied to requested data"},
		}
		e := NewEntry(caller, res)
		assert.Empty(t, e.ExecutedSQL)
		assert.Equal(t, "Access denied to requested data", e.ResponseText)
		assert.False(t, e.Success)
	})
}

// ==========================
// Analytics
// ==========================

func TestRecorder_Analytics(t *testing.T) {
	rec, mock := createTestRecorder(t, nil)
	day1 := time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT DATE\(timestamp\) as date, COUNT\(\*\) as total_queries`).
		WithArgs(7).
		WillReturnRows(sqlmock.NewRows([]string{"date", "total_queries", "successful_queries", "avg_response_time"}).
			AddRow(day1, int64(120), int64(101), []byte("41.25")).
			AddRow(day2, int64(3), int64(0), nil))

	stats, err := rec.Analytics(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, stats, 2)

	assert.Equal(t, DailyStats{Date: day1, TotalQueries: 120, SuccessfulQueries: 101, AvgResponseTimeMs: 41.25}, stats[0])
	assert.Equal(t, float64(0), stats[1].AvgResponseTimeMs)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecorder_Analytics_Error(t *testing.T) {
	rec, mock := createTestRecorder(t, nil)
	mock.ExpectQuery("SELECT DATE").WillReturnError(errors.New("permission denied"))

	stats, err := rec.Analytics(context.Background(), 7)
	assert.Nil(t, stats)
	assert.ErrorIs(t, err, ErrAnalyticsFailed)
	assert.True(t, strings.Contains(err.Error(), "permission denied"))
}
