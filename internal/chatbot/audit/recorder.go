// internal/chatbot/audit/recorder.go
package audit

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/google/uuid"

	"vahan-chatbot/internal/chatbot/pipeline"
	"vahan-chatbot/internal/common/logger"
	"vahan-chatbot/internal/models"
)

var (
	ErrDatabaseInsertFailed = errors.New("DATABASE_INSERT_FAILED")
	ErrAnalyticsFailed      = errors.New("ANALYTICS_QUERY_FAILED")
)

const insertLogSQL = `INSERT INTO chatbot_logs (user_id, query_text, executed_sql, response_text, success, response_time_ms) VALUES ($1, $2, $3, $4, $5, $6)`

const analyticsSQL = `SELECT DATE(timestamp) as date, COUNT(*) as total_queries, COUNT(CASE WHEN success THEN 1 END) as successful_queries, AVG(response_time_ms) as avg_response_time FROM chatbot_logs WHERE timestamp > NOW() - ($1 * INTERVAL '1 day') GROUP BY DATE(timestamp) ORDER BY date DESC`

// Entry is one answered question as stored in chatbot_logs and mirrored to
// the search index.
type Entry struct {
	ID             string      `json:"id"`
	UserID         int64       `json:"userId"`
	Username       string      `json:"username,omitempty"`
	Role           models.Role `json:"role,omitempty"`
	QueryText      string      `json:"queryText"`
	QueryType      string      `json:"queryType,omitempty"`
	ExecutedSQL    string      `json:"executedSql,omitempty"`
	ResponseText   string      `json:"responseText"`
	Status         string      `json:"status"`
	Success        bool        `json:"success"`
	ResponseTimeMs int64       `json:"responseTimeMs"`
	Timestamp      time.Time   `json:"timestamp"`
}

// DailyStats is one row of the usage report.
type DailyStats struct {
	Date              time.Time `json:"date"`
	TotalQueries      int64     `json:"total_queries"`
	SuccessfulQueries int64     `json:"successful_queries"`
	AvgResponseTimeMs float64   `json:"avg_response_time"`
}

// NewEntry builds the audit record for a pipeline outcome. The stored response
// is the rejection reason when no query ran, and the reply text otherwise.
func NewEntry(caller models.Caller, res *pipeline.Result) Entry {
	e := Entry{
		ID:             uuid.NewString(),
		UserID:         caller.UserID,
		Username:       caller.Username,
		Role:           caller.Role,
		QueryText:      res.Question,
		ResponseText:   res.Text,
		Status:         string(res.Status),
		Success:        res.Success,
		ResponseTimeMs: res.Duration.Milliseconds(),
		Timestamp:      time.Now().UTC(),
	}
	if res.Intent.Recognized {
		e.QueryType = res.Intent.QueryType()
	}
	if res.Executed {
		e.ExecutedSQL = res.Plan.Template
	} else if res.Plan.Error != "" {
		e.ResponseText = res.Plan.Error
	}
	return e
}

type Recorder struct {
	db     *sql.DB
	es     *elasticsearch.Client
	index  string
	logger logger.Logger
}

// NewRecorder writes audit entries to db and, when es is not nil, mirrors them
// into index.
func NewRecorder(db *sql.DB, es *elasticsearch.Client, index string, log logger.Logger) *Recorder {
	return &Recorder{
		db:     db,
		es:     es,
		index:  index,
		logger: log.WithFields(map[string]interface{}{"component": "audit"}),
	}
}

// Record stores the entry. The database insert is authoritative; a failed
// index write is logged and otherwise ignored.
func (r *Recorder) Record(ctx context.Context, e Entry) error {
	executed := sql.NullString{String: e.ExecutedSQL, Valid: e.ExecutedSQL != ""}

	_, err := r.db.ExecContext(ctx, insertLogSQL,
		e.UserID, e.QueryText, executed, e.ResponseText, e.Success, e.ResponseTimeMs)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDatabaseInsertFailed, err)
	}

	if r.es != nil {
		if err := r.mirror(ctx, e); err != nil {
			r.logger.Warn("failed to index audit entry", map[string]interface{}{
				"entryId": e.ID,
				"error":   err.Error(),
			})
		}
	}
	return nil
}

func (r *Recorder) mirror(ctx context.Context, e Entry) error {
	body, err := json.Marshal(e)
	if err != nil {
		return err
	}

	res, err := r.es.Index(r.index, bytes.NewReader(body),
		r.es.Index.WithContext(ctx),
		r.es.Index.WithDocumentID(e.ID),
	)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		return fmt.Errorf("index %s: %s", r.index, res.Status())
	}
	return nil
}

// Analytics summarizes the last days of chatbot usage, newest day first.
func (r *Recorder) Analytics(ctx context.Context, days int) ([]DailyStats, error) {
	rows, err := r.db.QueryContext(ctx, analyticsSQL, days)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalyticsFailed, err)
	}
	defer rows.Close()

	stats := []DailyStats{}
	for rows.Next() {
		var s DailyStats
		var avg sql.NullFloat64
		if err := rows.Scan(&s.Date, &s.TotalQueries, &s.SuccessfulQueries, &avg); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrAnalyticsFailed, err)
		}
		s.AvgResponseTimeMs = avg.Float64
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalyticsFailed, err)
	}
	return stats, nil
}
