// internal/chatbot/executor/postgres.go
package executor

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"vahan-chatbot/internal/common/logger"
	"vahan-chatbot/internal/common/metrics"
	"vahan-chatbot/internal/models"
)

var (
	ErrQueryExecutionFailed = errors.New("QUERY_EXECUTION_FAILED")
	ErrQueryTimeout         = errors.New("QUERY_TIMEOUT")
)

// Postgres runs generated report queries against the records database.
// A failed query is not retried.
type Postgres struct {
	db      *sql.DB
	timeout time.Duration
	logger  logger.Logger
}

func NewPostgres(db *sql.DB, timeout time.Duration, log logger.Logger) *Postgres {
	return &Postgres{
		db:      db,
		timeout: timeout,
		logger:  log.WithFields(map[string]interface{}{"component": "executor"}),
	}
}

func (p *Postgres) Query(ctx context.Context, template string, params []interface{}) ([]models.Row, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	start := time.Now()
	rows, err := p.query(ctx, template, params)
	elapsed := time.Since(start)

	outcome := "success"
	if err != nil {
		outcome = "error"
		if ctx.Err() == context.DeadlineExceeded {
			outcome = "timeout"
			err = fmt.Errorf("%w: %v", ErrQueryTimeout, err)
		} else {
			err = fmt.Errorf("%w: %v", ErrQueryExecutionFailed, err)
		}
	}
	metrics.DBQueryDuration.WithLabelValues(outcome).Observe(elapsed.Seconds())

	p.logger.Debug("query executed", map[string]interface{}{
		"outcome":    outcome,
		"params":     len(params),
		"rows":       len(rows),
		"durationMs": elapsed.Milliseconds(),
	})
	return rows, err
}

func (p *Postgres) query(ctx context.Context, template string, params []interface{}) ([]models.Row, error) {
	rs, err := p.db.QueryContext(ctx, template, params...)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	columns, err := rs.Columns()
	if err != nil {
		return nil, err
	}

	var out []models.Row
	for rs.Next() {
		values := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rs.Scan(ptrs...); err != nil {
			return nil, err
		}

		row := make(models.Row, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		out = append(out, row)
	}
	return out, rs.Err()
}
