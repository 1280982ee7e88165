// internal/chatbot/querybuilder/builder.go
package querybuilder

import (
	"errors"
	"fmt"
	"time"

	"vahan-chatbot/internal/models"
)

var (
	ErrAccessDenied     = errors.New("ACCESS_DENIED")
	ErrUnknownQueryType = errors.New("UNKNOWN_QUERY_TYPE")
	ErrBuildFailed      = errors.New("QUERY_BUILD_FAILED")
)

// Messages carried on a rejected QueryPlan.
const (
	MsgAccessDenied     = "Access denied to requested data"
	MsgUnknownQueryType = "Unknown query type"
	MsgBuildFailed      = "Error building query"
)

// Builder turns an intent, its filters and the caller's scope into a
// parameterized query. It holds no state besides the clock used to resolve
// relative periods.
type Builder struct {
	now func() time.Time
}

func NewBuilder() *Builder {
	return &Builder{now: time.Now}
}

// NewBuilderWithClock is used where "this month" must resolve to a fixed date.
func NewBuilderWithClock(now func() time.Time) *Builder {
	return &Builder{now: now}
}

// Build returns the plan and, when the plan is not allowed, one of the package
// sentinel errors. It never panics.
func (b *Builder) Build(intent models.Intent, f models.Filters, scope models.AccessScope) (plan models.QueryPlan, err error) {
	defer func() {
		if r := recover(); r != nil {
			plan = rejected(MsgBuildFailed)
			err = fmt.Errorf("%w: %v", ErrBuildFailed, r)
		}
	}()

	if !scope.Allowed {
		return rejected(MsgAccessDenied), ErrAccessDenied
	}

	stmt, err := b.statementFor(intent, f, scope)
	if err != nil {
		if errors.Is(err, ErrUnknownQueryType) {
			return rejected(MsgUnknownQueryType), err
		}
		return rejected(MsgBuildFailed), err
	}

	sql, params := stmt.render()
	return models.QueryPlan{Allowed: true, Template: sql, Params: params}, nil
}

func (b *Builder) statementFor(intent models.Intent, f models.Filters, scope models.AccessScope) (*statement, error) {
	qt := intent.QueryType()

	if agg, ok := aggregates[qt]; ok {
		return b.aggregateStatement(qt, agg, f, scope), nil
	}

	switch qt {
	case models.Intent{Category: models.CategoryChallan, Action: models.ActionTop}.QueryType():
		stmt := &statement{id: qt, base: challanTopBase}
		if scope.State != "" {
			stmt.where(pred(stateClause, scope.State))
		}
		if f.Year != 0 {
			stmt.where(pred(fmt.Sprintf(yearClause, "challan_date"), f.Year))
		}
		stmt.suffix = fmt.Sprintf("GROUP BY r.rto_name ORDER BY total DESC LIMIT %d", TopOfficeLimit)
		return stmt, nil

	case models.Intent{Category: models.CategoryFine, Action: models.ActionLookup}.QueryType():
		if f.Violation == "" {
			return nil, fmt.Errorf("%w: no violation type in question", ErrBuildFailed)
		}
		stmt := &statement{id: qt, base: fineLookupBase}
		stmt.where(pred(violationClause, f.Violation))

		state := scope.State
		if state == "" {
			state = f.State
		}
		if state != "" {
			stmt.where(pred(stateClause, state))
		} else {
			// any state's fine is better than none
			stmt.suffix = "LIMIT 1"
		}
		return stmt, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownQueryType, qt)
}

func (b *Builder) aggregateStatement(id string, agg aggregate, f models.Filters, scope models.AccessScope) *statement {
	stmt := &statement{id: id, base: agg.base}

	if scope.State != "" {
		stmt.where(pred(stateClause, scope.State))
	}
	if scope.District != "" {
		stmt.where(pred(fmt.Sprintf(districtClause, agg.alias), "%"+scope.District+"%"))
	}

	stmt.where(b.timePredicates(agg.dateColumn, f)...)

	if agg.vehicleType && f.VehicleType != "" {
		stmt.where(pred(vehicleTypeClause, f.VehicleType))
	}
	return stmt
}

// timePredicates applies every time constraint that holds independently. An
// explicit year and a relative period are not mutually exclusive here; when
// both are present both predicates are emitted.
func (b *Builder) timePredicates(column string, f models.Filters) []predicate {
	year := fmt.Sprintf(yearClause, column)
	month := fmt.Sprintf(monthClause, column)

	var preds []predicate
	if f.Year != 0 {
		preds = append(preds, pred(year, f.Year))
	}
	if f.HasMonthAndYear() {
		preds = append(preds, pred(month, f.Month))
	}

	now := b.now()
	switch f.Period {
	case models.PeriodCurrentMonth:
		preds = append(preds, pred(year, now.Year()), pred(month, int(now.Month())))
	case models.PeriodCurrentYear:
		preds = append(preds, pred(year, now.Year()))
	case models.PeriodLastMonth:
		y, m := previousMonth(now)
		preds = append(preds, pred(year, y), pred(month, m))
	case models.PeriodLastYear:
		preds = append(preds, pred(year, now.Year()-1))
	}
	return preds
}

func previousMonth(now time.Time) (year, month int) {
	if now.Month() == time.January {
		return now.Year() - 1, 12
	}
	return now.Year(), int(now.Month()) - 1
}

func rejected(msg string) models.QueryPlan {
	return models.QueryPlan{Allowed: false, Error: msg}
}
