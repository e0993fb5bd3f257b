package remote

import (
	"context"

	"github.com/uptrace/bun"
)

// Filter is an equality condition on one column.
type Filter struct {
	Column string
	Value  any
}

// RangeQuery selects rows of T by position. It satisfies paging.RangeQuery.
type RangeQuery[T any] struct {
	db      bun.IDB
	filters []Filter
	order   []string
}

// RangeOption configures a RangeQuery.
type RangeOption func(*rangeSettings)

type rangeSettings struct {
	filters []Filter
	order   []string
}

// Where adds an equality filter on column.
func Where(column string, value any) RangeOption {
	return func(s *rangeSettings) {
		s.filters = append(s.filters, Filter{Column: column, Value: value})
	}
}

// OrderBy sets the sort order, for example "created_at DESC". Without an
// order the backend order is used, which is only stable on some databases.
func OrderBy(orders ...string) RangeOption {
	return func(s *rangeSettings) {
		s.order = append(s.order, orders...)
	}
}

func NewRangeQuery[T any](db bun.IDB, opts ...RangeOption) *RangeQuery[T] {
	var s rangeSettings
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	return &RangeQuery[T]{db: db, filters: s.filters, order: s.order}
}

// Range returns the rows at positions from..to, both inclusive.
func (q *RangeQuery[T]) Range(ctx context.Context, from, to int) ([]T, error) {
	rows := []T{}
	if to < from {
		return rows, nil
	}
	if err := q.build(&rows, from, to).Scan(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

func (q *RangeQuery[T]) build(rows *[]T, from, to int) *bun.SelectQuery {
	sel := q.db.NewSelect().Model(rows)
	for _, f := range q.filters {
		sel = sel.Where("?TableAlias.? = ?", bun.Ident(f.Column), f.Value)
	}
	if len(q.order) > 0 {
		sel = sel.Order(q.order...)
	}
	return sel.Offset(from).Limit(to - from + 1)
}
