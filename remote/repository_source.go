package remote

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RepositorySource adapts a go-repository-bun repository to the single-row and
// ranged reads the cache and pager need. Repository hooks and soft-delete
// rules stay in effect.
type RepositorySource[T any] struct {
	repo     repository.Repository[T]
	criteria []repository.SelectCriteria
}

// NewRepositorySource wraps repo. criteria are applied to every List call made
// by Range, for example a feed filter.
func NewRepositorySource[T any](repo repository.Repository[T], criteria ...repository.SelectCriteria) *RepositorySource[T] {
	return &RepositorySource[T]{repo: repo, criteria: criteria}
}

func (s *RepositorySource[T]) FetchByID(ctx context.Context, id string) (T, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *RepositorySource[T]) Save(ctx context.Context, record T) (T, error) {
	return s.repo.Update(ctx, record)
}

// Range lists the rows at positions from..to, both inclusive.
func (s *RepositorySource[T]) Range(ctx context.Context, from, to int) ([]T, error) {
	if to < from {
		return []T{}, nil
	}

	criteria := make([]repository.SelectCriteria, 0, len(s.criteria)+1)
	criteria = append(criteria, s.criteria...)
	criteria = append(criteria, window(from, to))

	rows, _, err := s.repo.List(ctx, criteria...)
	if err != nil {
		return nil, err
	}
	if rows == nil {
		rows = []T{}
	}
	return rows, nil
}

func window(from, to int) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Offset(from).Limit(to - from + 1)
	}
}

// OrderedBy is a SelectCriteria that sorts the listing.
func OrderedBy(orders ...string) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Order(orders...)
	}
}

// WhereEquals is a SelectCriteria on a single column.
func WhereEquals(column string, value any) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("?TableAlias.? = ?", bun.Ident(column), value)
	}
}
