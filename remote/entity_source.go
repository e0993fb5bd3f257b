package remote

import (
	"context"

	"github.com/uptrace/bun"
)

// EntitySource reads and writes single rows of T by id. Errors are returned as
// the driver reports them; a missing row is sql.ErrNoRows.
type EntitySource[T any] struct {
	db       bun.IDB
	idColumn string
}

// NewEntitySource creates a source keyed by idColumn, "id" when empty.
func NewEntitySource[T any](db bun.IDB, idColumn string) *EntitySource[T] {
	if idColumn == "" {
		idColumn = "id"
	}
	return &EntitySource[T]{db: db, idColumn: idColumn}
}

// FetchByID selects the row whose id column equals id.
func (s *EntitySource[T]) FetchByID(ctx context.Context, id string) (T, error) {
	var row T
	err := s.selectByID(&row, id).Scan(ctx)
	return row, err
}

// Save updates record by primary key and returns the stored row.
func (s *EntitySource[T]) Save(ctx context.Context, record T) (T, error) {
	err := s.db.NewUpdate().Model(&record).WherePK().Returning("*").Scan(ctx)
	return record, err
}

// Create inserts record and returns the stored row.
func (s *EntitySource[T]) Create(ctx context.Context, record T) (T, error) {
	err := s.db.NewInsert().Model(&record).Returning("*").Scan(ctx)
	return record, err
}

func (s *EntitySource[T]) selectByID(row *T, id string) *bun.SelectQuery {
	return s.db.NewSelect().
		Model(row).
		Where("?TableAlias.? = ?", bun.Ident(s.idColumn), id).
		Limit(1)
}
