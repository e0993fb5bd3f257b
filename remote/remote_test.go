package remote

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-synapse/domain"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect"
)

func postgresDB(t *testing.T) *bun.DB {
	t.Helper()
	db, err := Open(DatabaseConfig{Driver: DriverPostgres, DSN: "postgres://synapse@localhost:5432/synapse?sslmode=disable"})
	if err != nil {
		t.Fatalf("failed to open postgres handle: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// sqliteDB opens a private in-memory database and skips when the sqlite driver
// is unusable, for example in a build without cgo.
func sqliteDB(t *testing.T) *bun.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := Open(DatabaseConfig{
		Driver:       DriverSQLite,
		DSN:          fmt.Sprintf("file:%s?mode=memory&cache=shared", name),
		MaxOpenConns: 1,
	})
	if err != nil {
		t.Fatalf("failed to open sqlite handle: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	if err := Ping(ctx, db); err != nil {
		t.Skipf("sqlite unavailable: %v", err)
	}
	if err := CreateSchema(ctx, db); err != nil {
		t.Fatalf("failed to create schema: %v", err)
	}
	return db
}

func TestDatabaseConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     DatabaseConfig
		wantErr bool
	}{
		{name: "default", cfg: DefaultDatabaseConfig()},
		{name: "postgres", cfg: DatabaseConfig{Driver: DriverPostgres, DSN: "postgres://x"}},
		{name: "unknown driver", cfg: DatabaseConfig{Driver: "mysql", DSN: "x"}, wantErr: true},
		{name: "missing dsn", cfg: DatabaseConfig{Driver: DriverSQLite}, wantErr: true},
		{name: "negative pool", cfg: DatabaseConfig{Driver: DriverSQLite, DSN: "x", MaxOpenConns: -1}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !goerrors.IsValidation(err) {
				t.Errorf("expected validation category, got %v", err)
			}
		})
	}

	if _, err := Open(DatabaseConfig{Driver: "oracle", DSN: "x"}); !goerrors.IsValidation(err) {
		t.Errorf("expected Open to reject an unknown driver, got %v", err)
	}
}

func TestOpen_Dialects(t *testing.T) {
	if name := postgresDB(t).Dialect().Name(); name != dialect.PG {
		t.Errorf("expected pg dialect, got %v", name)
	}

	db, err := Open(DefaultDatabaseConfig())
	if err != nil {
		t.Fatalf("failed to open sqlite handle: %v", err)
	}
	defer db.Close()
	if name := db.Dialect().Name(); name != dialect.SQLite {
		t.Errorf("expected sqlite dialect, got %v", name)
	}
}

func TestEntitySource_SelectSQL(t *testing.T) {
	db := postgresDB(t)

	var user domain.User
	got := NewEntitySource[domain.User](db, "").selectByID(&user, "u1").String()
	for _, want := range []string{`FROM "users" AS "u"`, `"u"."id" = 'u1'`, "LIMIT 1"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %s", want, got)
		}
	}

	var profile domain.UserProfile
	got = NewEntitySource[domain.UserProfile](db, "user_id").selectByID(&profile, "u1").String()
	if !strings.Contains(got, `"p"."user_id" = 'u1'`) {
		t.Errorf("expected lookup by user_id, got %s", got)
	}
}

func TestRangeQuery_SQL(t *testing.T) {
	db := postgresDB(t)
	q := NewRangeQuery[domain.Post](db, Where("author_id", "u1"), OrderBy("created_at DESC"))

	var rows []domain.Post
	got := q.build(&rows, 20, 29).String()
	for _, want := range []string{
		`FROM "posts" AS "po"`,
		`"po"."author_id" = 'u1'`,
		`ORDER BY "created_at" DESC`,
		"LIMIT 10",
		"OFFSET 20",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %s", want, got)
		}
	}

	empty, err := q.Range(context.Background(), 5, 4)
	if err != nil || empty == nil || len(empty) != 0 {
		t.Errorf("expected empty non-nil slice for an inverted range, got %v %v", empty, err)
	}
}

func TestSQLite_RoundTrip(t *testing.T) {
	ctx := context.Background()
	db := sqliteDB(t)
	users := NewEntitySource[domain.User](db, "id")

	for i, name := range []string{"alice", "bob", "carol"} {
		if _, err := users.Create(ctx, domain.User{ID: fmt.Sprintf("u%d", i+1), Username: name}); err != nil {
			t.Fatalf("failed to insert %s: %v", name, err)
		}
	}

	got, err := users.FetchByID(ctx, "u2")
	if err != nil || got.Username != "bob" {
		t.Fatalf("unexpected fetch result: %+v %v", got, err)
	}

	display := "Bobby"
	got.DisplayName = &display
	saved, err := users.Save(ctx, got)
	if err != nil {
		t.Fatalf("failed to save: %v", err)
	}
	if saved.Name() != "Bobby" {
		t.Errorf("expected saved display name, got %q", saved.Name())
	}

	if _, err := users.FetchByID(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}

	ordered := NewRangeQuery[domain.User](db, OrderBy("id ASC"))
	page, err := ordered.Range(ctx, 1, 5)
	if err != nil {
		t.Fatalf("failed range: %v", err)
	}
	if len(page) != 2 || page[0].ID != "u2" || page[1].ID != "u3" {
		t.Errorf("unexpected range rows: %+v", page)
	}

	filtered := NewRangeQuery[domain.User](db, Where("username", "carol"))
	page, err = filtered.Range(ctx, 0, 9)
	if err != nil || len(page) != 1 || page[0].ID != "u3" {
		t.Errorf("unexpected filtered rows: %+v %v", page, err)
	}
}

type mockRepository[T any] struct {
	repository.Repository[T]
	rows     []T
	byID     map[string]T
	criteria int
	updated  []T
}

func (m *mockRepository[T]) GetByID(_ context.Context, id string, _ ...repository.SelectCriteria) (T, error) {
	row, ok := m.byID[id]
	if !ok {
		return row, sql.ErrNoRows
	}
	return row, nil
}

func (m *mockRepository[T]) Update(_ context.Context, record T, _ ...repository.UpdateCriteria) (T, error) {
	m.updated = append(m.updated, record)
	return record, nil
}

func (m *mockRepository[T]) List(_ context.Context, criteria ...repository.SelectCriteria) ([]T, int, error) {
	m.criteria = len(criteria)
	return m.rows, len(m.rows), nil
}

func TestRepositorySource(t *testing.T) {
	ctx := context.Background()
	repo := &mockRepository[domain.Post]{
		byID: map[string]domain.Post{"p1": {ID: "p1", AuthorID: "u1"}},
	}
	src := NewRepositorySource[domain.Post](repo, WhereEquals("author_id", "u1"), OrderedBy("created_at DESC"))

	post, err := src.FetchByID(ctx, "p1")
	if err != nil || post.AuthorID != "u1" {
		t.Errorf("unexpected fetch: %+v %v", post, err)
	}
	if _, err := src.FetchByID(ctx, "nope"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}

	if _, err := src.Save(ctx, post); err != nil || len(repo.updated) != 1 {
		t.Errorf("expected one update, got %d (%v)", len(repo.updated), err)
	}

	rows, err := src.Range(ctx, 0, 9)
	if err != nil || rows == nil || len(rows) != 0 {
		t.Errorf("expected empty non-nil rows, got %v %v", rows, err)
	}
	if repo.criteria != 3 {
		t.Errorf("expected filter, order and window criteria, got %d", repo.criteria)
	}
}

func TestSelectCriteria_SQL(t *testing.T) {
	db := postgresDB(t)

	var rows []domain.Post
	q := db.NewSelect().Model(&rows)
	for _, c := range []repository.SelectCriteria{WhereEquals("author_id", "u9"), OrderedBy("created_at DESC"), window(10, 14)} {
		q = c(q)
	}

	got := q.String()
	for _, want := range []string{`"po"."author_id" = 'u9'`, `ORDER BY "created_at" DESC`, "LIMIT 5", "OFFSET 10"} {
		if !strings.Contains(got, want) {
			t.Errorf("expected %q in %s", want, got)
		}
	}
}
