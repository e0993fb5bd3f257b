package testsupport

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"
)

type fixtureUser struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
}

func TestLoadFixtureJSON(t *testing.T) {
	var users []fixtureUser
	LoadFixtureJSON(t, FixturePath("users.json"), &users)

	if len(users) != 2 {
		t.Fatalf("expected 2 users, got %d", len(users))
	}
	if users[0].ID != "u1" || users[1].Username != "bob" {
		t.Errorf("unexpected users: %+v", users)
	}
}

func TestWriteFixture(t *testing.T) {
	dir := t.TempDir()
	path := WriteFixture(t, dir, "payload.bin", []byte("hello"))

	if got := string(LoadFixture(t, path)); got != "hello" {
		t.Errorf("expected hello, got %q", got)
	}
}

func TestFakeSource(t *testing.T) {
	ctx := context.Background()
	src := NewFakeSource(map[string]string{"u1": "alice"})

	got, err := src.FetchByID(ctx, "u1")
	if err != nil || got != "alice" {
		t.Fatalf("expected alice, got %q, %v", got, err)
	}

	if _, err := src.FetchByID(ctx, "missing"); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("expected sql.ErrNoRows, got %v", err)
	}

	boom := errors.New("boom")
	src.Fail("u1", boom)
	if _, err := src.FetchByID(ctx, "u1"); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}
	src.Fail("u1", nil)

	if src.Calls("u1") != 2 || src.TotalCalls() != 3 {
		t.Errorf("unexpected call counts: u1=%d total=%d", src.Calls("u1"), src.TotalCalls())
	}
}

func TestFakeSource_Save(t *testing.T) {
	ctx := context.Background()
	src := NewFakeSource[fixtureUser](nil)
	src.IDOf = func(u fixtureUser) string { return u.ID }

	if _, err := src.Save(ctx, fixtureUser{ID: "u9", Username: "zed"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got, err := src.FetchByID(ctx, "u9")
	if err != nil || got.Username != "zed" {
		t.Errorf("expected saved record, got %+v, %v", got, err)
	}
	if len(src.Saved()) != 1 {
		t.Errorf("expected one saved record, got %d", len(src.Saved()))
	}
}

func TestFakeSource_Block(t *testing.T) {
	src := NewFakeSource(map[string]int{"n": 7})
	release := src.Block()

	var wg sync.WaitGroup
	wg.Add(1)
	var got int
	go func() {
		defer wg.Done()
		got, _ = src.FetchByID(context.Background(), "n")
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	if _, err := src.FetchByID(ctx, "n"); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded while blocked, got %v", err)
	}

	release()
	release()
	wg.Wait()
	if got != 7 {
		t.Errorf("expected 7 after release, got %d", got)
	}
}

func TestFakeRange(t *testing.T) {
	ctx := context.Background()
	rng := NewFakeRange([]int{0, 1, 2, 3, 4})

	tests := []struct {
		from, to int
		want     int
	}{
		{0, 1, 2},
		{3, 9, 2},
		{5, 9, 0},
		{2, 1, 0},
	}
	for _, tt := range tests {
		rows, err := rng.Range(ctx, tt.from, tt.to)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(rows) != tt.want {
			t.Errorf("Range(%d, %d) returned %d rows, want %d", tt.from, tt.to, len(rows), tt.want)
		}
	}

	boom := errors.New("boom")
	rng.Fail(boom)
	if _, err := rng.Range(ctx, 0, 1); !errors.Is(err, boom) {
		t.Errorf("expected boom, got %v", err)
	}

	if calls := rng.Calls(); len(calls) != 5 || calls[1] != (RangeCall{From: 3, To: 9}) {
		t.Errorf("unexpected calls: %+v", calls)
	}
}
