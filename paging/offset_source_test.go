package paging

import (
	"context"
	"errors"
	"math"
	"strconv"
	"sync"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	"github.com/goliatone/go-synapse/pkg/testsupport"
)

func rows(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

func keyString(k *int) string {
	if k == nil {
		return "nil"
	}
	return strconv.Itoa(*k)
}

func TestLoad_Keys(t *testing.T) {
	tests := []struct {
		name     string
		total    int
		key      *int
		size     int
		wantRows int
		wantPrev *int
		wantNext *int
	}{
		{name: "first full page", total: 40, key: nil, size: 20, wantRows: 20, wantPrev: nil, wantNext: ptr(20)},
		{name: "explicit zero key", total: 40, key: ptr(0), size: 20, wantRows: 20, wantPrev: nil, wantNext: ptr(20)},
		{name: "empty page past the end", total: 20, key: ptr(20), size: 20, wantRows: 0, wantPrev: ptr(0), wantNext: nil},
		{name: "middle page", total: 100, key: ptr(40), size: 20, wantRows: 20, wantPrev: ptr(20), wantNext: ptr(60)},
		{name: "short last page", total: 13, key: ptr(10), size: 10, wantRows: 3, wantPrev: ptr(0), wantNext: nil},
		{name: "prev key clamps at zero", total: 30, key: ptr(5), size: 10, wantRows: 10, wantPrev: ptr(0), wantNext: ptr(15)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := NewOffsetSource[int](testsupport.NewFakeRange(rows(tt.total)))

			page, err := src.Load(context.Background(), LoadParams[int]{Key: tt.key, LoadSize: tt.size})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(page.Data) != tt.wantRows {
				t.Errorf("expected %d rows, got %d", tt.wantRows, len(page.Data))
			}
			if keyString(page.PrevKey) != keyString(tt.wantPrev) {
				t.Errorf("PrevKey = %s, want %s", keyString(page.PrevKey), keyString(tt.wantPrev))
			}
			if keyString(page.NextKey) != keyString(tt.wantNext) {
				t.Errorf("NextKey = %s, want %s", keyString(page.NextKey), keyString(tt.wantNext))
			}
		})
	}
}

func TestLoad_RequestsInclusiveRange(t *testing.T) {
	rng := testsupport.NewFakeRange(rows(50))
	src := NewOffsetSource[int](rng)

	if _, err := src.Load(context.Background(), LoadParams[int]{Key: ptr(30), LoadSize: 10}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	calls := rng.Calls()
	if len(calls) != 1 || calls[0] != (testsupport.RangeCall{From: 30, To: 39}) {
		t.Errorf("unexpected range calls: %+v", calls)
	}
}

func TestLoad_KeepsBackendOrder(t *testing.T) {
	src := NewOffsetSource[string](RangeFunc[string](func(ctx context.Context, from, to int) ([]string, error) {
		return []string{"c", "a", "b"}, nil
	}))

	page, err := src.Load(context.Background(), LoadParams[int]{LoadSize: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.Data[0] != "c" || page.Data[1] != "a" || page.Data[2] != "b" {
		t.Errorf("expected backend order, got %v", page.Data)
	}
}

func TestLoad_EndOnEmptyOnly(t *testing.T) {
	src := NewOffsetSource[int](testsupport.NewFakeRange(rows(13)), WithEndOnEmptyOnly())
	ctx := context.Background()

	page, err := src.Load(ctx, LoadParams[int]{Key: ptr(10), LoadSize: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if page.NextKey == nil || *page.NextKey != 20 {
		t.Fatalf("expected NextKey 20 for a short page, got %s", keyString(page.NextKey))
	}

	page, err = src.Load(ctx, LoadParams[int]{Key: page.NextKey, LoadSize: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(page.Data) != 0 || page.NextKey != nil {
		t.Errorf("expected empty final page, got %d rows next=%s", len(page.Data), keyString(page.NextKey))
	}
}

func TestLoad_Failures(t *testing.T) {
	ctx := context.Background()
	boom := errors.New("postgrest: 503")

	rng := testsupport.NewFakeRange(rows(5))
	rng.Fail(boom)
	src := NewOffsetSource[int](rng, WithName("feed"))

	_, err := src.Load(ctx, LoadParams[int]{LoadSize: 5})
	if !errors.Is(err, boom) {
		t.Fatalf("expected error carrying the cause, got %v", err)
	}
	if !goerrors.IsCategory(err, goerrors.CategoryExternal) {
		t.Errorf("expected external category, got %v", err)
	}

	result := src.LoadOutcome(ctx, LoadParams[int]{LoadSize: 5})
	if !result.IsError() || !errors.Is(result.Err(), boom) {
		t.Errorf("expected failure outcome, got %v", result)
	}

	for _, params := range []LoadParams[int]{{LoadSize: 0}, {LoadSize: -1}, {Key: ptr(-5), LoadSize: 10}} {
		if _, err := src.Load(ctx, params); !goerrors.IsValidation(err) {
			t.Errorf("expected validation error for %+v, got %v", params, err)
		}
	}

	canceled, cancel := context.WithCancel(ctx)
	cancel()
	before := len(rng.Calls())
	_, err = src.Load(canceled, LoadParams[int]{LoadSize: 5})
	if !errors.Is(err, context.Canceled) || !goerrors.IsCategory(err, goerrors.CategoryOperation) {
		t.Errorf("expected canceled operation error, got %v", err)
	}
	if len(rng.Calls()) != before {
		t.Error("expected no range call for a canceled context")
	}
}

func TestLoad_RejectsOverflowingPosition(t *testing.T) {
	rng := testsupport.NewFakeRange(rows(5))
	src := NewOffsetSource[int](rng)

	for _, params := range []LoadParams[int]{
		{Key: ptr(math.MaxInt - 1), LoadSize: 5},
		{Key: ptr(math.MaxInt), LoadSize: 1},
		{Key: ptr(1), LoadSize: math.MaxInt},
	} {
		_, err := src.Load(context.Background(), params)
		var typed *goerrors.Error
		if !goerrors.As(err, &typed) || typed.TextCode != TextCodeInvalidLoad {
			t.Errorf("expected %s for key %s size %d, got %v", TextCodeInvalidLoad, keyString(params.Key), params.LoadSize, err)
		}
	}
	if n := len(rng.Calls()); n != 0 {
		t.Errorf("expected no range call, got %d", n)
	}

	page, err := src.Load(context.Background(), LoadParams[int]{Key: ptr(math.MaxInt - 5), LoadSize: 5})
	if err != nil {
		t.Fatalf("expected the largest valid position to load, got %v", err)
	}
	if page.NextKey != nil {
		t.Errorf("expected no next key past the data, got %s", keyString(page.NextKey))
	}
}

func TestRefreshKey(t *testing.T) {
	tests := []struct {
		name  string
		state State[int, int]
		want  *int
	}{
		{
			name: "prefers prev key",
			state: State[int, int]{
				Pages:          []Page[int, int]{{Data: rows(3), PrevKey: ptr(5), NextKey: ptr(15)}},
				AnchorPosition: ptr(1),
			},
			want: ptr(6),
		},
		{
			name: "falls back to next key",
			state: State[int, int]{
				Pages:          []Page[int, int]{{Data: rows(3), NextKey: ptr(30)}},
				AnchorPosition: ptr(0),
			},
			want: ptr(29),
		},
		{
			name: "no keys",
			state: State[int, int]{
				Pages:          []Page[int, int]{{Data: rows(3)}},
				AnchorPosition: ptr(0),
			},
			want: nil,
		},
		{
			name:  "no anchor",
			state: State[int, int]{Pages: []Page[int, int]{{Data: rows(3), PrevKey: ptr(5)}}},
			want:  nil,
		},
		{
			name:  "no pages",
			state: State[int, int]{AnchorPosition: ptr(4)},
			want:  nil,
		},
		{
			name: "anchor in second page",
			state: State[int, int]{
				Pages: []Page[int, int]{
					{Data: rows(10), NextKey: ptr(10)},
					{Data: rows(10), PrevKey: ptr(0), NextKey: ptr(20)},
				},
				AnchorPosition: ptr(14),
			},
			want: ptr(1),
		},
	}

	src := NewOffsetSource[int](testsupport.NewFakeRange(nil))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := src.RefreshKey(tt.state)
			if keyString(got) != keyString(tt.want) {
				t.Errorf("RefreshKey() = %s, want %s", keyString(got), keyString(tt.want))
			}
		})
	}
}

func TestClosestPageToPosition(t *testing.T) {
	state := State[int, int]{
		Pages: []Page[int, int]{
			{Data: rows(5), NextKey: ptr(5)},
			{Data: rows(5), PrevKey: ptr(0), NextKey: ptr(10)},
		},
		LeadingPlaceholders: 2,
	}

	tests := []struct {
		position int
		wantPage int
	}{
		{0, 0},
		{2, 0},
		{6, 0},
		{7, 1},
		{50, 1},
	}
	for _, tt := range tests {
		got := state.ClosestPageToPosition(tt.position)
		if got != &state.Pages[tt.wantPage] {
			t.Errorf("position %d: expected page %d", tt.position, tt.wantPage)
		}
	}

	if (State[int, int]{Pages: []Page[int, int]{{}}}).ClosestPageToPosition(0) != nil {
		t.Error("expected nil when no page holds data")
	}
}

func TestEndToEndScroll(t *testing.T) {
	ctx := context.Background()
	src := NewOffsetSource[int](testsupport.NewFakeRange(rows(13)))

	first, err := src.Load(ctx, LoadParams[int]{Key: ptr(0), LoadSize: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(first.Data) != 10 || first.PrevKey != nil || first.NextKey == nil || *first.NextKey != 10 {
		t.Fatalf("unexpected first page: %d rows prev=%s next=%s", len(first.Data), keyString(first.PrevKey), keyString(first.NextKey))
	}

	second, err := src.Load(ctx, LoadParams[int]{Key: first.NextKey, LoadSize: 10})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(second.Data) != 3 || second.PrevKey == nil || *second.PrevKey != 0 || second.NextKey != nil {
		t.Errorf("unexpected second page: %d rows prev=%s next=%s", len(second.Data), keyString(second.PrevKey), keyString(second.NextKey))
	}
}

func TestPages(t *testing.T) {
	ctx := context.Background()
	src := NewOffsetSource[int](testsupport.NewFakeRange(rows(25)))

	var sizes []int
	for page, err := range src.Pages(ctx, 0, 10) {
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		sizes = append(sizes, len(page.Data))
	}
	if len(sizes) != 3 || sizes[0] != 10 || sizes[1] != 10 || sizes[2] != 5 {
		t.Errorf("unexpected page sizes: %v", sizes)
	}

	// stopping early issues no further loads
	rng := testsupport.NewFakeRange(rows(100))
	early := NewOffsetSource[int](rng)
	for range early.Pages(ctx, 0, 10) {
		break
	}
	if n := len(rng.Calls()); n != 1 {
		t.Errorf("expected one load, got %d", n)
	}

	failing := testsupport.NewFakeRange(rows(10))
	failing.Fail(errors.New("down"))
	var errs int
	for _, err := range NewOffsetSource[int](failing).Pages(ctx, 0, 5) {
		if err != nil {
			errs++
		}
	}
	if errs != 1 {
		t.Errorf("expected a single error, got %d", errs)
	}
}

type countingObserver struct {
	mu       sync.Mutex
	loaded   int
	rows     int
	failures int
}

func (o *countingObserver) PageLoaded(_ string, rows int) {
	o.mu.Lock()
	o.loaded++
	o.rows += rows
	o.mu.Unlock()
}

func (o *countingObserver) PageFailed(string, error) {
	o.mu.Lock()
	o.failures++
	o.mu.Unlock()
}

func TestObserver(t *testing.T) {
	obs := &countingObserver{}
	rng := testsupport.NewFakeRange(rows(15))
	src := NewOffsetSource[int](rng, WithObserver(obs), WithLogger(nil))

	for range src.Pages(context.Background(), 0, 10) {
	}
	rng.Fail(errors.New("down"))
	_, _ = src.Load(context.Background(), LoadParams[int]{LoadSize: 10})

	if obs.loaded != 2 || obs.rows != 15 || obs.failures != 1 {
		t.Errorf("unexpected counts: %+v", obs)
	}
}
