package paging

// Page is one loaded slice of a paged list. PrevKey is nil for the first page and
// NextKey is nil once the end of the list has been reached.
type Page[K, T any] struct {
	Data    []T `json:"data"`
	PrevKey *K  `json:"prev_key,omitempty"`
	NextKey *K  `json:"next_key,omitempty"`
}

// LoadParams describes a single load request. A nil Key starts from the beginning.
type LoadParams[K any] struct {
	Key      *K
	LoadSize int
}

// State is the host's view of the pages loaded so far. AnchorPosition is the index of
// the most recently accessed item, counted across all pages and leading placeholders.
type State[K, T any] struct {
	Pages               []Page[K, T]
	AnchorPosition      *int
	LeadingPlaceholders int
}

// ClosestPageToPosition returns the loaded page holding the item at position, or the
// nearest page when position falls outside the loaded range. It returns nil when no
// page holds any data.
func (s State[K, T]) ClosestPageToPosition(position int) *Page[K, T] {
	if !s.hasData() {
		return nil
	}

	idx := position - s.LeadingPlaceholders
	if idx < 0 {
		return &s.Pages[0]
	}

	last := len(s.Pages) - 1
	for i := 0; i < last; i++ {
		if idx < len(s.Pages[i].Data) {
			return &s.Pages[i]
		}
		idx -= len(s.Pages[i].Data)
	}
	return &s.Pages[last]
}

func (s State[K, T]) hasData() bool {
	for _, p := range s.Pages {
		if len(p.Data) > 0 {
			return true
		}
	}
	return false
}

func ptr[K any](v K) *K {
	return &v
}
