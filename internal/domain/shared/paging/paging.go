package paging

import "math"

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Window is a normalized page request. Pages are 1-based; anything below 1
// reads the first page.
type Window struct {
	Page  int
	Limit int
}

func New(page, limit int) Window {
	if page < 1 {
		page = 1
	}
	if limit <= 0 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return Window{Page: page, Limit: limit}
}

// Skip is the number of items before the window. It saturates at
// math.MaxInt instead of wrapping for huge page numbers.
func (w Window) Skip() int {
	if w.Page <= 1 || w.Limit <= 0 {
		return 0
	}
	if w.Page-1 > math.MaxInt/w.Limit {
		return math.MaxInt
	}
	return (w.Page - 1) * w.Limit
}

// Slice applies the window to n items and returns the [start, end) bounds.
func (w Window) Slice(n int) (int, int) {
	start := w.Skip()
	if start < 0 {
		start = 0
	}
	if start > n {
		start = n
	}
	end := start + w.Limit
	if end > n {
		end = n
	}
	return start, end
}

// Page is a window of results with the size of the whole set.
type Page[T any] struct {
	Total  int `json:"total"`
	Result []T `json:"result"`
}

// Of slices items by w.
func Of[T any](items []T, w Window) Page[T] {
	start, end := w.Slice(len(items))
	out := make([]T, end-start)
	copy(out, items[start:end])
	return Page[T]{Total: len(items), Result: out}
}
