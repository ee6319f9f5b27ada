package query

import "math"

// Paging defaults and caps. MaxPageNumber keeps the offset of the last
// reachable page well inside int range.
const (
	MaxPageNumber      = math.MaxInt32
	DefaultPageNumber  = 1
	DefaultPageSize    = 10
	MaxTaskPageSize    = 40
	MaxSubtaskPageSize = 50
)

// Window selects one page of an ordered result. A zero Size means the
// whole result.
type Window struct {
	Number int
	Size   int
}

// NewWindow applies the defaults to unset (non-positive) values, caps
// size at max and number at MaxPageNumber.
func NewWindow(number, size, max int) Window {
	if number < 1 {
		number = DefaultPageNumber
	}
	if number > MaxPageNumber {
		number = MaxPageNumber
	}
	if size < 1 {
		size = DefaultPageSize
	}
	if max > 0 && size > max {
		size = max
	}
	return Window{Number: number, Size: size}
}

// Unbounded reports whether the window covers the whole result.
func (w Window) Unbounded() bool {
	return w.Size <= 0
}

// Offset is the number of records skipped before the page.
func (w Window) Offset() int {
	if w.Unbounded() || w.Number < 1 {
		return 0
	}
	return (w.Number - 1) * w.Size
}

// Slice cuts the window out of an already ordered slice.
func Slice[T any](items []T, w Window) []T {
	if w.Unbounded() {
		return items
	}
	start := w.Offset()
	if start < 0 || start >= len(items) {
		return []T{}
	}
	end := start + w.Size
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

// Page is one window of a filtered result plus the total match count.
type Page[T any] struct {
	Items      []T
	TotalCount int
	PageNumber int
	PageSize   int
}

// NewPage assembles a page from the window that produced it.
func NewPage[T any](items []T, total int, w Window) Page[T] {
	if items == nil {
		items = []T{}
	}
	size := w.Size
	if w.Unbounded() {
		size = total
	}
	number := w.Number
	if number < 1 {
		number = DefaultPageNumber
	}
	return Page[T]{Items: items, TotalCount: total, PageNumber: number, PageSize: size}
}

// TotalPages is ceil(TotalCount / PageSize).
func (p Page[T]) TotalPages() int {
	if p.PageSize <= 0 {
		return 0
	}
	return (p.TotalCount + p.PageSize - 1) / p.PageSize
}

func (p Page[T]) HasPreviousPage() bool {
	return p.PageNumber > 1
}

func (p Page[T]) HasNextPage() bool {
	return p.PageNumber < p.TotalPages()
}
