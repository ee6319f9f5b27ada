package query

import (
	"math"
	"sort"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestParseSort(t *testing.T) {
	tests := []struct {
		name  string
		field string
		order string
		want  Sort
	}{
		{"title asc", "title", "asc", Sort{Field: SortByTitle}},
		{"case insensitive", "DueDate", "DESC", Sort{Field: SortByDueDate, Descending: true}},
		{"missing order is ascending", "priority", "", Sort{Field: SortByPriority}},
		{"unknown field falls back", "owner", "asc", DefaultSort},
		{"empty field falls back", "", "", DefaultSort},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseSort(tt.field, tt.order))
		})
	}
}

func sortedTitles(s Sort, records []Fields) []string {
	sort.SliceStable(records, func(i, j int) bool {
		return s.Compare(records[i], records[j]) < 0
	})
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Title
	}
	return out
}

func TestSortNullDueDates(t *testing.T) {
	day := time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
	records := func() []Fields {
		return []Fields{
			{ID: uuid.New(), Title: "later", DueDate: timePtr(day.Add(48 * time.Hour))},
			{ID: uuid.New(), Title: "none"},
			{ID: uuid.New(), Title: "sooner", DueDate: timePtr(day)},
		}
	}

	assert.Equal(t, []string{"none", "sooner", "later"},
		sortedTitles(Sort{Field: SortByDueDate}, records()))
	assert.Equal(t, []string{"later", "sooner", "none"},
		sortedTitles(Sort{Field: SortByDueDate, Descending: true}, records()))
}

func TestSortTieBreaksOnID(t *testing.T) {
	low := uuid.MustParse("00000000-0000-0000-0000-000000000001")
	high := uuid.MustParse("00000000-0000-0000-0000-000000000002")
	records := []Fields{
		{ID: high, Title: "b", Priority: domain.PriorityHigh},
		{ID: low, Title: "a", Priority: domain.PriorityHigh},
	}

	for _, desc := range []bool{false, true} {
		got := sortedTitles(Sort{Field: SortByPriority, Descending: desc}, append([]Fields(nil), records...))
		assert.Equal(t, []string{"a", "b"}, got, "descending=%v", desc)
	}
}

func TestPageArithmetic(t *testing.T) {
	page := NewPage([]int{1, 2}, 25, Window{Number: 2, Size: 10})

	assert.Equal(t, 3, page.TotalPages())
	assert.True(t, page.HasPreviousPage())
	assert.True(t, page.HasNextPage())

	last := NewPage([]int{}, 25, Window{Number: 3, Size: 10})
	assert.False(t, last.HasNextPage())

	empty := NewPage[int](nil, 0, Window{Number: 1, Size: 10})
	assert.Equal(t, 0, empty.TotalPages())
	assert.NotNil(t, empty.Items)
}

func TestSlice(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}

	assert.Equal(t, []int{3, 4}, Slice(items, Window{Number: 2, Size: 2}))
	assert.Equal(t, []int{5}, Slice(items, Window{Number: 3, Size: 2}))
	assert.Empty(t, Slice(items, Window{Number: 4, Size: 2}))
	assert.Equal(t, items, Slice(items, Window{}))
	assert.Empty(t, Slice(items, Window{Number: math.MaxInt64/10, Size: 40}), "overflowed offset is past the end")
}

func TestNewWindowBoundsPageNumber(t *testing.T) {
	w := NewWindow(math.MaxInt64/10, 40, MaxTaskPageSize)

	assert.Equal(t, MaxPageNumber, w.Number)
	assert.Positive(t, w.Offset())
	assert.Empty(t, Slice([]int{1, 2, 3}, w))
}

func TestOptional(t *testing.T) {
	v, ok := None[bool]().Get()
	assert.False(t, ok)
	assert.False(t, v)

	v, ok = Some(false).Get()
	assert.True(t, ok)
	assert.False(t, v)

	assert.Equal(t, 7, None[int]().OrElse(7))
}
