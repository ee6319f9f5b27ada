package query

import (
	"bytes"
	"strings"
	"time"
)

// SortField identifies a sortable attribute.
type SortField int

const (
	SortByCreatedAt SortField = iota
	SortByTitle
	SortByDescription
	SortByCompleted
	SortByDueDate
	SortByUpdatedAt
	SortByPriority
)

// Sort is a resolved ordering. Ties always break on ID ascending so that
// paging is stable.
type Sort struct {
	Field      SortField
	Descending bool
}

// DefaultSort is newest first.
var DefaultSort = Sort{Field: SortByCreatedAt, Descending: true}

var sortTokens = map[string]SortField{
	"title":       SortByTitle,
	"description": SortByDescription,
	"iscompleted": SortByCompleted,
	"duedate":     SortByDueDate,
	"createdat":   SortByCreatedAt,
	"updatedat":   SortByUpdatedAt,
	"priority":    SortByPriority,
}

var comparators = map[SortField]func(a, b Fields) int{
	SortByTitle: func(a, b Fields) int {
		return strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title))
	},
	SortByDescription: func(a, b Fields) int {
		return compareNullable(a.Description, b.Description, func(x, y string) int {
			return strings.Compare(strings.ToLower(x), strings.ToLower(y))
		})
	},
	SortByCompleted: func(a, b Fields) int {
		return compareBool(a.IsCompleted, b.IsCompleted)
	},
	SortByDueDate: func(a, b Fields) int {
		return compareNullable(a.DueDate, b.DueDate, time.Time.Compare)
	},
	SortByCreatedAt: func(a, b Fields) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	},
	SortByUpdatedAt: func(a, b Fields) int {
		return a.UpdatedAt.Compare(b.UpdatedAt)
	},
	SortByPriority: func(a, b Fields) int {
		return int(a.Priority) - int(b.Priority)
	},
}

// ParseSort resolves a sort token and direction. Tokens compare ignoring
// case. An empty or unknown token falls back to DefaultSort regardless of
// order. Order is descending only when it equals "desc", ignoring case.
func ParseSort(field, order string) Sort {
	f, ok := sortTokens[strings.ToLower(strings.TrimSpace(field))]
	if !ok {
		return DefaultSort
	}
	return Sort{Field: f, Descending: strings.EqualFold(strings.TrimSpace(order), "desc")}
}

// Compare returns a negative value when a sorts before b and a positive
// value when after. It returns zero only for equal IDs. Missing values sort
// first ascending and last descending.
func (s Sort) Compare(a, b Fields) int {
	cmp := comparators[s.Field]
	if cmp == nil {
		cmp = comparators[SortByCreatedAt]
	}
	c := cmp(a, b)
	if s.Descending {
		c = -c
	}
	if c != 0 {
		return c
	}
	return bytes.Compare(a.ID[:], b.ID[:])
}

func compareNullable[T any](a, b *T, cmp func(x, y T) int) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	default:
		return cmp(*a, *b)
	}
}

func compareBool(a, b bool) int {
	switch {
	case a == b:
		return 0
	case !a:
		return -1
	default:
		return 1
	}
}
