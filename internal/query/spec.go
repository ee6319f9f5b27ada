package query

import (
	"strings"
	"time"

	"github.com/phrazzld/tasktrack-api/internal/domain"
)

// Spec is a backend-neutral listing request: a conjunction of predicates,
// an ordering and a window.
type Spec struct {
	Predicates []Predicate
	Sort       Sort
	Window     Window
}

// Where returns a copy of s with preds added to the conjunction.
func (s Spec) Where(preds ...Predicate) Spec {
	out := s
	out.Predicates = make([]Predicate, 0, len(s.Predicates)+len(preds))
	out.Predicates = append(out.Predicates, s.Predicates...)
	out.Predicates = append(out.Predicates, preds...)
	return out
}

// Matches reports whether f satisfies every predicate.
func (s Spec) Matches(f Fields) bool {
	for _, p := range s.Predicates {
		if !p.Matches(f) {
			return false
		}
	}
	return true
}

// TaskParams are the caller-facing task list options.
type TaskParams struct {
	Search          string
	IsCompleted     Optional[bool]
	DueDateFrom     Optional[time.Time]
	DueDateTo       Optional[time.Time]
	Priorities      []domain.Priority
	Tags            []string
	IncludeDeleted  bool
	IncludeNotified bool
	SortBy          string
	SortOrder       string
	PageNumber      int
	PageSize        int
}

// Spec translates the params. The due-date upper bound is extended by one
// day so that a date-only bound includes the whole day.
func (p TaskParams) Spec() Spec {
	var preds []Predicate
	if !p.IncludeDeleted {
		preds = append(preds, NotDeleted{})
	}
	if !p.IncludeNotified {
		preds = append(preds, NotNotified{})
	}
	preds = append(preds, common(p.Search, p.IsCompleted, p.DueDateFrom, p.DueDateTo)...)
	if len(p.Priorities) > 0 {
		preds = append(preds, PriorityIn{Values: p.Priorities})
	}
	if names := cleanNames(p.Tags); len(names) > 0 {
		preds = append(preds, HasAnyTag{Names: names})
	}
	return Spec{
		Predicates: preds,
		Sort:       ParseSort(p.SortBy, p.SortOrder),
		Window:     NewWindow(p.PageNumber, p.PageSize, MaxTaskPageSize),
	}
}

// SubtaskParams are the caller-facing subtask list options.
type SubtaskParams struct {
	Search         string
	IsCompleted    Optional[bool]
	DueDateFrom    Optional[time.Time]
	DueDateTo      Optional[time.Time]
	Priority       Optional[domain.Priority]
	IncludeDeleted bool
	SortBy         string
	SortOrder      string
	PageNumber     int
	PageSize       int
}

// Spec translates the params. Unless deleted records are requested, both
// deleted subtasks and subtasks of deleted parents are excluded.
func (p SubtaskParams) Spec() Spec {
	var preds []Predicate
	if !p.IncludeDeleted {
		preds = append(preds, NotDeleted{}, ParentNotDeleted{})
	}
	preds = append(preds, common(p.Search, p.IsCompleted, p.DueDateFrom, p.DueDateTo)...)
	if prio, ok := p.Priority.Get(); ok {
		preds = append(preds, PriorityIn{Values: []domain.Priority{prio}})
	}
	return Spec{
		Predicates: preds,
		Sort:       ParseSort(p.SortBy, p.SortOrder),
		Window:     NewWindow(p.PageNumber, p.PageSize, MaxSubtaskPageSize),
	}
}

func common(search string, completed Optional[bool], from, to Optional[time.Time]) []Predicate {
	var preds []Predicate
	if s := strings.TrimSpace(search); s != "" {
		preds = append(preds, Search{Text: s})
	}
	if v, ok := completed.Get(); ok {
		preds = append(preds, CompletedIs{Value: v})
	}
	if v, ok := from.Get(); ok {
		preds = append(preds, DueOnOrAfter{From: v})
	}
	if v, ok := to.Get(); ok {
		preds = append(preds, DueOnOrBefore{To: v.Add(24 * time.Hour)})
	}
	return preds
}

func cleanNames(names []string) []string {
	var out []string
	for _, n := range names {
		if n = domain.NormalizeTagName(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}

// DueReminders selects every task whose reminder should fire in the
// notification window [now, now+lead], earliest due first.
func DueReminders(now time.Time, lead time.Duration) Spec {
	return Spec{
		Predicates: []Predicate{
			NotificationEnabled{},
			NotNotified{},
			CompletedIs{Value: false},
			NotDeleted{},
			NotificationBetween{From: now, To: now.Add(lead)},
		},
		Sort: Sort{Field: SortByDueDate},
	}
}
