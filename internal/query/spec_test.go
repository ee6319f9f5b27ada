package query

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func timePtr(t time.Time) *time.Time { return &t }

func TestTaskParamsDefaults(t *testing.T) {
	spec := TaskParams{}.Spec()

	assert.Equal(t, []Predicate{NotDeleted{}, NotNotified{}}, spec.Predicates)
	assert.Equal(t, DefaultSort, spec.Sort)
	assert.Equal(t, Window{Number: 1, Size: 10}, spec.Window)
}

func TestTaskParamsPageSizeCap(t *testing.T) {
	spec := TaskParams{PageNumber: 3, PageSize: 100}.Spec()
	assert.Equal(t, Window{Number: 3, Size: MaxTaskPageSize}, spec.Window)

	sub := SubtaskParams{PageSize: 100}.Spec()
	assert.Equal(t, MaxSubtaskPageSize, sub.Window.Size)
}

func TestTaskParamsDueDateToIncludesWholeDay(t *testing.T) {
	to := time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
	spec := TaskParams{DueDateTo: Some(to), IncludeDeleted: true, IncludeNotified: true}.Spec()

	require.Len(t, spec.Predicates, 1)
	assert.Equal(t, DueOnOrBefore{To: to.Add(24 * time.Hour)}, spec.Predicates[0])

	endOfDay := Fields{DueDate: timePtr(time.Date(2025, 1, 10, 23, 0, 0, 0, time.UTC))}
	assert.True(t, spec.Matches(endOfDay))
	assert.False(t, spec.Matches(Fields{}), "records without due date never match")
}

func TestSearchMatchesTitleOrDescription(t *testing.T) {
	p := Search{Text: "REPORT"}

	assert.True(t, p.Matches(Fields{Title: "Quarterly report"}))
	assert.True(t, p.Matches(Fields{Title: "x", Description: strPtr("the report draft")}))
	assert.False(t, p.Matches(Fields{Title: "x"}))
}

func TestHasAnyTagIgnoresCase(t *testing.T) {
	task := &domain.Task{Tags: []domain.Tag{{Name: "Work"}}}
	f := TaskFields(task)

	assert.True(t, HasAnyTag{Names: []string{"home", "work"}}.Matches(f))
	assert.False(t, HasAnyTag{Names: []string{"home"}}.Matches(f))
}

func TestSubtaskParamsExcludesDeletedParents(t *testing.T) {
	spec := SubtaskParams{}.Spec()
	sub := &domain.Subtask{ID: uuid.New()}

	assert.True(t, spec.Matches(SubtaskFields(sub, false)))
	assert.False(t, spec.Matches(SubtaskFields(sub, true)))

	all := SubtaskParams{IncludeDeleted: true}.Spec()
	assert.True(t, all.Matches(SubtaskFields(sub, true)))
}

func TestOwnedOrAssignedBy(t *testing.T) {
	admin := uuid.New()
	other := uuid.New()
	p := OwnedOrAssignedBy{UserID: admin}

	assert.True(t, p.Matches(Fields{OwnerID: admin}))
	assert.True(t, p.Matches(Fields{OwnerID: other, AssignerID: &admin}))
	assert.False(t, p.Matches(Fields{OwnerID: other}))
}

func TestSpecWhereDoesNotAlias(t *testing.T) {
	base := Spec{Predicates: make([]Predicate, 1, 4)}
	base.Predicates[0] = NotDeleted{}

	a := base.Where(CompletedIs{Value: true})
	b := base.Where(CompletedIs{Value: false})

	assert.Equal(t, CompletedIs{Value: true}, a.Predicates[1])
	assert.Equal(t, CompletedIs{Value: false}, b.Predicates[1])
	assert.Len(t, base.Predicates, 1)
}

func TestDueRemindersWindow(t *testing.T) {
	now := time.Date(2025, 5, 1, 10, 0, 0, 0, time.UTC)
	spec := DueReminders(now, 5*time.Minute)
	require.True(t, spec.Window.Unbounded())

	base := Fields{NotificationEnabled: true}
	tests := []struct {
		name string
		edit func(f *Fields)
		want bool
	}{
		{"inside window", func(f *Fields) { f.NotificationAt = timePtr(now.Add(3 * time.Minute)) }, true},
		{"at upper bound", func(f *Fields) { f.NotificationAt = timePtr(now.Add(5 * time.Minute)) }, true},
		{"past", func(f *Fields) { f.NotificationAt = timePtr(now.Add(-time.Second)) }, false},
		{"too far ahead", func(f *Fields) { f.NotificationAt = timePtr(now.Add(6 * time.Minute)) }, false},
		{"already notified", func(f *Fields) {
			f.NotificationAt = timePtr(now)
			f.IsNotified = true
		}, false},
		{"completed", func(f *Fields) {
			f.NotificationAt = timePtr(now)
			f.IsCompleted = true
		}, false},
		{"disabled", func(f *Fields) {
			f.NotificationAt = timePtr(now)
			f.NotificationEnabled = false
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := base
			tt.edit(&f)
			assert.Equal(t, tt.want, spec.Matches(f))
		})
	}
}
