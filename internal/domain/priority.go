package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Priority is the urgency of a task or subtask. The numeric values are
// persisted and must not be reordered.
type Priority int

const (
	PriorityLow Priority = iota
	PriorityMedium
	PriorityHigh
	PriorityCritical
)

// DefaultPriority is applied when a create request omits a priority.
const DefaultPriority = PriorityMedium

var priorityNames = [...]string{"Low", "Medium", "High", "Critical"}

// Valid reports whether p is one of the four defined levels.
func (p Priority) Valid() bool {
	return p >= PriorityLow && p <= PriorityCritical
}

func (p Priority) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Priority(%d)", int(p))
	}
	return priorityNames[p]
}

// ParsePriority accepts a level name (any case) or its numeric value.
func ParsePriority(s string) (Priority, error) {
	s = strings.TrimSpace(s)
	for i, name := range priorityNames {
		if strings.EqualFold(s, name) {
			return Priority(i), nil
		}
	}
	if n, err := strconv.Atoi(s); err == nil && Priority(n).Valid() {
		return Priority(n), nil
	}
	return 0, NewValidationError("priority", fmt.Sprintf("unknown value %q", s), ErrValidation)
}

// MarshalJSON writes the level name.
func (p Priority) MarshalJSON() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("%w: priority %d", ErrValidation, int(p))
	}
	return json.Marshal(p.String())
}

// UnmarshalJSON accepts either the level name or its number.
func (p *Priority) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		parsed, err := ParsePriority(name)
		if err != nil {
			return err
		}
		*p = parsed
		return nil
	}

	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return NewValidationError("priority", "must be a name or a number", ErrValidation)
	}
	if !Priority(n).Valid() {
		return NewValidationError("priority", fmt.Sprintf("unknown value %d", n), ErrValidation)
	}
	*p = Priority(n)
	return nil
}
