// Package sqlfilter renders query predicates and sort orders as SQL for the
// postgres and sqlite backends. Both schemas share column names, so the
// only dialect difference is the placeholder syntax.
package sqlfilter

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/query"
	"github.com/phrazzld/tasktrack-api/internal/store"
)

// Dialect selects the placeholder style.
type Dialect int

const (
	// Postgres uses numbered placeholders ($1, $2, ...).
	Postgres Dialect = iota
	// SQLite uses positional question marks.
	SQLite
)

// Builder accumulates WHERE clauses and their arguments.
type Builder struct {
	dialect Dialect
	alias   string
	clauses []string
	args    []any
}

// New returns a Builder for table alias. Arguments already bound by the
// caller are counted so numbered placeholders continue after them.
func New(d Dialect, alias string, boundArgs ...any) *Builder {
	return &Builder{dialect: d, alias: alias, args: append([]any(nil), boundArgs...)}
}

// Args returns every bound argument, in order.
func (b *Builder) Args() []any {
	return b.args
}

// Bind appends v and returns its placeholder.
func (b *Builder) Bind(v any) string {
	b.args = append(b.args, v)
	if b.dialect == SQLite {
		return "?"
	}
	return "$" + strconv.Itoa(len(b.args))
}

// Where returns the rendered conjunction without the WHERE keyword. An empty
// builder renders an always-true condition.
func (b *Builder) Where() string {
	if len(b.clauses) == 0 {
		return "1 = 1"
	}
	return strings.Join(b.clauses, " AND ")
}

func (b *Builder) col(name string) string {
	if b.alias == "" {
		return name
	}
	return b.alias + "." + name
}

// Add renders each predicate. It fails on predicate types it cannot express.
func (b *Builder) Add(preds ...query.Predicate) error {
	for _, p := range preds {
		clause, err := b.render(p)
		if err != nil {
			return err
		}
		b.clauses = append(b.clauses, clause)
	}
	return nil
}

func (b *Builder) render(p query.Predicate) (string, error) {
	switch p := p.(type) {
	case query.Search:
		pattern := "%" + escapeLike(strings.ToLower(p.Text)) + "%"
		title := b.Bind(pattern)
		desc := b.Bind(pattern)
		return fmt.Sprintf(`(LOWER(%s) LIKE %s ESCAPE '\' OR (%s IS NOT NULL AND LOWER(%s) LIKE %s ESCAPE '\'))`,
			b.col("title"), title, b.col("description"), b.col("description"), desc), nil

	case query.CompletedIs:
		if p.Value {
			return b.col("is_completed"), nil
		}
		return "NOT " + b.col("is_completed"), nil

	case query.DueOnOrAfter:
		return fmt.Sprintf("%s >= %s", b.col("due_date"), b.Bind(p.From.UTC())), nil

	case query.DueOnOrBefore:
		return fmt.Sprintf("%s <= %s", b.col("due_date"), b.Bind(p.To.UTC())), nil

	case query.PriorityIn:
		if len(p.Values) == 0 {
			return "1 = 0", nil
		}
		return fmt.Sprintf("%s IN (%s)", b.col("priority"), b.bindList(priorities(p.Values))), nil

	case query.HasAnyTag:
		if len(p.Names) == 0 {
			return "1 = 0", nil
		}
		keys := make([]any, len(p.Names))
		for i, n := range p.Names {
			keys[i] = domain.TagKey(n)
		}
		return fmt.Sprintf(
			"EXISTS (SELECT 1 FROM task_tags tt JOIN tags g ON g.id = tt.tag_id WHERE tt.task_id = %s AND LOWER(g.name) IN (%s))",
			b.col("id"), b.bindList(keys)), nil

	case query.NotDeleted:
		return "NOT " + b.col("is_deleted"), nil

	case query.NotNotified:
		return "NOT " + b.col("is_notified"), nil

	case query.NotificationEnabled:
		return b.col("is_notification_enabled"), nil

	case query.NotificationBetween:
		return fmt.Sprintf("(%s IS NOT NULL AND %s >= %s AND %s <= %s)",
			b.col("notification_at"),
			b.col("notification_at"), b.Bind(p.From.UTC()),
			b.col("notification_at"), b.Bind(p.To.UTC())), nil

	case query.OwnedBy:
		return fmt.Sprintf("%s = %s", b.col("user_id"), b.Bind(p.UserID.String())), nil

	case query.OwnedOrAssignedBy:
		id := p.UserID.String()
		return fmt.Sprintf("(%s = %s OR %s = %s)",
			b.col("user_id"), b.Bind(id), b.col("assigned_by_user_id"), b.Bind(id)), nil

	case query.ParentIs:
		return fmt.Sprintf("%s = %s", b.col("parent_task_id"), b.Bind(p.TaskID.String())), nil

	case query.ParentNotDeleted:
		return fmt.Sprintf("EXISTS (SELECT 1 FROM tasks p WHERE p.id = %s AND NOT p.is_deleted)",
			b.col("parent_task_id")), nil

	default:
		return "", fmt.Errorf("%w: %T", store.ErrUnsupportedPredicate, p)
	}
}

func (b *Builder) bindList(values []any) string {
	ph := make([]string, len(values))
	for i, v := range values {
		ph[i] = b.Bind(v)
	}
	return strings.Join(ph, ", ")
}

func priorities(ps []domain.Priority) []any {
	out := make([]any, len(ps))
	for i, p := range ps {
		out[i] = int(p)
	}
	return out
}

var sortColumns = map[query.SortField]string{
	query.SortByTitle:       "LOWER(%s)",
	query.SortByDescription: "LOWER(%s)",
	query.SortByCompleted:   "%s",
	query.SortByDueDate:     "%s",
	query.SortByCreatedAt:   "%s",
	query.SortByUpdatedAt:   "%s",
	query.SortByPriority:    "%s",
}

var sortColumnNames = map[query.SortField]string{
	query.SortByTitle:       "title",
	query.SortByDescription: "description",
	query.SortByCompleted:   "is_completed",
	query.SortByDueDate:     "due_date",
	query.SortByCreatedAt:   "created_at",
	query.SortByUpdatedAt:   "updated_at",
	query.SortByPriority:    "priority",
}

// OrderBy renders the ORDER BY list, without the keyword, for s. Missing
// values sort first ascending and last descending, and ties break on id.
func OrderBy(alias string, s query.Sort) string {
	name, ok := sortColumnNames[s.Field]
	if !ok {
		s = query.DefaultSort
		name = sortColumnNames[s.Field]
	}
	prefix := ""
	if alias != "" {
		prefix = alias + "."
	}
	expr := fmt.Sprintf(sortColumns[s.Field], prefix+name)

	dir := "ASC NULLS FIRST"
	if s.Descending {
		dir = "DESC NULLS LAST"
	}
	return fmt.Sprintf("%s %s, %sid ASC", expr, dir, prefix)
}

// LimitOffset renders the LIMIT/OFFSET suffix for w, or "" when unbounded.
func LimitOffset(w query.Window) string {
	if w.Unbounded() {
		return ""
	}
	return fmt.Sprintf(" LIMIT %d OFFSET %d", w.Size, w.Offset())
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
