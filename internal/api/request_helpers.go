package api

import (
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/api/shared"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/query"
)

// requireActor returns the authenticated actor, writing a 401 when the
// auth middleware did not run.
func requireActor(w http.ResponseWriter, r *http.Request, log *slog.Logger) (domain.Actor, bool) {
	actor, ok := shared.ActorFromContext(r.Context())
	if !ok {
		log.Warn("actor not found in request context")
		HandleAPIError(w, r, domain.ErrUnauthenticated, "")
		return domain.Actor{}, false
	}
	return actor, true
}

// getPathUUID parses a UUID path parameter.
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	raw := chi.URLParam(r, paramName)
	if raw == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "is not a valid id", domain.ErrValidation)
	}
	return id, nil
}

// handleActorAndPathUUIDs resolves the actor and each named path UUID, in
// order. It writes the error response itself and reports false on failure.
func handleActorAndPathUUIDs(
	w http.ResponseWriter,
	r *http.Request,
	log *slog.Logger,
	paramNames ...string,
) (domain.Actor, []uuid.UUID, bool) {
	actor, ok := requireActor(w, r, log)
	if !ok {
		return domain.Actor{}, nil, false
	}
	ids := make([]uuid.UUID, len(paramNames))
	for i, name := range paramNames {
		id, err := getPathUUID(r, name)
		if err != nil {
			log.Debug("invalid path parameter",
				slog.String("param_name", name),
				slog.String("value", chi.URLParam(r, name)))
			HandleAPIError(w, r, err, "")
			return domain.Actor{}, nil, false
		}
		ids[i] = id
	}
	return actor, ids, true
}

// matchPathID reconciles the id in a PUT body with the one in the path.
// An empty body id takes the path id.
func matchPathID(pathID uuid.UUID, bodyID *uuid.UUID) error {
	if *bodyID == uuid.Nil {
		*bodyID = pathID
		return nil
	}
	if *bodyID != pathID {
		return domain.NewValidationError("id", "does not match the id in the path", domain.ErrValidation)
	}
	return nil
}

// parseTaskParams reads the task listing query string.
func parseTaskParams(q url.Values) (query.TaskParams, error) {
	var p query.TaskParams
	var err error

	p.Search = q.Get("search")
	if p.IsCompleted, err = optionalBool(q, "isCompleted"); err != nil {
		return p, err
	}
	if p.DueDateFrom, err = optionalDate(q, "dueDateFrom"); err != nil {
		return p, err
	}
	if p.DueDateTo, err = optionalDate(q, "dueDateTo"); err != nil {
		return p, err
	}
	if p.IncludeDeleted, err = flag(q, "includeDeleted"); err != nil {
		return p, err
	}
	if p.IncludeNotified, err = flag(q, "includeNotified"); err != nil {
		return p, err
	}
	for _, raw := range listValues(q, "priority") {
		prio, err := domain.ParsePriority(raw)
		if err != nil {
			return p, err
		}
		p.Priorities = append(p.Priorities, prio)
	}
	p.Tags = listValues(q, "tags")
	p.SortBy = q.Get("sortBy")
	p.SortOrder = q.Get("sortOrder")
	if p.PageNumber, err = positiveInt(q, "pageNumber"); err != nil {
		return p, err
	}
	if p.PageSize, err = positiveInt(q, "pageSize"); err != nil {
		return p, err
	}
	return p, nil
}

// parseSubtaskParams reads the subtask listing query string. Subtasks
// filter on a single priority.
func parseSubtaskParams(q url.Values) (query.SubtaskParams, error) {
	var p query.SubtaskParams
	var err error

	p.Search = q.Get("search")
	if p.IsCompleted, err = optionalBool(q, "isCompleted"); err != nil {
		return p, err
	}
	if p.DueDateFrom, err = optionalDate(q, "dueDateFrom"); err != nil {
		return p, err
	}
	if p.DueDateTo, err = optionalDate(q, "dueDateTo"); err != nil {
		return p, err
	}
	if p.IncludeDeleted, err = flag(q, "includeDeleted"); err != nil {
		return p, err
	}
	if raw := strings.TrimSpace(q.Get("priority")); raw != "" {
		prio, err := domain.ParsePriority(raw)
		if err != nil {
			return p, err
		}
		p.Priority = query.Some(prio)
	}
	p.SortBy = q.Get("sortBy")
	p.SortOrder = q.Get("sortOrder")
	if p.PageNumber, err = positiveInt(q, "pageNumber"); err != nil {
		return p, err
	}
	if p.PageSize, err = positiveInt(q, "pageSize"); err != nil {
		return p, err
	}
	return p, nil
}

// listValues accepts both repeated parameters and comma-separated lists.
func listValues(q url.Values, name string) []string {
	var out []string
	for _, v := range q[name] {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func optionalBool(q url.Values, name string) (query.Optional[bool], error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return query.None[bool](), nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return query.None[bool](), domain.NewValidationError(name, "must be true or false", domain.ErrValidation)
	}
	return query.Some(v), nil
}

func flag(q url.Values, name string) (bool, error) {
	v, err := optionalBool(q, name)
	return v.OrElse(false), err
}

func optionalDate(q url.Values, name string) (query.Optional[time.Time], error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return query.None[time.Time](), nil
	}
	t, err := parseDate(name, raw)
	if err != nil {
		return query.None[time.Time](), err
	}
	return query.Some(t), nil
}

// positiveInt returns 0 when the parameter is absent, leaving the default
// to the query layer.
func positiveInt(q url.Values, name string) (int, error) {
	raw := strings.TrimSpace(q.Get(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, domain.NewValidationError(name, fmt.Sprintf("must be a positive integer, got %q", raw), domain.ErrValidation)
	}
	if n > query.MaxPageNumber {
		return 0, domain.NewValidationError(name, fmt.Sprintf("must be at most %d", query.MaxPageNumber), domain.ErrValidation)
	}
	return n, nil
}
