package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/api/shared"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/query"
	"github.com/phrazzld/tasktrack-api/internal/service"
)

// TaskHandler serves /api/Task.
type TaskHandler struct {
	tasks  service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a TaskHandler. A nil logger uses slog.Default().
func NewTaskHandler(tasks service.TaskService, logger *slog.Logger) *TaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskHandler{
		tasks:  tasks,
		logger: logger.With(slog.String("component", "task_handler")),
	}
}

// List handles GET /api/Task. Admins see every task, other callers their
// own and the ones they assigned.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.tasks.List)
}

// ListAssigned handles GET /api/Task/assigned: tasks owned by the caller.
func (h *TaskHandler) ListAssigned(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.tasks.ListAssignedToMe)
}

type taskLister func(ctx context.Context, actor domain.Actor, params query.TaskParams) (query.Page[*domain.Task], error)

func (h *TaskHandler) list(w http.ResponseWriter, r *http.Request, fetch taskLister) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ok := requireActor(w, r, log)
	if !ok {
		return
	}
	params, err := parseTaskParams(r.URL.Query())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	page, err := fetch(r.Context(), actor, params)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, newPageResponse(page, newTaskResponse))
}

// Get handles GET /api/Task/{id}.
func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ids, ok := handleActorAndPathUUIDs(w, r, log, "id")
	if !ok {
		return
	}
	task, err := h.tasks.Get(r.Context(), actor, ids[0])
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, newTaskResponse(task))
}

// Create handles POST /api/Task.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ok := requireActor(w, r, log)
	if !ok {
		return
	}
	var req CreateTaskRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	task, err := h.tasks.Create(r.Context(), actor, req.toInput())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	log.Info("task created", slog.String("task_id", task.ID.String()))
	w.Header().Set("Location", "/api/Task/"+task.ID.String())
	shared.RespondWithJSON(w, r, http.StatusCreated, newTaskResponse(task))
}

// Update handles PUT /api/Task, where the body carries the id.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ok := requireActor(w, r, log)
	if !ok {
		return
	}
	req, ok := h.decodeUpdate(w, r)
	if !ok {
		return
	}
	if req.ID == uuid.Nil {
		HandleAPIError(w, r, domain.NewValidationError("id", "is required", domain.ErrValidation), "")
		return
	}
	h.update(w, r, actor, req)
}

// UpdateByID handles PUT /api/Task/{id}. A body id, when present, must
// match the path.
func (h *TaskHandler) UpdateByID(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ids, ok := handleActorAndPathUUIDs(w, r, log, "id")
	if !ok {
		return
	}
	req, ok := h.decodeUpdate(w, r)
	if !ok {
		return
	}
	if err := matchPathID(ids[0], &req.ID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	h.update(w, r, actor, req)
}

func (h *TaskHandler) decodeUpdate(w http.ResponseWriter, r *http.Request) (UpdateTaskRequest, bool) {
	var req UpdateTaskRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return req, false
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err, "")
		return req, false
	}
	return req, true
}

func (h *TaskHandler) update(w http.ResponseWriter, r *http.Request, actor domain.Actor, req UpdateTaskRequest) {
	task, err := h.tasks.Update(r.Context(), actor, req.toInput())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, newTaskResponse(task))
}

// Delete handles DELETE /api/Task/{id}.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ids, ok := handleActorAndPathUUIDs(w, r, log, "id")
	if !ok {
		return
	}
	if err := h.tasks.Delete(r.Context(), actor, ids[0]); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	log.Info("task deleted", slog.String("task_id", ids[0].String()))
	w.WriteHeader(http.StatusNoContent)
}

// Restore handles POST /api/Task/{id}/restore.
func (h *TaskHandler) Restore(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ids, ok := handleActorAndPathUUIDs(w, r, log, "id")
	if !ok {
		return
	}
	if err := h.tasks.Restore(r.Context(), actor, ids[0]); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	log.Info("task restored", slog.String("task_id", ids[0].String()))
	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{
		Message: "Task " + ids[0].String() + " restored",
	})
}
