package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/api/shared"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/service"
)

// Path parameters of the subtask routes.
const (
	parentParam  = "parentTaskId"
	subtaskParam = "id"
)

// SubtaskHandler serves /api/Tasks/{parentTaskId}/SubtaskItem.
type SubtaskHandler struct {
	subtasks service.SubtaskService
	logger   *slog.Logger
}

// NewSubtaskHandler creates a SubtaskHandler. A nil logger uses
// slog.Default().
func NewSubtaskHandler(subtasks service.SubtaskService, logger *slog.Logger) *SubtaskHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &SubtaskHandler{
		subtasks: subtasks,
		logger:   logger.With(slog.String("component", "subtask_handler")),
	}
}

// List handles GET .../SubtaskItem.
func (h *SubtaskHandler) List(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ids, ok := handleActorAndPathUUIDs(w, r, log, parentParam)
	if !ok {
		return
	}
	params, err := parseSubtaskParams(r.URL.Query())
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	page, err := h.subtasks.List(r.Context(), actor, ids[0], params)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, newPageResponse(page, newSubtaskResponse))
}

// Get handles GET .../SubtaskItem/{id}.
func (h *SubtaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ids, ok := handleActorAndPathUUIDs(w, r, log, parentParam, subtaskParam)
	if !ok {
		return
	}
	sub, err := h.subtasks.Get(r.Context(), actor, ids[0], ids[1])
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, newSubtaskResponse(sub))
}

// Create handles POST .../SubtaskItem.
func (h *SubtaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ids, ok := handleActorAndPathUUIDs(w, r, log, parentParam)
	if !ok {
		return
	}
	var req CreateSubtaskRequest
	if err := shared.DecodeJSON(w, r, &req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	sub, err := h.subtasks.Create(r.Context(), actor, service.CreateSubtaskInput{
		ParentTaskID: ids[0],
		Title:        req.Title,
		Description:  req.Description,
		DueDate:      req.DueDate.ptr(),
		Priority:     req.Priority,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	log.Info("subtask created",
		slog.String("subtask_id", sub.ID.String()),
		slog.String("parent_task_id", sub.ParentTaskID.String()))
	w.Header().Set("Location", "/api/Tasks/"+sub.ParentTaskID.String()+"/SubtaskItem/"+sub.ID.String())
	shared.RespondWithJSON(w, r, http.StatusCreated, newSubtaskResponse(sub))
}

// Update handles PUT .../SubtaskItem with the id in the body.
func (h *SubtaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ids, ok := handleActorAndPathUUIDs(w, r, log, parentParam)
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
	h.update(w, r, actor, ids[0], req)
}

// UpdateByID handles PUT .../SubtaskItem/{id}.
func (h *SubtaskHandler) UpdateByID(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ids, ok := handleActorAndPathUUIDs(w, r, log, parentParam, subtaskParam)
	if !ok {
		return
	}
	req, ok := h.decodeUpdate(w, r)
	if !ok {
		return
	}
	if err := matchPathID(ids[1], &req.ID); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	h.update(w, r, actor, ids[0], req)
}

func (h *SubtaskHandler) decodeUpdate(w http.ResponseWriter, r *http.Request) (UpdateSubtaskRequest, bool) {
	var req UpdateSubtaskRequest
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

func (h *SubtaskHandler) update(
	w http.ResponseWriter,
	r *http.Request,
	actor domain.Actor,
	parentID uuid.UUID,
	req UpdateSubtaskRequest,
) {
	sub, err := h.subtasks.Update(r.Context(), actor, service.UpdateSubtaskInput{
		ID:           req.ID,
		ParentTaskID: parentID,
		Title:        req.Title,
		Description:  req.Description,
		IsCompleted:  req.IsCompleted,
		DueDate:      req.DueDate.ptr(),
		Priority:     req.Priority,
		Version:      req.Version,
	})
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, newSubtaskResponse(sub))
}

// Delete handles DELETE .../SubtaskItem/{id}.
func (h *SubtaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ids, ok := handleActorAndPathUUIDs(w, r, log, parentParam, subtaskParam)
	if !ok {
		return
	}
	if err := h.subtasks.Delete(r.Context(), actor, ids[0], ids[1]); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	log.Info("subtask deleted", slog.String("subtask_id", ids[1].String()))
	w.WriteHeader(http.StatusNoContent)
}

// Restore handles POST .../SubtaskItem/{id}/restore.
func (h *SubtaskHandler) Restore(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ids, ok := handleActorAndPathUUIDs(w, r, log, parentParam, subtaskParam)
	if !ok {
		return
	}
	if err := h.subtasks.Restore(r.Context(), actor, ids[0], ids[1]); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	log.Info("subtask restored", slog.String("subtask_id", ids[1].String()))
	shared.RespondWithJSON(w, r, http.StatusOK, MessageResponse{
		Message: "Subtask " + ids[1].String() + " restored",
	})
}
