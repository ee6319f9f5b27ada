package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/tasktrack-api/internal/api/shared"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/platform/logger"
	"github.com/phrazzld/tasktrack-api/internal/service"
)

// TagHandler serves /api/Tags.
type TagHandler struct {
	tags   service.TagService
	logger *slog.Logger
}

// NewTagHandler creates a TagHandler. A nil logger uses slog.Default().
func NewTagHandler(tags service.TagService, logger *slog.Logger) *TagHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TagHandler{
		tags:   tags,
		logger: logger.With(slog.String("component", "tag_handler")),
	}
}

// List handles GET /api/Tags.
func (h *TagHandler) List(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ok := requireActor(w, r, log)
	if !ok {
		return
	}
	tags, err := h.tags.List(r.Context(), actor)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	out := make([]TagResponse, len(tags))
	for i, t := range tags {
		out[i] = newTagResponse(t)
	}
	shared.RespondWithJSON(w, r, http.StatusOK, out)
}

// Get handles GET /api/Tags/{id}.
func (h *TagHandler) Get(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ids, ok := handleActorAndPathUUIDs(w, r, log, "id")
	if !ok {
		return
	}
	tag, err := h.tags.Get(r.Context(), actor, ids[0])
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, newTagResponse(tag))
}

// Create handles POST /api/Tags. Admin only.
func (h *TagHandler) Create(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ok := requireActor(w, r, log)
	if !ok {
		return
	}
	req, ok := decodeTagRequest(w, r)
	if !ok {
		return
	}
	tag, err := h.tags.Create(r.Context(), actor, req.Name)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	log.Info("tag created", slog.String("tag_id", tag.ID.String()))
	w.Header().Set("Location", "/api/Tags/"+tag.ID.String())
	shared.RespondWithJSON(w, r, http.StatusCreated, newTagResponse(tag))
}

// Update handles PUT /api/Tags/{id}. Admin only.
func (h *TagHandler) Update(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ids, ok := handleActorAndPathUUIDs(w, r, log, "id")
	if !ok {
		return
	}
	req, ok := decodeTagRequest(w, r)
	if !ok {
		return
	}
	if req.ID != nil && *req.ID != ids[0] {
		HandleAPIError(w, r, domain.NewValidationError("id", "does not match the id in the path", domain.ErrValidation), "")
		return
	}
	tag, err := h.tags.Rename(r.Context(), actor, ids[0], req.Name)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	shared.RespondWithJSON(w, r, http.StatusOK, newTagResponse(tag))
}

// Delete handles DELETE /api/Tags/{id}. Admin only; tags still attached
// to a task answer 409.
func (h *TagHandler) Delete(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	actor, ids, ok := handleActorAndPathUUIDs(w, r, log, "id")
	if !ok {
		return
	}
	if err := h.tags.Delete(r.Context(), actor, ids[0]); err != nil {
		HandleAPIError(w, r, err, "")
		return
	}
	log.Info("tag deleted", slog.String("tag_id", ids[0].String()))
	w.WriteHeader(http.StatusNoContent)
}

func decodeTagRequest(w http.ResponseWriter, r *http.Request) (TagRequest, bool) {
	var req TagRequest
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
