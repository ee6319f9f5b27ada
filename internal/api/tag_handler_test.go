package api_test

import (
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagCRUD(t *testing.T) {
	s := newTestServer(t)
	tag := s.createTag("  Errands ")
	assert.Equal(t, "Errands", tag.Name)

	rec := s.do("alice", http.MethodGet, "/api/Tags", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	tags := decode[[]api.TagResponse](t, rec)
	require.Len(t, tags, 1)
	assert.Equal(t, tag.ID, tags[0].ID)

	rec = s.do("alice", http.MethodGet, "/api/Tags/"+tag.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = s.do("root", http.MethodPut, "/api/Tags/"+tag.ID.String(), map[string]interface{}{"id": tag.ID, "name": "chores"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "chores", decode[api.TagResponse](t, rec).Name)

	rec = s.do("root", http.MethodPut, "/api/Tags/"+tag.ID.String(), map[string]interface{}{"id": uuid.New(), "name": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "id", errorBody(t, rec).Field)

	require.Equal(t, http.StatusNoContent, s.do("root", http.MethodDelete, "/api/Tags/"+tag.ID.String(), nil).Code)
	assert.Equal(t, http.StatusNotFound, s.do("alice", http.MethodGet, "/api/Tags/"+tag.ID.String(), nil).Code)
}

func TestTagMutationsAreAdminOnly(t *testing.T) {
	s := newTestServer(t)
	tag := s.createTag("work")

	rec := s.do("alice", http.MethodPost, "/api/Tags", map[string]string{"name": "mine"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Not found", errorBody(t, rec).Error)

	assert.Equal(t, http.StatusNotFound,
		s.do("alice", http.MethodPut, "/api/Tags/"+tag.ID.String(), map[string]string{"name": "x"}).Code)
	assert.Equal(t, http.StatusNotFound, s.do("alice", http.MethodDelete, "/api/Tags/"+tag.ID.String(), nil).Code)
}

func TestTagConflicts(t *testing.T) {
	s := newTestServer(t)
	tag := s.createTag("urgent")

	rec := s.do("root", http.MethodPost, "/api/Tags", map[string]string{"name": "URGENT"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "A tag with this name already exists", errorBody(t, rec).Error)

	s.createTask("alice", map[string]interface{}{"title": "call", "tags": []string{"urgent"}})
	rec = s.do("root", http.MethodDelete, "/api/Tags/"+tag.ID.String(), nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "Tag is in use by one or more tasks", errorBody(t, rec).Error)

	rec = s.do("root", http.MethodPost, "/api/Tags", map[string]string{"name": ""})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "name", errorBody(t, rec).Field)
}
