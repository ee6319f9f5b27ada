package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/tasktrack-api/internal/api"
	"github.com/phrazzld/tasktrack-api/internal/api/middleware"
	"github.com/phrazzld/tasktrack-api/internal/api/shared"
	"github.com/phrazzld/tasktrack-api/internal/clock"
	"github.com/phrazzld/tasktrack-api/internal/domain"
	"github.com/phrazzld/tasktrack-api/internal/mocks"
	"github.com/phrazzld/tasktrack-api/internal/platform/memory"
	"github.com/phrazzld/tasktrack-api/internal/service"
	"github.com/phrazzld/tasktrack-api/internal/service/auth"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 6, 2, 8, 0, 0, 0, time.UTC)

// testServer routes real handlers over services on a memory gateway. The
// bearer token is the name of one of the known users.
type testServer struct {
	t       *testing.T
	handler http.Handler
	gw      *memory.Gateway
	users   map[string]domain.Actor
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	ctx := context.Background()
	gw := memory.NewGateway()
	clk := clock.NewManual(t0)

	users := map[string]domain.Actor{
		"root":  domain.NewActor(uuid.New(), domain.RoleAdmin),
		"alice": domain.NewActor(uuid.New(), domain.RoleUser),
		"bob":   domain.NewActor(uuid.New(), domain.RoleUser),
	}
	for name, a := range users {
		require.NoError(t, gw.Users().Upsert(ctx, &domain.User{ID: a.UserID, UserName: name, Roles: a.Roles}))
	}

	tasks, err := service.NewTaskService(gw, clk, nil)
	require.NoError(t, err)
	subtasks, err := service.NewSubtaskService(gw, clk, nil)
	require.NoError(t, err)
	tags, err := service.NewTagService(gw, nil)
	require.NoError(t, err)

	jwt := &mocks.MockJWTService{
		ValidateTokenFn: func(_ context.Context, token string) (*auth.Claims, error) {
			a, ok := users[token]
			if !ok {
				return nil, auth.ErrInvalidToken
			}
			return &auth.Claims{UserID: a.UserID, Roles: a.Roles}, nil
		},
	}

	taskH := api.NewTaskHandler(tasks, nil)
	subH := api.NewSubtaskHandler(subtasks, nil)
	tagH := api.NewTagHandler(tags, nil)

	r := chi.NewRouter()
	r.Use(middleware.Trace(nil))
	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NewAuthMiddleware(jwt, nil).Authenticate)
		r.Route("/Task", func(r chi.Router) {
			r.Get("/", taskH.List)
			r.Post("/", taskH.Create)
			r.Put("/", taskH.Update)
			r.Get("/assigned", taskH.ListAssigned)
			r.Get("/{id}", taskH.Get)
			r.Put("/{id}", taskH.UpdateByID)
			r.Delete("/{id}", taskH.Delete)
			r.Post("/{id}/restore", taskH.Restore)
		})
		r.Route("/Tasks/{parentTaskId}/SubtaskItem", func(r chi.Router) {
			r.Get("/", subH.List)
			r.Post("/", subH.Create)
			r.Put("/", subH.Update)
			r.Get("/{id}", subH.Get)
			r.Put("/{id}", subH.UpdateByID)
			r.Delete("/{id}", subH.Delete)
			r.Post("/{id}/restore", subH.Restore)
		})
		r.Route("/Tags", func(r chi.Router) {
			r.Get("/", tagH.List)
			r.Post("/", tagH.Create)
			r.Get("/{id}", tagH.Get)
			r.Put("/{id}", tagH.Update)
			r.Delete("/{id}", tagH.Delete)
		})
	})

	return &testServer{t: t, handler: r, gw: gw, users: users}
}

// do sends body (marshalled unless nil) as user and returns the recorder.
func (s *testServer) do(user, method, path string, body interface{}) *httptest.ResponseRecorder {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("Authorization", "Bearer "+user)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *testServer) createTask(user string, body map[string]interface{}) api.TaskResponse {
	s.t.Helper()
	rec := s.do(user, http.MethodPost, "/api/Task", body)
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[api.TaskResponse](s.t, rec)
}

func (s *testServer) createTag(name string) api.TagResponse {
	s.t.Helper()
	rec := s.do("root", http.MethodPost, "/api/Tags", map[string]string{"name": name})
	require.Equal(s.t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[api.TagResponse](s.t, rec)
}

func errorBody(t *testing.T, rec *httptest.ResponseRecorder) shared.ErrorResponse {
	t.Helper()
	return decode[shared.ErrorResponse](t, rec)
}
