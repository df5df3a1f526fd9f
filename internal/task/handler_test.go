package task

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/task/entity"
	userentity "github.com/ovaphlow/pitchfork/service-task-go/internal/user/entity"
)

func call(h http.HandlerFunc, method, target, owner, id, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if owner != "" {
		req = req.WithContext(auth.NewContext(req.Context(), auth.Identity{User: &userentity.User{ID: owner}, Token: "tok"}))
	}
	if id != "" {
		req = mux.SetURLVars(req, map[string]string{"id": id})
	}
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func TestHandler_CreateIgnoresClientOwner(t *testing.T) {
	h := NewHandler(newService(t, "a", "b"), zap.NewNop().Sugar())

	rr := call(h.Create, http.MethodPost, "/tasks", "a", "", `{"description":"x","owner":"b"}`)
	require.Equal(t, http.StatusCreated, rr.Code)

	var got entity.Task
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	assert.Equal(t, "a", got.OwnerID)
}

func TestHandler_UpdateAllowList(t *testing.T) {
	svc := newService(t, "a")
	h := NewHandler(svc, zap.NewNop().Sugar())
	task, err := svc.Create(context.Background(), "a", entity.Draft{Description: "orig"})
	require.NoError(t, err)

	rr := call(h.Update, http.MethodPatch, "/tasks/"+task.ID, "a", task.ID, `{"description":"new","owner":"b"}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"validation failed: invalid updates"}`, rr.Body.String())

	got, err := svc.Get(context.Background(), "a", task.ID)
	require.NoError(t, err)
	assert.Equal(t, "orig", got.Description)

	rr = call(h.Update, http.MethodPatch, "/tasks/"+task.ID, "a", task.ID, `{"progress":true}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"progress":true`)
}

func TestHandler_UpdateKeysAreCaseSensitive(t *testing.T) {
	svc := newService(t, "a")
	h := NewHandler(svc, zap.NewNop().Sugar())
	task, err := svc.Create(context.Background(), "a", entity.Draft{Description: "orig"})
	require.NoError(t, err)

	rr := call(h.Update, http.MethodPatch, "/tasks/"+task.ID, "a", task.ID, `{"Description":"x","PROGRESS":true}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.JSONEq(t, `{"error":"validation failed: invalid updates"}`, rr.Body.String())

	got, err := svc.Get(context.Background(), "a", task.ID)
	require.NoError(t, err)
	assert.Equal(t, "orig", got.Description)
	assert.False(t, got.Progress)
}

func TestHandler_NotFoundForOtherOwner(t *testing.T) {
	svc := newService(t, "a", "b")
	h := NewHandler(svc, zap.NewNop().Sugar())
	task, err := svc.Create(context.Background(), "a", entity.Draft{Description: "mine"})
	require.NoError(t, err)

	for name, fn := range map[string]http.HandlerFunc{"get": h.Get, "update": h.Update, "delete": h.Delete} {
		t.Run(name, func(t *testing.T) {
			rr := call(fn, http.MethodGet, "/tasks/"+task.ID, "b", task.ID, `{}`)
			assert.Equal(t, http.StatusNotFound, rr.Code)
		})
	}
}

func TestHandler_ListQuery(t *testing.T) {
	svc := newService(t, "a")
	h := NewHandler(svc, zap.NewNop().Sugar())
	ctx := context.Background()
	for _, d := range []string{"c", "a", "b"} {
		_, err := svc.Create(ctx, "a", entity.Draft{Description: d, Progress: d == "b"})
		require.NoError(t, err)
	}

	decode := func(rr *httptest.ResponseRecorder) []string {
		var tasks []entity.Task
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &tasks))
		out := []string{}
		for _, task := range tasks {
			out = append(out, task.Description)
		}
		return out
	}

	assert.Equal(t, []string{"c", "a", "b"}, decode(call(h.List, http.MethodGet, "/tasks", "a", "", "")))
	assert.Equal(t, []string{"c", "b", "a"}, decode(call(h.List, http.MethodGet, "/tasks?sort=description:desc", "a", "", "")))
	assert.Equal(t, []string{"b"}, decode(call(h.List, http.MethodGet, "/tasks?progress=true", "a", "", "")))
	assert.Equal(t, []string{"c", "a"}, decode(call(h.List, http.MethodGet, "/tasks?progress=false", "a", "", "")))
	assert.Equal(t, []string{"c", "a", "b"}, decode(call(h.List, http.MethodGet, "/tasks?progress=", "a", "", "")))
	assert.Equal(t, []string{"a"}, decode(call(h.List, http.MethodGet, "/tasks?limit=1&skip=1", "a", "", "")))
	assert.Equal(t, []string{"c", "a", "b"}, decode(call(h.List, http.MethodGet, "/tasks?limit=abc&skip=-1", "a", "", "")))
}

func TestHandler_RequiresIdentity(t *testing.T) {
	h := NewHandler(newService(t), zap.NewNop().Sugar())
	rr := call(h.List, http.MethodGet, "/tasks", "", "", "")
	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}
