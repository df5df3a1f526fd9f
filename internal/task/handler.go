package task

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/task/entity"
	"github.com/ovaphlow/pitchfork/service-task-go/pkg/utilities"
)

// Handler exposes the /tasks endpoints. Every route expects the gate to
// have put an identity on the request.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) owner(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		h.fail(w, apperr.ErrUnauthenticated)
		return "", false
	}
	return id.User.ID, true
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var draft entity.Draft
	if err := utilities.DecodeJSON(w, r, &draft, false); err != nil {
		h.logger.Debugw("invalid task payload", "err", err)
		h.fail(w, apperr.Validation("invalid payload"))
		return
	}
	t, err := h.svc.Create(r.Context(), owner, draft)
	if err != nil {
		h.fail(w, err)
		return
	}
	utilities.WriteJSON(w, http.StatusCreated, t)
}

// List handles GET /tasks?progress=true&limit=10&skip=20&sort=createdAt:desc
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	opts := entity.ParseListOptions(q.Get("progress"), q.Get("limit"), q.Get("skip"), q.Get("sort"))
	tasks, err := h.svc.List(r.Context(), owner, opts)
	if err != nil {
		h.fail(w, err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, tasks)
}

func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	t, err := h.svc.Get(r.Context(), owner, mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, t)
}

// Update accepts only description and progress. Any other key rejects the
// whole body before anything is applied.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	var patch entity.Patch
	if err := utilities.DecodeJSON(w, r, &patch, true); err != nil {
		h.logger.Debugw("invalid task update", "err", err)
		if errors.Is(err, utilities.ErrUnknownField) {
			h.fail(w, apperr.Validation("invalid updates"))
			return
		}
		h.fail(w, apperr.Validation("invalid payload"))
		return
	}
	t, err := h.svc.Update(r.Context(), owner, mux.Vars(r)["id"], patch)
	if err != nil {
		h.fail(w, err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	owner, ok := h.owner(w, r)
	if !ok {
		return
	}
	t, err := h.svc.Delete(r.Context(), owner, mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		h.logger.Errorw("task request failed", "err", err)
	}
	utilities.WriteJSON(w, status, map[string]string{"error": apperr.Message(err)})
}
