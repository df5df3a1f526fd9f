package user

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-task-go/pkg/utilities"
)

// Handler exposes HTTP endpoints for accounts and sessions.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// SessionResponse is returned by register and login.
type SessionResponse struct {
	User  entity.PublicProfile `json:"user"`
	Token string               `json:"token"`
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req entity.Registration
	if err := utilities.DecodeJSON(w, r, &req, false); err != nil {
		h.logger.Debugw("invalid register payload", "err", err)
		h.fail(w, apperr.Validation("invalid payload"))
		return
	}
	u, token, err := h.svc.Register(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	utilities.WriteJSON(w, http.StatusCreated, SessionResponse{User: u.Public(), Token: token})
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req entity.Credentials
	if err := utilities.DecodeJSON(w, r, &req, false); err != nil {
		h.logger.Debugw("invalid login payload", "err", err)
		h.fail(w, apperr.Validation("invalid payload"))
		return
	}
	u, token, err := h.svc.Login(r.Context(), req)
	if err != nil {
		h.logger.Debugw("login failed", "err", err)
		h.fail(w, err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, SessionResponse{User: u.Public(), Token: token})
}

func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		h.fail(w, apperr.ErrUnauthenticated)
		return
	}
	if err := h.svc.Logout(r.Context(), id.User.ID, id.Token); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) LogoutAll(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		h.fail(w, apperr.ErrUnauthenticated)
		return
	}
	if err := h.svc.LogoutAll(r.Context(), id.User.ID); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		h.fail(w, apperr.ErrUnauthenticated)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, id.User.Public())
}

// UpdateMe accepts only name, email, age and password. Any other key
// rejects the whole body.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		h.fail(w, apperr.ErrUnauthenticated)
		return
	}
	var upd entity.ProfileUpdate
	if err := utilities.DecodeJSON(w, r, &upd, true); err != nil {
		h.logger.Debugw("invalid profile update", "user_id", id.User.ID, "err", err)
		if errors.Is(err, utilities.ErrUnknownField) {
			h.fail(w, apperr.Validation("invalid updates"))
			return
		}
		h.fail(w, apperr.Validation("invalid payload"))
		return
	}
	u, err := h.svc.UpdateProfile(r.Context(), id.User.ID, upd)
	if err != nil {
		h.fail(w, err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, u.Public())
}

func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		h.fail(w, apperr.ErrUnauthenticated)
		return
	}
	u, err := h.svc.DeleteAccount(r.Context(), id.User.ID)
	if err != nil {
		h.fail(w, err)
		return
	}
	utilities.WriteJSON(w, http.StatusOK, u.Public())
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		h.logger.Errorw("user request failed", "err", err)
	}
	utilities.WriteJSON(w, status, map[string]string{"error": apperr.Message(err)})
}
