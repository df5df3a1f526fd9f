package avatar

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/auth"
	"github.com/ovaphlow/pitchfork/service-task-go/pkg/utilities"
)

// multipart envelope allowance on top of the file itself
const formOverhead = 64 << 10

type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// Upload handles POST /users/me/avatar with the image in form field "avatar".
func (h *Handler) Upload(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		h.fail(w, apperr.ErrUnauthenticated)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.svc.MaxBytes()+formOverhead)
	file, header, err := r.FormFile("avatar")
	if err != nil {
		h.logger.Debugw("avatar form rejected", "user_id", id.User.ID, "err", err)
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			h.fail(w, apperr.UploadRejected("file too large"))
			return
		}
		h.fail(w, apperr.UploadRejected("an avatar file is required"))
		return
	}
	defer file.Close()

	if err := h.svc.Upload(r.Context(), id.User.ID, header.Filename, file); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		h.fail(w, apperr.ErrUnauthenticated)
		return
	}
	if err := h.svc.Delete(r.Context(), id.User.ID); err != nil {
		h.fail(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// Get handles the public GET /users/{id}/avatar.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	img, err := h.svc.Get(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(img)
}

func (h *Handler) fail(w http.ResponseWriter, err error) {
	status := apperr.Status(err)
	if status >= http.StatusInternalServerError {
		h.logger.Errorw("avatar request failed", "err", err)
	}
	utilities.WriteJSON(w, status, map[string]string{"error": apperr.Message(err)})
}
