package avatar

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/store"
)

// DefaultMaxBytes is the largest accepted upload.
const DefaultMaxBytes = 1000000

var allowedName = regexp.MustCompile(`(?i)\.(jpg|jpeg|png)$`)

// Service validates, transcodes and stores avatars.
type Service struct {
	store      Store
	transcoder Transcoder
	maxBytes   int64
	logger     *zap.SugaredLogger
}

func NewService(st Store, transcoder Transcoder, maxBytes int64, logger *zap.SugaredLogger) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Service{store: st, transcoder: transcoder, maxBytes: maxBytes, logger: logger}
}

func (s *Service) MaxBytes() int64 { return s.maxBytes }

// Upload rejects by file name before reading anything, then by size, then
// by content.
func (s *Service) Upload(ctx context.Context, userID, filename string, r io.Reader) error {
	if !allowedName.MatchString(filename) {
		return apperr.UploadRejected("please upload an image (jpg, jpeg or png)")
	}
	data, err := io.ReadAll(io.LimitReader(r, s.maxBytes+1))
	if err != nil {
		return apperr.UploadRejected("could not read upload")
	}
	if int64(len(data)) > s.maxBytes {
		return apperr.UploadRejected(fmt.Sprintf("file too large (max %d bytes)", s.maxBytes))
	}
	png, err := s.transcoder.Transcode(data)
	if err != nil {
		s.logger.Debugw("avatar transcode failed", "user_id", userID, "err", err)
		return apperr.UploadRejected("file is not a readable image")
	}
	if err := s.store.Put(ctx, userID, png); err != nil {
		return store.Classify("store avatar", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, userID string) ([]byte, error) {
	img, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, store.Classify("get avatar", err)
	}
	return img, nil
}

// Delete removes the avatar. A user without one is not an error.
func (s *Service) Delete(ctx context.Context, userID string) error {
	err := s.store.Delete(ctx, userID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return store.Classify("delete avatar", err)
	}
	return nil
}
