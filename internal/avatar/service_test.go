package avatar

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-task-go/internal/apperr"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/store/memory"
	"github.com/ovaphlow/pitchfork/service-task-go/internal/user/entity"
)

func sampleJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, jpeg.Encode(&buf, img, nil))
	return buf.Bytes()
}

func newTestService(t *testing.T, maxBytes int64) (*Service, *memory.Store) {
	t.Helper()
	st := memory.New()
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, st.Users().Create(context.Background(), &entity.User{
		ID: "u1", Name: "u1", Email: "u1@x.com", PasswordHash: "h", CreatedAt: now, UpdatedAt: now,
	}))
	return NewService(NewDBStore(st.Users()), Transcoder{Size: 32}, maxBytes, zap.NewNop().Sugar()), st
}

func TestTranscoder_SquarePNG(t *testing.T) {
	out, err := Transcoder{Size: 40}.Transcode(sampleJPEG(t, 120, 60))
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())
	assert.Equal(t, 40, img.Bounds().Dy())
}

func TestTranscoder_Garbage(t *testing.T) {
	_, err := Transcoder{}.Transcode([]byte("definitely not an image"))
	assert.Error(t, err)
}

func TestService_UploadAndGet(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, DefaultMaxBytes)

	require.NoError(t, svc.Upload(ctx, "u1", "me.JPG", bytes.NewReader(sampleJPEG(t, 64, 64))))

	got, err := svc.Get(ctx, "u1")
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(got))
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
}

func TestService_UploadRejections(t *testing.T) {
	ctx := context.Background()
	data := sampleJPEG(t, 64, 64)

	tests := []struct {
		name     string
		filename string
		body     []byte
		maxBytes int64
	}{
		{"extension", "me.gif", data, DefaultMaxBytes},
		{"no extension", "png", data, DefaultMaxBytes},
		{"too large", "me.jpg", data, int64(len(data) - 1)},
		{"not an image", "me.png", []byte("plain text"), DefaultMaxBytes},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _ := newTestService(t, tt.maxBytes)
			err := svc.Upload(ctx, "u1", tt.filename, bytes.NewReader(tt.body))
			assert.ErrorIs(t, err, apperr.ErrUploadRejected)

			_, err = svc.Get(ctx, "u1")
			assert.ErrorIs(t, err, apperr.ErrNotFound)
		})
	}
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t, DefaultMaxBytes)

	assert.NoError(t, svc.Delete(ctx, "u1"))
	assert.NoError(t, svc.Delete(ctx, "missing"))

	require.NoError(t, svc.Upload(ctx, "u1", "a.png", bytes.NewReader(sampleJPEG(t, 8, 8))))
	require.NoError(t, svc.Delete(ctx, "u1"))
	_, err := svc.Get(ctx, "u1")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}
