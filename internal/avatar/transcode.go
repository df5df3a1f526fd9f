// Package avatar stores the profile pictures users upload.
package avatar

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// DefaultSize is the edge length of stored avatars.
const DefaultSize = 250

// Transcoder normalizes uploads to a square PNG.
type Transcoder struct {
	Size int
}

// Transcode decodes data, crops it to fill a Size x Size square and
// re-encodes it as PNG.
func (t Transcoder) Transcode(data []byte) ([]byte, error) {
	size := t.Size
	if size <= 0 {
		size = DefaultSize
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	out := imaging.Fill(img, size, size, imaging.Center, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, out, imaging.PNG); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
