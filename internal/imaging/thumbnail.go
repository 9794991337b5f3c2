// Package imaging provides display-oriented image operations. Thumbnails
// preserve aspect ratio; inference preprocessing (which stretches) lives
// in internal/classifier and is a deliberately separate operation.
package imaging

import (
	"bytes"
	"image"
	_ "image/gif" // thumbnails may be asked of any decodable source
	"image/jpeg"
	_ "image/png"

	"github.com/nfnt/resize"

	"github.com/tmarques/floravision/internal/errors"
)

// DefaultThumbnailSize is the bounding box edge for generated thumbnails.
const DefaultThumbnailSize = 240

// Thumbnail decodes the image data and scales it down to fit within
// maxWidth x maxHeight, preserving aspect ratio. The result is encoded as
// JPEG. Images already within the bounding box are re-encoded unscaled.
func Thumbnail(data []byte, maxWidth, maxHeight uint) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryImageDecode).
			Context("operation", "thumbnail-decode").
			Build()
	}

	thumb := resize.Thumbnail(maxWidth, maxHeight, img, resize.Lanczos3)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, thumb, &jpeg.Options{Quality: 85}); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryImageDecode).
			Context("operation", "thumbnail-encode").
			Build()
	}
	return buf.Bytes(), nil
}
