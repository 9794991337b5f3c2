// preprocess.go image preparation for model inference. Inference input is
// resized to the model's declared dimensions without preserving aspect
// ratio; thumbnail generation lives in internal/imaging and must not be
// conflated with this.
package classifier

import (
	"image"
	_ "image/jpeg" // register decoders for image.Decode
	_ "image/png"
	"io"

	"github.com/nfnt/resize"

	"github.com/tmarques/floravision/internal/errors"
)

// decodeImage decodes JPEG or PNG image data from r.
func decodeImage(r io.Reader) (image.Image, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryImageDecode).
			Build()
	}
	return img, nil
}

// preprocessForInference resizes img to exactly width x height, stretching
// as needed, and returns the interleaved RGB pixel data as a flat byte
// slice of length width*height*3, row-major.
func preprocessForInference(img image.Image, width, height int) []uint8 {
	resized := resize.Resize(uint(width), uint(height), img, resize.Bilinear)

	pixels := make([]uint8, 0, width*height*3)
	bounds := resized.Bounds()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			// RGBA returns 16-bit channels, scale down to 8-bit
			pixels = append(pixels, uint8(r>>8), uint8(g>>8), uint8(b>>8))
		}
	}
	return pixels
}

// normalizePixels maps 8-bit pixel values to the approximately [-1,1] float
// domain expected by floating-point models: (value - 127.5) / 127.5.
func normalizePixels(pixels []uint8) []float32 {
	normalized := make([]float32, len(pixels))
	for i, p := range pixels {
		normalized[i] = (float32(p) - 127.5) / 127.5
	}
	return normalized
}
