// validate.go upload validation performed before any side effect
package pipeline

import (
	"path/filepath"
	"strings"

	"github.com/tmarques/floravision/internal/errors"
)

// allowedExtensions is the case-insensitive extension allow-list for
// uploaded images.
var allowedExtensions = map[string]bool{
	".jpeg": true,
	".jpg":  true,
	".png":  true,
}

// ValidFilename reports whether the filename carries an allowed image
// extension. The check is case-insensitive.
func ValidFilename(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return allowedExtensions[ext]
}

// validateSubmission rejects the whole batch before any classification or
// persistence happens: every image must have a name, an allowed extension
// and non-empty data, and the ground-truth label must be present.
func validateSubmission(sub *Submission) error {
	if sub.ExpertLabel == "" {
		return errors.ValidationError("submission has no expert label")
	}
	if len(sub.Images) == 0 {
		return errors.ValidationError("submission has no images")
	}
	for _, img := range sub.Images {
		if img.Filename == "" {
			return errors.ValidationError("image has no filename")
		}
		if !ValidFilename(img.Filename) {
			return errors.Newf("file extension not allowed for %q (allowed: jpeg, jpg, png)", img.Filename).
				Category(errors.CategoryValidation).
				Context("filename", img.Filename).
				Build()
		}
		if len(img.Data) == 0 {
			return errors.Newf("image %q has no data", img.Filename).
				Category(errors.CategoryValidation).
				Build()
		}
	}
	return nil
}
