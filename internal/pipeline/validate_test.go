package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidFilename(t *testing.T) {
	t.Parallel()

	cases := []struct {
		filename string
		valid    bool
	}{
		{"photo.jpg", true},
		{"photo.jpeg", true},
		{"photo.png", true},
		{"photo.JPG", true},
		{"photo.PnG", true},
		{"archive.tar.png", true},
		{"photo.gif", false},
		{"photo.bmp", false},
		{"photo", false},
		{"photo.jpg.exe", false},
		{"", false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.valid, ValidFilename(tc.filename), "filename %q", tc.filename)
	}
}

func TestValidateSubmission(t *testing.T) {
	t.Parallel()

	valid := func() *Submission {
		return &Submission{
			ExpertID:    1050,
			ExpertLabel: "Quercus robur",
			Images:      []Image{{Filename: "oak.jpg", Data: []byte{1, 2, 3}}},
		}
	}

	assert.NoError(t, validateSubmission(valid()))

	noLabel := valid()
	noLabel.ExpertLabel = ""
	assert.Error(t, validateSubmission(noLabel))

	noImages := valid()
	noImages.Images = nil
	assert.Error(t, validateSubmission(noImages))

	noFilename := valid()
	noFilename.Images[0].Filename = ""
	assert.Error(t, validateSubmission(noFilename))

	badExtension := valid()
	badExtension.Images[0].Filename = "photo.gif"
	assert.Error(t, validateSubmission(badExtension))

	emptyData := valid()
	emptyData.Images[0].Data = nil
	assert.Error(t, validateSubmission(emptyData))
}
