package classifier

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testClassifier(t *testing.T, name string, model *fakeModel) *Classifier {
	t.Helper()
	c, err := New(name, model, testLabels(t))
	require.NoError(t, err)
	return c
}

func TestEnsembleClassifyAllOrder(t *testing.T) {
	t.Parallel()

	first := &fakeModel{width: 8, height: 8, floating: true, scores: []float32{0.1, 0.7, 0.2}}
	second := &fakeModel{width: 16, height: 16, floating: true, scores: []float32{0.6, 0.3, 0.1}}

	e := NewEnsembleFrom(DefaultOptions(),
		testClassifier(t, "iNaturalist", first),
		testClassifier(t, "Flora-On", second),
	)

	records, err := e.ClassifyAll(testImagePNG(t, 32, 32), "photo.png")
	require.NoError(t, err)

	require.Len(t, records, 2, "every model produces one record")
	assert.Equal(t, "iNaturalist", records[0].Model)
	assert.Equal(t, "Flora-On", records[1].Model)
	assert.Equal(t, "Quercus robur", records[0].Entries[0].Label)
	assert.Equal(t, "Rosa canina", records[1].Entries[0].Label)
}

func TestEnsembleClassifyAllPartialFailure(t *testing.T) {
	t.Parallel()

	failing := &fakeModel{width: 8, height: 8, floating: true, scores: []float32{0.1, 0.7, 0.2}, err: errors.New("interpreter crashed")}
	working := &fakeModel{width: 8, height: 8, floating: true, scores: []float32{0.6, 0.3, 0.1}}

	e := NewEnsembleFrom(DefaultOptions(),
		testClassifier(t, "broken", failing),
		testClassifier(t, "working", working),
	)

	records, err := e.ClassifyAll(testImagePNG(t, 8, 8), "photo.png")

	require.Len(t, records, 1, "one model failing must not stop the others")
	assert.Equal(t, "working", records[0].Model)
	assert.Error(t, err, "the failure must still be reported")
	assert.Equal(t, 1, working.invoked)
}

func TestEnsembleClassifyAllTotalFailure(t *testing.T) {
	t.Parallel()

	e := NewEnsembleFrom(DefaultOptions(),
		testClassifier(t, "broken", &fakeModel{width: 8, height: 8, floating: true, scores: []float32{0.1, 0.7, 0.2}, err: errors.New("boom")}),
	)

	records, err := e.ClassifyAll(testImagePNG(t, 8, 8), "photo.png")
	assert.Empty(t, records)
	assert.Error(t, err)
}

func TestEnsembleNamesAndSize(t *testing.T) {
	t.Parallel()

	e := NewEnsembleFrom(DefaultOptions(),
		testClassifier(t, "a", &fakeModel{width: 8, height: 8, floating: true, scores: []float32{0.1, 0.7, 0.2}}),
		testClassifier(t, "b", &fakeModel{width: 8, height: 8, floating: true, scores: []float32{0.1, 0.7, 0.2}}),
	)

	assert.Equal(t, 2, e.Size())
	assert.Equal(t, []string{"a", "b"}, e.Names())
}

func TestEnsembleClose(t *testing.T) {
	t.Parallel()

	model := &fakeModel{width: 8, height: 8, floating: true, scores: []float32{0.1, 0.7, 0.2}}
	e := NewEnsembleFrom(DefaultOptions(), testClassifier(t, "a", model))

	e.Close()
	assert.True(t, model.closed)
	assert.Zero(t, e.Size())
}
