package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tmarques/floravision/internal/classifier"
	"github.com/tmarques/floravision/internal/conf"
	"github.com/tmarques/floravision/internal/datastore"
)

// stubModel implements classifier.Model with fixed scores.
type stubModel struct {
	scores []float32
	err    error
}

func (m *stubModel) InputWidth() int  { return 8 }
func (m *stubModel) InputHeight() int { return 8 }
func (m *stubModel) Classes() int     { return len(m.scores) }
func (m *stubModel) Floating() bool   { return true }
func (m *stubModel) Close() error     { return nil }

func (m *stubModel) Invoke([]uint8) ([]float32, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.scores, nil
}

func newStubEnsemble(t *testing.T, models map[string]*stubModel, names ...string) *classifier.Ensemble {
	t.Helper()

	classifiers := make([]*classifier.Classifier, 0, len(names))
	for _, name := range names {
		labels, err := classifier.LoadLabels(strings.NewReader("Rosa_canina\nQuercus_robur\nTaxus_baccata\n"))
		require.NoError(t, err)
		c, err := classifier.New(name, models[name], labels)
		require.NoError(t, err)
		classifiers = append(classifiers, c)
	}
	return classifier.NewEnsembleFrom(classifier.DefaultOptions(), classifiers...)
}

func newPipelineStore(t *testing.T) datastore.Interface {
	t.Helper()

	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = filepath.Join(t.TempDir(), "tests.db")

	store := datastore.New(settings)
	require.NotNil(t, store)
	require.NoError(t, store.Open())
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})
	return store
}

func pngImage(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			img.Set(x, y, color.RGBA{R: 30, G: 140, B: 70, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestProcessPersistsOneTestPerImage(t *testing.T) {
	t.Parallel()

	ensemble := newStubEnsemble(t, map[string]*stubModel{
		"iNaturalist": {scores: []float32{0.1, 0.7, 0.2}},
		"Flora-On":    {scores: []float32{0.6, 0.3, 0.1}},
	}, "iNaturalist", "Flora-On")
	store := newPipelineStore(t)

	sub := &Submission{
		ExpertID:    1050,
		ExpertLabel: "Quercus robur",
		Notes:       "field trip",
		Images:      []Image{{Filename: "oak.png", Data: pngImage(t)}},
	}

	outcomes, err := New(ensemble, store).Process(context.Background(), sub)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	o := &outcomes[0]
	require.False(t, o.Failed())
	assert.Empty(t, o.Warnings)
	assert.NotZero(t, o.TestID)
	require.Len(t, o.Records, 2)

	test, err := store.GetTest(fmt.Sprint(o.TestID))
	require.NoError(t, err)
	assert.Equal(t, "oak.png", test.Filename)
	assert.Equal(t, "Quercus robur", test.ExpertLabel)
	assert.Equal(t, 1050, test.ExpertID)
	assert.Equal(t, sub.Images[0].Data, test.Image)

	rows, err := store.GetTestClassifications(o.TestID)
	require.NoError(t, err)
	require.Len(t, rows, 2, "one classification row per model")
	assert.Equal(t, "iNaturalist", rows[0].Model)
	assert.Equal(t, "Flora-On", rows[1].Model)

	// Three ranked entries fill three slots, the remaining two are padding.
	slots := rows[0].Slots()
	assert.Equal(t, "Quercus robur", slots[0].Label)
	require.NotNil(t, slots[0].Confidence)
	assert.InDelta(t, 70, *slots[0].Confidence, 0.001)
	assert.Empty(t, slots[3].Label)
	assert.Nil(t, slots[3].Confidence)
	assert.Empty(t, slots[4].Label)
	assert.Nil(t, slots[4].Confidence)
}

func TestProcessRejectsInvalidBatchWithoutSideEffects(t *testing.T) {
	t.Parallel()

	ensemble := newStubEnsemble(t, map[string]*stubModel{
		"iNaturalist": {scores: []float32{0.1, 0.7, 0.2}},
	}, "iNaturalist")
	store := newPipelineStore(t)

	sub := &Submission{
		ExpertID:    1050,
		ExpertLabel: "Quercus robur",
		Images: []Image{
			{Filename: "oak.png", Data: pngImage(t)},
			{Filename: "animation.gif", Data: []byte{1, 2, 3}},
		},
	}

	outcomes, err := New(ensemble, store).Process(context.Background(), sub)
	require.Error(t, err, "one bad file rejects the whole batch")
	assert.Nil(t, outcomes)

	count, err := store.CountTests()
	require.NoError(t, err)
	assert.Zero(t, count, "a rejected batch must leave no rows behind")
}

func TestProcessIsolatesPerImageFailures(t *testing.T) {
	t.Parallel()

	ensemble := newStubEnsemble(t, map[string]*stubModel{
		"iNaturalist": {scores: []float32{0.1, 0.7, 0.2}},
	}, "iNaturalist")
	store := newPipelineStore(t)

	sub := &Submission{
		ExpertID:    1050,
		ExpertLabel: "Quercus robur",
		Images: []Image{
			{Filename: "broken.png", Data: []byte("not an image")},
			{Filename: "oak.png", Data: pngImage(t)},
		},
	}

	outcomes, err := New(ensemble, store).Process(context.Background(), sub)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	assert.True(t, outcomes[0].Failed(), "undecodable image fails alone")
	assert.Zero(t, outcomes[0].TestID)

	assert.False(t, outcomes[1].Failed(), "siblings still run")
	assert.NotZero(t, outcomes[1].TestID)

	count, err := store.CountTests()
	require.NoError(t, err)
	assert.EqualValues(t, 1, count, "only the good image is persisted")
}

func TestProcessReportsPartialModelFailure(t *testing.T) {
	t.Parallel()

	ensemble := newStubEnsemble(t, map[string]*stubModel{
		"broken":  {scores: []float32{0.1, 0.7, 0.2}, err: errors.New("interpreter crashed")},
		"working": {scores: []float32{0.6, 0.3, 0.1}},
	}, "broken", "working")
	store := newPipelineStore(t)

	sub := &Submission{
		ExpertID:    1050,
		ExpertLabel: "Rosa canina",
		Images:      []Image{{Filename: "rose.png", Data: pngImage(t)}},
	}

	outcomes, err := New(ensemble, store).Process(context.Background(), sub)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	o := &outcomes[0]
	require.False(t, o.Failed(), "partial model failure keeps the image alive")
	require.Len(t, o.Records, 1)
	assert.Equal(t, "working", o.Records[0].Model)
	require.NotEmpty(t, o.Warnings)
	assert.NotZero(t, o.TestID)

	rows, err := store.GetTestClassifications(o.TestID)
	require.NoError(t, err)
	assert.Len(t, rows, 1, "only successful models get a row")
}

// failingStore wraps a real store but refuses all writes.
type failingStore struct {
	datastore.Interface
}

func (s *failingStore) SaveTest(*datastore.Test, []datastore.Classification) error {
	return errors.New("disk full")
}

func TestProcessSurfacesPersistenceFailureAsWarning(t *testing.T) {
	t.Parallel()

	ensemble := newStubEnsemble(t, map[string]*stubModel{
		"iNaturalist": {scores: []float32{0.1, 0.7, 0.2}},
	}, "iNaturalist")
	store := &failingStore{Interface: newPipelineStore(t)}

	sub := &Submission{
		ExpertID:    1050,
		ExpertLabel: "Quercus robur",
		Images:      []Image{{Filename: "oak.png", Data: pngImage(t)}},
	}

	outcomes, err := New(ensemble, store).Process(context.Background(), sub)
	require.NoError(t, err)
	require.Len(t, outcomes, 1)

	o := &outcomes[0]
	assert.False(t, o.Failed(), "classification results survive a storage failure")
	require.Len(t, o.Records, 1)
	assert.Zero(t, o.TestID)
	require.NotEmpty(t, o.Warnings, "the storage failure must be visible to the caller")
	assert.Contains(t, o.Warnings[0], "persistence failed")
}

func TestProcessHonorsContextCancellation(t *testing.T) {
	t.Parallel()

	ensemble := newStubEnsemble(t, map[string]*stubModel{
		"iNaturalist": {scores: []float32{0.1, 0.7, 0.2}},
	}, "iNaturalist")
	store := newPipelineStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sub := &Submission{
		ExpertID:    1050,
		ExpertLabel: "Quercus robur",
		Images:      []Image{{Filename: "oak.png", Data: pngImage(t)}},
	}

	_, err := New(ensemble, store).Process(ctx, sub)
	assert.ErrorIs(t, err, context.Canceled)
}
