package errors

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderWrapsAndCategorizes(t *testing.T) {
	t.Parallel()

	base := errors.New("model file truncated")
	err := New(base).
		Component("classifier").
		Category(CategoryModelLoad).
		Context("model_path", "models/flora.tflite").
		Build()

	require.Error(t, err)
	assert.Equal(t, "model file truncated", err.Error())
	assert.True(t, errors.Is(err, base), "the original error stays reachable")
	assert.Equal(t, "classifier", err.GetComponent())
	assert.Equal(t, string(CategoryModelLoad), err.GetCategory())
	assert.Equal(t, "models/flora.tflite", err.GetContext()["model_path"])
}

func TestNewfFormats(t *testing.T) {
	t.Parallel()

	err := Newf("label index %d out of range", 42).
		Category(CategoryLabelLoad).
		Build()

	assert.Contains(t, err.Error(), "42")
	assert.True(t, IsCategory(err, CategoryLabelLoad))
	assert.False(t, IsCategory(err, CategoryDatabase))
}

func TestWrapKeepsOriginalReachable(t *testing.T) {
	t.Parallel()

	inner := Newf("no such test").Category(CategoryNotFound).Build()
	outer := Wrap(inner).Category(CategoryNotFound).Context("test_id", 7).Build()

	assert.True(t, IsNotFound(outer))
	assert.True(t, Is(outer, inner))
	assert.True(t, IsNotFound(inner))
}

func TestValidationError(t *testing.T) {
	t.Parallel()

	err := ValidationError("submission has no expert label")
	assert.True(t, IsCategory(err, CategoryValidation))
	assert.Equal(t, "submission has no expert label", err.Error())
}

func TestModelContext(t *testing.T) {
	t.Parallel()

	err := Newf("inference failed").
		Category(CategoryInference).
		ModelContext("iNaturalist", "models/inat.tflite").
		Build()

	ctx := err.GetContext()
	assert.Equal(t, "iNaturalist", ctx["model_name"])
	assert.Equal(t, "models/inat.tflite", ctx["model_path"])
}

func TestComponentDetection(t *testing.T) {
	t.Parallel()

	// Built from within this package, so detection falls back to unknown
	// rather than one of the registered application components.
	err := Newf("plain failure").Build()
	assert.NotEmpty(t, err.GetComponent())
}

func TestJoinAndStdHelpers(t *testing.T) {
	t.Parallel()

	a := NewStd("first")
	b := NewStd("second")

	joined := Join(a, b)
	require.Error(t, joined)
	assert.True(t, Is(joined, a))
	assert.True(t, Is(joined, b))

	assert.NoError(t, Join(nil, nil))
}
