// Package classifier implements the multi-model plant image classification
// core: label vocabularies, single-model classification with ranked
// confidence output, and the ordered model ensemble.
package classifier

import (
	"io"
	"math"
	"sort"

	"github.com/tmarques/floravision/internal/errors"
)

// Model is the inference handle contract. Given interleaved RGB pixel data
// of the model's declared input dimensions, Invoke returns one raw score
// per class index. Floating reports the numeric domain of those scores:
// normalized floats for floating-point models, raw 0-255 values for
// quantized ones.
type Model interface {
	InputWidth() int
	InputHeight() int
	Classes() int
	Floating() bool
	Invoke(pixels []uint8) ([]float32, error)
	Close() error
}

// Classifier pairs one inference model with its label table. Input
// dimensions and numeric domain are inspected once at construction and
// immutable afterwards. Classify is stateless per call.
type Classifier struct {
	name     string
	model    Model
	labels   *LabelTable
	width    int
	height   int
	floating bool
}

// New builds a Classifier from a model handle and its label table. The
// label count must match the model's output width; a mismatch means the
// model and label file are not a pair.
func New(name string, model Model, labels *LabelTable) (*Classifier, error) {
	if model.Classes() != labels.Len() {
		return nil, errors.Newf("label count mismatch: model %q expects %d classes but label table has %d labels",
			name, model.Classes(), labels.Len()).
			Category(errors.CategoryValidation).
			ModelContext(name, "").
			Build()
	}

	return &Classifier{
		name:     name,
		model:    model,
		labels:   labels,
		width:    model.InputWidth(),
		height:   model.InputHeight(),
		floating: model.Floating(),
	}, nil
}

// Name returns the classifier's reporting name.
func (c *Classifier) Name() string {
	return c.name
}

// Close releases the underlying model.
func (c *Classifier) Close() error {
	return c.model.Close()
}

// Classify decodes one image, runs it through the model and returns the
// ranked, truncated result. Ranking is by descending raw score with ties
// kept in class-index order. Entries stop at opts.MaxResults or at the
// first entry whose confidence falls below opts.MinConfidence, whichever
// comes first.
func (c *Classifier) Classify(r io.Reader, filename string, opts Options) (ResultRecord, error) {
	record := ResultRecord{Model: c.name, Filename: filename}

	img, err := decodeImage(r)
	if err != nil {
		return record, errors.Wrap(err).
			ModelContext(c.name, "").
			Context("filename", filename).
			Build()
	}

	pixels := preprocessForInference(img, c.width, c.height)

	scores, err := c.model.Invoke(pixels)
	if err != nil {
		return record, errors.New(err).
			Category(errors.CategoryInference).
			ModelContext(c.name, "").
			Context("filename", filename).
			Build()
	}
	if len(scores) != c.labels.Len() {
		return record, errors.Newf("model %q returned %d scores for %d labels", c.name, len(scores), c.labels.Len()).
			Category(errors.CategoryInference).
			Build()
	}

	ranked := rankIndices(scores)
	if opts.MaxResults > 0 && len(ranked) > opts.MaxResults {
		ranked = ranked[:opts.MaxResults]
	}

	for _, idx := range ranked {
		percent := confidencePercent(scores[idx], c.floating)
		// Early cutoff, not a filter: once one entry ranks below the
		// threshold everything after it is dropped as well.
		if opts.MinConfidence >= 0 && percent < opts.MinConfidence {
			break
		}
		label, err := c.labels.Label(idx)
		if err != nil {
			return record, err
		}
		record.Entries = append(record.Entries, Entry{
			Label:      label,
			Confidence: roundConfidence(percent),
		})
	}

	return record, nil
}

// rankIndices returns class indices ordered by descending score. The sort
// is stable so tied scores keep their original class-index order.
func rankIndices(scores []float32) []int {
	indices := make([]int, len(scores))
	for i := range indices {
		indices[i] = i
	}
	sort.SliceStable(indices, func(a, b int) bool {
		return scores[indices[a]] > scores[indices[b]]
	})
	return indices
}

// confidencePercent converts a raw model score to a percentage according
// to the model's numeric domain.
func confidencePercent(score float32, floating bool) float64 {
	if floating {
		return float64(score) * 100
	}
	return float64(score) / 255 * 100
}

// roundConfidence rounds a percentage to two decimal digits.
func roundConfidence(percent float64) float64 {
	return math.Round(percent*100) / 100
}
