// Package pipeline orchestrates one upload batch: validate, classify each
// image with the full ensemble, persist ground truth and predictions.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmarques/floravision/internal/classifier"
	"github.com/tmarques/floravision/internal/datastore"
	"github.com/tmarques/floravision/internal/errors"
	"github.com/tmarques/floravision/internal/logging"
)

// rankedSlots is the fixed number of (label, confidence) slots persisted
// per classification row.
const rankedSlots = 5

// Image is one uploaded image: its original filename and raw bytes.
type Image struct {
	Filename string
	Data     []byte
}

// Submission carries one upload batch with the expert's ground-truth
// metadata.
type Submission struct {
	ExpertID    int
	ExpertLabel string
	Notes       string
	Images      []Image
}

// ImageOutcome is the per-image result of a pipeline run. Err is set when
// the image could not be classified at all; Warnings carries persistence
// problems that did not stop processing, so data loss is visible to the
// caller instead of silent.
type ImageOutcome struct {
	Filename string
	TestID   uint
	Records  []classifier.ResultRecord
	Warnings []string
	Err      error
}

// Failed reports whether this image produced no usable result.
func (o *ImageOutcome) Failed() bool {
	return o.Err != nil
}

// Pipeline runs upload batches through the classification ensemble and
// the persistence store. One Pipeline is safe for sequential reuse; each
// Process call is independent.
type Pipeline struct {
	ensemble *classifier.Ensemble
	store    datastore.Interface
	log      *slog.Logger
}

// New creates a pipeline over the given ensemble and store.
func New(ensemble *classifier.Ensemble, store datastore.Interface) *Pipeline {
	return &Pipeline{
		ensemble: ensemble,
		store:    store,
		log:      logging.ForService("pipeline"),
	}
}

// Process validates the whole submission up front and then handles each
// accepted image in order: classify with every model, persist one Test row
// plus one Classification row per model in a single per-image transaction.
//
// Failure policy: validation failure rejects the whole batch with no side
// effects. A decode or inference failure is fatal for that image only, the
// remaining images still run. A persistence failure is recorded as a
// warning on the image's outcome and does not abort anything.
func (p *Pipeline) Process(ctx context.Context, sub *Submission) ([]ImageOutcome, error) {
	if err := validateSubmission(sub); err != nil {
		return nil, err
	}

	date := time.Now().Format("2006-01-02")
	outcomes := make([]ImageOutcome, 0, len(sub.Images))

	for i := range sub.Images {
		if err := ctx.Err(); err != nil {
			return outcomes, err
		}
		outcomes = append(outcomes, p.processImage(&sub.Images[i], sub, date))
	}

	return outcomes, nil
}

// processImage classifies one image and persists the results.
func (p *Pipeline) processImage(img *Image, sub *Submission, date string) ImageOutcome {
	outcome := ImageOutcome{Filename: img.Filename}

	start := time.Now()
	records, classifyErr := p.ensemble.ClassifyAll(img.Data, img.Filename)
	if len(records) == 0 {
		// Every model failed (or the image did not decode); this image is
		// done, siblings still run.
		outcome.Err = errors.Wrap(classifyErr).
			Context("filename", img.Filename).
			Build()
		return outcome
	}
	if classifyErr != nil {
		// Partial failure: some models produced results, the rest are
		// reported without discarding what succeeded.
		outcome.Warnings = append(outcome.Warnings,
			fmt.Sprintf("some models failed: %v", classifyErr))
	}
	outcome.Records = records

	p.log.Debug("image classified",
		"filename", img.Filename,
		"models", len(records),
		"duration_ms", time.Since(start).Milliseconds())

	test := &datastore.Test{
		Filename:    img.Filename,
		ExpertID:    sub.ExpertID,
		Date:        date,
		ExpertLabel: sub.ExpertLabel,
		Image:       img.Data,
		Notes:       sub.Notes,
	}

	classifications := make([]datastore.Classification, 0, len(records))
	for i := range records {
		classifications = append(classifications, buildClassification(&records[i]))
	}

	if err := p.store.SaveTest(test, classifications); err != nil {
		warning := fmt.Sprintf("persistence failed for %s: %v", img.Filename, err)
		p.log.Error("persistence failed",
			"filename", img.Filename,
			"error", err)
		outcome.Warnings = append(outcome.Warnings, warning)
		return outcome
	}
	outcome.TestID = test.ID

	return outcome
}

// buildClassification converts one ranked result record into a persisted
// classification row with exactly five slots, padding with an empty label
// and NULL confidence when the model returned fewer entries.
func buildClassification(record *classifier.ResultRecord) datastore.Classification {
	c := datastore.Classification{Model: record.Model}
	for i := 0; i < rankedSlots; i++ {
		if i < len(record.Entries) {
			confidence := record.Entries[i].Confidence
			c.SetSlot(i, record.Entries[i].Label, &confidence)
		} else {
			c.SetSlot(i, "", nil)
		}
	}
	return c
}
