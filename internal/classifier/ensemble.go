// ensemble.go ordered multi-model classification
package classifier

import (
	"bytes"
	"log/slog"

	"github.com/tmarques/floravision/internal/conf"
	"github.com/tmarques/floravision/internal/errors"
	"github.com/tmarques/floravision/internal/logging"
)

// Ensemble holds an ordered list of named classifiers and runs all of them
// against the same image. The member list comes from configuration, never
// from process-wide constants.
type Ensemble struct {
	classifiers []*Classifier
	opts        Options
	log         *slog.Logger
}

// NewEnsemble loads every configured model and label file and assembles
// the classifiers in configuration order. On any load failure the already
// loaded models are released before returning.
func NewEnsemble(cfg *conf.EnsembleConfig) (*Ensemble, error) {
	if len(cfg.Classifiers) == 0 {
		return nil, errors.Newf("ensemble has no classifiers configured").
			Category(errors.CategoryConfiguration).
			Build()
	}

	e := &Ensemble{
		opts: Options{MaxResults: cfg.MaxResults, MinConfidence: cfg.MinConfidence},
		log:  logging.ForService("classifier"),
	}

	for _, cc := range cfg.Classifiers {
		model, err := LoadTFLiteModel(cc.ModelPath, cfg.Threads)
		if err != nil {
			e.Close()
			return nil, errors.Wrap(err).
				ModelContext(cc.Name, cc.ModelPath).
				Build()
		}

		labels, err := LoadLabelFile(cc.LabelPath)
		if err != nil {
			model.Close()
			e.Close()
			return nil, errors.Wrap(err).
				ModelContext(cc.Name, cc.ModelPath).
				Build()
		}

		c, err := New(cc.Name, model, labels)
		if err != nil {
			model.Close()
			e.Close()
			return nil, err
		}

		e.log.Info("classifier loaded",
			"name", cc.Name,
			"input_width", model.InputWidth(),
			"input_height", model.InputHeight(),
			"classes", model.Classes(),
			"floating", model.Floating())

		e.classifiers = append(e.classifiers, c)
	}

	return e, nil
}

// NewEnsembleFrom builds an ensemble from already constructed classifiers.
// Used by tests and by callers that manage model loading themselves.
func NewEnsembleFrom(opts Options, classifiers ...*Classifier) *Ensemble {
	return &Ensemble{
		classifiers: classifiers,
		opts:        opts,
		log:         logging.ForService("classifier"),
	}
}

// Size returns the number of classifiers in the ensemble.
func (e *Ensemble) Size() int {
	return len(e.classifiers)
}

// Names returns the classifier names in configuration order.
func (e *Ensemble) Names() []string {
	names := make([]string, len(e.classifiers))
	for i, c := range e.classifiers {
		names[i] = c.Name()
	}
	return names
}

// ClassifyAll runs every classifier against the same image, in
// configuration order. One classifier's failure does not stop the others:
// successful records are returned alongside a joined error describing the
// failures, so callers can report partial results.
func (e *Ensemble) ClassifyAll(data []byte, filename string) ([]ResultRecord, error) {
	records := make([]ResultRecord, 0, len(e.classifiers))
	var errs []error

	for _, c := range e.classifiers {
		record, err := c.Classify(bytes.NewReader(data), filename, e.opts)
		if err != nil {
			e.log.Warn("classifier failed",
				"model", c.Name(),
				"filename", filename,
				"error", err)
			errs = append(errs, err)
			continue
		}
		records = append(records, record)
	}

	return records, errors.Join(errs...)
}

// Close releases all classifiers in the ensemble.
func (e *Ensemble) Close() {
	for _, c := range e.classifiers {
		if err := c.Close(); err != nil {
			e.log.Warn("failed to close classifier", "model", c.Name(), "error", err)
		}
	}
	e.classifiers = nil
}
