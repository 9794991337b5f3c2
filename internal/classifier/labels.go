// labels.go label vocabulary handling for classification models
package classifier

import (
	"bufio"
	"io"
	"os"
	"strings"

	"github.com/tmarques/floravision/internal/errors"
)

// LabelTable holds the ordered label vocabulary of one model. The position
// of a label matches the class index in the model's output vector. A table
// is immutable after load.
type LabelTable struct {
	labels []string
}

// LoadLabels reads one label per line from r, trimming whitespace and
// replacing separator underscores with spaces for display. An unreadable
// or empty source is an error.
func LoadLabels(r io.Reader) (*LabelTable, error) {
	var labels []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		labels = append(labels, strings.ReplaceAll(line, "_", " "))
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryLabelLoad).
			Context("operation", "scan-labels").
			Build()
	}

	if len(labels) == 0 {
		return nil, errors.Newf("label source contains no labels").
			Category(errors.CategoryLabelLoad).
			Build()
	}

	return &LabelTable{labels: labels}, nil
}

// LoadLabelFile loads a label table from a plain text file, one label per line.
func LoadLabelFile(path string) (*LabelTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Category(errors.CategoryLabelLoad).
			Context("label_path", path).
			Context("operation", "open").
			Build()
	}
	defer file.Close()

	table, err := LoadLabels(file)
	if err != nil {
		return nil, errors.Wrap(err).
			Context("label_path", path).
			Build()
	}
	return table, nil
}

// Label returns the label at the given class index. An out-of-range index
// indicates a mismatch between the model output width and the label file;
// the Classifier validates this pairing before lookups happen.
func (lt *LabelTable) Label(index int) (string, error) {
	if index < 0 || index >= len(lt.labels) {
		return "", errors.Newf("label index %d out of range [0,%d)", index, len(lt.labels)).
			Category(errors.CategoryLabelLoad).
			Build()
	}
	return lt.labels[index], nil
}

// Len returns the number of labels in the table.
func (lt *LabelTable) Len() int {
	return len(lt.labels)
}
