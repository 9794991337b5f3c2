package classifier

// Entry is one ranked prediction: a display label and its confidence as a
// percentage in [0,100], rounded to two decimals.
type Entry struct {
	Label      string
	Confidence float64
}

// ResultRecord is the normalized output of one classifier run against one
// image: ranked, truncated, confidence-converted.
type ResultRecord struct {
	Model    string
	Filename string
	Entries  []Entry
}

// Options controls ranking and truncation of classification results.
type Options struct {
	// MaxResults is the number of ranked entries to keep. Zero or negative
	// keeps all entries.
	MaxResults int
	// MinConfidence is a percentage cutoff. Ranking is score-descending, so
	// appending stops at the first entry below the cutoff. A negative value
	// disables the cutoff.
	MinConfidence float64
}

// DefaultOptions returns the standard top-5, no-threshold options.
func DefaultOptions() Options {
	return Options{MaxResults: 5, MinConfidence: 0}
}
