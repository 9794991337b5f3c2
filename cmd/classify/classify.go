// Package classify implements the subcommand that classifies image files
// from the command line.
package classify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/tmarques/floravision/internal/classifier"
	"github.com/tmarques/floravision/internal/conf"
	"github.com/tmarques/floravision/internal/datastore"
	"github.com/tmarques/floravision/internal/pipeline"
)

// Command creates the classify command.
func Command(settings *conf.Settings) *cobra.Command {
	var (
		species string
		notes   string
		save    bool
	)

	cmd := &cobra.Command{
		Use:   "classify [image...]",
		Short: "Classify plant photos",
		Long:  `Classify one or more plant photos with the model ensemble and print the ranked species for each model. With --save the results are also stored, which requires --species for the expert identification.`,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runClassify(settings, args, species, notes, save)
		},
	}

	cmd.Flags().StringVarP(&species, "species", "s", "", "Expert species identification for the photos")
	cmd.Flags().StringVarP(&notes, "notes", "n", "", "Free-form notes to store with the results")
	cmd.Flags().BoolVar(&save, "save", false, "Store results in the configured database")

	return cmd
}

func runClassify(settings *conf.Settings, paths []string, species, notes string, save bool) error {
	if save && species == "" {
		return fmt.Errorf("--save requires --species")
	}

	ensemble, err := classifier.NewEnsemble(&settings.Ensemble)
	if err != nil {
		return fmt.Errorf("failed to load model ensemble: %w", err)
	}
	defer ensemble.Close()

	if save {
		return classifyAndStore(settings, ensemble, paths, species, notes)
	}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		records, err := ensemble.ClassifyAll(data, filepath.Base(path))
		if len(records) == 0 {
			return fmt.Errorf("classifying %s: %w", path, err)
		}
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: %s: some models failed: %v\n", path, err)
		}
		printRecords(path, records)
	}
	return nil
}

// classifyAndStore runs the full pipeline so the stored rows match what
// the web interface would produce for the same images.
func classifyAndStore(settings *conf.Settings, ensemble *classifier.Ensemble, paths []string, species, notes string) error {
	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no database output enabled in configuration")
	}
	if err := store.Open(); err != nil {
		return fmt.Errorf("failed to open datastore: %w", err)
	}
	defer store.Close() //nolint:errcheck // read-side close on exit

	sub := &pipeline.Submission{
		ExpertID:    settings.Expert.DefaultID,
		ExpertLabel: species,
		Notes:       notes,
	}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		sub.Images = append(sub.Images, pipeline.Image{
			Filename: filepath.Base(path),
			Data:     data,
		})
	}

	outcomes, err := pipeline.New(ensemble, store).Process(context.Background(), sub)
	if err != nil {
		return err
	}

	for i := range outcomes {
		o := &outcomes[i]
		if o.Failed() {
			fmt.Fprintf(os.Stderr, "error: %s: %v\n", o.Filename, o.Err)
			continue
		}
		for _, w := range o.Warnings {
			fmt.Fprintf(os.Stderr, "warning: %s: %s\n", o.Filename, w)
		}
		printRecords(o.Filename, o.Records)
		if o.TestID != 0 {
			fmt.Printf("stored as test #%d\n", o.TestID)
		}
	}
	return nil
}

func printRecords(path string, records []classifier.ResultRecord) {
	fmt.Printf("\n%s\n", path)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "MODEL\tSPECIES\tCONFIDENCE")
	for _, rec := range records {
		for _, entry := range rec.Entries {
			fmt.Fprintf(w, "%s\t%s\t%.2f%%\n", rec.Model, entry.Label, entry.Confidence)
		}
	}
	w.Flush() //nolint:errcheck // stdout
}
