// Package serve implements the subcommand that runs the upload web
// interface.
package serve

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tmarques/floravision/internal/classifier"
	"github.com/tmarques/floravision/internal/conf"
	"github.com/tmarques/floravision/internal/datastore"
	"github.com/tmarques/floravision/internal/httpserver"
	"github.com/tmarques/floravision/internal/logging"
	"github.com/tmarques/floravision/internal/pipeline"
)

// Command creates the serve command.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the photo upload web interface",
		Long:  `Start the HTTP server that accepts expert photo submissions, classifies them with the model ensemble and stores the results.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(settings)
		},
	}

	cmd.Flags().StringVarP(&settings.WebServer.Port, "port", "p", settings.WebServer.Port, "Port to listen on")

	return cmd
}

func runServer(settings *conf.Settings) error {
	log := logging.ForService("serve")

	ensemble, err := classifier.NewEnsemble(&settings.Ensemble)
	if err != nil {
		return fmt.Errorf("failed to load model ensemble: %w", err)
	}
	defer ensemble.Close()
	log.Info("Model ensemble loaded", "models", ensemble.Names())

	store := datastore.New(settings)
	if store == nil {
		return fmt.Errorf("no database output enabled in configuration")
	}
	if err := store.Open(); err != nil {
		return fmt.Errorf("failed to open datastore: %w", err)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Failed to close datastore", "error", err)
		}
	}()

	pl := pipeline.New(ensemble, store)
	server := httpserver.New(settings, store, pl)

	errChan := make(chan error, 1)
	go func() {
		errChan <- server.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-quit:
		log.Info("Shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}
