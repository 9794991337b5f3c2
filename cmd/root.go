package cmd

import (
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/tmarques/floravision/cmd/classify"
	"github.com/tmarques/floravision/cmd/serve"
	"github.com/tmarques/floravision/internal/conf"
)

// RootCommand creates and returns the root command with all subcommands
// attached.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "floravision",
		Short: "FloraVision plant photo classification",
		Long:  `FloraVision classifies plant photos with an ensemble of TensorFlow Lite models and records expert-labelled results.`,
	}

	setupFlags(rootCmd, settings)

	rootCmd.AddCommand(
		classify.Command(settings),
		serve.Command(settings),
	)

	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if err := cmd.Flags().Parse(args); err != nil {
			return err
		}
		return conf.ValidateSettings(settings)
	}

	return rootCmd
}

// setupFlags defines global flags shared by all subcommands.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().IntVar(&settings.Ensemble.MaxResults, "maxresults", viper.GetInt("ensemble.maxresults"), "Maximum ranked results per model")
	rootCmd.PersistentFlags().Float64Var(&settings.Ensemble.MinConfidence, "minconfidence", viper.GetFloat64("ensemble.minconfidence"), "Minimum confidence percentage for reported results")
	rootCmd.PersistentFlags().IntVar(&settings.Ensemble.Threads, "threads", viper.GetInt("ensemble.threads"), "Number of CPU threads per interpreter")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		cobra.CheckErr(err)
	}
}
