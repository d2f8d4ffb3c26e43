package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/riskhound/faultquant/pkg/config"
	"github.com/riskhound/faultquant/pkg/engine"
	"github.com/riskhound/faultquant/pkg/model"
	"github.com/riskhound/faultquant/pkg/report"
	"github.com/riskhound/faultquant/pkg/storage"
)

var (
	cfgFile   string
	outputDir string
	jsonLogs  bool
	quiet     bool
)

var AnalyzeCmd = &cobra.Command{
	Use:   "analyze MODEL.hcl...",
	Short: "Quantify a fault-tree model",
	Long: `Run the configured analyses (probability, importance, uncertainty)
over one or more fault-tree model files and write the result records.`,
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAnalyze(cmd.Context(), args)
	},
}

func init() {
	AnalyzeCmd.Flags().StringVar(&cfgFile, "config", "", "Path to the YAML configuration file")
	AnalyzeCmd.Flags().StringVarP(&outputDir, "output", "o", "faultquant-out", "Directory for result records")
	AnalyzeCmd.Flags().BoolVar(&jsonLogs, "json-logs", false, "Emit logs as JSON")
	AnalyzeCmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "Suppress the terminal summary")
}

func runAnalyze(ctx context.Context, inputs []string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	// Input files are I/O failures, not validation failures, when absent.
	for _, path := range inputs {
		if _, err := os.Stat(path); err != nil {
			return fmt.Errorf("input file %s: %w", path, err)
		}
	}

	settings := config.DefaultSettings()
	if cfgFile != "" {
		var err error
		settings, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
	}

	g, cutSets, err := model.Load(inputs, settings)
	if err != nil {
		return err
	}

	var logger *slog.Logger
	if jsonLogs {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, nil))
	} else {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	e, err := engine.New(
		engine.WithModel(g, cutSets),
		engine.WithConfig(engine.Config{
			Settings: settings,
			JsonLogs: jsonLogs,
			Logger:   logger,
		}),
	)
	if err != nil {
		return err
	}

	results, err := e.Run(ctx)
	if err != nil {
		return err
	}

	writer := report.NewWriter(storage.NewLocalStore(outputDir))
	if err := writer.Write(ctx, results); err != nil {
		return fmt.Errorf("writing results: %w", err)
	}

	if !quiet {
		fmt.Println(report.Summary(results))
		fmt.Printf("Records written to %s\n", outputDir)
	}
	return nil
}

// exitCode maps failures onto the documented command exit codes.
func exitCode(err error) int {
	switch {
	case errors.Is(err, config.ErrInvalidSettings), errors.Is(err, model.ErrValidation):
		return ExitValidation
	case errors.Is(err, os.ErrNotExist), errors.Is(err, os.ErrPermission):
		return ExitIOError
	}
	return ExitAnalysis
}
