package commands

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/textvet/internal/logger"
	"github.com/jmylchreest/textvet/pkg/pipeline"
	"github.com/jmylchreest/textvet/pkg/placeholder"
	"github.com/jmylchreest/textvet/pkg/verifier"
)

var pipelineCmd = &cobra.Command{
	Use:   "pipeline",
	Short: "Run a generate/parse/verify step sequence from a definition file",
	Long: `Execute a pipeline definition: each step's output feeds the next.
Generate steps produce texts, parse steps turn texts into records,
and verify steps attach consensus reports to records.

Examples:
  textvet pipeline -f pipeline.yaml

  # Override reference data and keep the step results
  textvet pipeline -f pipeline.json --data ref.json --save-dir results`,
	RunE: runPipeline,
}

func init() {
	rootCmd.AddCommand(pipelineCmd)

	flags := pipelineCmd.Flags()
	flags.StringP("file", "f", "", "pipeline definition file (required)")
	flags.StringP("data", "d", "", "reference data file, merged over the definition's reference_data")
	flags.IntP("concurrency", "c", 1, "verify methods executed concurrently")
	flags.Duration("method-timeout", 0, "per-method timeout for verify steps")

	_ = pipelineCmd.MarkFlagRequired("file")

	addProviderFlags(pipelineCmd)
	addOutputFlags(pipelineCmd)
}

func runPipeline(cmd *cobra.Command, args []string) error {
	initLogging()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	defPath, _ := cmd.Flags().GetString("file")
	def, err := pipeline.Load(defPath)
	if err != nil {
		logError("failed to load pipeline definition: %v", err)
		return err
	}
	logger.Debug("pipeline loaded", "path", defPath, "steps", len(def.Steps))

	refData := def.ReferenceData
	if dataPath, _ := cmd.Flags().GetString("data"); dataPath != "" {
		overlay, err := placeholder.LoadReferenceData(dataPath)
		if err != nil {
			logError("failed to load reference data: %v", err)
			return err
		}
		if refData == nil {
			refData = overlay
		} else {
			for k, v := range overlay {
				refData[k] = v
			}
		}
	}

	provider, err := buildProvider(cmd)
	if err != nil {
		logError("failed to create provider: %v", err)
		return err
	}

	var opts []verifier.Option
	if concurrency, _ := cmd.Flags().GetInt("concurrency"); concurrency > 1 {
		opts = append(opts, verifier.WithConcurrency(concurrency))
	}
	if methodTimeout, _ := cmd.Flags().GetDuration("method-timeout"); methodTimeout > 0 {
		opts = append(opts, verifier.WithMethodTimeout(methodTimeout))
	}

	results, err := pipeline.New(provider, opts...).Run(ctx, def.Steps, refData)
	if err != nil {
		logger.Error("pipeline failed", "error", err)
		return err
	}
	logger.Info("pipeline complete", "steps", len(results))

	writer, cleanup, err := openWriter(cmd)
	if err != nil {
		logError("failed to create output writer: %v", err)
		return err
	}
	defer cleanup()

	for _, step := range results {
		if err := writer.Write(step); err != nil {
			return err
		}
	}
	return saveResult(cmd, "pipeline", results)
}
