package commands

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/textvet/internal/logger"
	"github.com/jmylchreest/textvet/pkg/placeholder"
	"github.com/jmylchreest/textvet/pkg/verifier"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run verification methods and aggregate a consensus verdict",
	Long: `Execute every method in a method set against the model and combine
the results into a final verdict: confirmed, review, or discarded.
Placeholders in method prompts are filled from the reference data.

Examples:
  # Two confirmations needed, one is enough for review
  textvet verify --methods methods.yaml --data ref.json \
      --required-confirmed 2 --required-review 1

  # Run methods concurrently and keep the report
  textvet verify --methods methods.json --data ref.json \
      --required-confirmed 2 --required-review 1 \
      -c 4 --save-dir results`,
	RunE: runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	flags := verifyCmd.Flags()
	flags.String("methods", "", "path to method set file (required)")
	flags.StringP("data", "d", "", "reference data file (flat JSON or YAML map)")
	flags.Int("required-confirmed", 0, "passed methods needed for the confirmed status (required)")
	flags.Int("required-review", 0, "passed methods needed for the review status (required)")
	flags.IntP("concurrency", "c", 1, "methods executed concurrently")
	flags.Duration("method-timeout", 0, "per-method timeout (0 = provider timeout only)")

	_ = verifyCmd.MarkFlagRequired("methods")
	_ = verifyCmd.MarkFlagRequired("required-confirmed")
	_ = verifyCmd.MarkFlagRequired("required-review")

	addProviderFlags(verifyCmd)
	addOutputFlags(verifyCmd)
}

func runVerify(cmd *cobra.Command, args []string) error {
	initLogging()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	methodsPath, _ := cmd.Flags().GetString("methods")
	methods, err := verifier.LoadMethods(methodsPath)
	if err != nil {
		logError("failed to load methods: %v", err)
		return err
	}
	logger.Debug("methods loaded", "path", methodsPath, "count", len(methods))

	var refData map[string]string
	if dataPath, _ := cmd.Flags().GetString("data"); dataPath != "" {
		refData, err = placeholder.LoadReferenceData(dataPath)
		if err != nil {
			logError("failed to load reference data: %v", err)
			return err
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

	requiredConfirmed, _ := cmd.Flags().GetInt("required-confirmed")
	requiredReview, _ := cmd.Flags().GetInt("required-review")

	start := time.Now()
	report, err := verifier.New(provider, opts...).Run(ctx, verifier.RunRequest{
		Methods:           methods,
		RequiredConfirmed: requiredConfirmed,
		RequiredReview:    requiredReview,
		ReferenceData:     refData,
	})
	if err != nil {
		logger.Error("verification failed", "error", err)
		return err
	}
	logger.Info("verification complete",
		"status", report.FinalStatus,
		"success_rate", report.SuccessRate,
		"duration", time.Since(start))

	writer, cleanup, err := openWriter(cmd)
	if err != nil {
		logError("failed to create output writer: %v", err)
		return err
	}
	defer cleanup()

	if err := writer.Write(report); err != nil {
		return err
	}
	return saveResult(cmd, "verification", report)
}
