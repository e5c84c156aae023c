package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/textvet/internal/logger"
	"github.com/jmylchreest/textvet/pkg/generate"
	"github.com/jmylchreest/textvet/pkg/placeholder"
)

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate candidate texts from a prompt template",
	Long: `Generate one or more candidate texts from a prompt. Placeholders
like {nombre} in the prompts are substituted from the reference data
file before the model is called.

Examples:
  # Three candidates from an inline prompt
  textvet generate -P "Write a short bio for {nombre}" --data ref.json -n 3

  # Prompt from a file, saved under results/
  textvet generate --prompt-file prompt.txt --save-dir results`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	flags := generateCmd.Flags()
	flags.StringP("prompt", "P", "", "user prompt template")
	flags.String("prompt-file", "", "read the user prompt from this file")
	flags.String("system", "", "system prompt template")
	flags.StringP("data", "d", "", "reference data file (flat JSON or YAML map)")
	flags.IntP("num-sequences", "n", 1, "number of candidates to generate")
	flags.Int("max-tokens", 256, "max tokens per candidate")
	flags.Float64P("temperature", "t", 1.0, "sampling temperature")

	addProviderFlags(generateCmd)
	addOutputFlags(generateCmd)
}

func runGenerate(cmd *cobra.Command, args []string) error {
	initLogging()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	userPrompt, _ := cmd.Flags().GetString("prompt")
	if promptFile, _ := cmd.Flags().GetString("prompt-file"); promptFile != "" {
		data, err := os.ReadFile(promptFile) //#nosec G304 -- CLI tool reads user-specified prompt file
		if err != nil {
			logError("failed to read prompt file: %v", err)
			return err
		}
		userPrompt = strings.TrimRight(string(data), "\n")
	}
	if userPrompt == "" {
		return fmt.Errorf("either --prompt or --prompt-file is required")
	}

	var refData map[string]string
	if dataPath, _ := cmd.Flags().GetString("data"); dataPath != "" {
		var err error
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

	systemPrompt, _ := cmd.Flags().GetString("system")
	numSequences, _ := cmd.Flags().GetInt("num-sequences")
	maxTokens, _ := cmd.Flags().GetInt("max-tokens")
	temperature, _ := cmd.Flags().GetFloat64("temperature")

	results, err := generate.New(provider).Generate(ctx, generate.Request{
		SystemPrompt:  systemPrompt,
		UserPrompt:    userPrompt,
		NumSequences:  numSequences,
		MaxTokens:     maxTokens,
		Temperature:   temperature,
		ReferenceData: refData,
	})
	if err != nil {
		logger.Error("generation failed", "error", err)
		return err
	}

	writer, cleanup, err := openWriter(cmd)
	if err != nil {
		logError("failed to create output writer: %v", err)
		return err
	}
	defer cleanup()

	for _, r := range results {
		if err := writer.Write(r); err != nil {
			return err
		}
	}
	return saveResult(cmd, "generation", results)
}
