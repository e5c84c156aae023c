package commands

import (
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/textvet/internal/logger"
	"github.com/jmylchreest/textvet/internal/output"
	"github.com/jmylchreest/textvet/pkg/llm"
)

// addProviderFlags registers the LLM provider flags shared by every
// command that talks to a model.
func addProviderFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("provider", "p", "", "LLM provider: anthropic, openai, ollama (auto-detects from env vars)")
	flags.StringP("model", "m", "", "model name (provider-specific)")
	flags.StringP("api-key", "k", "", "API key (or use env var)")
	flags.String("base-url", "", "custom API base URL")
	flags.Duration("timeout", 120*time.Second, "request timeout")
	flags.Int("max-retries", 2, "max request retries")

	_ = viper.BindPFlag("provider", flags.Lookup("provider"))
	_ = viper.BindPFlag("model", flags.Lookup("model"))
	_ = viper.BindPFlag("api_key", flags.Lookup("api-key"))
	_ = viper.BindPFlag("base_url", flags.Lookup("base-url"))
}

// buildProvider creates the configured provider, falling back to
// environment detection when no --provider was given.
func buildProvider(cmd *cobra.Command) (llm.Provider, error) {
	name := viper.GetString("provider")
	if name == "" {
		name = llm.DetectProvider()
		logger.Debug("provider auto-detected", "provider", name)
	}

	cfg := llm.DefaultConfig()
	cfg.APIKey = viper.GetString("api_key")
	cfg.BaseURL = viper.GetString("base_url")
	cfg.Model = viper.GetString("model")
	if cfg.Model == "" {
		cfg.Model = llm.DefaultModels[name]
	}
	if timeout, err := cmd.Flags().GetDuration("timeout"); err == nil && timeout > 0 {
		cfg.Timeout = timeout
	}
	if retries, err := cmd.Flags().GetInt("max-retries"); err == nil {
		cfg.MaxRetries = retries
	}

	return llm.NewProvider(name, cfg)
}

// addOutputFlags registers the output destination flags shared by all
// commands.
func addOutputFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringP("output", "o", "", "output file (default: stdout)")
	flags.String("format", "json", "output format: json, jsonl, yaml")
	flags.String("save-dir", "", "also save the result as a timestamped JSON file in this directory")
}

// openWriter builds the output writer from the shared flags. The
// returned cleanup closes the writer and any created file.
func openWriter(cmd *cobra.Command) (output.Writer, func(), error) {
	var out io.Writer = os.Stdout
	cleanupFile := func() {}

	if path, _ := cmd.Flags().GetString("output"); path != "" {
		f, err := os.Create(path) //#nosec G304 -- CLI tool writes to user-specified output file
		if err != nil {
			return nil, nil, err
		}
		out = f
		cleanupFile = func() { _ = f.Close() }
	}

	formatStr, _ := cmd.Flags().GetString("format")
	format, err := output.ParseFormat(formatStr)
	if err != nil {
		cleanupFile()
		return nil, nil, err
	}

	w, err := output.NewWriter(out, format)
	if err != nil {
		cleanupFile()
		return nil, nil, err
	}
	return w, func() {
		_ = w.Close()
		cleanupFile()
	}, nil
}

// saveResult writes the timestamped copy when --save-dir is set.
func saveResult(cmd *cobra.Command, prefix string, v any) error {
	dir, _ := cmd.Flags().GetString("save-dir")
	if dir == "" {
		return nil
	}
	path, err := output.SaveTimestamped(dir, prefix, v)
	if err != nil {
		return err
	}
	logger.Info("result saved", "path", path)
	return nil
}

func initLogging() {
	logger.Init(logger.Options{
		Debug: viper.GetBool("debug"),
		Quiet: viper.GetBool("quiet"),
	})
}
