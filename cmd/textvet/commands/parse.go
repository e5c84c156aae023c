package commands

import (
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/textvet/internal/logger"
	"github.com/jmylchreest/textvet/pkg/parser"
)

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Extract structured records from text using matching rules",
	Long: `Apply a rule set to a text and emit the extracted records. Rules
match by keyword delimiters or regular expressions; captures are
zipped by position into records.

Examples:
  # Parse a file with a JSON rule set
  textvet parse -r rules.json -i response.txt

  # Parse stdin, keep only complete records
  cat response.txt | textvet parse -r rules.yaml --filter successful

  # First two records only
  textvet parse -r rules.json -i response.txt --filter first_n --limit 2`,
	RunE: runParse,
}

func init() {
	rootCmd.AddCommand(parseCmd)

	flags := parseCmd.Flags()
	flags.StringP("rules", "r", "", "path to rule set file (required)")
	flags.StringP("input", "i", "", "input text file (default: stdin)")
	flags.String("filter", "all", "output filter: all, successful, first, first_n")
	flags.Int("limit", 0, "record limit for the first_n filter")

	_ = parseCmd.MarkFlagRequired("rules")

	addOutputFlags(parseCmd)
}

func runParse(cmd *cobra.Command, args []string) error {
	initLogging()

	rulesPath, _ := cmd.Flags().GetString("rules")
	rules, err := parser.LoadRules(rulesPath)
	if err != nil {
		logError("failed to load rules: %v", err)
		return err
	}
	logger.Debug("rules loaded", "path", rulesPath, "count", len(rules))

	var text []byte
	if inputPath, _ := cmd.Flags().GetString("input"); inputPath != "" {
		text, err = os.ReadFile(inputPath) //#nosec G304 -- CLI tool reads user-specified input file
	} else {
		text, err = io.ReadAll(os.Stdin)
	}
	if err != nil {
		logError("failed to read input: %v", err)
		return err
	}

	filter, _ := cmd.Flags().GetString("filter")
	limit, _ := cmd.Flags().GetInt("limit")

	records, err := parser.Extract(string(text), rules, parser.Options{
		Filter: parser.OutputFilter(filter),
		Limit:  limit,
	})
	if err != nil {
		logger.Error("extraction failed", "error", err)
		return err
	}
	logger.Info("extraction complete", "records", len(records))

	writer, cleanup, err := openWriter(cmd)
	if err != nil {
		logError("failed to create output writer: %v", err)
		return err
	}
	defer cleanup()

	for _, rec := range records {
		if err := writer.Write(rec); err != nil {
			return err
		}
	}
	return saveResult(cmd, "extraction", records)
}
