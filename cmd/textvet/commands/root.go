// Package commands implements the CLI commands for textvet.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/jmylchreest/textvet/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "textvet",
	Short: "LLM-powered text generation, extraction, and consensus verification",
	Long: `Textvet generates candidate texts with an LLM, extracts structured
records from them with matching rules, and vets data against
verification methods by consensus over repeated model sampling.

Examples:
  # Generate candidates from a prompt template
  textvet generate -P "Write a profile for {nombre}" --data ref.json -n 3

  # Extract structured records from text
  textvet parse -r rules.json -i response.txt

  # Run verification methods against reference data
  textvet verify --methods methods.yaml --data ref.json \
      --required-confirmed 2 --required-review 1

  # Chain the three as a pipeline
  textvet pipeline -f pipeline.yaml`,
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().String("config", "", "config file (default $HOME/.textvet.yaml)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolP("quiet", "q", false, "suppress progress output")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
	_ = viper.BindPFlag("quiet", rootCmd.PersistentFlags().Lookup("quiet"))

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version.Full())
		},
	})
}

func initConfig() {
	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigName(".textvet")
		viper.SetConfigType("yaml")
	}

	// Environment variables
	viper.SetEnvPrefix("TEXTVET")
	viper.AutomaticEnv()

	// Also check common API key env vars
	_ = viper.BindEnv("api_key", "ANTHROPIC_API_KEY", "OPENAI_API_KEY")

	// Read config file (ignore error if not found)
	_ = viper.ReadInConfig()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// logError prints an error message to stderr.
func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
}
