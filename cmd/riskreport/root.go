// riskreport scores security-posture questionnaires and produces
// evidence-cited risk analyses from the evaluation history.
//
// Usage:
//
//	riskreport score   --evaluations <file.json> [--id <evaluation-id>]
//	riskreport analyze --evaluations <file.json> --target <asset> --scenario <threat>
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var rootCmd = &cobra.Command{
	Use:   "riskreport",
	Short: "Evaluation scoring and evidence-based risk reasoning",
	Long: "Riskreport turns completed security questionnaires into weighted scores\n" +
		"and risk classifications, and aggregates the evaluation history into\n" +
		"cited, confidence-scored judgments about named risk scenarios.",
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
}

func init() {
	rootCmd.AddCommand(scoreCmd)
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
