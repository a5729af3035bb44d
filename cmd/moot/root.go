package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "moot",
	Short: "Moot is a scenario session engine for legal training",
	Long: `Moot runs interactive legal training scenarios: trainees work through
courtroom and negotiation narratives one decision at a time while an
evaluator scores each move and narrates its consequences.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	// Persistent flags (available to all commands)
	rootCmd.PersistentFlags().String("scenarios", "examples/scenarios", "Directory containing scenario YAML files")
}
