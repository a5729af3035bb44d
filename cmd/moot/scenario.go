package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/moot/pkg/adapters/file"
)

var scenarioCmd = &cobra.Command{
	Use:   "scenario",
	Short: "Inspect the scenario catalog",
}

var scenarioLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List the scenarios in the catalog directory",
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("scenarios")
		catalog, err := file.NewCatalog(dir)
		if err != nil {
			fmt.Printf("Error loading catalog: %v\n", err)
			os.Exit(1)
		}

		scenarios, err := catalog.List(cmd.Context())
		if err != nil {
			fmt.Printf("Error listing scenarios: %v\n", err)
			os.Exit(1)
		}

		if len(scenarios) == 0 {
			fmt.Println("No scenarios found.")
			return
		}

		for _, s := range scenarios {
			fmt.Printf("%-24s %s (%d steps)\n", s.ID, s.Title, s.TotalSteps)
		}
	},
}

var scenarioValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate every scenario file in the catalog directory",
	Run: func(cmd *cobra.Command, args []string) {
		dir, _ := cmd.Flags().GetString("scenarios")

		// NewCatalog validates each file as it loads, so a clean load is a
		// clean catalog.
		catalog, err := file.NewCatalog(dir)
		if err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}

		scenarios, err := catalog.List(cmd.Context())
		if err != nil {
			fmt.Printf("Validation failed: %v\n", err)
			os.Exit(1)
		}

		fmt.Printf("OK: %d scenario(s) valid\n", len(scenarios))
	},
}

func init() {
	rootCmd.AddCommand(scenarioCmd)
	scenarioCmd.AddCommand(scenarioLsCmd)
	scenarioCmd.AddCommand(scenarioValidateCmd)
}
