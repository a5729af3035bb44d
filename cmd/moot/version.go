package main

import (
	"fmt"

	"github.com/aretw0/moot"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of moot",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("moot version %s\n", moot.Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
