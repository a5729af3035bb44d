package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/aretw0/moot/internal/cli"
	"github.com/aretw0/moot/internal/config"
	"github.com/aretw0/moot/internal/logging"
	"github.com/aretw0/moot/pkg/domain"
)

var playCmd = &cobra.Command{
	Use:   "play <scenario-id>",
	Short: "Play a scenario interactively in the terminal",
	Long: `Runs one training session in the terminal: the scenario narrative is
rendered, each decision is read from stdin, and the scored verdict is shown
after every step. Type 'exit' to leave the session in progress.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.FromEnv()
		if err != nil {
			fmt.Printf("Configuration error: %v\n", err)
			os.Exit(1)
		}

		scenarioDir, _ := cmd.Flags().GetString("scenarios")
		owner, _ := cmd.Flags().GetString("owner")

		engine, err := cli.CreateEngine(cfg, scenarioDir, logging.NewNop(), domain.LifecycleHooks{})
		if err != nil {
			fmt.Printf("Error initializing moot: %v\n", err)
			os.Exit(1)
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		err = cli.RunPlay(ctx, engine, cli.PlayOptions{
			ScenarioID: args[0],
			OwnerID:    owner,
		})
		if err != nil {
			if errors.Is(err, context.Canceled) {
				fmt.Println("\nSession interrupted.")
				return
			}
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(playCmd)
	playCmd.Flags().String("owner", "local", "Owner ID recorded on the session")
}
