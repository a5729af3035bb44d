package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/aretw0/moot"
	"github.com/aretw0/moot/internal/presentation/tui"
	"github.com/aretw0/moot/pkg/domain"
)

// PlayOptions configures one interactive session run.
type PlayOptions struct {
	ScenarioID string
	OwnerID    string
}

// RunPlay drives a full session on the terminal: it prints the narrative,
// reads one decision per step, shows the scored verdict, and completes the
// session when the steps run out.
func RunPlay(ctx context.Context, engine *moot.Engine, opts PlayOptions) error {
	render := tui.NewRenderer()
	reader := bufio.NewReader(os.Stdin)

	scenario, err := engine.Catalog().FetchScenario(ctx, opts.ScenarioID)
	if err != nil {
		return fmt.Errorf("fetch scenario: %w", err)
	}

	tui.PrintBanner()
	printMarkdown(render, fmt.Sprintf("# %s\n\n%s", scenario.Title, scenario.NarrativeText))

	sess, err := engine.CreateSession(ctx, opts.ScenarioID, opts.OwnerID)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	fmt.Printf("Session %s started (%d steps).\n\n", sess.ID, sess.TotalSteps)

	for !sess.StepsExhausted() {
		step := sess.CurrentStep
		if last := sess.LastDecision(); last != nil && len(last.NextOptions) > 0 {
			fmt.Println("Options:")
			for i, opt := range last.NextOptions {
				fmt.Printf("  %d. %s\n", i+1, opt)
			}
		}

		fmt.Printf("[step %d/%d] > ", step, sess.TotalSteps)
		text, err := reader.ReadString('\n')
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
		input := strings.TrimSpace(text)
		if input == "" {
			continue
		}
		if input == "exit" || input == "quit" {
			fmt.Println("Session left in progress. Resume it any time.")
			return nil
		}
		input = resolveOption(sess, input)

		scoredSess, err := engine.SubmitDecision(ctx, sess.ID, step, input)
		if err != nil {
			if errors.Is(err, domain.ErrEvaluatorUnavailable) {
				// Mid-session the step stays retryable, but on the first
				// decision the session fails. Re-fetch to find out which.
				if cur, getErr := engine.Get(ctx, sess.ID); getErr == nil && !cur.Status.Terminal() {
					fmt.Println("The evaluator is unavailable right now; try the step again.")
					continue
				}
			}
			return fmt.Errorf("submit decision: %w", err)
		}
		sess = scoredSess

		scored := sess.LastDecision()
		printMarkdown(render, scored.Response)
		if scored.Consequences != "" {
			printMarkdown(render, "*"+scored.Consequences+"*")
		}
		fmt.Printf("Score: %s\n\n", tui.Score(scored.Score))
	}

	sess, err = engine.CompleteSession(ctx, sess.ID)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}

	printMarkdown(render, fmt.Sprintf("## Session complete\n\n%s", sess.Feedback))
	fmt.Printf("Final score: %s\n", tui.Score(sess.FinalScore))
	return nil
}

// resolveOption maps a numeric choice onto the previous verdict's options.
func resolveOption(sess *domain.Session, input string) string {
	last := sess.LastDecision()
	if last == nil || len(last.NextOptions) == 0 {
		return input
	}
	var n int
	if _, err := fmt.Sscanf(input, "%d", &n); err != nil {
		return input
	}
	if n < 1 || n > len(last.NextOptions) {
		return input
	}
	return last.NextOptions[n-1]
}

func printMarkdown(render func(string) (string, error), markdown string) {
	out, err := render(markdown)
	if err != nil {
		fmt.Println(markdown)
		return
	}
	fmt.Print(out)
}
