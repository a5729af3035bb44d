// Package anthropic implements the evaluator port on the Anthropic
// Messages API. Each decision is judged in a single non-streaming call
// that must return a strict JSON verdict.
package anthropic

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/aretw0/moot/pkg/evaluator/middleware"
	"github.com/aretw0/moot/pkg/ports"
)

// DefaultModel is used when no model is configured.
const DefaultModel = string(sdk.ModelClaudeSonnet4_0)

const (
	evaluateMaxTokens  = 1024
	summarizeMaxTokens = 768
)

const evaluateSystem = `You are a senior litigator grading a trainee's decision in a legal training scenario.
Respond with a single JSON object and nothing else:
{"response": string, "consequences": string, "nextOptions": [string], "score": integer 0-100}
"response" reacts to the trainee's decision in character. "consequences" states what the decision causes in the case. "nextOptions" offers 2-4 concrete next moves, or [] on the final step. "score" grades legal soundness.`

const summarizeSystem = `You are a senior litigator writing closing feedback for a trainee who finished a legal training scenario.
Write 2-4 plain sentences: overall assessment, strongest decision, weakest decision. No JSON, no markdown headings.`

// Evaluator calls the Anthropic Messages API to score decisions and write
// completion feedback.
type Evaluator struct {
	client sdk.Client
	model  string
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithModel overrides the model used for all calls.
func WithModel(model string) Option {
	return func(e *Evaluator) {
		if model != "" {
			e.model = model
		}
	}
}

// New builds an Evaluator reading ANTHROPIC_API_KEY from the environment.
func New(opts ...Option) *Evaluator {
	return newEvaluator(sdk.NewClient(), opts...)
}

// NewWithKey builds an Evaluator with an explicit API key.
func NewWithKey(apiKey string, opts ...Option) *Evaluator {
	return newEvaluator(sdk.NewClient(option.WithAPIKey(apiKey)), opts...)
}

func newEvaluator(client sdk.Client, opts ...Option) *Evaluator {
	e := &Evaluator{client: client, model: DefaultModel}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

var _ ports.Evaluator = (*Evaluator)(nil)

// Evaluate sends the scenario, history and newest decision in one prompt and
// parses the JSON verdict out of the reply. API and transport failures come
// back marked transient so a retry middleware can classify them.
func (e *Evaluator) Evaluate(ctx context.Context, req ports.EvaluationRequest) (*ports.Verdict, error) {
	msg, err := e.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(e.model),
		MaxTokens: evaluateMaxTokens,
		System:    []sdk.TextBlockParam{{Text: evaluateSystem}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(BuildEvaluatePrompt(req))),
		},
	})
	if err != nil {
		return nil, middleware.Transient(fmt.Errorf("anthropic evaluate: %w", err))
	}

	verdict, err := ParseVerdict(messageText(msg))
	if err != nil {
		// A malformed reply is a model hiccup, not a dead transport; let
		// the retry layer take another swing.
		return nil, middleware.Transient(err)
	}
	return verdict, nil
}

// Summarize asks for the closing feedback narrative as plain prose.
func (e *Evaluator) Summarize(ctx context.Context, req ports.SummaryRequest) (string, error) {
	msg, err := e.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(e.model),
		MaxTokens: summarizeMaxTokens,
		System:    []sdk.TextBlockParam{{Text: summarizeSystem}},
		Messages: []sdk.MessageParam{
			sdk.NewUserMessage(sdk.NewTextBlock(BuildSummaryPrompt(req))),
		},
	})
	if err != nil {
		return "", middleware.Transient(fmt.Errorf("anthropic summarize: %w", err))
	}

	text := strings.TrimSpace(messageText(msg))
	if text == "" {
		return "", middleware.Transient(fmt.Errorf("anthropic summarize: empty reply"))
	}
	return text, nil
}

// BuildEvaluatePrompt renders one decision submission as the user turn.
func BuildEvaluatePrompt(req ports.EvaluationRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scenario:\n%s\n\n", req.ScenarioText)
	if len(req.History) > 0 {
		b.WriteString("Prior decisions:\n")
		for _, d := range req.History {
			fmt.Fprintf(&b, "Step %d: %s (scored %d)\n", d.Step, d.Input, d.Score)
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "Step %d of %d.\nTrainee's decision: %s\n", req.Step, req.TotalSteps, req.Input)
	if req.Step >= req.TotalSteps {
		b.WriteString("This is the final step: nextOptions must be [].\n")
	}
	return b.String()
}

// BuildSummaryPrompt renders a finished session as the user turn.
func BuildSummaryPrompt(req ports.SummaryRequest) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Scenario: %s\n%s\n\nDecisions:\n", req.ScenarioTitle, req.ScenarioText)
	for _, d := range req.History {
		fmt.Fprintf(&b, "Step %d: %s (scored %d)\n", d.Step, d.Input, d.Score)
	}
	fmt.Fprintf(&b, "\nFinal score: %d%%\n", req.FinalScore)
	return b.String()
}

// ParseVerdict extracts the JSON verdict from a model reply, tolerating a
// surrounding markdown code fence and stray prose around the object.
func ParseVerdict(text string) (*ports.Verdict, error) {
	raw := extractJSON(text)
	if raw == "" {
		return nil, fmt.Errorf("verdict: no JSON object in reply")
	}

	var payload struct {
		Response     string   `json:"response"`
		Consequences string   `json:"consequences"`
		NextOptions  []string `json:"nextOptions"`
		Score        int      `json:"score"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("verdict: %w", err)
	}
	if strings.TrimSpace(payload.Response) == "" {
		return nil, fmt.Errorf("verdict: empty response field")
	}

	return &ports.Verdict{
		Response:     payload.Response,
		Consequences: payload.Consequences,
		NextOptions:  payload.NextOptions,
		Score:        clampScore(payload.Score),
	}, nil
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// extractJSON returns the outermost {...} slice of text, or "".
func extractJSON(text string) string {
	text = strings.TrimSpace(text)
	if after, ok := strings.CutPrefix(text, "```json"); ok {
		text = after
	} else if after, ok := strings.CutPrefix(text, "```"); ok {
		text = after
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")

	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end <= start {
		return ""
	}
	return text[start : end+1]
}

func messageText(msg *sdk.Message) string {
	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	return b.String()
}
