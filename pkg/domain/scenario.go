package domain

// DefaultTotalSteps is the number of decision points a scenario declares
// unless its definition says otherwise.
const DefaultTotalSteps = 5

// Scenario is the static training narrative a session walks through.
// It is read-only to the engine: a session copies TotalSteps at creation so
// that later catalog edits cannot change an in-flight session's rules.
type Scenario struct {
	ID               string `json:"id" yaml:"id"`
	Title            string `json:"title" yaml:"title"`
	NarrativeText    string `json:"narrativeText" yaml:"narrative"`
	TotalSteps       int    `json:"totalSteps" yaml:"total_steps"`
	EstimatedMinutes int    `json:"estimatedMinutes" yaml:"estimated_minutes"`
	Category         string `json:"category" yaml:"category"`
	Difficulty       string `json:"difficulty" yaml:"difficulty"`
	Branch           string `json:"branch" yaml:"branch"`
}

// Validate checks the fields the engine depends on.
func (s *Scenario) Validate() error {
	if s.ID == "" {
		return ErrInvalidScenario
	}
	if s.Title == "" || s.NarrativeText == "" {
		return ErrInvalidScenario
	}
	if s.TotalSteps < 1 {
		return ErrInvalidScenario
	}
	return nil
}
