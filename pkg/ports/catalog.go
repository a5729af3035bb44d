package ports

import (
	"context"

	"github.com/aretw0/moot/pkg/domain"
)

// ScenarioCatalog supplies read-only scenario content. Entries are immutable
// for the lifetime of a session and may be cached indefinitely per ID.
type ScenarioCatalog interface {
	// FetchScenario returns the scenario with the given ID.
	// Returns domain.ErrScenarioNotFound if it does not exist.
	FetchScenario(ctx context.Context, scenarioID string) (*domain.Scenario, error)

	// List returns all available scenarios, for pickers and validation tooling.
	List(ctx context.Context) ([]*domain.Scenario, error)
}
