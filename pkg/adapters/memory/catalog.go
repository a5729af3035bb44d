package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/aretw0/moot/pkg/domain"
	"github.com/aretw0/moot/pkg/ports"
)

// Catalog implements ports.ScenarioCatalog over a fixed set of scenarios.
type Catalog struct {
	mu        sync.RWMutex
	scenarios map[string]*domain.Scenario
}

// NewCatalog creates a catalog from the given scenarios.
func NewCatalog(scenarios ...*domain.Scenario) *Catalog {
	c := &Catalog{scenarios: make(map[string]*domain.Scenario)}
	for _, s := range scenarios {
		c.scenarios[s.ID] = s
	}
	return c
}

// Add registers or replaces a scenario.
func (c *Catalog) Add(scenario *domain.Scenario) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.scenarios[scenario.ID] = scenario
}

// Remove drops a scenario from the catalog.
func (c *Catalog) Remove(scenarioID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.scenarios, scenarioID)
}

// FetchScenario returns the scenario with the given ID.
func (c *Catalog) FetchScenario(ctx context.Context, scenarioID string) (*domain.Scenario, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	scenario, ok := c.scenarios[scenarioID]
	if !ok {
		return nil, domain.ErrScenarioNotFound
	}
	copied := *scenario
	return &copied, nil
}

// List returns all scenarios ordered by ID.
func (c *Catalog) List(ctx context.Context) ([]*domain.Scenario, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*domain.Scenario, 0, len(c.scenarios))
	for _, s := range c.scenarios {
		copied := *s
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var _ ports.ScenarioCatalog = (*Catalog)(nil)
