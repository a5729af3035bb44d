// Package file provides a ScenarioCatalog backed by a directory of YAML
// scenario definitions. The directory is read once at construction; scenario
// content is immutable for the lifetime of the process, which matches the
// engine's assumption that a scenario may be cached indefinitely per ID.
package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/aretw0/moot/pkg/domain"
	"github.com/aretw0/moot/pkg/ports"
)

// Catalog implements ports.ScenarioCatalog over a directory of YAML files.
type Catalog struct {
	dir       string
	scenarios map[string]*domain.Scenario
}

// NewCatalog loads every *.yaml / *.yml file in dir as one scenario.
func NewCatalog(dir string) (*Catalog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read scenario dir %q: %w", dir, err)
	}

	catalog := &Catalog{
		dir:       dir,
		scenarios: make(map[string]*domain.Scenario),
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		scenario, err := loadScenario(filepath.Join(dir, entry.Name()))
		if err != nil {
			return nil, err
		}
		if _, dup := catalog.scenarios[scenario.ID]; dup {
			return nil, fmt.Errorf("duplicate scenario id %q in %s", scenario.ID, entry.Name())
		}
		catalog.scenarios[scenario.ID] = scenario
	}

	return catalog, nil
}

func loadScenario(path string) (*domain.Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %q: %w", path, err)
	}

	var scenario domain.Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse scenario %q: %w", path, err)
	}

	if scenario.ID == "" {
		// Convention: the file name is the scenario ID unless declared.
		scenario.ID = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	if scenario.TotalSteps == 0 {
		scenario.TotalSteps = domain.DefaultTotalSteps
	}
	if err := scenario.Validate(); err != nil {
		return nil, fmt.Errorf("scenario %q: %w", path, err)
	}
	return &scenario, nil
}

// FetchScenario returns the scenario with the given ID.
func (c *Catalog) FetchScenario(ctx context.Context, scenarioID string) (*domain.Scenario, error) {
	scenario, ok := c.scenarios[scenarioID]
	if !ok {
		return nil, domain.ErrScenarioNotFound
	}
	copied := *scenario
	return &copied, nil
}

// List returns all scenarios ordered by ID.
func (c *Catalog) List(ctx context.Context) ([]*domain.Scenario, error) {
	out := make([]*domain.Scenario, 0, len(c.scenarios))
	for _, s := range c.scenarios {
		copied := *s
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

var _ ports.ScenarioCatalog = (*Catalog)(nil)
