// Package testutils holds helpers shared by tests across packages.
package testutils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/aretw0/moot/pkg/domain"
)

// WriteScenarioDir creates a temporary catalog directory containing one YAML
// file per scenario and returns its absolute path. It fails the test
// immediately on error.
func WriteScenarioDir(t *testing.T, scenarios ...*domain.Scenario) string {
	t.Helper()

	dir := t.TempDir()
	for _, s := range scenarios {
		data, err := yaml.Marshal(s)
		require.NoError(t, err, "Failed to marshal scenario %q", s.ID)

		path := filepath.Join(dir, s.ID+".yaml")
		require.NoError(t, os.WriteFile(path, data, 0o644), "Failed to write scenario %q", s.ID)
	}
	return dir
}
