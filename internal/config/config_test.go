package config

import (
	"os"
	"path/filepath"
	"testing"

	"goprove/domain/dataset"

	"github.com/stretchr/testify/assert"
)

func writeScopeFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scope.yaml")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writing scope file: %v", err)
	}
	return path
}

func TestLoadScope(t *testing.T) {
	path := writeScopeFile(t, `
mode: STRICT
tables:
  - name: bars
    time_column: t
    key_columns: [t, symbol]
  - name: adjustments
    optional: true
`)

	scope, err := LoadScope(path)
	assert.NoError(t, err)
	assert.Equal(t, dataset.ModeStrict, scope.Mode)
	assert.Len(t, scope.Tables, 2)
	assert.Equal(t, "bars", scope.Tables[0].Name)
	assert.Equal(t, []string{"t", "symbol"}, scope.Tables[0].KeyColumns)
	assert.True(t, scope.Tables[1].Optional)
}

func TestLoadScopeDefaultsToStrict(t *testing.T) {
	path := writeScopeFile(t, `
tables:
  - name: bars
`)
	scope, err := LoadScope(path)
	assert.NoError(t, err)
	assert.Equal(t, dataset.ModeStrict, scope.Mode)
}

func TestLoadScopeRejectsInvalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"unknown mode", "mode: TURBO\ntables:\n  - name: bars\n"},
		{"no tables", "mode: STRICT\n"},
		{"empty table name", "tables:\n  - name: \"\"\n"},
		{"duplicate table", "tables:\n  - name: bars\n  - name: bars\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadScope(writeScopeFile(t, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("PORT", "9090")
	t.Setenv("MIN_NULL_FRACTION", "0.9")
	t.Setenv("CONTROL_PLANE_ACTOR", "ci")
	t.Setenv("HASH_SCOPE_FILE", "")

	cfg, err := Load()
	assert.NoError(t, err)
	assert.Equal(t, "postgres://localhost/test", cfg.Database.URL)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, 0.9, cfg.Evaluator.MinNullFraction)
	assert.Equal(t, "ci", cfg.Actor)
}

func TestLoadRejectsBadNullFraction(t *testing.T) {
	t.Setenv("MIN_NULL_FRACTION", "1.5")
	_, err := Load()
	assert.Error(t, err)
}
