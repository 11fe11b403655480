package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mlaurent/scanledger/internal/logging"
)

func TestPatternStoreDefaults(t *testing.T) {
	ps := NewPatternStore("", &logging.MockLogger{})
	require.NoError(t, ps.Load())

	pats := ps.Patterns()
	assert.NotEmpty(t, pats.Amount)
	assert.NotEmpty(t, pats.Date)
	assert.NotEmpty(t, pats.PayslipNet)
}

func TestPatternStoreOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	content := "amount:\n  - 'SUM\\s+(\\d+[.,]\\d{2})'\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	ps := NewPatternStore(path, &logging.MockLogger{})
	require.NoError(t, ps.Load())

	pats := ps.Patterns()
	require.Len(t, pats.Amount, 1)
	assert.True(t, pats.Amount[0].MatchString("SUM 12.50"))
	assert.NotEmpty(t, pats.Date, "unlisted fields keep their defaults")
}

func TestPatternStoreInvalidRegexFailsLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "patterns.yaml")
	require.NoError(t, os.WriteFile(path, []byte("date:\n  - '(['\n"), 0o644))

	ps := NewPatternStore(path, &logging.MockLogger{})
	assert.Error(t, ps.Load())
}

func TestPatternStoreMissingFileUsesDefaults(t *testing.T) {
	ps := NewPatternStore(filepath.Join(t.TempDir(), "nope.yaml"), &logging.MockLogger{})
	require.NoError(t, ps.Load())
	assert.NotEmpty(t, ps.Patterns().Amount)
}
