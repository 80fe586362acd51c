package pricing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"maestro/internal/types"
)

func TestBuiltinTable(t *testing.T) {
	table, err := Builtin()
	require.NoError(t, err)

	assert.Equal(t, []string{"claude", "deepseek", "httpx", "pandas", "playwright", "polars", "requests", "scrapy"}, table.Names())
	assert.Equal(t, 3.0, table.Tuning.ParallelismFactor)
	assert.Equal(t, 5, table.Tuning.ScopeFloor(types.CategoryScraping))
	assert.Equal(t, 10, table.Tuning.ScopeFloor(types.CategoryAnalysis))
	assert.Equal(t, 2, table.Tuning.ScopeFloor(types.CategoryAPI))

	scrapy, ok := table.Tool("scrapy")
	require.True(t, ok)
	assert.Equal(t, "scrapy", scrapy.Name)
	assert.Equal(t, 0.85, scrapy.Coefficient())

	deepseek, _ := table.Tool("deepseek")
	assert.InDelta(t, 0.00136, deepseek.TokenCost(3000, 500), 1e-12)
}

func TestLoadMissingIsNotFound(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "tools.yaml"))
	assert.ErrorIs(t, err, ErrTableNotFound)
}

func TestLoadMalformed(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"not yaml", "tools: [unterminated"},
		{"no tools", "tuning: {parallelism_factor: 3}"},
		{"bad kind", "tools:\n  x: {kind: magic, label: X, throughput_per_second: 1}"},
		{"fetch without success rate", "tools:\n  x: {kind: fetch, label: X, throughput_per_second: 1}"},
		{"llm without prices", "tools:\n  x: {kind: llm, label: X, quality: 0.9, throughput_per_second: 1}"},
		{"zero throughput", "tools:\n  x: {kind: fetch, label: X, success_rate: 0.9}"},
		{"quality above one", "tools:\n  x: {kind: processor, label: X, quality: 1.5, throughput_per_second: 1}"},
		{"empty record", "tools:\n  x:\n"},
		{"bad floor", "tuning: {scope_floors: {email: 3}}\ntools:\n  x: {kind: processor, label: X, quality: 0.5, throughput_per_second: 1}"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "tools.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.yaml), 0644))
			_, err := Load(path)
			assert.ErrorIs(t, err, ErrTableMalformed)
		})
	}
}

func TestTuningDefaultsWhenOmitted(t *testing.T) {
	table, err := Parse([]byte("tools:\n  x: {kind: processor, label: X, quality: 0.5, throughput_per_second: 1}"))
	require.NoError(t, err)
	assert.Equal(t, DefaultTuning(), table.Tuning)
}

func TestRequire(t *testing.T) {
	table, err := Builtin()
	require.NoError(t, err)

	assert.NoError(t, table.Require(map[string]ToolKind{"scrapy": KindFetch, "claude": KindLLM}))

	err = table.Require(map[string]ToolKind{"selenium": KindFetch, "pandas": KindLLM})
	require.ErrorIs(t, err, ErrTableMalformed)
	assert.Contains(t, err.Error(), `missing tool "selenium"`)
	assert.Contains(t, err.Error(), `tool "pandas" is processor, want llm`)
}

func TestWriteDefaultDoesNotOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "tools.yaml")

	written, err := WriteDefault(path)
	require.NoError(t, err)
	assert.True(t, written)

	table, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, table.Source)

	require.NoError(t, os.WriteFile(path, []byte("custom"), 0644))
	written, err = WriteDefault(path)
	require.NoError(t, err)
	assert.False(t, written)
	data, _ := os.ReadFile(path)
	assert.Equal(t, "custom", string(data))
}
