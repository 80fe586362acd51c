package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// CONFIG TESTS
// =============================================================================

func clearEnv(t *testing.T) {
	t.Helper()
	t.Setenv("DEEPSEEK_API_KEY", "")
	t.Setenv("MAESTRO_PRICING", "")
	t.Setenv("MAESTRO_DEBUG", "")
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, "", cfg.PricingPath, "embedded table by default")
	assert.Equal(t, filepath.Join(".maestro", "preferences.jsonl"), cfg.PreferencesPath)
	assert.Equal(t, "deepseek", cfg.LLM.Provider)
	assert.Equal(t, 2, cfg.Learning.MinChoices)
	assert.Equal(t, 15*time.Second, cfg.GetLLMTimeout())
	assert.Equal(t, 20*time.Millisecond, cfg.GetMinDelay())
	assert.Equal(t, 120*time.Millisecond, cfg.GetMaxDelay())
	require.NoError(t, cfg.Validate())
}

func TestConfig_SaveLoad(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.PricingPath = ".maestro/pricing.yaml"
	cfg.LLM.APIKey = "sk-secret"
	cfg.Learning.MinChoices = 4
	cfg.Logging.Categories = map[string]bool{"executor": false}
	require.NoError(t, cfg.Save(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.NotContains(t, string(data), "sk-secret")
	assert.Equal(t, "sk-secret", cfg.LLM.APIKey, "Save does not mutate the receiver")

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ".maestro/pricing.yaml", loaded.PricingPath)
	assert.Equal(t, 4, loaded.Learning.MinChoices)
	assert.Empty(t, loaded.LLM.APIKey)
	assert.False(t, loaded.Logging.Categories["executor"])
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_PartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("output_dir: results\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "results", cfg.OutputDir)
	assert.Equal(t, 2, cfg.Learning.MinChoices)
}

func TestLoad_Malformed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("learning: [unclosed"), 0644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "failed to parse config")
}

func TestEnvOverrides(t *testing.T) {
	t.Run("DEEPSEEK_API_KEY sets provider if empty", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DEEPSEEK_API_KEY", "ds-key")

		cfg := &Config{}
		cfg.applyEnvOverrides()

		assert.Equal(t, "ds-key", cfg.LLM.APIKey)
		assert.Equal(t, "deepseek", cfg.LLM.Provider)
	})

	t.Run("DEEPSEEK_API_KEY keeps an existing provider", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("DEEPSEEK_API_KEY", "ds-key")

		cfg := &Config{LLM: LLMConfig{Provider: "openai"}}
		cfg.applyEnvOverrides()

		assert.Equal(t, "openai", cfg.LLM.Provider)
	})

	t.Run("MAESTRO_PRICING and MAESTRO_DEBUG", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MAESTRO_PRICING", "/etc/maestro/pricing.yaml")
		t.Setenv("MAESTRO_DEBUG", "true")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()

		assert.Equal(t, "/etc/maestro/pricing.yaml", cfg.PricingPath)
		assert.True(t, cfg.Logging.DebugMode)
	})

	t.Run("unparsable MAESTRO_DEBUG is ignored", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("MAESTRO_DEBUG", "loud")

		cfg := DefaultConfig()
		cfg.applyEnvOverrides()
		assert.False(t, cfg.Logging.DebugMode)
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no preferences path", func(c *Config) { c.PreferencesPath = "" }},
		{"no output dir", func(c *Config) { c.OutputDir = "" }},
		{"unknown provider", func(c *Config) { c.LLM.Provider = "carrier-pigeon" }},
		{"bad base url", func(c *Config) { c.LLM.BaseURL = "not a url" }},
		{"too many retries", func(c *Config) { c.LLM.RetryCount = 9 }},
		{"zero min choices", func(c *Config) { c.Learning.MinChoices = 0 }},
		{"slow chance above one", func(c *Config) { c.Execution.SlowChance = 1.5 }},
		{"bad duration", func(c *Config) { c.LLM.Timeout = "soon" }},
		{"inverted delays", func(c *Config) { c.Execution.MinDelay = "1s" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "chatty" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			assert.ErrorContains(t, cfg.Validate(), "invalid config")
		})
	}
}

func TestLoggingConfig(t *testing.T) {
	c := LoggingConfig{}
	assert.False(t, c.IsCategoryEnabled("executor"))

	c.DebugMode = true
	assert.True(t, c.IsCategoryEnabled("executor"))

	c.Categories = map[string]bool{"executor": false}
	assert.False(t, c.IsCategoryEnabled("executor"))
	assert.True(t, c.IsCategoryEnabled("pricing"))

	c.Format = "json"
	opts := c.Options()
	assert.True(t, opts.JSONFormat)
	assert.True(t, opts.DebugMode)
}

// =============================================================================
// WORKSPACE TESTS
// =============================================================================

func TestFindWorkspaceRoot_PrefersMaestroDir(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, DirName), 0755))
	nested := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(nested, 0755))
	origWD, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(nested))
	t.Cleanup(func() { _ = os.Chdir(origWD) })

	got, err := FindWorkspaceRoot()
	require.NoError(t, err)
	want, err := filepath.EvalSymlinks(root)
	require.NoError(t, err)
	gotResolved, err := filepath.EvalSymlinks(got)
	require.NoError(t, err)
	assert.Equal(t, want, gotResolved)
}

func TestResolve(t *testing.T) {
	assert.Equal(t, filepath.Join("/ws", "output"), Resolve("/ws", "output"))
	assert.Equal(t, "/abs/file", Resolve("/ws", "/abs/file"))
	assert.Equal(t, "", Resolve("/ws", ""))
	assert.Equal(t, filepath.Join("/ws", ".maestro", "config.yaml"), Path("/ws"))
	assert.Equal(t, filepath.Join("/ws", ".maestro", "logs"), LogsDir("/ws"))
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, LoadDotEnv(dir), "missing .env is fine")

	t.Setenv("MAESTRO_TEST_DOTENV", "")
	require.NoError(t, os.Unsetenv("MAESTRO_TEST_DOTENV"))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("MAESTRO_TEST_DOTENV=from-file\n"), 0644))
	require.NoError(t, LoadDotEnv(dir))
	assert.Equal(t, "from-file", os.Getenv("MAESTRO_TEST_DOTENV"))

	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0755))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub", ".env"), 0755))
	assert.Error(t, LoadDotEnv(filepath.Join(dir, "sub")))
}
