package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestDisabledByDefault(t *testing.T) {
	t.Cleanup(CloseAll)
	require.NoError(t, Initialize("", Options{DebugMode: false}))

	assert.False(t, IsDebugMode())
	assert.False(t, IsCategoryEnabled(CategoryGenerator))
	// No-op loggers must be safe to use.
	Generator("generated %d options", 4)
}

func TestCategoryFilter(t *testing.T) {
	t.Cleanup(CloseAll)
	core, logs := observer.New(zapcore.DebugLevel)
	InitializeWithLogger(zap.New(core), Options{
		DebugMode:  true,
		Categories: map[string]bool{"executor": false},
	})

	Generator("generated %d options", 4)
	Executor("this one is filtered")
	NegotiationDebug("state=%s", "negotiating")

	entries := logs.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "generator", entries[0].LoggerName)
	assert.Equal(t, "generated 4 options", entries[0].Message)
	assert.Equal(t, "negotiation", entries[1].LoggerName)
	assert.Equal(t, zapcore.DebugLevel, entries[1].Level)
}

func TestWithFields(t *testing.T) {
	t.Cleanup(CloseAll)
	core, logs := observer.New(zapcore.InfoLevel)
	InitializeWithLogger(zap.New(core), Options{DebugMode: true})

	Get(CategoryNegotiation).With("session", "s-1").Info("accepted")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "s-1", logs.All()[0].ContextMap()["session"])
}

func TestInitializeWritesFile(t *testing.T) {
	t.Cleanup(CloseAll)
	dir := filepath.Join(t.TempDir(), "logs")
	require.NoError(t, Initialize(dir, Options{DebugMode: true, Level: "debug", JSONFormat: true}))

	Pricing("loaded %d tools", 8)
	Sync()

	name := time.Now().Format("2006-01-02") + "_maestro.log"
	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), `"msg":"loaded 8 tools"`), string(data))
	assert.True(t, strings.Contains(string(data), `"cat":"pricing"`), string(data))
}

func TestTimerThreshold(t *testing.T) {
	t.Cleanup(CloseAll)
	core, logs := observer.New(zapcore.DebugLevel)
	InitializeWithLogger(zap.New(core), Options{DebugMode: true})

	timer := StartTimer(CategoryGenerator, "generate")
	timer.StopWithThreshold(-time.Second)

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, zapcore.WarnLevel, logs.All()[0].Level)
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warning"))
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("nonsense"))
}
