// Package logging provides config-driven categorized logging for maestro.
// Logs are written to <workspace>/.maestro/logs/ through a single zap core;
// each category is a named child logger. Logging is controlled by debug_mode:
// when false, every logger is a no-op.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot        Category = "boot"        // startup, config, wiring
	CategoryPricing     Category = "pricing"     // pricing table load/validation
	CategoryGenerator   Category = "generator"   // option generation, scope reduction
	CategoryNegotiation Category = "negotiation" // session state transitions
	CategoryPerception  Category = "perception"  // intent parsing
	CategoryClassifier  Category = "classifier"  // request text -> task
	CategoryExecutor    Category = "executor"    // simulated execution
	CategoryPreferences Category = "preferences" // choice history, learned preferences
)

// Options mirrors config.LoggingConfig to avoid an import cycle.
type Options struct {
	DebugMode  bool
	Level      string
	JSONFormat bool
	Categories map[string]bool
}

// Logger is a category-scoped printf-style logger.
type Logger struct {
	category Category
	s        *zap.SugaredLogger
}

var (
	mu      sync.RWMutex
	root    = zap.NewNop()
	opts    Options
	loggers = make(map[Category]*Logger)
	logFile *os.File
)

// Initialize opens the log file under logsDir and installs the root logger.
// With DebugMode false it is a silent no-op.
func Initialize(logsDir string, o Options) error {
	if !o.DebugMode {
		install(zap.NewNop(), o, nil)
		return nil
	}
	if logsDir == "" {
		return fmt.Errorf("logs directory required")
	}
	if err := os.MkdirAll(logsDir, 0755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	name := fmt.Sprintf("%s_maestro.log", time.Now().Format("2006-01-02"))
	f, err := os.OpenFile(filepath.Join(logsDir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	core := zapcore.NewCore(newEncoder(o.JSONFormat), zapcore.AddSync(f), parseLevel(o.Level))
	install(zap.New(core), o, f)

	Boot("=== maestro logging initialized ===")
	BootDebug("logs directory: %s", logsDir)
	return nil
}

// InitializeWithLogger installs an already-built zap logger. Used by tests
// (zaptest/observer) and by callers that manage their own sinks.
func InitializeWithLogger(l *zap.Logger, o Options) {
	install(l, o, nil)
}

func install(l *zap.Logger, o Options, f *os.File) {
	mu.Lock()
	defer mu.Unlock()
	if logFile != nil {
		_ = root.Sync()
		logFile.Close()
	}
	root = l
	opts = o
	logFile = f
	loggers = make(map[Category]*Logger)
}

func newEncoder(json bool) zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.NameKey = "cat"
	if json {
		return zapcore.NewJSONEncoder(cfg)
	}
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewConsoleEncoder(cfg)
}

func parseLevel(s string) zapcore.Level {
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zapcore.ParseLevel(s)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// IsDebugMode returns whether debug logging is enabled
func IsDebugMode() bool {
	mu.RLock()
	defer mu.RUnlock()
	return opts.DebugMode
}

// IsCategoryEnabled returns whether a specific category is enabled
func IsCategoryEnabled(category Category) bool {
	mu.RLock()
	defer mu.RUnlock()
	return categoryEnabledLocked(category)
}

func categoryEnabledLocked(category Category) bool {
	if !opts.DebugMode {
		return false
	}
	if opts.Categories == nil {
		return true
	}
	enabled, exists := opts.Categories[string(category)]
	if !exists {
		return true
	}
	return enabled
}

// Get returns (or creates) a logger for the given category.
// Returns a no-op logger if debug mode or the category is disabled.
func Get(category Category) *Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}

	base := zap.NewNop()
	if categoryEnabledLocked(category) {
		base = root.Named(string(category))
	}
	l := &Logger{category: category, s: base.Sugar()}
	loggers[category] = l
	return l
}

// With returns a child logger carrying structured key/value fields.
func (l *Logger) With(keysAndValues ...any) *Logger {
	return &Logger{category: l.category, s: l.s.With(keysAndValues...)}
}

func (l *Logger) Debug(format string, args ...any) { l.s.Debugf(format, args...) }
func (l *Logger) Info(format string, args ...any) { l.s.Infof(format, args...) }
func (l *Logger) Warn(format string, args ...any) { l.s.Warnf(format, args...) }
func (l *Logger) Error(format string, args ...any) { l.s.Errorf(format, args...) }

// Sync flushes buffered entries. Call at shutdown.
func Sync() {
	mu.RLock()
	defer mu.RUnlock()
	_ = root.Sync()
}

// CloseAll flushes and closes the log file and resets to no-op logging.
func CloseAll() {
	install(zap.NewNop(), Options{}, nil)
}

// =============================================================================
// CONVENIENCE FUNCTIONS - no-ops if the category is disabled
// =============================================================================

func Boot(format string, args ...any) { Get(CategoryBoot).Info(format, args...) }
func BootDebug(format string, args ...any) { Get(CategoryBoot).Debug(format, args...) }
func BootWarn(format string, args ...any) { Get(CategoryBoot).Warn(format, args...) }
func BootError(format string, args ...any) { Get(CategoryBoot).Error(format, args...) }
func Pricing(format string, args ...any) { Get(CategoryPricing).Info(format, args...) }
func PricingError(format string, args ...any) { Get(CategoryPricing).Error(format, args...) }
func Generator(format string, args ...any) { Get(CategoryGenerator).Info(format, args...) }
func GeneratorDebug(format string, args ...any) { Get(CategoryGenerator).Debug(format, args...) }
func Negotiation(format string, args ...any) { Get(CategoryNegotiation).Info(format, args...) }
func NegotiationDebug(format string, args ...any) { Get(CategoryNegotiation).Debug(format, args...) }
func NegotiationWarn(format string, args ...any) { Get(CategoryNegotiation).Warn(format, args...) }
func PerceptionDebug(format string, args ...any) { Get(CategoryPerception).Debug(format, args...) }
func Classifier(format string, args ...any) { Get(CategoryClassifier).Info(format, args...) }
func ClassifierDebug(format string, args ...any) { Get(CategoryClassifier).Debug(format, args...) }
func ClassifierWarn(format string, args ...any) { Get(CategoryClassifier).Warn(format, args...) }
func Executor(format string, args ...any) { Get(CategoryExecutor).Info(format, args...) }
func ExecutorDebug(format string, args ...any) { Get(CategoryExecutor).Debug(format, args...) }
func Preferences(format string, args ...any) { Get(CategoryPreferences).Info(format, args...) }
func PreferencesWarn(format string, args ...any) { Get(CategoryPreferences).Warn(format, args...) }

// =============================================================================
// TIMING
// =============================================================================

// Timer measures an operation and logs its duration on Stop.
type Timer struct {
	category  Category
	operation string
	start     time.Time
}

// StartTimer starts timing an operation in the given category.
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, operation: operation, start: time.Now()}
}

// Stop logs the elapsed time at debug level and returns it.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug("%s completed in %v", t.operation, elapsed)
	return elapsed
}

// StopWithThreshold logs a warning when the operation exceeded threshold.
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn("%s slow: %v (threshold %v)", t.operation, elapsed, threshold)
	} else {
		Get(t.category).Debug("%s completed in %v", t.operation, elapsed)
	}
	return elapsed
}
