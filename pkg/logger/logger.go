package logger

import (
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// The quiz backend logs through one shared zap logger; components pick up
// a child via WithModule so every line carries its origin (bootstrap,
// database, quiz, ai, costs, http).

var (
	mu     sync.RWMutex
	global = zap.NewNop() // usable before Init, silent in tests
)

// Init builds the production logger at the given level. Unknown level
// strings fall back to info rather than failing startup.
func Init(level string) error {
	var zapLevel zapcore.Level
	if err := zapLevel.UnmarshalText([]byte(level)); err != nil {
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	built, err := cfg.Build()
	if err != nil {
		return err
	}

	mu.Lock()
	global = built
	mu.Unlock()
	return nil
}

// WithModule returns a child logger tagged with the named module.
func WithModule(module string) *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()

	return global.With(zap.String("module", module))
}

// Sync flushes buffered entries; called once at shutdown.
func Sync() error {
	mu.RLock()
	defer mu.RUnlock()

	return global.Sync()
}
