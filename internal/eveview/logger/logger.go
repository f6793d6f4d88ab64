package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config selects the log level and output encoding. Development mode
// switches to the console encoder for interactive CLI runs; the default
// JSON encoding suits log shipping alongside the eve records themselves.
type Config struct {
	Level       string
	Development bool
}

var logger *zap.SugaredLogger

// InitLogger initializes the global sugared logger for the process.
func InitLogger(cfg Config) error {
	zcfg := zap.NewProductionConfig()
	if cfg.Development {
		zcfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		level = zapcore.InfoLevel
	}
	zcfg.Level = zap.NewAtomicLevelAt(level)

	z, err := zcfg.Build()
	if err != nil {
		return err
	}

	logger = z.Sugar().Named("eveview")
	return nil
}

// L returns the global sugared logger.
// If InitLogger has not been called, it initializes at info level.
func L() *zap.SugaredLogger {
	if logger == nil {
		_ = InitLogger(Config{Level: "info"})
	}
	return logger
}
