package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger пишет одновременно в stdout и в ./logs/app.log.
// Уровень берется из LOG_LEVEL (по умолчанию debug).
func NewLogger() *zap.Logger {
	level := zapcore.DebugLevel
	if raw := os.Getenv("LOG_LEVEL"); raw != "" {
		if parsed, err := zapcore.ParseLevel(raw); err == nil {
			level = parsed
		}
	}

	cfg := zap.Config{
		Encoding:         "console",
		Level:            zap.NewAtomicLevelAt(level),
		OutputPaths:      []string{"stdout", "./logs/app.log"},
		ErrorOutputPaths: []string{"stderr"},
		EncoderConfig:    zap.NewProductionEncoderConfig(),
	}

	log, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return log
}
