package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a JSON logger that writes to path. The terminal belongs to the
// TUI, so nothing is ever written to stdout or stderr.
func New(path, level string) (*zap.SugaredLogger, error) {
	if strings.TrimSpace(path) == "" {
		return zap.NewNop().Sugar(), nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}

	config := zap.NewProductionConfig()
	config.Level = zap.NewAtomicLevelAt(lvl)
	config.Encoding = "json"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.OutputPaths = []string{path}
	config.ErrorOutputPaths = []string{path}
	config.Sampling = nil

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger.Sugar(), nil
}

// NewOrNop is New with a nop fallback; logging must never stop the widget.
func NewOrNop(path, level string) *zap.SugaredLogger {
	logger, err := New(path, level)
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return logger
}
