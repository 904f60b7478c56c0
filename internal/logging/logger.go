// Package logging builds the agent's zap loggers. It mirrors the teacher's
// internal/common logger-kind split: a CLI invocation logs to console (and
// optionally a file), while the long-running daemon and the git-hook-invoked
// helper binary log to file only, or to stderr when file logging is disabled.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/siguna/dlpagent/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Kind selects the output topology for a logger.
type Kind string

const (
	KindCLI    Kind = "cli"
	KindDaemon Kind = "daemon"
	KindHook   Kind = "hook"
)

// New builds a *zap.Logger of the given kind using cfg's log settings and
// paths.
func New(kind Kind, cfg *config.Config) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Log.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "timestamp"
	encoderCfg.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.Format("2006-01-02 15:04:05.000"))
	}
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	encoderCfg.EncodeCaller = zapcore.ShortCallerEncoder

	var outputPaths, errOutputPaths []string
	logDir := cfg.Paths().LogDir

	switch kind {
	case KindCLI:
		outputPaths = append(outputPaths, "stdout")
		errOutputPaths = append(errOutputPaths, "stderr")
		if cfg.Log.EnableFileLogging && logDir != "" {
			if err := os.MkdirAll(logDir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create log directory: %w", err)
			}
			outputPaths = append(outputPaths, filepath.Join(logDir, "dlpagent.log"))
			errOutputPaths = append(errOutputPaths, filepath.Join(logDir, "dlpagent_error.log"))
		}
	case KindDaemon, KindHook:
		if cfg.Log.EnableFileLogging && logDir != "" {
			if err := os.MkdirAll(logDir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create log directory: %w", err)
			}
			name := "dlpagent_daemon"
			if kind == KindHook {
				name = "dlpagent_hook"
			}
			outputPaths = append(outputPaths, filepath.Join(logDir, name+".log"))
			errOutputPaths = append(errOutputPaths, filepath.Join(logDir, name+"_error.log"))
		} else {
			outputPaths = append(outputPaths, "stderr")
			errOutputPaths = append(errOutputPaths, "stderr")
		}
	default:
		return nil, fmt.Errorf("unknown logger kind: %s", kind)
	}

	zapCfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		DisableStacktrace: kind != KindDaemon,
		Encoding:          cfg.Log.Format,
		EncoderConfig:     encoderCfg,
		OutputPaths:       outputPaths,
		ErrorOutputPaths:  errOutputPaths,
	}
	if cfg.Log.Format == "text" || cfg.Log.Format == "" {
		zapCfg.Encoding = "console"
	}

	return zapCfg.Build()
}
