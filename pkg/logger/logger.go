// Package logger builds named zap loggers backed by stderr and an optional
// rotated log file.
package logger

import (
	"os"
	"sync"

	"craftd/pkg/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu   sync.Mutex
	base *zap.Logger
)

func parseLevel(lvl string) zapcore.Level {
	switch lvl {
	case "debug":
		return zapcore.DebugLevel
	case "info":
		return zapcore.InfoLevel
	case "warn":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func build() *zap.Logger {
	cfg := config.GetConfig()

	level := zapcore.InfoLevel
	fileEnabled := false
	var fileCfg config.Log

	if cfg != nil {
		level = parseLevel(cfg.Log.Level)
		fileEnabled = cfg.Log.FileEnabled
		fileCfg = cfg.Log
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	cores := []zapcore.Core{
		zapcore.NewCore(
			zapcore.NewConsoleEncoder(encCfg),
			zapcore.Lock(os.Stderr),
			level,
		),
	}

	if fileEnabled && fileCfg.FilePath != "" {
		sink := &lumberjack.Logger{
			Filename:   fileCfg.FilePath,
			MaxSize:    fileCfg.FileSize,
			MaxAge:     fileCfg.MaxAge,
			MaxBackups: fileCfg.MaxBackups,
			Compress:   fileCfg.FileCompress,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encCfg),
			zapcore.AddSync(sink),
			level,
		))
	}

	return zap.New(zapcore.NewTee(cores...))
}

// Logging returns a named sugared logger. The underlying logger is built
// once from the loaded configuration and shared.
func Logging(name string) *zap.SugaredLogger {
	mu.Lock()
	defer mu.Unlock()

	if base == nil {
		base = build()
	}

	return base.Named(name).Sugar()
}

// Reset drops the shared logger so the next Logging call rebuilds it.
// Used after configuration reload and in tests.
func Reset() {
	mu.Lock()
	defer mu.Unlock()

	if base != nil {
		_ = base.Sync()
	}
	base = nil
}
