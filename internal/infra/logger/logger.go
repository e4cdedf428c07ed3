package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	log      = zap.NewNop()
	logFile  *os.File
	isActive bool
)

// Init configures the package logger. Without debug, logging stays a no-op.
func Init(debug bool, path string) error {
	Close()
	if !debug || path == "" {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.AddSync(f),
		zapcore.DebugLevel,
	)

	logFile = f
	log = zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
	isActive = true
	return nil
}

// L returns the underlying zap logger for components that take one.
func L() *zap.Logger {
	return log.WithOptions(zap.AddCallerSkip(-1))
}

// Enabled reports whether Init attached a log file.
func Enabled() bool {
	return isActive
}

func Debug(msg string, fields ...zap.Field) { log.Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field) { log.Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field) { log.Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { log.Error(msg, fields...) }

func String(key, val string) zap.Field { return zap.String(key, val) }
func Int(key string, val int) zap.Field { return zap.Int(key, val) }
func Int64(key string, val int64) zap.Field { return zap.Int64(key, val) }
func Bool(key string, val bool) zap.Field { return zap.Bool(key, val) }
func Duration(key string, val time.Duration) zap.Field { return zap.Duration(key, val) }
func Err(err error) zap.Field { return zap.Error(err) }

// Close flushes buffered entries and releases the log file.
func Close() {
	_ = log.Sync()
	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	log = zap.NewNop()
	isActive = false
}
