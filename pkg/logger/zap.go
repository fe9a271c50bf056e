package logger

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Zap struct {
	logger *zap.Logger
}

// NewZap builds a JSON logger writing to stdout at the given level
// (debug, info, warn, error). Unknown levels fall back to info.
func NewZap(level string) *Zap {
	return &Zap{logger: newZap(parseLevel(level))}
}

// NewNop returns a logger that discards everything.
func NewNop() *Zap {
	return &Zap{logger: zap.NewNop()}
}

func newZap(level zapcore.Level) *zap.Logger {
	encoderCfg := zapcore.EncoderConfig{
		MessageKey:  "_m",
		NameKey:     "logger",
		LevelKey:    "_l",
		EncodeLevel: zapcore.LowercaseLevelEncoder,
		TimeKey:     "_t",
		EncodeTime:  zapcore.ISO8601TimeEncoder,
	}

	return zap.New(zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), os.Stdout, level))
}

func parseLevel(level string) zapcore.Level {
	var l zapcore.Level
	if err := l.UnmarshalText([]byte(strings.ToLower(strings.TrimSpace(level)))); err != nil {
		return zapcore.InfoLevel
	}
	return l
}

func (z *Zap) Debug(msg string, fields ...zap.Field) {
	z.logger.Debug(msg, fields...)
}

func (z *Zap) Info(msg string, fields ...zap.Field) {
	z.logger.Info(msg, fields...)
}

func (z *Zap) Warn(msg string, fields ...zap.Field) {
	z.logger.Warn(msg, fields...)
}

func (z *Zap) Error(msg string, fields ...zap.Field) {
	z.logger.Error(msg, fields...)
}

func (z *Zap) With(fields ...zap.Field) *Zap {
	return &Zap{logger: z.logger.With(fields...)}
}

func (z *Zap) Close() error {
	if err := z.logger.Sync(); err != nil && !isSyncInvalidError(err) {
		return fmt.Errorf("failed sync logger | %w", err)
	}

	return nil
}

// stdout on a terminal or pipe cannot be fsynced.
func isSyncInvalidError(err error) bool {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) && (errors.Is(pathErr.Err, syscall.ENOTTY) || errors.Is(pathErr.Err, syscall.EINVAL)) {
		return true
	}

	return false
}
