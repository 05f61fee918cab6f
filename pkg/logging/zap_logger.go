package logging

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ZapConfig configures a ZapLogger.
type ZapConfig struct {
	Level      LogLevel
	Format     string // json or console
	OutputPath string // file path, empty for stderr
}

// ZapLogger adapts a *zap.Logger to Logger.
type ZapLogger struct {
	zap *zap.Logger

	// file is the log file owned by this logger, nil for stderr
	// and for child loggers.
	file      *os.File
	closeOnce sync.Once
	closeErr  error
}

// NewZapLogger builds a zap core from cfg.
func NewZapLogger(cfg ZapConfig) (*ZapLogger, error) {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "logger",
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     rfc3339TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
	}

	var encoder zapcore.Encoder
	if cfg.Format == "console" {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	var (
		sink zapcore.WriteSyncer
		file *os.File
	)
	if cfg.OutputPath == "" {
		sink = zapcore.Lock(os.Stderr)
	} else {
		var err error
		file, err = openAppend(cfg.OutputPath)
		if err != nil {
			return nil, fmt.Errorf(
				"failed to open log file: %w", err,
			)
		}
		sink = zapcore.AddSync(file)
	}

	core := zapcore.NewCore(encoder, sink, zapLevel(cfg.Level))
	return &ZapLogger{zap: zap.New(core), file: file}, nil
}

// NewZapLoggerFrom wraps an existing zap logger.
func NewZapLoggerFrom(z *zap.Logger) *ZapLogger {
	if z == nil {
		z = zap.NewNop()
	}
	return &ZapLogger{zap: z}
}

func rfc3339TimeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format(time.RFC3339))
}

func zapLevel(l LogLevel) zapcore.Level {
	switch l {
	case LevelDebug:
		return zapcore.DebugLevel
	case LevelWarn:
		return zapcore.WarnLevel
	case LevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

func zapFields(fields []Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		out[i] = zap.Any(f.Key, f.Value)
	}
	return out
}

// Info logs an informational message.
func (z *ZapLogger) Info(msg string, fields ...Field) {
	z.zap.Info(msg, zapFields(fields)...)
}

// Warn logs a warning message.
func (z *ZapLogger) Warn(msg string, fields ...Field) {
	z.zap.Warn(msg, zapFields(fields)...)
}

// Error logs an error message.
func (z *ZapLogger) Error(msg string, fields ...Field) {
	z.zap.Error(msg, zapFields(fields)...)
}

// Debug logs a debug message.
func (z *ZapLogger) Debug(msg string, fields ...Field) {
	z.zap.Debug(msg, zapFields(fields)...)
}

// WithFields returns a child logger carrying fields.
func (z *ZapLogger) WithFields(fields ...Field) Logger {
	return &ZapLogger{zap: z.zap.With(zapFields(fields)...)}
}

// LogRun records the run as a structured info entry.
func (z *ZapLogger) LogRun(run RunLog) {
	z.zap.Info("run completed",
		zap.String("run_id", run.RunID),
		zap.String("status", run.Status),
		zap.String("function", run.Function),
		zap.Int("cases", run.Cases),
		zap.Int("passed", run.Passed),
		zap.Duration("duration", time.Duration(run.DurationMs)*time.Millisecond),
		zap.String("error", run.Error),
	)
}

// Close flushes buffered entries and closes the log file the
// logger opened. Sync errors on terminals are ignored. Only the
// first call has an effect.
func (z *ZapLogger) Close() error {
	z.closeOnce.Do(func() {
		if err := z.zap.Sync(); err != nil && !isTerminalSyncErr(err) {
			z.closeErr = err
		}
		if z.file != nil {
			z.closeErr = errors.Join(z.closeErr, z.file.Close())
		}
	})
	return z.closeErr
}

func isTerminalSyncErr(err error) bool {
	msg := err.Error()
	return msg == "sync /dev/stderr: invalid argument" ||
		msg == "sync /dev/stdout: invalid argument" ||
		msg == "sync /dev/stderr: inappropriate ioctl for device" ||
		msg == "sync /dev/stdout: inappropriate ioctl for device"
}
