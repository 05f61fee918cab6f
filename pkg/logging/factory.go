package logging

import (
	"fmt"
	"os"
)

// Options selects and configures a Logger implementation.
type Options struct {
	// Level is a level name: debug, info, warn or error.
	Level string

	// Format is json, console, zap or none.
	Format string

	// OutputPath is the log file; empty writes to the terminal.
	OutputPath string

	// Secrets are masked in every message.
	Secrets []string
}

// New builds the Logger described by opts. Every logger except
// the null logger is wrapped in a RedactingLogger.
func New(opts Options) (Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	var inner Logger
	switch opts.Format {
	case "none":
		return NullLogger{}, nil
	case "", "zap":
		inner, err = NewZapLogger(ZapConfig{
			Level:      level,
			Format:     "json",
			OutputPath: opts.OutputPath,
		})
	case "json":
		inner, err = NewJSONLogger(LoggerConfig{
			OutputPath: opts.OutputPath,
			Output:     os.Stderr,
			Level:      level,
		})
	case "console":
		inner = NewConsoleLogger(os.Stderr, level)
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}
	if err != nil {
		return nil, err
	}

	return NewRedactingLogger(inner, WithSecrets(opts.Secrets...)), nil
}
