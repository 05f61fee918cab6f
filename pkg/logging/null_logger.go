package logging

// NullLogger discards everything. It is the default when no
// logger is configured.
type NullLogger struct{}

func (NullLogger) Info(string, ...Field)  {}
func (NullLogger) Warn(string, ...Field)  {}
func (NullLogger) Error(string, ...Field) {}
func (NullLogger) Debug(string, ...Field) {}

// WithFields returns the NullLogger itself.
func (NullLogger) WithFields(...Field) Logger { return NullLogger{} }

func (NullLogger) LogRun(RunLog) {}

// Close is a no-op.
func (NullLogger) Close() error { return nil }
