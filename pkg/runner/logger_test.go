package runner

import "digital.vasic.snippetcheck/pkg/logging"

// warnOnly records warnings and discards everything else.
type warnOnly struct {
	*stubLogger
}

func (w warnOnly) Warn(msg string, _ ...logging.Field) {
	w.record(msg)
}

func (warnOnly) Info(string, ...logging.Field)  {}
func (warnOnly) Error(string, ...logging.Field) {}
func (warnOnly) Debug(string, ...logging.Field) {}
func (warnOnly) LogRun(logging.RunLog)          {}
func (warnOnly) Close() error                   { return nil }

func (w warnOnly) WithFields(...logging.Field) logging.Logger {
	return w
}
