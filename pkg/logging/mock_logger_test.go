package logging

import "github.com/stretchr/testify/mock"

type mockLogger struct {
	mock.Mock
}

func (m *mockLogger) Info(msg string, fields ...Field) {
	m.Called(msg, fields)
}

func (m *mockLogger) Warn(msg string, fields ...Field) {
	m.Called(msg, fields)
}

func (m *mockLogger) Error(msg string, fields ...Field) {
	m.Called(msg, fields)
}

func (m *mockLogger) Debug(msg string, fields ...Field) {
	m.Called(msg, fields)
}

func (m *mockLogger) WithFields(fields ...Field) Logger {
	args := m.Called(fields)
	return args.Get(0).(Logger)
}

func (m *mockLogger) LogRun(run RunLog) {
	m.Called(run)
}

func (m *mockLogger) Close() error {
	args := m.Called()
	return args.Error(0)
}

func anyFields() any {
	return mock.AnythingOfType("[]logging.Field")
}
