package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

func TestMultiLogger_FansOut(t *testing.T) {
	a, b := new(mockLogger), new(mockLogger)
	for _, m := range []*mockLogger{a, b} {
		m.On("Info", "i", anyFields()).Return()
		m.On("Warn", "w", anyFields()).Return()
		m.On("Error", "e", anyFields()).Return()
		m.On("Debug", "d", anyFields()).Return()
		m.On("LogRun", mock.MatchedBy(func(r RunLog) bool {
			return r.RunID == "r1"
		})).Return()
	}

	multi := NewMultiLogger(a, nil, b)
	multi.Info("i")
	multi.Warn("w")
	multi.Error("e")
	multi.Debug("d")
	multi.LogRun(RunLog{RunID: "r1"})

	a.AssertExpectations(t)
	b.AssertExpectations(t)
}

func TestMultiLogger_WithFields(t *testing.T) {
	a, childA := new(mockLogger), new(mockLogger)
	a.On("WithFields", []Field{{"k", "v"}}).Return(childA)
	childA.On("Info", "hello", anyFields()).Return()

	NewMultiLogger(a).WithFields(StringField("k", "v")).Info("hello")

	a.AssertExpectations(t)
	childA.AssertExpectations(t)
}

func TestMultiLogger_CloseJoinsErrors(t *testing.T) {
	a, b, c := new(mockLogger), new(mockLogger), new(mockLogger)
	errA, errC := errors.New("a"), errors.New("c")
	a.On("Close").Return(errA)
	b.On("Close").Return(nil)
	c.On("Close").Return(errC)

	err := NewMultiLogger(a, b, c).Close()
	assert.ErrorIs(t, err, errA)
	assert.ErrorIs(t, err, errC)

	assert.NoError(t, NewMultiLogger().Close())
}
