package logging

import "time"

// StringField creates a Field with a string value.
func StringField(key, value string) Field {
	return Field{Key: key, Value: value}
}

// IntField creates a Field with an integer value.
func IntField(key string, value int) Field {
	return Field{Key: key, Value: value}
}

// Int64Field creates a Field with an int64 value.
func Int64Field(key string, value int64) Field {
	return Field{Key: key, Value: value}
}

// BoolField creates a Field with a boolean value.
func BoolField(key string, value bool) Field {
	return Field{Key: key, Value: value}
}

// DurationField records d in milliseconds under key.
func DurationField(key string, d time.Duration) Field {
	return Field{Key: key, Value: d.Milliseconds()}
}

// RunIDField tags an entry with the run it belongs to.
func RunIDField(id string) Field {
	return Field{Key: "run_id", Value: id}
}

// FunctionField names the guest function under test.
func FunctionField(name string) Field {
	return Field{Key: "function", Value: name}
}

// CaseField carries the zero-based position of a test case.
func CaseField(index int) Field {
	return Field{Key: "case", Value: index}
}

// ErrorField creates a Field for an error value. If err is nil,
// the value is set to the string "<nil>".
func ErrorField(err error) Field {
	if err == nil {
		return Field{Key: "error", Value: "<nil>"}
	}
	return Field{Key: "error", Value: err.Error()}
}
