package scyjava

import (
	"encoding/json"
	"fmt"
)

// JavaException represents a java.lang.Throwable raised inside the gateway
// process. It captures the exception class, message, the Java stack trace,
// and the cause chain for debugging.
type JavaException struct {
	// Exception is the fully qualified exception class name
	// (e.g., "java.lang.IllegalArgumentException").
	Exception string `json:"exception" msgpack:"exception"`

	// Message is the exception message/description.
	Message string `json:"message" msgpack:"message"`

	// StackTrace is the full Java stack trace string.
	StackTrace string `json:"stacktrace" msgpack:"stacktrace"`

	// Cause is the nested exception that caused this one, if any.
	Cause *JavaException `json:"cause,omitempty" msgpack:"cause,omitempty"`
}

// Error implements the error interface with the class and message.
// Use String for the full stack trace.
func (e *JavaException) Error() string {
	return fmt.Sprintf("%s: %s", e.Exception, e.Message)
}

// String formats the exception as a readable string with class, message,
// stack trace, and any cause chain.
func (e *JavaException) String() string {
	s := fmt.Sprintf("%s: %s\n%s", e.Exception, e.Message, e.StackTrace)
	if e.Cause != nil {
		s += "\nCaused by: " + e.Cause.String()
	}
	return s
}

// Unwrap returns the cause of this exception, allowing errors.Is and
// errors.As to walk the Java cause chain.
func (e *JavaException) Unwrap() error {
	if e.Cause == nil {
		return nil
	}
	return e.Cause
}

// IsInstance reports whether the exception class name matches the given
// fully qualified class name, checking the cause chain as well.
func (e *JavaException) IsInstance(className string) bool {
	for ex := e; ex != nil; ex = ex.Cause {
		if ex.Exception == className {
			return true
		}
	}
	return false
}

// NewJavaExceptionFromJSON parses a JavaException from JSON bytes.
// The gateway reports exceptions in this form on its status channel.
func NewJavaExceptionFromJSON(data []byte) (*JavaException, error) {
	var ex JavaException
	err := json.Unmarshal(data, &ex)
	if err != nil {
		return nil, err
	}
	return &ex, nil
}

// javaExceptionFromMessage decodes an exception from a gateway message map.
func javaExceptionFromMessage(m map[string]interface{}) *JavaException {
	ex := &JavaException{}
	if s, ok := m["exception"].(string); ok {
		ex.Exception = s
	}
	if s, ok := m["message"].(string); ok {
		ex.Message = s
	}
	if s, ok := m["stacktrace"].(string); ok {
		ex.StackTrace = s
	}
	if c, ok := m["cause"].(map[string]interface{}); ok {
		ex.Cause = javaExceptionFromMessage(c)
	}
	return ex
}
