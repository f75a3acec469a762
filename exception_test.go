package scyjava

import (
	"errors"
	"strings"
	"testing"
)

func TestNewJavaExceptionFromJSON(t *testing.T) {
	data := []byte(`{
		"exception": "java.lang.IllegalArgumentException",
		"message": "argument must be positive",
		"stacktrace": "java.lang.IllegalArgumentException: argument must be positive\n\tat Gateway.call(Gateway.java:123)"
	}`)

	ex, err := NewJavaExceptionFromJSON(data)
	if err != nil {
		t.Fatalf("Failed to parse exception JSON: %v", err)
	}
	if ex.Exception != "java.lang.IllegalArgumentException" {
		t.Errorf("Expected exception type 'java.lang.IllegalArgumentException', got '%s'", ex.Exception)
	}
	if ex.Message != "argument must be positive" {
		t.Errorf("Expected message 'argument must be positive', got '%s'", ex.Message)
	}
	if !strings.Contains(ex.StackTrace, "Gateway.call") {
		t.Errorf("Expected stack trace to mention Gateway.call, got '%s'", ex.StackTrace)
	}
	if ex.Cause != nil {
		t.Error("Expected no cause")
	}
}

func TestJavaExceptionCauseChain(t *testing.T) {
	data := []byte(`{
		"exception": "java.lang.RuntimeException",
		"message": "wrapper",
		"stacktrace": "java.lang.RuntimeException: wrapper",
		"cause": {
			"exception": "java.io.IOException",
			"message": "disk full",
			"stacktrace": "java.io.IOException: disk full"
		}
	}`)

	ex, err := NewJavaExceptionFromJSON(data)
	if err != nil {
		t.Fatalf("Failed to parse exception JSON: %v", err)
	}
	if ex.Cause == nil {
		t.Fatal("Expected a cause")
	}
	if ex.Cause.Exception != "java.io.IOException" {
		t.Errorf("Expected cause type 'java.io.IOException', got '%s'", ex.Cause.Exception)
	}

	if !ex.IsInstance("java.lang.RuntimeException") {
		t.Error("Expected IsInstance to match the outer exception class")
	}
	if !ex.IsInstance("java.io.IOException") {
		t.Error("Expected IsInstance to match the cause class")
	}
	if ex.IsInstance("java.lang.OutOfMemoryError") {
		t.Error("Expected IsInstance to reject an unrelated class")
	}

	// errors.Is walks the cause chain through Unwrap.
	var target error = ex.Cause
	if !errors.Is(ex, target) {
		t.Error("Expected errors.Is to find the cause")
	}
}

func TestJavaExceptionError(t *testing.T) {
	ex := &JavaException{
		Exception: "java.lang.NullPointerException",
		Message:   "oops",
	}
	if ex.Error() != "java.lang.NullPointerException: oops" {
		t.Errorf("Unexpected Error() format: '%s'", ex.Error())
	}
}

func TestJavaExceptionString(t *testing.T) {
	ex := &JavaException{
		Exception:  "java.lang.RuntimeException",
		Message:    "outer",
		StackTrace: "java.lang.RuntimeException: outer\n\tat Foo.bar(Foo.java:1)",
		Cause: &JavaException{
			Exception:  "java.io.IOException",
			Message:    "inner",
			StackTrace: "java.io.IOException: inner",
		},
	}
	s := ex.String()
	if !strings.Contains(s, "Caused by: java.io.IOException: inner") {
		t.Errorf("Expected cause chain in String(), got '%s'", s)
	}
}

func TestJavaExceptionFromMessage(t *testing.T) {
	m := map[string]interface{}{
		"exception":  "java.lang.ClassNotFoundException",
		"message":    "com.example.Missing",
		"stacktrace": "trace",
		"cause": map[string]interface{}{
			"exception": "java.lang.Exception",
			"message":   "root",
		},
	}
	ex := javaExceptionFromMessage(m)
	if ex.Exception != "java.lang.ClassNotFoundException" {
		t.Errorf("Expected exception type 'java.lang.ClassNotFoundException', got '%s'", ex.Exception)
	}
	if ex.Cause == nil || ex.Cause.Message != "root" {
		t.Error("Expected cause with message 'root'")
	}
}

func TestNewJavaExceptionFromJSONInvalid(t *testing.T) {
	if _, err := NewJavaExceptionFromJSON([]byte("not json")); err == nil {
		t.Error("Expected error for malformed JSON")
	}
}
