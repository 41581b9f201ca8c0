// Package script runs user-supplied Tengo scripts that choose the text of
// simulated replies, reloading them when the file changes.
package script

import (
	"time"
)

// ErrorType categorizes different types of script errors
type ErrorType string

const (
	ErrorTypeCompilation ErrorType = "compilation"
	ErrorTypeExecution   ErrorType = "execution"
	ErrorTypeTimeout     ErrorType = "timeout"
	ErrorTypeNotFound    ErrorType = "not_found"
	ErrorTypeResult      ErrorType = "result"
)

// Script represents a script file with metadata
type Script struct {
	Name         string
	Path         string
	Content      string
	LastModified time.Time
	Checksum     string
}

// SecurityLimits bounds what a script may do.
type SecurityLimits struct {
	MaxExecutionTime time.Duration
	AllowedPackages  []string
}

// DefaultSecurityLimits returns the limits reply scripts run under.
func DefaultSecurityLimits() SecurityLimits {
	return SecurityLimits{
		MaxExecutionTime: 250 * time.Millisecond,
		AllowedPackages:  []string{"fmt", "text", "math", "rand"},
	}
}

// ScriptError represents script-related errors with context
type ScriptError struct {
	Type       ErrorType
	ScriptName string
	Message    string
	Cause      error
	Timestamp  time.Time
}

func (e *ScriptError) Error() string {
	if e.Cause != nil {
		return e.Message + ": " + e.Cause.Error()
	}
	return e.Message
}

func (e *ScriptError) Unwrap() error {
	return e.Cause
}

// NewScriptError creates a new ScriptError with the given parameters
func NewScriptError(errorType ErrorType, scriptName, message string, cause error) *ScriptError {
	return &ScriptError{
		Type:       errorType,
		ScriptName: scriptName,
		Message:    message,
		Cause:      cause,
		Timestamp:  time.Now(),
	}
}
