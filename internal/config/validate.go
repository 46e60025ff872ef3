package config

import "fmt"

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateLogLevel checks if a log level is valid.
func ValidateLogLevel(level string) error {
	switch level {
	case "debug", "info", "warn", "warning", "error", "fatal":
		return nil
	default:
		return &ValidationError{Field: "logging.level", Message: "must be one of: debug, info, warn, error, fatal"}
	}
}

func validateUnitInterval(field string, v float64) error {
	if v < 0 || v > 1 {
		return &ValidationError{Field: field, Message: "must be between 0 and 1"}
	}
	return nil
}

func validatePositive(field string, v int) error {
	if v <= 0 {
		return &ValidationError{Field: field, Message: "must be greater than zero"}
	}
	return nil
}
