package model

import (
	"fmt"
	"strings"
)

// ConfigurationError reports a missing or non-positive setting.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Field, e.Reason)
}

// InsufficientDataError signals that the queried range does not hold enough
// distinct outcome categories to classify anything.
type InsufficientDataError struct {
	Present []string
}

func (e *InsufficientDataError) Error() string {
	if len(e.Present) == 0 {
		return "not enough measurements, abort: no samples in range"
	}
	return fmt.Sprintf("not enough measurements, abort: only %s samples in range", strings.Join(e.Present, ", "))
}
