package maze

import "fmt"

// ConfigurationError reports invalid dimensions, seeds or weights.
// It is never retried.
type ConfigurationError struct {
	Field  string
	Reason string
}

func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return "configuration error: " + e.Reason
	}
	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Reason)
}

// UnreachableExitError reports that the exit cannot be reached from the entrance.
type UnreachableExitError struct {
	Entrance Cell
	Exit     Cell
}

func (e *UnreachableExitError) Error() string {
	return fmt.Sprintf("exit %s is unreachable from entrance %s", e.Exit, e.Entrance)
}
