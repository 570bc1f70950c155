package model

import (
	"fmt"
	"strings"
)

// ConfigurationError reports a malformed ranking table or scheduling policy. It's raised before any program
// reaches a solver
type ConfigurationError struct {
	Reason string
}

func (err ConfigurationError) Error() string {
	return "invalid configuration: " + err.Reason
}

func configurationError(format string, args ...any) error {
	return ConfigurationError{Reason: fmt.Sprintf(format, args...)}
}

// InfeasibleModelError reports that the solver found no assignment satisfying every constraint.
// Reasons holds whatever could be diagnosed about the cause, it may be empty
type InfeasibleModelError struct {
	Reasons []string
}

func (err InfeasibleModelError) Error() string {
	if len(err.Reasons) == 0 {
		return "no feasible assignment exists"
	}
	return "no feasible assignment exists: " + strings.Join(err.Reasons, "; ")
}

// ScheduleInconsistency reports a solved cube where a student does not have exactly one session in a rotation
type ScheduleInconsistency struct {
	Student     string
	Rotation    uint64
	Assignments int
}

func (err ScheduleInconsistency) Error() string {
	return fmt.Sprintf("inconsistent schedule: student %q has %d sessions in rotation %d (expected exactly 1)", err.Student, err.Assignments, err.Rotation)
}
