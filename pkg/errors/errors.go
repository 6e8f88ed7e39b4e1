// Package errors provides common, reusable error values and helpers for
// the simulation core's error taxonomy (see spec.md §7).
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Common sentinel errors returned at API boundaries. Callers compare
// against these with errors.Is; they never carry per-call detail.
var (
	ErrUnknownAgent       = errors.New("unknown agent")
	ErrUnknownTransaction = errors.New("unknown transaction")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidDeadline    = errors.New("invalid deadline")
	ErrInvalidPriority    = errors.New("invalid priority")
	ErrDuplicateAgentID   = errors.New("duplicate agent id")
)

// New returns a new error with the given text.
func New(text string) error {
	return errors.New(text)
}

// Wrap wraps an error with additional context.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// ConfigError is returned by simulation.New when the supplied configuration
// fails validation. It always lists every problem found, never just the
// first one, so a collaborator can report them all at once.
type ConfigError struct {
	Problems []string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s", strings.Join(e.Problems, "; "))
}

// NewConfigError builds a ConfigError from accumulated problems. Returns
// nil if problems is empty, so callers can write
// `if err := NewConfigError(problems); err != nil { return err }`.
func NewConfigError(problems []string) error {
	if len(problems) == 0 {
		return nil
	}
	return &ConfigError{Problems: problems}
}

// InvariantViolation reports a failed conservation law (spec.md §7). It is
// always fatal: the simulation must stop advancing once one is raised.
type InvariantViolation struct {
	Tick    int64
	Message string
}

func (e *InvariantViolation) Error() string {
	return fmt.Sprintf("invariant violation at tick %d: %s", e.Tick, e.Message)
}

// NewInvariantViolation builds an InvariantViolation error.
func NewInvariantViolation(tick int64, format string, args ...interface{}) error {
	return &InvariantViolation{Tick: tick, Message: fmt.Sprintf(format, args...)}
}

// PolicyEvaluationError reports a runtime problem inside a policy tree
// (spec.md §4.3, §7). It is never fatal — the core clamps to a safe no-op,
// emits a diagnostic event carrying this error's message, and continues.
type PolicyEvaluationError struct {
	AgentID string
	Tree    string
	Message string
}

func (e *PolicyEvaluationError) Error() string {
	return fmt.Sprintf("policy evaluation error for agent %s in %s: %s", e.AgentID, e.Tree, e.Message)
}

// NewPolicyEvaluationError builds a PolicyEvaluationError.
func NewPolicyEvaluationError(agentID, tree, format string, args ...interface{}) error {
	return &PolicyEvaluationError{AgentID: agentID, Tree: tree, Message: fmt.Sprintf(format, args...)}
}
