package module

import (
	"errors"
	"fmt"
)

var (
	// ErrAlreadyAttached is returned when inserting a module that already has a parent.
	ErrAlreadyAttached = errors.New("module already attached")

	// ErrCycle is returned when inserting a module into its own subtree.
	ErrCycle = errors.New("module would contain itself")

	// ErrChildrenForbidden is returned when giving children to a kind that has none.
	ErrChildrenForbidden = errors.New("module does not accept children")

	// ErrChildNotFound is returned when a child or anchor is not a current child.
	ErrChildNotFound = errors.New("child not found")

	// ErrUnknownAttribute is returned for attribute names a kind does not define.
	ErrUnknownAttribute = errors.New("unknown attribute")

	// ErrBranchConflict matches every BranchConflictError.
	ErrBranchConflict = errors.New("branch cannot mix sink and non-sink terminals")

	// ErrNotImplemented is returned by operations a kind does not support.
	ErrNotImplemented = errors.New("not implemented")

	// ErrNestedScenario is returned when a scenario is given a module parent.
	ErrNestedScenario = errors.New("scenario can only be attached to a stage")

	// ErrNotScenario is returned when a Stage is given a module that is not a scenario.
	ErrNotScenario = errors.New("module is not a scenario")

	// ErrInvalidAttribute is returned when an attribute value has the wrong shape.
	ErrInvalidAttribute = errors.New("invalid attribute value")
)

// BranchConflictError reports a child whose outputs mix sink and non-sink
// terminals.
type BranchConflictError struct {
	Module string
	Sinks  int
	Others int
}

// Error implements error.
func (e *BranchConflictError) Error() string {
	return fmt.Sprintf("%s: %s (%d sinks, %d others)", e.Module, ErrBranchConflict, e.Sinks, e.Others)
}

// Is lets errors.Is match ErrBranchConflict.
func (e *BranchConflictError) Is(target error) bool { return target == ErrBranchConflict }
