package container

import (
	"errors"
	"fmt"
	"strings"
)

// ErrContainer is matched by every error the container returns.
//
//	if errors.Is(err, container.ErrContainer) { ... }
var ErrContainer = errors.New("container")

// ComponentNotFoundError is returned when Make or Get reference an identifier
// with no binding and no alias.
type ComponentNotFoundError struct {
	ID string
}

func (e *ComponentNotFoundError) Error() string {
	return fmt.Sprintf("container: no component bound with identifier [%s]", e.ID)
}

func (e *ComponentNotFoundError) Is(target error) bool { return target == ErrContainer }

// AlreadyBoundError is returned when a shared identifier is bound again.
type AlreadyBoundError struct {
	ID string
}

func (e *AlreadyBoundError) Error() string {
	return fmt.Sprintf("container: [%s] already bound to other component", e.ID)
}

func (e *AlreadyBoundError) Is(target error) bool { return target == ErrContainer }

// NotInstantiableError is returned for interface types and types registered
// without a way to construct them.
type NotInstantiableError struct {
	Type string
}

func (e *NotInstantiableError) Error() string {
	return fmt.Sprintf("container: type [%s] is not instantiable", e.Type)
}

func (e *NotInstantiableError) Is(target error) bool { return target == ErrContainer }

// UnsupportedTypeError is returned when a constructor parameter admits more
// than one type.
type UnsupportedTypeError struct {
	Type  string
	Param string
	Types []string
}

func (e *UnsupportedTypeError) Error() string {
	return fmt.Sprintf("container: parameter (%s) of [%s] declares union type %s; union types are not supported",
		e.Param, e.Type, strings.Join(e.Types, "|"))
}

func (e *UnsupportedTypeError) Is(target error) bool { return target == ErrContainer }

// MissingDependencyError is returned when a required parameter has no
// override, no default and cannot be autowired.
type MissingDependencyError struct {
	Type  string
	Param string
}

func (e *MissingDependencyError) Error() string {
	return fmt.Sprintf("container: provide value for (%s) argument of [%s] constructor", e.Param, e.Type)
}

func (e *MissingDependencyError) Is(target error) bool { return target == ErrContainer }

// CyclicDependencyError is returned when an identifier is requested again
// while it is still being resolved. Path lists the chain, first to last.
type CyclicDependencyError struct {
	Path []string
}

func (e *CyclicDependencyError) Error() string {
	return "container: cyclic dependency " + strings.Join(e.Path, " -> ")
}

func (e *CyclicDependencyError) Is(target error) bool { return target == ErrContainer }

// ResolutionError wraps lower level failures: constructor errors and panics,
// unknown types, mistyped overrides and invalid registrations.
type ResolutionError struct {
	ID  string
	Err error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("container: resolving [%s]: %v", e.ID, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

func (e *ResolutionError) Is(target error) bool { return target == ErrContainer }

// IsNotFound reports whether err is (or wraps) a ComponentNotFoundError.
func IsNotFound(err error) bool {
	var nf *ComponentNotFoundError
	return errors.As(err, &nf)
}
