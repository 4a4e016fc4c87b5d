package registry

import "fmt"

// DuplicateNameError is returned when a name is registered twice. It is a
// fatal setup-time error.
type DuplicateNameError struct {
	Name string
}

func (e *DuplicateNameError) Error() string {
	return fmt.Sprintf("operation %q already registered", e.Name)
}

// NotFoundError is returned when looking up an unregistered operation.
type NotFoundError struct {
	Name string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("operation %q not found in registry", e.Name)
}

// FrozenError is returned on any registration attempt after Freeze.
type FrozenError struct {
	Name string
}

func (e *FrozenError) Error() string {
	return fmt.Sprintf("registry is frozen; cannot register %q", e.Name)
}
