package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrObjectNotFound is returned when an object ID cannot be found in the store.
var ErrObjectNotFound = errors.New("object not found")

// ErrDefinitionNotFound is returned when a loader has no definition with the requested ID.
var ErrDefinitionNotFound = errors.New("definition not found")

// Transition failure causes. A *TransitionError always unwraps to one of these.
var (
	ErrInvalidAction     = errors.New("invalid action")
	ErrActionUnavailable = errors.New("action not available from current state")
	ErrRoleNotPermitted  = errors.New("role not permitted")
	ErrMissingFields     = errors.New("missing required fields")
	ErrMissingDocuments  = errors.New("missing required documents")
	ErrInvalidFieldValue = errors.New("invalid field value")
	ErrInvalidInput      = errors.New("invalid input")
)

// Configuration failure causes.
var (
	ErrNoStartNode = errors.New("no start node")
	ErrUnknownNode = errors.New("unknown node")
)

// TransitionError reports why an action could not be taken.
// The object passed to the transition is unchanged when this is returned.
type TransitionError struct {
	Cause   error
	EdgeID  string
	Message string
	// Missing lists the offending roles, fields or documents, when relevant.
	Missing []string
}

func (e *TransitionError) Error() string {
	return e.Message
}

func (e *TransitionError) Unwrap() error {
	return e.Cause
}

// ConfigurationError reports a definition that cannot host objects.
type ConfigurationError struct {
	Cause   error
	Message string
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

func (e *ConfigurationError) Unwrap() error {
	return e.Cause
}

// DefinitionError carries the messages produced by graph validation.
// Validation itself is advisory; callers wrap the result in this type when they
// need to refuse an operation such as publishing.
type DefinitionError struct {
	DefinitionID string
	Problems     []string
}

func (e *DefinitionError) Error() string {
	if len(e.Problems) == 1 {
		return fmt.Sprintf("definition %q is invalid: %s", e.DefinitionID, e.Problems[0])
	}
	return fmt.Sprintf("definition %q has %d problems:\n- %s", e.DefinitionID, len(e.Problems), strings.Join(e.Problems, "\n- "))
}
