package registry

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/glimte/mediate-go/contracts"
)

var (
	ErrDuplicateContract     = errors.New("registry: behaviours already declared for contract")
	ErrFrozen                = errors.New("registry: registry is frozen")
	ErrInvalidDeclaration    = errors.New("registry: invalid behaviour declaration")
	ErrIncompatibleBehaviour = errors.New("registry: behaviour does not fit contract")
	ErrConstruction          = errors.New("registry: behaviour construction failed")
	ErrDependencyType        = errors.New("registry: dependency has unexpected type")
)

// IncompatibleBehaviourError reports a behaviour attached to a contract that
// does not extend the contract the behaviour was written for
type IncompatibleBehaviourError struct {
	Behaviour string
	Target    *contracts.Contract
	Expected  *contracts.Contract
}

func (e *IncompatibleBehaviourError) Error() string {
	return fmt.Sprintf("registry: behaviour %s is written for %s and cannot be attached to %s",
		e.Behaviour, e.Expected, e.Target)
}

func (e *IncompatibleBehaviourError) Unwrap() error {
	return ErrIncompatibleBehaviour
}

// ConstructionError reports a declared behaviour none of whose constructors
// could be satisfied from the provider
type ConstructionError struct {
	Behaviour string
	Binding   Binding
	Missing   []reflect.Type // first unresolvable dependency of each constructor
	Err       error          // resolution failures, joined
}

func (e *ConstructionError) Error() string {
	msg := fmt.Sprintf("registry: failed to construct behaviour %s for %s", e.Behaviour, e.Binding)
	if len(e.Missing) > 0 {
		names := make([]string, len(e.Missing))
		for i, m := range e.Missing {
			names[i] = fmt.Sprint(m)
		}
		msg += " (unresolved: " + strings.Join(names, ", ") + ")"
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ConstructionError) Unwrap() error {
	return e.Err
}

func (e *ConstructionError) Is(target error) bool {
	return target == ErrConstruction
}
