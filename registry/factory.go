package registry

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/glimte/mediate-go/pipeline"
	"github.com/glimte/mediate-go/services"
)

// Construct binds decl to b and builds it with the first constructor whose
// dependencies all resolve from p. When no constructor can be satisfied it
// returns a ConstructionError; a declared behaviour is never skipped.
func Construct(decl Declaration, b Binding, p services.Provider) (pipeline.Behavior, error) {
	var (
		missing []reflect.Type
		causes  []error
	)

	for _, ctor := range decl.Constructors {
		deps, unresolved, err := resolve(ctor.Needs, p)
		if err != nil {
			missing = append(missing, unresolved)
			causes = append(causes, err)
			continue
		}

		if ctor.New == nil {
			causes = append(causes, fmt.Errorf("%w: nil constructor", ErrInvalidDeclaration))
			continue
		}

		behavior := ctor.New(b, deps)
		if behavior == nil {
			causes = append(causes, fmt.Errorf("constructor returned nil"))
			continue
		}
		return behavior, nil
	}

	if len(decl.Constructors) == 0 {
		causes = append(causes, fmt.Errorf("%w: no constructors", ErrInvalidDeclaration))
	}

	return nil, &ConstructionError{
		Behaviour: decl.Name,
		Binding:   b,
		Missing:   missing,
		Err:       errors.Join(causes...),
	}
}

func resolve(needs []reflect.Type, p services.Provider) ([]any, reflect.Type, error) {
	deps := make([]any, 0, len(needs))
	for _, need := range needs {
		if p == nil {
			return nil, need, services.ErrNotRegistered
		}

		dep, err := p.Resolve(need)
		if err != nil {
			return nil, need, err
		}
		if dep == nil {
			return nil, need, fmt.Errorf("%w: %v resolved to nil", services.ErrNotRegistered, need)
		}
		if !reflect.TypeOf(dep).AssignableTo(need) {
			return nil, need, fmt.Errorf("%w: %v resolved to %T", ErrDependencyType, need, dep)
		}
		deps = append(deps, dep)
	}
	return deps, nil, nil
}
