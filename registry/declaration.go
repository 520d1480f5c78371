package registry

import (
	"fmt"
	"reflect"

	"github.com/glimte/mediate-go/contracts"
	"github.com/glimte/mediate-go/pipeline"
	"github.com/glimte/mediate-go/services"
)

// Binding is the concrete request/response pair a behaviour is built for.
// Response is nil for commands.
type Binding struct {
	Request  reflect.Type
	Response reflect.Type
}

// IsCommand reports whether the binding produces no response
func (b Binding) IsCommand() bool {
	return b.Response == nil
}

func (b Binding) String() string {
	if b.IsCommand() {
		return fmt.Sprint(b.Request)
	}
	return fmt.Sprintf("%v -> %v", b.Request, b.Response)
}

// Constructor is one way of building a behaviour. Every type in Needs is
// resolved from the provider and handed to New in the same order.
type Constructor struct {
	Needs []reflect.Type
	New   func(b Binding, deps []any) pipeline.Behavior
}

// Declaration is an unbound behaviour: a name, the contract it was written
// for and the constructors able to build it. A nil Contract fits every
// contract.
type Declaration struct {
	Name         string
	Contract     *contracts.Contract
	Constructors []Constructor
}

// Or appends an alternative constructor, tried after the existing ones
func (d Declaration) Or(c Constructor) Declaration {
	ctors := make([]Constructor, 0, len(d.Constructors)+1)
	ctors = append(ctors, d.Constructors...)
	d.Constructors = append(ctors, c)
	return d
}

// Behaviour declares a behaviour without dependencies
func Behaviour(name string, contract *contracts.Contract, build func(b Binding) pipeline.Behavior) Declaration {
	return Declaration{
		Name:     name,
		Contract: contract,
		Constructors: []Constructor{{
			New: func(b Binding, _ []any) pipeline.Behavior {
				return build(b)
			},
		}},
	}
}

// Inject1 declares a behaviour depending on one service
func Inject1[D any](name string, contract *contracts.Contract, build func(b Binding, dep D) pipeline.Behavior) Declaration {
	return Declaration{
		Name:     name,
		Contract: contract,
		Constructors: []Constructor{{
			Needs: []reflect.Type{services.Key[D]()},
			New: func(b Binding, deps []any) pipeline.Behavior {
				dep, ok := deps[0].(D)
				if !ok {
					return nil
				}
				return build(b, dep)
			},
		}},
	}
}

// Inject2 declares a behaviour depending on two services
func Inject2[D1, D2 any](name string, contract *contracts.Contract, build func(b Binding, dep1 D1, dep2 D2) pipeline.Behavior) Declaration {
	return Declaration{
		Name:     name,
		Contract: contract,
		Constructors: []Constructor{{
			Needs: []reflect.Type{services.Key[D1](), services.Key[D2]()},
			New: func(b Binding, deps []any) pipeline.Behavior {
				dep1, ok1 := deps[0].(D1)
				dep2, ok2 := deps[1].(D2)
				if !ok1 || !ok2 {
					return nil
				}
				return build(b, dep1, dep2)
			},
		}},
	}
}

func (d Declaration) validate() error {
	if d.Name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidDeclaration)
	}
	if len(d.Constructors) == 0 {
		return fmt.Errorf("%w: %s has no constructors", ErrInvalidDeclaration, d.Name)
	}
	for i, c := range d.Constructors {
		if c.New == nil {
			return fmt.Errorf("%w: constructor %d of %s is nil", ErrInvalidDeclaration, i, d.Name)
		}
	}
	return nil
}
