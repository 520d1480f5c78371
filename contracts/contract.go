package contracts

import "fmt"

// Contract is an abstract request-handling capability. A contract value is
// unbound: one value stands for every concrete Request/Response instantiation
// of the capability, so it can be used directly as a registry key.
//
// Contracts form a graph through explicit parent edges declared at
// definition time. Since a parent must already exist when a child is
// defined, the graph is acyclic.
type Contract struct {
	name    string
	parents []*Contract
}

// Define declares a contract extending the given parents, most relevant
// parent first. A contract without parents is a root. Define panics on a nil
// parent; contracts are declared as package-level values and a nil parent is
// an initialization-order bug.
func Define(name string, parents ...*Contract) *Contract {
	for i, p := range parents {
		if p == nil {
			panic(fmt.Sprintf("contracts: parent %d of %q is nil", i, name))
		}
	}

	c := &Contract{
		name:    name,
		parents: make([]*Contract, len(parents)),
	}
	copy(c.parents, parents)
	return c
}

// Root declares a contract without parents
func Root(name string) *Contract {
	return Define(name)
}

// Name returns the contract name
func (c *Contract) Name() string {
	if c == nil {
		return ""
	}
	return c.name
}

// Parents returns the declared parents in declaration order
func (c *Contract) Parents() []*Contract {
	if c == nil {
		return nil
	}
	result := make([]*Contract, len(c.parents))
	copy(result, c.parents)
	return result
}

// IsRoot reports whether the contract extends nothing
func (c *Contract) IsRoot() bool {
	return c != nil && len(c.parents) == 0
}

// String implements fmt.Stringer
func (c *Contract) String() string {
	if c == nil {
		return "<nil>"
	}
	return c.name
}
