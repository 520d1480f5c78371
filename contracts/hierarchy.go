package contracts

import (
	"errors"
	"fmt"
)

// ErrNotDerived is the sentinel behind every HierarchyError
var ErrNotDerived = errors.New("contracts: contract does not derive from root")

// HierarchyError reports a contract that does not transitively extend the
// expected root contract. It indicates a configuration defect.
type HierarchyError struct {
	Contract *Contract
	Root     *Contract
}

func (e *HierarchyError) Error() string {
	return fmt.Sprintf("contracts: %s does not derive from %s", e.Contract, e.Root)
}

func (e *HierarchyError) Unwrap() error {
	return ErrNotDerived
}

// Steps returns the chain of contracts from c down to root, both included.
//
// The walk is depth-first over declared parents. When a contract has several
// parents, the first one that reaches root wins and its siblings are not
// explored.
func Steps(c, root *Contract) ([]*Contract, error) {
	if c == nil || root == nil {
		return nil, &HierarchyError{Contract: c, Root: root}
	}

	path, ok := walk(c, root)
	if !ok {
		return nil, &HierarchyError{Contract: c, Root: root}
	}
	return path, nil
}

// Derives reports whether c is base or transitively extends it
func Derives(c, base *Contract) bool {
	if c == nil || base == nil {
		return false
	}
	_, ok := walk(c, base)
	return ok
}

func walk(c, target *Contract) ([]*Contract, bool) {
	if c == target {
		return []*Contract{c}, true
	}

	for _, parent := range c.parents {
		if rest, ok := walk(parent, target); ok {
			path := make([]*Contract, 0, len(rest)+1)
			path = append(path, c)
			return append(path, rest...), true
		}
	}

	return nil, false
}
