package registry

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/glimte/mediate-go/contracts"
)

// Registry maps unbound handler contracts to ordered behaviour declarations.
// It is filled during configuration and only read once frozen, so lookups
// take no locks. Register is not safe for concurrent use.
type Registry struct {
	entries map[*contracts.Contract][]Declaration
	order   []*contracts.Contract
	frozen  bool
}

// New creates an empty, unfrozen registry
func New() *Registry {
	return &Registry{
		entries: make(map[*contracts.Contract][]Declaration),
	}
}

// Register stores the declarations for contract. A contract can be
// registered once.
func (r *Registry) Register(contract *contracts.Contract, decls []Declaration) error {
	if r.frozen {
		return ErrFrozen
	}
	if contract == nil {
		return fmt.Errorf("contract cannot be nil")
	}
	if _, exists := r.entries[contract]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateContract, contract)
	}

	stored := make([]Declaration, len(decls))
	copy(stored, decls)
	r.entries[contract] = stored
	r.order = append(r.order, contract)
	return nil
}

// Lookup returns the declarations for contract in declaration order. A
// contract without declarations yields an empty slice.
func (r *Registry) Lookup(contract *contracts.Contract) []Declaration {
	decls := r.entries[contract]
	result := make([]Declaration, len(decls))
	copy(result, decls)
	return result
}

// Contracts returns the registered contracts in registration order
func (r *Registry) Contracts() []*contracts.Contract {
	result := make([]*contracts.Contract, len(r.order))
	copy(result, r.order)
	return result
}

// Freeze makes the registry read-only
func (r *Registry) Freeze() {
	r.frozen = true
}

// Frozen reports whether Freeze has been called
func (r *Registry) Frozen() bool {
	return r.frozen
}

// Builder collects behaviour declarations and validates them before a
// Registry is produced
type Builder struct {
	order  []*contracts.Contract
	decls  map[*contracts.Contract][]Declaration
	errs   []error
	logger *slog.Logger
}

// BuilderOption configures the Builder
type BuilderOption func(*Builder)

// WithLogger sets the logger used to report declarations
func WithLogger(logger *slog.Logger) BuilderOption {
	return func(b *Builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// NewBuilder creates a new builder
func NewBuilder(options ...BuilderOption) *Builder {
	b := &Builder{
		decls:  make(map[*contracts.Contract][]Declaration),
		logger: slog.Default(),
	}

	for _, opt := range options {
		opt(b)
	}

	return b
}

// ContractBuilder appends declarations to a single contract
type ContractBuilder struct {
	builder  *Builder
	contract *contracts.Contract
}

// For starts the declaration list of contract. Calling For twice for the
// same contract is a configuration error reported by Build.
func (b *Builder) For(contract *contracts.Contract) *ContractBuilder {
	switch {
	case contract == nil:
		b.errs = append(b.errs, fmt.Errorf("contract cannot be nil"))
	default:
		if _, exists := b.decls[contract]; exists {
			b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrDuplicateContract, contract))
		} else {
			b.decls[contract] = []Declaration{}
			b.order = append(b.order, contract)
		}
	}

	return &ContractBuilder{builder: b, contract: contract}
}

// Use appends declarations in order. Each declaration must be well formed
// and written for the contract or one of its ancestors.
func (cb *ContractBuilder) Use(decls ...Declaration) *ContractBuilder {
	b := cb.builder
	if cb.contract == nil {
		return cb
	}

	for _, decl := range decls {
		if err := decl.validate(); err != nil {
			b.errs = append(b.errs, err)
			continue
		}
		if decl.Contract != nil && !contracts.Derives(cb.contract, decl.Contract) {
			b.errs = append(b.errs, &IncompatibleBehaviourError{
				Behaviour: decl.Name,
				Target:    cb.contract,
				Expected:  decl.Contract,
			})
			continue
		}
		b.decls[cb.contract] = append(b.decls[cb.contract], decl)
	}

	return cb
}

// Build validates everything declared so far and returns a frozen Registry
func (b *Builder) Build() (*Registry, error) {
	if len(b.errs) > 0 {
		return nil, errors.Join(b.errs...)
	}

	r := New()
	for _, contract := range b.order {
		decls := b.decls[contract]
		if err := r.Register(contract, decls); err != nil {
			return nil, err
		}

		names := make([]string, len(decls))
		for i, d := range decls {
			names[i] = d.Name
		}
		b.logger.Debug("declared pipeline behaviours",
			"contract", contract.Name(),
			"behaviours", names,
		)
	}
	r.Freeze()

	return r, nil
}
