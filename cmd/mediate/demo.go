package main

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync/atomic"

	mediate "github.com/glimte/mediate-go"
	"github.com/glimte/mediate-go/config"
	"github.com/glimte/mediate-go/contracts"
	"github.com/glimte/mediate-go/registry"
	"github.com/glimte/mediate-go/services"
	"github.com/prometheus/client_golang/prometheus"
)

// Demo handler hierarchy. PingHandler is the most specific contract and
// picks up behaviours from every level down to QueryHandler.
var (
	AuditedQueryContract         = contracts.Define("AuditedQueryHandler", mediate.QueryContract)
	PingContract                 = contracts.Define("PingHandler", AuditedQueryContract)
	TransactionalCommandContract = contracts.Define("TransactionalCommandHandler", mediate.CommandContract)
)

var demoContracts = map[string]*contracts.Contract{
	mediate.QueryContract.Name():        mediate.QueryContract,
	mediate.CommandContract.Name():      mediate.CommandContract,
	AuditedQueryContract.Name():         AuditedQueryContract,
	PingContract.Name():                 PingContract,
	TransactionalCommandContract.Name(): TransactionalCommandContract,
}

func contractNames() []string {
	names := make([]string, 0, len(demoContracts))
	for name := range demoContracts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func lookupContract(name string) (*contracts.Contract, error) {
	c, ok := demoContracts[name]
	if !ok {
		return nil, fmt.Errorf("unknown contract %q (known: %s)", name, strings.Join(contractNames(), ", "))
	}
	return c, nil
}

// Ping is the demo query
type Ping struct {
	Message string `validate:"max=64"`
}

// Pong echoes the Ping message
type Pong struct {
	Message string
}

type pingHandler struct{}

func (pingHandler) Contract() *contracts.Contract {
	return PingContract
}

func (pingHandler) Handle(ctx context.Context, req Ping) (Pong, error) {
	return Pong{Message: req.Message}, nil
}

// auditTrail counts the queries passing through the audit behaviour
type auditTrail struct {
	entries atomic.Int64
}

func (a *auditTrail) Count() int64 {
	return a.entries.Load()
}

func auditBehaviour() registry.Declaration {
	return registry.Inject1[*auditTrail]("audit", AuditedQueryContract,
		func(b registry.Binding, trail *auditTrail) mediate.Behavior {
			return mediate.BehaviorFunc(func(ctx context.Context, req any, next mediate.Next) (any, error) {
				trail.entries.Add(1)
				return next(ctx, req)
			})
		})
}

func transactionBehaviour() registry.Declaration {
	return registry.Behaviour("transaction", TransactionalCommandContract,
		func(b registry.Binding) mediate.Behavior {
			return mediate.BehaviorFunc(func(ctx context.Context, req any, next mediate.Next) (any, error) {
				return next(ctx, req)
			})
		})
}

// demo wires the demo handlers and behaviours into a mediator
type demo struct {
	mediator *mediate.Mediator
	audit    *auditTrail
}

func newDemo(s *config.Settings, logger *slog.Logger, reg prometheus.Registerer) (*demo, error) {
	registryOut, err := s.Registry(logger, reg, func(b *registry.Builder) {
		b.For(AuditedQueryContract).Use(auditBehaviour())
		b.For(TransactionalCommandContract).Use(transactionBehaviour())
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build registry: %w", err)
	}

	audit := &auditTrail{}
	c := services.NewContainer()
	if err := services.Singleton(c, audit); err != nil {
		return nil, err
	}
	if err := mediate.RegisterQueryHandler[Ping, Pong](c, pingHandler{}); err != nil {
		return nil, err
	}

	m, err := mediate.New(registryOut, c, s.MediatorOptions(logger)...)
	if err != nil {
		return nil, fmt.Errorf("failed to create mediator: %w", err)
	}

	return &demo{mediator: m, audit: audit}, nil
}
