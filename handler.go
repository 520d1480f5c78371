package mediate

import (
	"context"

	"github.com/glimte/mediate-go/contracts"
	"github.com/glimte/mediate-go/services"
)

var (
	// CommandContract is the root of every handler producing no response
	CommandContract = contracts.Define("CommandHandler")

	// QueryContract is the root of every handler producing a response
	QueryContract = contracts.Define("QueryHandler")
)

// CommandHandler handles requests of type TReq without a response
type CommandHandler[TReq any] interface {
	Handle(ctx context.Context, req TReq) error
}

// CommandHandlerFunc is a function adapter for CommandHandler
type CommandHandlerFunc[TReq any] func(ctx context.Context, req TReq) error

// Handle implements CommandHandler
func (f CommandHandlerFunc[TReq]) Handle(ctx context.Context, req TReq) error {
	return f(ctx, req)
}

// QueryHandler handles requests of type TReq producing a TResp
type QueryHandler[TReq, TResp any] interface {
	Handle(ctx context.Context, req TReq) (TResp, error)
}

// QueryHandlerFunc is a function adapter for QueryHandler
type QueryHandlerFunc[TReq, TResp any] func(ctx context.Context, req TReq) (TResp, error)

// Handle implements QueryHandler
func (f QueryHandlerFunc[TReq, TResp]) Handle(ctx context.Context, req TReq) (TResp, error) {
	return f(ctx, req)
}

// NotificationHandler receives notifications of type TNote
type NotificationHandler[TNote any] interface {
	Handle(ctx context.Context, note TNote) error
}

// NotificationHandlerFunc is a function adapter for NotificationHandler
type NotificationHandlerFunc[TNote any] func(ctx context.Context, note TNote) error

// Handle implements NotificationHandler
func (f NotificationHandlerFunc[TNote]) Handle(ctx context.Context, note TNote) error {
	return f(ctx, note)
}

// Contracted is implemented by handlers declaring a contract more specific
// than the root of their kind
type Contracted interface {
	Contract() *contracts.Contract
}

// RegisterCommandHandler registers h as the handler for TReq
func RegisterCommandHandler[TReq any](c *services.Container, h CommandHandler[TReq]) error {
	return services.Singleton[CommandHandler[TReq]](c, h)
}

// RegisterQueryHandler registers h as the handler for TReq producing TResp
func RegisterQueryHandler[TReq, TResp any](c *services.Container, h QueryHandler[TReq, TResp]) error {
	return services.Singleton[QueryHandler[TReq, TResp]](c, h)
}

// RegisterNotificationHandler adds h to the handlers notified for TNote
func RegisterNotificationHandler[TNote any](c *services.Container, h NotificationHandler[TNote]) error {
	return services.Singleton[NotificationHandler[TNote]](c, h)
}

func contractOf(handler any, root *contracts.Contract) *contracts.Contract {
	if c, ok := handler.(Contracted); ok {
		if contract := c.Contract(); contract != nil {
			return contract
		}
	}
	return root
}
