package events

import "context"

// Publisher is the interface for publishing query telemetry events.
type Publisher interface {
	PublishQuery(ctx context.Context, event *QueryEvent) error
}

// NoOpPublisher is a Publisher that does nothing (telemetry disabled).
type NoOpPublisher struct{}

// PublishQuery is a no-op.
func (p *NoOpPublisher) PublishQuery(_ context.Context, _ *QueryEvent) error {
	return nil
}

// CallbackPublisher is a Publisher that calls a callback function (for testing).
type CallbackPublisher struct {
	callback func(ctx context.Context, event *QueryEvent) error
}

// NewCallbackPublisher creates a new CallbackPublisher.
func NewCallbackPublisher(cb func(ctx context.Context, event *QueryEvent) error) *CallbackPublisher {
	return &CallbackPublisher{callback: cb}
}

// PublishQuery calls the callback.
func (p *CallbackPublisher) PublishQuery(ctx context.Context, event *QueryEvent) error {
	return p.callback(ctx, event)
}
