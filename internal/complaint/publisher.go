package complaint

import (
	"context"
	"errors"

	"resolveit/backend/internal/models"
)

// Publisher receives an event after every successful mutation.
type Publisher interface {
	Publish(ctx context.Context, ev models.ComplaintEvent) error
}

// PublisherFunc adapts a function to Publisher.
type PublisherFunc func(ctx context.Context, ev models.ComplaintEvent) error

func (f PublisherFunc) Publish(ctx context.Context, ev models.ComplaintEvent) error {
	return f(ctx, ev)
}

// NopPublisher drops every event.
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, models.ComplaintEvent) error { return nil }

// MultiPublisher delivers to every publisher and joins their errors.
type MultiPublisher []Publisher

func (m MultiPublisher) Publish(ctx context.Context, ev models.ComplaintEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
