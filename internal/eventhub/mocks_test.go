package eventhub_test

import (
	"context"
	"sync"

	"resolveit/backend/internal/auth"
	"resolveit/backend/internal/models"
)

type MockClient struct {
	id          string
	actor       auth.Actor
	RecvChannel chan models.ComplaintEvent

	mu     sync.Mutex
	closed bool
}

func newMockClient(id string, actor auth.Actor, buffer int) *MockClient {
	return &MockClient{id: id, actor: actor, RecvChannel: make(chan models.ComplaintEvent, buffer)}
}

func (c *MockClient) ID() string                                { return c.id }
func (c *MockClient) Actor() auth.Actor                         { return c.actor }
func (c *MockClient) SendChannel() chan<- models.ComplaintEvent { return c.RecvChannel }
func (c *MockClient) Run()                                      {}

func (c *MockClient) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *MockClient) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// fakeBroker loops published events straight back to the subscriber.
type fakeBroker struct {
	ch chan models.ComplaintEvent
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{ch: make(chan models.ComplaintEvent, 16)}
}

func (b *fakeBroker) PublishEvent(_ context.Context, ev models.ComplaintEvent) error {
	b.ch <- ev
	return nil
}

func (b *fakeBroker) SubscribeEvents(context.Context) (<-chan models.ComplaintEvent, error) {
	return b.ch, nil
}
