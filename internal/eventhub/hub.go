package eventhub

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"

	"resolveit/backend/internal/logging"
	"resolveit/backend/internal/models"
)

// Broker relays events between API replicas. storage.RedisBroker
// implements it.
type Broker interface {
	PublishEvent(ctx context.Context, ev models.ComplaintEvent) error
	SubscribeEvents(ctx context.Context) (<-chan models.ComplaintEvent, error)
}

const eventBuffer = 256

// ManagerService routes complaint events to registered clients.
type ManagerService struct {
	RegisterCh   chan Client
	UnregisterCh chan Client

	broker   Broker
	eventsCh chan models.ComplaintEvent
	done     chan struct{}

	mu      sync.RWMutex
	clients map[string]Client
}

// NewManagerService creates a hub. With a nil broker, events are only
// delivered to clients of this process.
func NewManagerService(broker Broker) *ManagerService {
	return &ManagerService{
		RegisterCh:   make(chan Client),
		UnregisterCh: make(chan Client),
		broker:       broker,
		eventsCh:     make(chan models.ComplaintEvent, eventBuffer),
		done:         make(chan struct{}),
		clients:      make(map[string]Client),
	}
}

// Publish hands an event to the hub. With a broker the event travels
// through it, so every replica (this one included) delivers it once.
func (m *ManagerService) Publish(ctx context.Context, ev models.ComplaintEvent) error {
	if m.broker != nil {
		return m.broker.PublishEvent(ctx, ev)
	}
	return m.enqueue(ev)
}

func (m *ManagerService) enqueue(ev models.ComplaintEvent) error {
	select {
	case m.eventsCh <- ev:
		return nil
	default:
		return goerr.New("event hub is saturated",
			goerr.V("type", ev.Type), goerr.V("complaint_id", ev.ComplaintID))
	}
}

// Register adds a client. It fails once the hub has stopped.
func (m *ManagerService) Register(c Client) error {
	select {
	case m.RegisterCh <- c:
		return nil
	case <-m.done:
		return goerr.New("event hub stopped")
	}
}

// Unregister removes a client. It is a no-op once the hub has stopped.
func (m *ManagerService) Unregister(c Client) {
	select {
	case m.UnregisterCh <- c:
	case <-m.done:
	}
}

// ClientCount returns the number of registered clients.
func (m *ManagerService) ClientCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.clients)
}

// Run dispatches until ctx is cancelled, then closes every client. It
// must be called at most once.
func (m *ManagerService) Run(ctx context.Context) error {
	defer func() {
		close(m.done)
		m.closeAll()
	}()

	var remote <-chan models.ComplaintEvent
	if m.broker != nil {
		sub, err := m.broker.SubscribeEvents(ctx)
		if err != nil {
			return goerr.Wrap(err, "failed to subscribe to complaint events")
		}
		remote = sub
	}

	logger := logging.Default()
	logger.Info("event hub started", "broker", m.broker != nil)

	for {
		select {
		case <-ctx.Done():
			logger.Info("event hub stopped")
			return nil

		case c := <-m.RegisterCh:
			m.mu.Lock()
			m.clients[c.ID()] = c
			m.mu.Unlock()
			logger.Debug("client registered", "client_id", c.ID(), "role", c.Actor().Role)

		case c := <-m.UnregisterCh:
			m.remove(c)

		case ev := <-m.eventsCh:
			m.deliver(ev)

		case ev, ok := <-remote:
			if !ok {
				if ctx.Err() != nil {
					return nil
				}
				return goerr.New("complaint event subscription closed")
			}
			m.deliver(ev)
		}
	}
}

func (m *ManagerService) deliver(ev models.ComplaintEvent) {
	m.mu.RLock()
	var slow []Client
	for _, c := range m.clients {
		if !Visible(c.Actor(), ev) {
			continue
		}
		select {
		case c.SendChannel() <- ev:
		default:
			slow = append(slow, c)
		}
	}
	m.mu.RUnlock()

	for _, c := range slow {
		logging.Default().Warn("dropping slow client", "client_id", c.ID())
		m.remove(c)
	}
}

func (m *ManagerService) remove(c Client) {
	m.mu.Lock()
	_, ok := m.clients[c.ID()]
	delete(m.clients, c.ID())
	m.mu.Unlock()

	if ok {
		c.Close()
		logging.Default().Debug("client unregistered", "client_id", c.ID())
	}
}

func (m *ManagerService) closeAll() {
	m.mu.Lock()
	clients := m.clients
	m.clients = make(map[string]Client)
	m.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}
}
