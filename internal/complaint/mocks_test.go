package complaint_test

import (
	"context"
	"sync"

	"resolveit/backend/internal/models"
	"resolveit/backend/internal/storage"

	"github.com/stretchr/testify/mock"
)

// MockPublisher records published events.
type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, ev models.ComplaintEvent) error {
	args := m.Called(ctx, ev)
	return args.Error(0)
}

func (m *MockPublisher) Events() []models.ComplaintEvent {
	var out []models.ComplaintEvent
	for _, call := range m.Calls {
		out = append(out, call.Arguments.Get(1).(models.ComplaintEvent))
	}
	return out
}

// racingStore lets a test change a complaint between the workflow's read
// and its write, the way a concurrent request would.
type racingStore struct {
	*storage.MemoryStore
	once   sync.Once
	onRead func(c *models.Complaint)
}

func (r *racingStore) GetComplaint(ctx context.Context, id uint) (*models.Complaint, error) {
	c, err := r.MemoryStore.GetComplaint(ctx, id)
	if err == nil && r.onRead != nil {
		r.once.Do(func() { r.onRead(c.Clone()) })
	}
	return c, err
}
