package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/buiducnhanit/management-system/internal/events/bus"
	"github.com/buiducnhanit/management-system/internal/events/domain"
)

// MockTxManager is a mock implementation of database.TxManager
type MockTxManager struct {
	mock.Mock
}

func (m *MockTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	args := m.Called(ctx, fn)
	if args.Get(0) != nil {
		return args.Error(0)
	}
	// Execute the function to test the logic inside
	return fn(ctx)
}

// MockOutboxEventRepository is a mock implementation of OutboxEventRepository
type MockOutboxEventRepository struct {
	mock.Mock
}

func (m *MockOutboxEventRepository) Create(ctx context.Context, event *domain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

func (m *MockOutboxEventRepository) GetPendingEvents(
	ctx context.Context,
	limit int,
) ([]*domain.OutboxEvent, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.OutboxEvent), args.Error(1)
}

func (m *MockOutboxEventRepository) Update(ctx context.Context, event *domain.OutboxEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}

// MockBus is a mock implementation of bus.Bus
type MockBus struct {
	mock.Mock
}

func (m *MockBus) Publish(ctx context.Context, msg *bus.Message) error {
	args := m.Called(ctx, msg)
	return args.Error(0)
}

func (m *MockBus) Subscribe(ctx context.Context, handler bus.Handler) error {
	args := m.Called(ctx, handler)
	return args.Error(0)
}

func (m *MockBus) Close(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func relayConfig() Config {
	return Config{
		Interval:   5 * time.Second,
		BatchSize:  10,
		MaxRetries: 3,
	}
}

func TestNewOutboxRelay(t *testing.T) {
	config := relayConfig()
	txManager := &MockTxManager{}
	outboxRepo := &MockOutboxEventRepository{}
	eventBus := &MockBus{}

	uc := NewOutboxRelay(config, txManager, outboxRepo, eventBus, nil)

	assert.NotNil(t, uc)
	assert.Equal(t, config.Interval, uc.config.Interval)
	assert.Equal(t, config.BatchSize, uc.config.BatchSize)
	assert.Equal(t, config.MaxRetries, uc.config.MaxRetries)
}

func TestOutboxRelay_Start_ContextCancellation(t *testing.T) {
	config := relayConfig()
	config.Interval = 100 * time.Millisecond

	uc := NewOutboxRelay(config, &MockTxManager{}, &MockOutboxEventRepository{}, &MockBus{}, nil)

	ctx, cancel := context.WithCancel(context.Background())

	// Cancel context immediately
	cancel()

	err := uc.Start(ctx)
	assert.Error(t, err)
	assert.Equal(t, context.Canceled, err)
}

func TestOutboxRelay_ProcessEvents_Success(t *testing.T) {
	config := relayConfig()
	txManager := &MockTxManager{}
	outboxRepo := &MockOutboxEventRepository{}
	eventBus := &MockBus{}

	uc := NewOutboxRelay(config, txManager, outboxRepo, eventBus, nil)

	ctx := context.Background()
	uuid1 := uuid.Must(uuid.NewV7())
	uuid2 := uuid.Must(uuid.NewV7())
	events := []*domain.OutboxEvent{
		{
			ID:        uuid1,
			EventType: domain.EventTypeUserRegistered,
			Payload:   `{"user_id": "` + uuid1.String() + `", "email": "john@example.com"}`,
			Status:    domain.OutboxEventStatusPending,
			Retries:   0,
		},
		{
			ID:        uuid2,
			EventType: domain.EventTypeRolesChanged,
			Payload:   `{"user_id": "` + uuid2.String() + `", "roles": ["user", "admin"]}`,
			Status:    domain.OutboxEventStatusPending,
			Retries:   0,
		},
	}

	// Setup expectations
	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	outboxRepo.On("GetPendingEvents", ctx, config.BatchSize).Return(events, nil)
	eventBus.On("Publish", ctx, mock.MatchedBy(func(msg *bus.Message) bool {
		return msg.ID == uuid1.String() && msg.EventType == domain.EventTypeUserRegistered
	})).Return(nil)
	eventBus.On("Publish", ctx, mock.MatchedBy(func(msg *bus.Message) bool {
		return msg.ID == uuid2.String() && msg.EventType == domain.EventTypeRolesChanged
	})).Return(nil)
	outboxRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.OutboxEvent) bool {
		return e.Status == domain.OutboxEventStatusProcessed && e.ProcessedAt != nil
	})).Return(nil).Times(2)

	err := uc.ProcessEvents(ctx)

	assert.NoError(t, err)
	txManager.AssertExpectations(t)
	outboxRepo.AssertExpectations(t)
	eventBus.AssertExpectations(t)
}

func TestOutboxRelay_ProcessEvents_NoEvents(t *testing.T) {
	config := relayConfig()
	txManager := &MockTxManager{}
	outboxRepo := &MockOutboxEventRepository{}
	eventBus := &MockBus{}

	uc := NewOutboxRelay(config, txManager, outboxRepo, eventBus, nil)

	ctx := context.Background()
	emptyEvents := []*domain.OutboxEvent{}

	// Setup expectations
	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	outboxRepo.On("GetPendingEvents", ctx, config.BatchSize).Return(emptyEvents, nil)

	err := uc.ProcessEvents(ctx)

	assert.NoError(t, err)
	txManager.AssertExpectations(t)
	outboxRepo.AssertExpectations(t)
	eventBus.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything)
}

func TestOutboxRelay_ProcessEvents_GetPendingError(t *testing.T) {
	config := relayConfig()
	txManager := &MockTxManager{}
	outboxRepo := &MockOutboxEventRepository{}
	eventBus := &MockBus{}

	uc := NewOutboxRelay(config, txManager, outboxRepo, eventBus, nil)

	ctx := context.Background()
	getError := errors.New("database error")

	// Setup expectations
	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	outboxRepo.On("GetPendingEvents", ctx, config.BatchSize).Return(nil, getError)

	err := uc.ProcessEvents(ctx)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "database error")
	txManager.AssertExpectations(t)
	outboxRepo.AssertExpectations(t)
}

func TestOutboxRelay_ProcessEvents_PublishError(t *testing.T) {
	config := relayConfig()
	txManager := &MockTxManager{}
	outboxRepo := &MockOutboxEventRepository{}
	eventBus := &MockBus{}

	uc := NewOutboxRelay(config, txManager, outboxRepo, eventBus, nil)

	ctx := context.Background()
	uuid1 := uuid.Must(uuid.NewV7())
	events := []*domain.OutboxEvent{
		{
			ID:        uuid1,
			EventType: domain.EventTypeUserRegistered,
			Payload:   `{"user_id": "` + uuid1.String() + `"}`,
			Status:    domain.OutboxEventStatusPending,
			Retries:   0,
		},
	}

	publishError := errors.New("broker unavailable")

	// Setup expectations
	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	outboxRepo.On("GetPendingEvents", ctx, config.BatchSize).Return(events, nil)
	eventBus.On("Publish", ctx, mock.AnythingOfType("*bus.Message")).Return(publishError)
	outboxRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.OutboxEvent) bool {
		return e.ID == uuid1 && e.Retries == 1 && e.LastError != nil &&
			e.Status == domain.OutboxEventStatusPending
	})).Return(nil)

	err := uc.ProcessEvents(ctx)

	// A failed publish is recorded on the event, not surfaced
	assert.NoError(t, err)
	txManager.AssertExpectations(t)
	outboxRepo.AssertExpectations(t)
	eventBus.AssertExpectations(t)
}

func TestOutboxRelay_ProcessEvents_MaxRetriesReached(t *testing.T) {
	config := relayConfig()
	txManager := &MockTxManager{}
	outboxRepo := &MockOutboxEventRepository{}
	eventBus := &MockBus{}

	uc := NewOutboxRelay(config, txManager, outboxRepo, eventBus, nil)

	ctx := context.Background()
	uuid1 := uuid.Must(uuid.NewV7())
	events := []*domain.OutboxEvent{
		{
			ID:        uuid1,
			EventType: domain.EventTypeUserDeleted,
			Payload:   `{"user_id": "` + uuid1.String() + `"}`,
			Status:    domain.OutboxEventStatusPending,
			Retries:   2, // Will become 3 after this attempt
		},
	}

	publishError := errors.New("broker unavailable")

	// Setup expectations
	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	outboxRepo.On("GetPendingEvents", ctx, config.BatchSize).Return(events, nil)
	eventBus.On("Publish", ctx, mock.AnythingOfType("*bus.Message")).Return(publishError)
	outboxRepo.On("Update", ctx, mock.MatchedBy(func(e *domain.OutboxEvent) bool {
		return e.ID == uuid1 &&
			e.Retries == 3 &&
			e.Status == domain.OutboxEventStatusFailed &&
			e.LastError != nil
	})).Return(nil)

	err := uc.ProcessEvents(ctx)

	assert.NoError(t, err)
	txManager.AssertExpectations(t)
	outboxRepo.AssertExpectations(t)
	eventBus.AssertExpectations(t)
}

func TestOutboxRelay_ProcessEvents_UpdateError(t *testing.T) {
	config := relayConfig()
	txManager := &MockTxManager{}
	outboxRepo := &MockOutboxEventRepository{}
	eventBus := &MockBus{}

	uc := NewOutboxRelay(config, txManager, outboxRepo, eventBus, nil)

	ctx := context.Background()
	uuid1 := uuid.Must(uuid.NewV7())
	events := []*domain.OutboxEvent{
		{
			ID:        uuid1,
			EventType: domain.EventTypeUserRegistered,
			Payload:   `{"user_id": "` + uuid1.String() + `"}`,
			Status:    domain.OutboxEventStatusPending,
			Retries:   0,
		},
	}

	updateError := errors.New("update failed")

	// Setup expectations
	txManager.On("WithTx", ctx, mock.AnythingOfType("func(context.Context) error")).Return(nil)
	outboxRepo.On("GetPendingEvents", ctx, config.BatchSize).Return(events, nil)
	eventBus.On("Publish", ctx, mock.AnythingOfType("*bus.Message")).Return(nil)
	outboxRepo.On("Update", ctx, mock.AnythingOfType("*domain.OutboxEvent")).Return(updateError)

	err := uc.ProcessEvents(ctx)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "update failed")
	txManager.AssertExpectations(t)
	outboxRepo.AssertExpectations(t)
	eventBus.AssertExpectations(t)
}
