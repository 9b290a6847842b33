package publisher

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "tangible/pkg/domain"
	audit "tangible/pkg/platform/audit"
	"tangible/pkg/platform/audit/store/memory"
)

func TestPublisher_SyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	companyID := id.CompanyID(uuid.New())
	event := audit.Event{
		CompanyID: companyID,
		Action:    string(audit.EventCampaignCreated),
	}

	err := pub.Emit(context.Background(), event)
	require.NoError(t, err)

	events, err := pub.List(context.Background(), companyID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, string(audit.EventCampaignCreated), events[0].Action)
	assert.Equal(t, audit.CategoryCompliance, events[0].Category, "category derived from action")
}

func TestPublisher_AsyncMode(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(10))

	companyID := id.CompanyID(uuid.New())
	err := pub.Emit(context.Background(), audit.Event{
		CompanyID: companyID,
		Action:    string(audit.EventRollupCompleted),
	})
	require.NoError(t, err)

	// Close drains the buffer, so the event is guaranteed persisted.
	pub.Close()

	events, err := store.ListByCompany(context.Background(), companyID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, audit.CategoryOperations, events[0].Category)
}

func TestPublisher_AsyncDrainsOnClose(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(100))

	companyID := id.CompanyID(uuid.New())
	for range 10 {
		err := pub.Emit(context.Background(), audit.Event{
			CompanyID: companyID,
			Action:    string(audit.EventInstanceCreated),
		})
		require.NoError(t, err)
	}

	pub.Close()

	events, err := store.ListByCompany(context.Background(), companyID)
	require.NoError(t, err)
	assert.Len(t, events, 10, "all events should be drained on close")
}

func TestPublisher_BufferFull_DropsEvent(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store, WithAsyncBuffer(1))
	defer pub.Close()

	companyID := id.CompanyID(uuid.New())

	var wg sync.WaitGroup
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = pub.Emit(context.Background(), audit.Event{
				CompanyID: companyID,
				Action:    string(audit.EventConsumptionAlert),
			})
		}()
	}
	wg.Wait()
	// Some emits may return ErrBufferFull; the publisher must stay usable.
}

func TestPublisher_SetsTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	companyID := id.CompanyID(uuid.New())

	before := time.Now()
	err := pub.Emit(context.Background(), audit.Event{
		CompanyID: companyID,
		Action:    string(audit.EventCampaignCreated),
	})
	require.NoError(t, err)
	after := time.Now()

	events, err := pub.List(context.Background(), companyID)
	require.NoError(t, err)
	require.Len(t, events, 1)

	assert.True(t, !events[0].Timestamp.Before(before), "timestamp should be >= before")
	assert.True(t, !events[0].Timestamp.After(after), "timestamp should be <= after")
}

func TestPublisher_PreservesExistingTimestamp(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	companyID := id.CompanyID(uuid.New())
	customTime := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)

	err := pub.Emit(context.Background(), audit.Event{
		CompanyID: companyID,
		Action:    string(audit.EventPackGenerated),
		Timestamp: customTime,
	})
	require.NoError(t, err)

	events, err := pub.List(context.Background(), companyID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, customTime, events[0].Timestamp)
}

func TestPublisher_MultipleEvents(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	companyID := id.CompanyID(uuid.New())

	events := []audit.Event{
		{CompanyID: companyID, Action: string(audit.EventCampaignCreated)},
		{CompanyID: companyID, Action: string(audit.EventCampaignTransitioned)},
		{CompanyID: companyID, Action: string(audit.EventPackRequested)},
	}

	for _, event := range events {
		err := pub.Emit(context.Background(), event)
		require.NoError(t, err)
	}

	result, err := pub.List(context.Background(), companyID)
	require.NoError(t, err)
	require.Len(t, result, 3)

	assert.Equal(t, string(audit.EventCampaignCreated), result[0].Action)
	assert.Equal(t, string(audit.EventCampaignTransitioned), result[1].Action)
	assert.Equal(t, string(audit.EventPackRequested), result[2].Action)
}

func TestPublisher_DifferentCompanies(t *testing.T) {
	store := memory.NewInMemoryStore()
	pub := NewPublisher(store)
	defer pub.Close()

	companyA := id.CompanyID(uuid.New())
	companyB := id.CompanyID(uuid.New())

	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		CompanyID: companyA,
		Action:    string(audit.EventCampaignCreated),
	}))
	require.NoError(t, pub.Emit(context.Background(), audit.Event{
		CompanyID: companyB,
		Action:    string(audit.EventPackGenerated),
	}))

	eventsA, err := pub.List(context.Background(), companyA)
	require.NoError(t, err)
	require.Len(t, eventsA, 1)
	assert.Equal(t, string(audit.EventCampaignCreated), eventsA[0].Action)

	eventsB, err := pub.List(context.Background(), companyB)
	require.NoError(t, err)
	require.Len(t, eventsB, 1)
	assert.Equal(t, string(audit.EventPackGenerated), eventsB[0].Action)
}
