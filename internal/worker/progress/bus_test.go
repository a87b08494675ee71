package progress

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcraft-dev/flowcraft/internal/domain/models"
)

func TestBus_EmitDeliversToSubscriber(t *testing.T) {
	b := NewBus()
	execID := uuid.New()

	var mu sync.Mutex
	var received []models.ExecutionProgress
	b.Subscribe(execID, func(p models.ExecutionProgress) {
		mu.Lock()
		defer mu.Unlock()
		received = append(received, p)
	})

	b.Emit(models.ExecutionProgress{ExecutionID: execID, Status: models.ExecutionStatusRunning})
	b.Emit(models.ExecutionProgress{ExecutionID: execID, Status: models.ExecutionStatusCompleted})

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, received, 2)
	assert.Equal(t, models.ExecutionStatusCompleted, received[1].Status)
}

func TestBus_UnsubscribeStopsDelivery(t *testing.T) {
	b := NewBus()
	execID := uuid.New()

	count := 0
	token := b.Subscribe(execID, func(p models.ExecutionProgress) { count++ })
	b.Unsubscribe(execID, token)

	b.Emit(models.ExecutionProgress{ExecutionID: execID, Status: models.ExecutionStatusRunning})
	assert.Equal(t, 0, count)
}

func TestBus_DoesNotDeliverToOtherExecutions(t *testing.T) {
	b := NewBus()
	execA, execB := uuid.New(), uuid.New()

	count := 0
	b.Subscribe(execA, func(p models.ExecutionProgress) { count++ })

	b.Emit(models.ExecutionProgress{ExecutionID: execB, Status: models.ExecutionStatusRunning})
	assert.Equal(t, 0, count)
}

func TestBus_PanickingSubscriberDoesNotAffectOthers(t *testing.T) {
	b := NewBus()
	execID := uuid.New()

	delivered := false
	b.Subscribe(execID, func(p models.ExecutionProgress) { panic("boom") })
	b.Subscribe(execID, func(p models.ExecutionProgress) { delivered = true })

	b.Emit(models.ExecutionProgress{ExecutionID: execID, Status: models.ExecutionStatusRunning})
	assert.True(t, delivered)
}

func TestBus_CleanupRemovesAllSubscribers(t *testing.T) {
	b := NewBus()
	execID := uuid.New()

	count := 0
	b.Subscribe(execID, func(p models.ExecutionProgress) { count++ })
	b.Cleanup(execID)

	b.Emit(models.ExecutionProgress{ExecutionID: execID, Status: models.ExecutionStatusRunning})
	assert.Equal(t, 0, count)
}
