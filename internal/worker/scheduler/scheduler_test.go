package scheduler

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowcraft-dev/flowcraft/internal/domain/models"
	"github.com/flowcraft-dev/flowcraft/internal/pkg/apperrors"
	"github.com/flowcraft-dev/flowcraft/internal/worker/core"
	"github.com/flowcraft-dev/flowcraft/internal/worker/progress"
)

// fakeStore is an in-memory Store good enough to drive the scheduler end to
// end without a real database.
type fakeStore struct {
	mu         sync.Mutex
	executions map[uuid.UUID]*models.Execution
}

func newFakeStore() *fakeStore {
	return &fakeStore{executions: make(map[uuid.UUID]*models.Execution)}
}

func (s *fakeStore) GetWorkflow(ctx context.Context, id int64) (*models.Workflow, error) {
	return nil, apperrors.Store("not implemented", nil)
}

func (s *fakeStore) CreateExecution(ctx context.Context, exec *models.Execution) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.executions[exec.ID] = exec
	return nil
}

func (s *fakeStore) UpdateExecution(ctx context.Context, id uuid.UUID, update ExecutionUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	exec, ok := s.executions[id]
	if !ok {
		exec = &models.Execution{ID: id}
		s.executions[id] = exec
	}
	if update.Status != nil {
		exec.Status = *update.Status
	}
	if update.FinishedAt != nil {
		exec.FinishedAt = update.FinishedAt
	}
	if update.Data != nil {
		exec.Data = update.Data
	}
	if update.Error != nil {
		exec.Error = update.Error
	}
	return nil
}

func (s *fakeStore) GetCredential(ctx context.Context, id uuid.UUID) (*models.Credential, error) {
	return nil, apperrors.ErrCredentialNotFound
}

func (s *fakeStore) UpdateCredential(ctx context.Context, cred *models.Credential) error {
	return nil
}

func (s *fakeStore) GetCredentials(ctx context.Context) ([]models.Credential, error) {
	return nil, nil
}

func (s *fakeStore) get(id uuid.UUID) *models.Execution {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.executions[id]
}

// echoHandler returns execCtx.Data merged with a "handled" marker, optionally
// failing when its configured field is present in Data.
type echoHandler struct {
	kind    string
	failOn  string
}

func (h *echoHandler) Type() string { return h.kind }

func (h *echoHandler) Handle(ctx context.Context, execCtx *core.ExecutionContext) (interface{}, error) {
	if h.failOn != "" {
		if _, ok := execCtx.Data[h.failOn]; ok {
			return nil, apperrors.Handler(apperrors.CodeUpstreamError, "boom", nil)
		}
	}
	out := core.CopyMap(execCtx.Data)
	out["handled"] = execCtx.NodeID
	return out, nil
}

func collectSnapshots(bus *progress.Bus, execID uuid.UUID) (*[]models.ExecutionProgress, func()) {
	var mu sync.Mutex
	snapshots := make([]models.ExecutionProgress, 0)
	token := bus.Subscribe(execID, func(p models.ExecutionProgress) {
		mu.Lock()
		defer mu.Unlock()
		snapshots = append(snapshots, p)
	})
	return &snapshots, func() { bus.Unsubscribe(execID, token) }
}

func TestScheduler_LinearSuccess(t *testing.T) {
	store := newFakeStore()
	bus := progress.NewBus()
	registry := core.NewRegistry()
	registry.Register(&echoHandler{kind: models.NodeKindWebhook})
	registry.Register(&echoHandler{kind: models.NodeKindHTTPRequest})

	s := New(store, bus, registry)

	workflow := &models.Workflow{
		ID: 1,
		Nodes: models.NodeList{
			{ID: "start", Type: models.NodeKindWebhook, Data: map[string]interface{}{}},
			{ID: "next", Type: models.NodeKindHTTPRequest, Data: map[string]interface{}{"url": "https://example.com"}},
		},
		Edges: models.EdgeList{{ID: "e1", Source: "start", Target: "next"}},
	}

	execID := uuid.New()
	snapshots, unsubscribe := collectSnapshots(bus, execID)
	defer unsubscribe()

	s.Run(context.Background(), workflow, execID, map[string]interface{}{"payload": "hi"})

	exec := store.get(execID)
	require.NotNil(t, exec)
	assert.Equal(t, models.ExecutionStatusCompleted, exec.Status)
	require.NotNil(t, exec.FinishedAt)

	last := (*snapshots)[len(*snapshots)-1]
	assert.Equal(t, models.ExecutionStatusCompleted, last.Status)
	require.Len(t, last.Nodes, 2)
	for _, np := range last.Nodes {
		assert.Equal(t, models.NodeStatusSuccess, np.Status)
	}
}

func TestScheduler_DiamondWithTemplateResolution(t *testing.T) {
	store := newFakeStore()
	bus := progress.NewBus()
	registry := core.NewRegistry()
	registry.Register(&echoHandler{kind: models.NodeKindWebhook})
	registry.Register(&echoHandler{kind: models.NodeKindHTTPRequest})
	registry.Register(&echoHandler{kind: models.NodeKindCode})

	s := New(store, bus, registry)

	workflow := &models.Workflow{
		ID: 2,
		Nodes: models.NodeList{
			{ID: "start", Type: models.NodeKindWebhook, Data: map[string]interface{}{}},
			{ID: "left", Type: models.NodeKindHTTPRequest, Data: map[string]interface{}{"url": "https://example.com/left"}},
			{ID: "right", Type: models.NodeKindHTTPRequest, Data: map[string]interface{}{"url": "https://example.com/right"}},
			{ID: "join", Type: models.NodeKindCode, Data: map[string]interface{}{"code": "merge", "from": "{{left.handled}}"}},
		},
		Edges: models.EdgeList{
			{ID: "e1", Source: "start", Target: "left"},
			{ID: "e2", Source: "start", Target: "right"},
			{ID: "e3", Source: "left", Target: "join"},
			{ID: "e4", Source: "right", Target: "join"},
		},
	}

	execID := uuid.New()
	s.Run(context.Background(), workflow, execID, nil)

	exec := store.get(execID)
	require.NotNil(t, exec)
	assert.Equal(t, models.ExecutionStatusCompleted, exec.Status)

	data, ok := exec.Data["join"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "left", data["from"])
}

func TestScheduler_MidGraphFailureCascadesSkip(t *testing.T) {
	store := newFakeStore()
	bus := progress.NewBus()
	registry := core.NewRegistry()
	registry.Register(&echoHandler{kind: models.NodeKindWebhook})
	registry.Register(&echoHandler{kind: models.NodeKindHTTPRequest, failOn: "failMe"})
	registry.Register(&echoHandler{kind: models.NodeKindCode})

	s := New(store, bus, registry)

	workflow := &models.Workflow{
		ID: 3,
		Nodes: models.NodeList{
			{ID: "start", Type: models.NodeKindWebhook, Data: map[string]interface{}{}},
			{ID: "bad", Type: models.NodeKindHTTPRequest, Data: map[string]interface{}{"url": "https://example.com", "failMe": true}},
			{ID: "after", Type: models.NodeKindCode, Data: map[string]interface{}{"code": "noop"}},
		},
		Edges: models.EdgeList{
			{ID: "e1", Source: "start", Target: "bad"},
			{ID: "e2", Source: "bad", Target: "after"},
		},
	}

	execID := uuid.New()
	snapshots, unsubscribe := collectSnapshots(bus, execID)
	defer unsubscribe()

	s.Run(context.Background(), workflow, execID, nil)

	exec := store.get(execID)
	require.NotNil(t, exec)
	assert.Equal(t, models.ExecutionStatusFailed, exec.Status)
	require.NotNil(t, exec.Error)

	last := (*snapshots)[len(*snapshots)-1]
	byID := make(map[string]models.NodeProgress, len(last.Nodes))
	for _, np := range last.Nodes {
		byID[np.NodeID] = np
	}
	assert.Equal(t, models.NodeStatusError, byID["bad"].Status)
	assert.Equal(t, models.NodeStatusSkipped, byID["after"].Status)
}

func TestScheduler_ValidationRejectionNeverInvokesHandler(t *testing.T) {
	store := newFakeStore()
	bus := progress.NewBus()
	registry := core.NewRegistry()
	invoked := false
	registry.Register(&invocationTrackingHandler{kind: models.NodeKindHTTPRequest, invoked: &invoked})

	s := New(store, bus, registry)

	workflow := &models.Workflow{
		ID: 4,
		Nodes: models.NodeList{
			{ID: "bad", Type: models.NodeKindHTTPRequest, Data: map[string]interface{}{}},
		},
	}

	execID := uuid.New()
	s.Run(context.Background(), workflow, execID, nil)

	exec := store.get(execID)
	require.NotNil(t, exec)
	assert.Equal(t, models.ExecutionStatusFailed, exec.Status)
	require.NotNil(t, exec.Error)
	assert.Contains(t, *exec.Error, "Validation error")
	assert.False(t, invoked)
}

type invocationTrackingHandler struct {
	kind    string
	invoked *bool
}

func (h *invocationTrackingHandler) Type() string { return h.kind }

func (h *invocationTrackingHandler) Handle(ctx context.Context, execCtx *core.ExecutionContext) (interface{}, error) {
	*h.invoked = true
	return map[string]interface{}{}, nil
}

func TestScheduler_UnknownNodeTypeFallsBackGracefully(t *testing.T) {
	store := newFakeStore()
	bus := progress.NewBus()
	registry := core.NewRegistry()
	registry.Register(&echoHandler{kind: models.NodeKindWebhook})

	s := New(store, bus, registry)

	workflow := &models.Workflow{
		ID: 5,
		Nodes: models.NodeList{
			{ID: "start", Type: models.NodeKindWebhook, Data: map[string]interface{}{}},
			{ID: "mystery", Type: "some.unregistered.kind", Data: map[string]interface{}{}},
		},
		Edges: models.EdgeList{{ID: "e1", Source: "start", Target: "mystery"}},
	}

	execID := uuid.New()
	s.Run(context.Background(), workflow, execID, nil)

	exec := store.get(execID)
	require.NotNil(t, exec)
	assert.Equal(t, models.ExecutionStatusCompleted, exec.Status)

	data, ok := exec.Data["mystery"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, true, data["executed"])
	assert.Equal(t, "some.unregistered.kind", data["nodeType"])
}

func TestScheduler_IgnoresEdgesWithUnknownEndpoints(t *testing.T) {
	store := newFakeStore()
	bus := progress.NewBus()
	registry := core.NewRegistry()
	registry.Register(&echoHandler{kind: models.NodeKindWebhook})

	s := New(store, bus, registry)

	workflow := &models.Workflow{
		ID: 6,
		Nodes: models.NodeList{
			{ID: "start", Type: models.NodeKindWebhook, Data: map[string]interface{}{}},
		},
		Edges: models.EdgeList{{ID: "e1", Source: "start", Target: "ghost"}},
	}

	execID := uuid.New()
	s.Run(context.Background(), workflow, execID, nil)

	exec := store.get(execID)
	require.NotNil(t, exec)
	assert.Equal(t, models.ExecutionStatusCompleted, exec.Status)
}
