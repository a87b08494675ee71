// Package core defines the node handler contract the scheduler (C6)
// dispatches against, and the registry handlers install themselves into.
package core

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/flowcraft-dev/flowcraft/internal/domain/models"
)

// ExecutionContext is passed to every handler invocation. Data is
// node.Data after template resolution against Context; Context is the
// read-only map of nodeId -> output for every ancestor that has already
// completed, matching spec.md §4.3's `handle(node, context)` contract.
type ExecutionContext struct {
	ExecutionID   uuid.UUID
	WorkflowID    int64
	NodeID        string
	NodeType      string
	Data          map[string]interface{}
	Context       map[string]interface{}
	Env           map[string]string
	GetCredential func(id uuid.UUID) (*models.Credential, error)

	// UpdateCredential persists a credential whose Data a handler rewrote
	// in place (e.g. the email node after refreshing a gmail-oauth access
	// token), so the next run reads the fresh value instead of re-deriving
	// it from a stale one.
	UpdateCredential func(cred *models.Credential) error
}

// Handler is the interface every node kind implements. The return value is
// the node's output under execCtx.NodeID in the next node's Context; most
// kinds return a map, but a trigger node (webhook) may echo arbitrary JSON
// verbatim, so the contract is not narrowed to map[string]interface{}.
type Handler interface {
	Type() string
	Handle(ctx context.Context, execCtx *ExecutionContext) (interface{}, error)
}

// Registry holds handlers keyed by NodeKind.
type Registry struct {
	mu       sync.RWMutex
	handlers map[string]Handler
}

// NewRegistry builds an empty registry. Handlers are added with Register.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[string]Handler)}
}

func (r *Registry) Register(h Handler) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.handlers[h.Type()] = h
}

// Get returns the handler for kind, or ok=false if none is registered
// (the scheduler falls back to the permissive fallback handler in that
// case, never to a missing-handler error).
func (r *Registry) Get(kind string) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[kind]
	return h, ok
}
