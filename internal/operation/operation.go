// Package operation provides the domain model for async smoke runs. An
// Operation moves through a linear lifecycle:
//
//	pending → running → complete | failed.
//
// The store is the authoritative source of truth for operation state; HTTP
// handlers read and write exclusively through it. "Failed" is reserved for
// runs that aborted on an environment error; a run whose stages executed is
// "complete" whether or not every stage passed, and Passed records which.
package operation

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomasbasham/invoice-smoke/internal/pipeline"
)

// Status represents the lifecycle state of an operation.
type Status string

const (
	StatusPending  Status = "pending"
	StatusRunning  Status = "running"
	StatusComplete Status = "complete"
	StatusFailed   Status = "failed"
)

// Operation represents a single async smoke run.
type Operation struct {
	ID        string    `json:"id"`
	Status    Status    `json:"status"`
	Env       string    `json:"env"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Passed is true once the operation reaches StatusComplete with every
	// stage passing.
	Passed bool `json:"passed"`

	// Stages lists the per-stage results gathered so far. Empty until the
	// operation reaches a terminal status.
	Stages []pipeline.StageResult `json:"stages,omitempty"`

	// GCSObjectPath is the gs:// URI of the uploaded invoice, if the run got
	// that far.
	GCSObjectPath string `json:"gcs_object_path,omitempty"`

	// Error is non-empty if the operation reached StatusFailed.
	Error string `json:"error,omitempty"`
}

// Store is the interface for persisting and retrieving operations. The
// in-memory implementation below is suitable for a single instance; a
// Firestore-backed implementation would satisfy the same interface for
// multi-instance deployments.
type Store interface {
	Create(env string) (*Operation, error)
	Get(id string) (*Operation, error)
	MarkRunning(id string) error
	MarkComplete(id string, passed bool, stages []pipeline.StageResult, gcsObjectPath string) error
	MarkFailed(id string, stages []pipeline.StageResult, err error) error
}

// MemoryStore is a concurrency-safe in-memory Store implementation.
type MemoryStore struct {
	mu  sync.RWMutex
	ops map[string]*Operation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{ops: make(map[string]*Operation)}
}

func (s *MemoryStore) Create(env string) (*Operation, error) {
	op := &Operation{
		ID:        uuid.New().String(),
		Status:    StatusPending,
		Env:       env,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	s.mu.Lock()
	s.ops[op.ID] = op
	s.mu.Unlock()

	return op, nil
}

func (s *MemoryStore) Get(id string) (*Operation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	op, ok := s.ops[id]
	if !ok {
		return nil, fmt.Errorf("operation %q not found", id)
	}
	// Return a copy to prevent callers from mutating internal state.
	copy := *op
	return &copy, nil
}

func (s *MemoryStore) MarkRunning(id string) error {
	return s.update(id, func(op *Operation) {
		op.Status = StatusRunning
	})
}

func (s *MemoryStore) MarkComplete(id string, passed bool, stages []pipeline.StageResult, gcsObjectPath string) error {
	return s.update(id, func(op *Operation) {
		op.Status = StatusComplete
		op.Passed = passed
		op.Stages = stages
		op.GCSObjectPath = gcsObjectPath
	})
}

func (s *MemoryStore) MarkFailed(id string, stages []pipeline.StageResult, err error) error {
	return s.update(id, func(op *Operation) {
		op.Status = StatusFailed
		op.Stages = stages
		op.Error = err.Error()
	})
}

func (s *MemoryStore) update(id string, fn func(*Operation)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	op, ok := s.ops[id]
	if !ok {
		return fmt.Errorf("operation %q not found", id)
	}
	fn(op)
	op.UpdatedAt = time.Now()
	return nil
}
