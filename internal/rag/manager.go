package rag

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"rag-chatbot/internal/models"
	"rag-chatbot/internal/pkg/errors"
)

// generation is one build cycle: the pipeline, its document set and the
// time the build finished.
type generation struct {
	pipeline *Pipeline
	builtAt  time.Time
}

// Manager owns the shared active generation. Ingestions are serialized by
// a single lock scoped to the whole manager; queries never take that lock
// and read the active generation through an atomic pointer, so they observe
// either the old or the fully-built new generation, never a partial one.
type Manager struct {
	deps Deps
	ttl  time.Duration

	ingestMu sync.Mutex
	active   atomic.Pointer[generation]
	pinned   atomic.Bool

	now func() time.Time
}

func NewManager(deps Deps, ttl time.Duration) *Manager {
	return &Manager{deps: deps, ttl: ttl, now: time.Now}
}

// Ingest builds a new generation from paths and swaps it in. Concurrent
// calls block until the running ingestion releases the lock; at most one
// ingestion is ever in flight. A failed build leaves the previous
// generation serving.
func (m *Manager) Ingest(ctx context.Context, paths []string) error {
	m.ingestMu.Lock()
	defer m.ingestMu.Unlock()
	return m.ingestLocked(ctx, paths)
}

func (m *Manager) ingestLocked(ctx context.Context, paths []string) error {
	p := NewPipeline(m.deps, paths)
	if err := p.Ingest(ctx); err != nil {
		return err
	}
	m.active.Store(&generation{pipeline: p, builtAt: m.now()})
	log.Info().Strs("paths", paths).Msg("generation swapped in")
	return nil
}

// Query serves a conversation from the active generation. An uninitialized
// manager fails with ErrNotReady before any model call. A stale generation
// triggers a refresh from its last known document set first; if the refresh
// fails the previous generation still answers.
func (m *Manager) Query(ctx context.Context, conv models.Conversation) (*models.QueryResponse, error) {
	g := m.active.Load()
	if g == nil {
		return nil, errors.ErrNotReady
	}

	if m.isStale(g) && !m.pinned.Load() {
		m.refresh(ctx, g)
		if cur := m.active.Load(); cur != nil {
			g = cur
		}
	}

	return g.pipeline.Query(ctx, conv)
}

func (m *Manager) isStale(g *generation) bool {
	return m.now().Sub(g.builtAt) > m.ttl
}

func (m *Manager) refresh(ctx context.Context, stale *generation) {
	m.ingestMu.Lock()
	defer m.ingestMu.Unlock()

	cur := m.active.Load()
	// Cleared while we waited for the lock: the generation was dropped on
	// purpose, rebuilding it here would undo the clear.
	if cur == nil {
		return
	}
	// Another caller may have rebuilt while we waited for the lock.
	if cur != stale && !m.isStale(cur) {
		return
	}

	log.Info().Time("built_at", stale.builtAt).Msg("generation stale, rebuilding")
	if err := m.ingestLocked(ctx, stale.pipeline.Paths()); err != nil {
		log.Warn().Err(err).Msg("staleness refresh failed, keeping previous generation")
	}
}

// Clear wipes the index and drops the active generation; queries fail with
// ErrNotReady until the next successful ingestion.
func (m *Manager) Clear(ctx context.Context) error {
	m.ingestMu.Lock()
	defer m.ingestMu.Unlock()
	if err := m.deps.Index.Clear(ctx); err != nil {
		return err
	}
	m.active.Store(nil)
	log.Info().Msg("index cleared")
	return nil
}

// Pin suppresses staleness refreshes until Unpin.
func (m *Manager) Pin()   { m.pinned.Store(true) }
func (m *Manager) Unpin() { m.pinned.Store(false) }

// Status describes the active generation for the HTTP layer.
type Status struct {
	Ready   bool      `json:"ready"`
	BuiltAt time.Time `json:"built_at,omitempty"`
	Paths   []string  `json:"paths,omitempty"`
	Pinned  bool      `json:"pinned"`
}

func (m *Manager) Status() Status {
	s := Status{Pinned: m.pinned.Load()}
	if g := m.active.Load(); g != nil {
		s.Ready = true
		s.BuiltAt = g.builtAt
		s.Paths = g.pipeline.Paths()
	}
	return s
}

// RefreshIfStale rebuilds the active generation when it is past its TTL.
// Used by the background schedule; a missing or pinned generation is left
// alone.
func (m *Manager) RefreshIfStale(ctx context.Context) {
	g := m.active.Load()
	if g == nil || m.pinned.Load() || !m.isStale(g) {
		return
	}
	m.refresh(ctx, g)
}
