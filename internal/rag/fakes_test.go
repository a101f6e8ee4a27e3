package rag

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"rag-chatbot/internal/models"
	"rag-chatbot/internal/retrieval"
)

// fakeLoader returns texts[path] and counts calls; unknown paths fail.
type fakeLoader struct {
	mu    sync.Mutex
	texts map[string]string
	fail  error
	calls int
}

func (f *fakeLoader) load(paths []string) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.fail != nil {
		return nil, f.fail
	}
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		text, ok := f.texts[p]
		if !ok {
			return nil, fmt.Errorf("no fixture for %s", p)
		}
		out = append(out, text)
	}
	return out, nil
}

func (f *fakeLoader) loadCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

// fieldChunker emits one chunk per whitespace-separated word, spans in
// word offsets.
type fieldChunker struct{}

func (fieldChunker) Chunk(text, docID string) []models.Chunk {
	var chunks []models.Chunk
	for i, w := range strings.Fields(text) {
		chunks = append(chunks, models.Chunk{Text: w, DocID: docID, Start: i, End: i + 1})
	}
	return chunks
}

// fakeEmbedder derives vectors from a fixture map and tracks how many
// batch calls run at once, to catch ingestions escaping the lock.
type fakeEmbedder struct {
	vectors  map[string][]float32
	fail     error
	inFlight atomic.Int32
	maxSeen  atomic.Int32
	delay    time.Duration
}

func (f *fakeEmbedder) EmbedChunks(ctx context.Context, chunks []models.Chunk) ([]models.Record, error) {
	cur := f.inFlight.Add(1)
	for {
		seen := f.maxSeen.Load()
		if cur <= seen || f.maxSeen.CompareAndSwap(seen, cur) {
			break
		}
	}
	defer f.inFlight.Add(-1)
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.fail != nil {
		return nil, f.fail
	}
	records := make([]models.Record, len(chunks))
	for i, c := range chunks {
		records[i] = models.Record{
			ID:       fmt.Sprintf("%s-%d", c.DocID, i),
			Vector:   f.vector(c.Text),
			Metadata: models.Metadata{DocID: c.DocID, Start: c.Start, End: c.End},
			Text:     c.Text,
		}
	}
	return records, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	return f.vector(text), nil
}

func (f *fakeEmbedder) vector(text string) []float32 {
	if v, ok := f.vectors[text]; ok {
		return v
	}
	return []float32{1, 1, 1}
}

// memIndex is an in-memory VectorIndex ordering by cosine similarity.
type memIndex struct {
	mu      sync.RWMutex
	rows    map[string]models.Record
	order   []string
	failAdd error
}

func newMemIndex() *memIndex {
	return &memIndex{rows: map[string]models.Record{}}
}

func (m *memIndex) Add(ctx context.Context, records []models.Record) error {
	if m.failAdd != nil {
		return m.failAdd
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range records {
		if _, ok := m.rows[r.ID]; !ok {
			m.order = append(m.order, r.ID)
		}
		m.rows[r.ID] = r
	}
	return nil
}

func (m *memIndex) Query(ctx context.Context, vector []float32, topK int) ([]models.Result, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	results := make([]models.Result, 0, len(m.order))
	for _, id := range m.order {
		r := m.rows[id]
		results = append(results, models.Result{Record: r, Similarity: retrieval.Cosine(vector, r.Vector)})
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].Similarity > results[j].Similarity })
	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

func (m *memIndex) IsEmpty(ctx context.Context) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows) == 0, nil
}

func (m *memIndex) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows = map[string]models.Record{}
	m.order = nil
	return nil
}

func (m *memIndex) count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.rows)
}

// fakeGenerator returns a canned response and counts invocations.
type fakeGenerator struct {
	response any
	calls    atomic.Int32
	prompts  sync.Map
}

func (f *fakeGenerator) Generate(ctx context.Context, prompt, query string) (any, error) {
	f.calls.Add(1)
	f.prompts.Store(query, prompt)
	return f.response, nil
}

// staticPrompt keeps prompt rendering out of the way for manager tests.
type staticPrompt struct{}

func (staticPrompt) Build(chunks []models.Result, query string) (string, error) {
	return "prompt: " + query, nil
}
