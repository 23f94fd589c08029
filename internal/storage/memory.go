package storage

import (
	"context"
	"sort"
	"sync"

	"waitline/internal/models"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore is a fully in-memory Store. Safe for concurrent access.
// Intended for tests and single-process development.
type MemoryStore struct {
	mu      sync.RWMutex
	queues  map[string]*models.Queue
	entries map[string][]models.QueueEntry // by queue id, in join order

	// writers holds one mutex per queue; WithinQueue holds it for the whole
	// transaction.
	writers sync.Map
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		queues:  make(map[string]*models.Queue),
		entries: make(map[string][]models.QueueEntry),
	}
}

// Migrate is a no-op for the memory store.
func (m *MemoryStore) Migrate(_ context.Context) error { return nil }

// Close is a no-op for the memory store.
func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) CreateQueue(_ context.Context, q *models.Queue) error {
	if err := q.BeforeCreate(nil); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *q
	m.queues[q.ID] = &cp
	return nil
}

func (m *MemoryStore) GetQueue(_ context.Context, queueID string) (*models.Queue, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	q, ok := m.queues[queueID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *q
	return &cp, nil
}

func (m *MemoryStore) ListQueues(_ context.Context, businessID string) ([]models.Queue, error) {
	return m.filterQueues(func(q *models.Queue) bool { return q.BusinessID == businessID }), nil
}

func (m *MemoryStore) AllQueues(_ context.Context) ([]models.Queue, error) {
	return m.filterQueues(func(*models.Queue) bool { return true }), nil
}

func (m *MemoryStore) filterQueues(keep func(*models.Queue) bool) []models.Queue {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Queue, 0, len(m.queues))
	for _, q := range m.queues {
		if keep(q) {
			out = append(out, *q)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

func (m *MemoryStore) LatestEntry(_ context.Context, queueID, userID string) (*models.QueueEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return latestIn(m.entries[queueID], userID)
}

func (m *MemoryStore) WaitingEntries(_ context.Context, queueID string) ([]models.QueueEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.QueueEntry
	for _, e := range m.entries[queueID] {
		if e.Waiting() {
			out = append(out, e)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	return out, nil
}

func (m *MemoryStore) UserEntries(_ context.Context, userID string) ([]models.QueueEntry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []models.QueueEntry
	for _, list := range m.entries {
		for _, e := range list {
			if e.UserID == userID {
				out = append(out, e)
			}
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].JoinedAt.Before(out[j].JoinedAt) })
	return out, nil
}

func (m *MemoryStore) CountByStatus(_ context.Context, queueID string) (StatusCounts, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	counts := make(StatusCounts)
	for _, e := range m.entries[queueID] {
		counts[e.Status]++
	}
	return counts, nil
}

// WithinQueue works on a private copy of the queue's entries and swaps it in
// under the write lock on success.
func (m *MemoryStore) WithinQueue(ctx context.Context, queueID string, fn func(tx Tx) error) error {
	// queues are never deleted, so one writer per existing queue is bounded
	m.mu.RLock()
	_, exists := m.queues[queueID]
	m.mu.RUnlock()
	if !exists {
		return ErrNotFound
	}

	w, _ := m.writers.LoadOrStore(queueID, &sync.Mutex{})
	writer := w.(*sync.Mutex)
	writer.Lock()
	defer writer.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.RLock()
	_, ok := m.queues[queueID]
	working := append([]models.QueueEntry(nil), m.entries[queueID]...)
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}

	tx := &memoryTx{entries: working}
	if err := fn(tx); err != nil {
		return err
	}

	m.mu.Lock()
	m.entries[queueID] = tx.entries
	m.mu.Unlock()
	return nil
}

type memoryTx struct {
	entries []models.QueueEntry
}

func (t *memoryTx) LatestEntry(userID string) (*models.QueueEntry, error) {
	return latestIn(t.entries, userID)
}

func (t *memoryTx) CountWaiting() (int, error) {
	n := 0
	for _, e := range t.entries {
		if e.Waiting() {
			n++
		}
	}
	return n, nil
}

func (t *memoryTx) WaitingAt(position int) (*models.QueueEntry, error) {
	for _, e := range t.entries {
		if e.Waiting() && e.Position == position {
			cp := e
			return &cp, nil
		}
	}
	return nil, ErrNotFound
}

func (t *memoryTx) InsertEntry(e *models.QueueEntry) error {
	if err := e.BeforeCreate(nil); err != nil {
		return err
	}
	if e.Waiting() {
		for _, cur := range t.entries {
			if cur.Waiting() && cur.UserID == e.UserID {
				return ErrDuplicate
			}
		}
	}
	t.entries = append(t.entries, *e)
	return nil
}

func (t *memoryTx) SetStatus(entryID string, from, to models.Status) error {
	for i := range t.entries {
		if t.entries[i].ID != entryID {
			continue
		}
		if t.entries[i].Status != from {
			return ErrConflict
		}
		t.entries[i].Status = to
		return nil
	}
	return ErrConflict
}

func (t *memoryTx) CloseGap(vacated int) (int, error) {
	if vacated < 1 {
		return 0, nil
	}
	if _, err := t.WaitingAt(vacated); err == nil {
		return 0, nil
	}
	shifted := 0
	for i := range t.entries {
		if t.entries[i].Waiting() && t.entries[i].Position > vacated {
			t.entries[i].Position--
			shifted++
		}
	}
	return shifted, nil
}

func latestIn(entries []models.QueueEntry, userID string) (*models.QueueEntry, error) {
	var best *models.QueueEntry
	for i := range entries {
		if entries[i].UserID == userID && (best == nil || newerEntry(&entries[i], best)) {
			best = &entries[i]
		}
	}
	if best == nil {
		return nil, ErrNotFound
	}
	cp := *best
	return &cp, nil
}

// newerEntry orders like the SQL and mongo stores: joined_at, then status
// ("waiting" sorts last, so a live entry wins a tie), then id.
func newerEntry(a, b *models.QueueEntry) bool {
	if !a.JoinedAt.Equal(b.JoinedAt) {
		return a.JoinedAt.After(b.JoinedAt)
	}
	if a.Status != b.Status {
		return a.Status > b.Status
	}
	return a.ID > b.ID
}
