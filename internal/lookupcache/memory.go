package lookupcache

import (
	"context"
	"sync"
	"time"

	"vodsieve/internal/lookupkey"
	"vodsieve/internal/media"
)

type memoryEntry struct {
	kind    media.Kind
	payload []byte
	expires time.Time
}

// MemoryStore is an in-process Store. Contents are lost on Close.
type MemoryStore struct {
	mu     sync.RWMutex
	tables map[Table]map[lookupkey.Key]memoryEntry
	opts   options
}

var _ Store = (*MemoryStore)(nil)

// NewMemory returns an empty in-process store.
func NewMemory(opts ...Option) *MemoryStore {
	return &MemoryStore{
		tables: map[Table]map[lookupkey.Key]memoryEntry{
			TableSearch: {},
			TableDetail: {},
		},
		opts: buildOptions(opts),
	}
}

func (m *MemoryStore) Get(_ context.Context, table Table, key lookupkey.Key) ([]byte, bool, error) {
	if err := checkTable(table); err != nil {
		return nil, false, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	entry, ok := m.tables[table][key]
	if !ok || !entry.expires.After(m.opts.now()) {
		return nil, false, nil
	}
	return append([]byte(nil), entry.payload...), true, nil
}

func (m *MemoryStore) Put(_ context.Context, table Table, kind media.Kind, key lookupkey.Key, payload []byte, ttl time.Duration) error {
	if err := checkTable(table); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tables[table][key] = memoryEntry{
		kind:    kind,
		payload: append([]byte(nil), payload...),
		expires: m.opts.now().Add(m.opts.ttl(ttl)),
	}
	return nil
}

func (m *MemoryStore) Invalidate(_ context.Context, kind media.Kind) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var removed int64
	for _, entries := range m.tables {
		for key, entry := range entries {
			if kind == "" || entry.kind == kind {
				delete(entries, key)
				removed++
			}
		}
	}
	return removed, nil
}

func (m *MemoryStore) Sweep(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.opts.now()
	var removed int64
	for _, entries := range m.tables {
		for key, entry := range entries {
			if !entry.expires.After(now) {
				delete(entries, key)
				removed++
			}
		}
	}
	return removed, nil
}

func (m *MemoryStore) Stats(_ context.Context) (Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	now := m.opts.now()
	stats := Stats{Backend: "memory"}
	for _, table := range Tables {
		ts := TableStats{ByKind: make(map[media.Kind]int64)}
		for _, entry := range m.tables[table] {
			if entry.expires.After(now) {
				ts.Live++
				ts.ByKind[entry.kind]++
			} else {
				ts.Expired++
			}
		}
		if table == TableSearch {
			stats.Search = ts
		} else {
			stats.Detail = ts
		}
	}
	return stats, nil
}

func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for table := range m.tables {
		m.tables[table] = map[lookupkey.Key]memoryEntry{}
	}
	return nil
}
