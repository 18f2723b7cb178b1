package textnorm

import "sync"

// memo is a bounded string->string memoization cache, the Go analogue
// of the Python implementation's functools.lru_cache decorators on
// every normalization helper. Eviction is simplest-possible (clear on
// overflow) since these functions are pure and re-computation is cheap;
// only requires memoization not alter semantics.
type memo struct {
	mu    sync.Mutex
	data  map[string]string
	limit int
}

func newMemo(limit int) *memo {
	return &memo{data: make(map[string]string, limit), limit: limit}
}

func (m *memo) get(key string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	return v, ok
}

func (m *memo) put(key, value string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.data) >= m.limit {
		m.data = make(map[string]string, m.limit)
	}
	m.data[key] = value
}
