package local

import (
	"encoding/json"
	"log"
	"sort"
	"sync"
)

// Memory is an in-process Store. Nothing survives Close.
type Memory struct {
	mu     sync.RWMutex
	data   map[string][]byte
	logger *log.Logger

	// SaveErr, when set, makes every Save fail the way a full disk would.
	SaveErr error
}

// NewMemory returns an empty Memory store.
func NewMemory(logger *log.Logger) *Memory {
	if logger == nil {
		logger = defaultLogger()
	}
	return &Memory{data: make(map[string][]byte), logger: logger}
}

// Load implements Store.
func (m *Memory) Load(namespace string, out any) error {
	m.mu.RLock()
	raw, ok := m.data[namespace]
	m.mu.RUnlock()
	if !ok {
		return ErrNotFound
	}
	if err := json.Unmarshal(raw, out); err != nil {
		m.logger.Printf("Warning: discarding malformed %s: %v", namespace, err)
		return ErrNotFound
	}
	return nil
}

// Save implements Store.
func (m *Memory) Save(namespace string, v any) {
	if m.SaveErr != nil {
		m.logger.Printf("Warning: failed to write %s: %v", namespace, m.SaveErr)
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		m.logger.Printf("Warning: failed to encode %s: %v", namespace, err)
		return
	}
	m.mu.Lock()
	m.data[namespace] = data
	m.mu.Unlock()
}

// SaveRaw stores value verbatim, bypassing encoding.
func (m *Memory) SaveRaw(namespace, value string) error {
	m.mu.Lock()
	m.data[namespace] = []byte(value)
	m.mu.Unlock()
	return nil
}

// Delete implements Store.
func (m *Memory) Delete(namespace string) error {
	m.mu.Lock()
	delete(m.data, namespace)
	m.mu.Unlock()
	return nil
}

// Namespaces implements Store.
func (m *Memory) Namespaces() ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.data))
	for ns := range m.data {
		out = append(out, ns)
	}
	sort.Strings(out)
	return out, nil
}

// Close implements Store.
func (m *Memory) Close() error {
	return nil
}
