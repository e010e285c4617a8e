package usbflags

import "sync"

// MemoryStore is an in-memory Store.
type MemoryStore struct {
	mu      sync.Mutex
	values  map[string]struct{}
	failSet error
}

// NewMemoryStore returns a store holding names.
func NewMemoryStore(names ...string) *MemoryStore {
	s := &MemoryStore{values: make(map[string]struct{}, len(names))}
	for _, name := range names {
		s.values[name] = struct{}{}
	}
	return s
}

// FailWrites makes every SetFlag return err.
func (s *MemoryStore) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failSet = err
}

func (s *MemoryStore) HasFlag(name string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.values[name]
	return ok, nil
}

func (s *MemoryStore) SetFlag(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet != nil {
		return s.failSet
	}
	s.values[name] = struct{}{}
	return nil
}
