package storefake

import (
	"maps"
	"sync"

	"github.com/jrsteele09/go-auth-session/store"
)

var _ store.Store = (*FakeStore)(nil)

// FakeStore is an in-memory store that records how often it was written.
type FakeStore struct {
	entries map[string]string
	puts    int
	deletes int
	putErr  error
	delErr  error
	lock    sync.RWMutex
}

func NewFakeStore() *FakeStore {
	return &FakeStore{entries: make(map[string]string)}
}

// NewFakeStoreWith returns a store pre-seeded with entries; seeding is not counted as a write.
func NewFakeStoreWith(entries map[string]string) *FakeStore {
	s := NewFakeStore()
	maps.Copy(s.entries, entries)
	return s
}

func (s *FakeStore) Get(key string) (string, bool, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()
	v, ok := s.entries[key]
	return v, ok, nil
}

func (s *FakeStore) Put(entries map[string]string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.puts++
	if s.putErr != nil {
		return s.putErr
	}
	maps.Copy(s.entries, entries)
	return nil
}

func (s *FakeStore) Delete(keys ...string) error {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.deletes++
	if s.delErr != nil {
		return s.delErr
	}
	for _, k := range keys {
		delete(s.entries, k)
	}
	return nil
}

// Entries returns a copy of everything currently stored.
func (s *FakeStore) Entries() map[string]string {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return maps.Clone(s.entries)
}

// Puts is the number of Put calls so far.
func (s *FakeStore) Puts() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.puts
}

// Deletes is the number of Delete calls so far.
func (s *FakeStore) Deletes() int {
	s.lock.RLock()
	defer s.lock.RUnlock()
	return s.deletes
}

// FailPuts makes every later Put return err without writing anything.
func (s *FakeStore) FailPuts(err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.putErr = err
}

// FailDeletes makes every later Delete return err without removing anything.
func (s *FakeStore) FailDeletes(err error) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.delErr = err
}
