package filestore

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"

	"github.com/jrsteele09/go-auth-session/store"
	"github.com/rs/zerolog/log"
)

var _ store.Store = (*FileStore)(nil)

var errCorrupt = errors.New("corrupt store file")

// FileStore keeps all entries in one JSON object file. Every write replaces the
// file through a temp file and rename, so a crash never leaves a half-written session.
type FileStore struct {
	path string
	lock sync.Mutex
}

// Open returns a store backed by path, creating its parent directory.
func Open(path string) (*FileStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}
	return &FileStore{path: path}, nil
}

func (s *FileStore) Get(key string) (string, bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	entries, err := s.load()
	if err != nil {
		return "", false, err
	}
	v, ok := entries[key]
	return v, ok, nil
}

func (s *FileStore) Put(entries map[string]string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	current, err := s.loadForWrite()
	if err != nil {
		return err
	}
	maps.Copy(current, entries)
	return s.save(current)
}

func (s *FileStore) Delete(keys ...string) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	current, err := s.loadForWrite()
	if err != nil {
		return err
	}
	for _, k := range keys {
		delete(current, k)
	}
	if len(current) == 0 {
		if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing store file: %w", err)
		}
		return nil
	}
	return s.save(current)
}

// load reads the file. A missing file is an empty store; a corrupt file is an error.
func (s *FileStore) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading store file: %w", err)
	}

	entries := map[string]string{}
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding store file %s: %w: %w", s.path, errCorrupt, err)
	}
	return entries, nil
}

// loadForWrite is load for Put and Delete. A corrupt file is replaced by the write.
func (s *FileStore) loadForWrite() (map[string]string, error) {
	entries, err := s.load()
	if errors.Is(err, errCorrupt) {
		log.Warn().Err(err).Str("path", s.path).Msg("discarding corrupt store file")
		return map[string]string{}, nil
	}
	return entries, err
}

func (s *FileStore) save(entries map[string]string) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".session-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), s.path)
}
