// Package state persists the bot's mutable state as a single JSON document.
//
// The document always carries the polling offset under "current_update_id";
// commands may stash arbitrary extra keys next to it. The store caches the
// document in memory for the process lifetime and only rewrites the file
// when the serialized content actually changed.
package state

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/m3rciful/botkit/core/logger"
	"log/slog"
)

// KeyUpdateID is the document key holding the polling offset.
const KeyUpdateID = "current_update_id"

// Store is a JSON-file-backed key-value document.
//
// The polling loop is the single writer between a fetch and its
// corresponding flush; hooks and commands run on the loop task may read and
// write through the store's own locking, but must not hold references into
// the document across ticks.
type Store struct {
	path string

	mu  sync.RWMutex
	doc map[string]json.RawMessage
}

// NewStore creates a store bound to the given file path.
func NewStore(path string) *Store {
	return &Store{
		path: path,
		doc:  make(map[string]json.RawMessage),
	}
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the document from disk into the in-memory cache.
// A missing file yields a fresh document with a zero offset.
func (s *Store) Load() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		s.doc = map[string]json.RawMessage{}
		logger.STATE.Debug("state file missing, starting fresh",
			slog.String("event", "state.load"),
			slog.String("path", s.path),
		)
		return nil
	}
	if err != nil {
		return fmt.Errorf("state: read %s: %w", s.path, err)
	}

	doc := make(map[string]json.RawMessage)
	if err := json.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("state: parse %s: %w", s.path, err)
	}
	s.doc = doc

	logger.STATE.Debug("state loaded",
		slog.String("event", "state.load"),
		slog.String("path", s.path),
		slog.Int("keys", len(doc)),
	)
	return nil
}

// UpdateID returns the persisted polling offset, zero when unset.
func (s *Store) UpdateID() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.doc[KeyUpdateID]
	if !ok {
		return 0
	}
	var id int64
	if err := json.Unmarshal(raw, &id); err != nil {
		return 0
	}
	return id
}

// SetUpdateID advances the polling offset in the cached document.
func (s *Store) SetUpdateID(id int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc[KeyUpdateID] = json.RawMessage(fmt.Sprintf("%d", id))
}

// Get unmarshals the value stored under key into dst.
// It reports false when the key is absent.
func (s *Store) Get(key string, dst any) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	raw, ok := s.doc[key]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return true, fmt.Errorf("state: decode key %q: %w", key, err)
	}
	return true, nil
}

// Set stores val under key in the cached document.
func (s *Store) Set(key string, val any) error {
	data, err := json.Marshal(val)
	if err != nil {
		return fmt.Errorf("state: encode key %q: %w", key, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.doc[key] = json.RawMessage(data)
	return nil
}

// GetString returns the string stored under key.
func (s *Store) GetString(key string) (string, bool) {
	var v string
	ok, err := s.Get(key, &v)
	if !ok || err != nil {
		return "", false
	}
	return v, true
}

// SetString stores a string value under key.
func (s *Store) SetString(key, val string) {
	_ = s.Set(key, val)
}

// Flush writes the cached document to disk when its serialized form differs
// from the current file content. It reports whether a write happened.
func (s *Store) Flush() (bool, error) {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.doc, "", "    ")
	s.mu.RUnlock()
	if err != nil {
		return false, fmt.Errorf("state: encode document: %w", err)
	}
	data = append(data, '\n')

	current, readErr := os.ReadFile(s.path)
	if readErr == nil && bytes.Equal(current, data) {
		logger.STATE.Debug("state unchanged, skipping write",
			slog.String("event", "state.flush"),
			slog.String("path", s.path),
		)
		return false, nil
	}
	if readErr != nil && !os.IsNotExist(readErr) {
		return false, fmt.Errorf("state: read %s: %w", s.path, readErr)
	}

	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return false, fmt.Errorf("state: write %s: %w", s.path, err)
	}
	logger.STATE.Debug("state written",
		slog.String("event", "state.flush"),
		slog.String("path", s.path),
		slog.Int("bytes", len(data)),
	)
	return true, nil
}
