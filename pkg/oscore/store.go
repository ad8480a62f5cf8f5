package oscore

import (
	"encoding/hex"
	"sync"
)

// ParameterStore looks up provisioned OSCORE parameters.
type ParameterStore interface {
	// Parameters returns the parameters whose recipient id is rid.
	Parameters(rid []byte) (*Parameters, bool)

	// RecipientID returns the recipient id used for the server at uri.
	RecipientID(uri string) ([]byte, bool)
}

// MemoryStore is an in-memory ParameterStore.
type MemoryStore struct {
	mu     sync.RWMutex
	byRID  map[string]Parameters
	ridFor map[string][]byte
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byRID:  make(map[string]Parameters),
		ridFor: make(map[string][]byte),
	}
}

// Put stores params for the server at uri, replacing any previous entry for
// the same uri or recipient id. uri may be empty.
func (s *MemoryStore) Put(uri string, params Parameters) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if uri != "" {
		if old, ok := s.ridFor[uri]; ok {
			delete(s.byRID, hex.EncodeToString(old))
		}
		s.ridFor[uri] = nonNil(params.RecipientID)
	}
	s.byRID[hex.EncodeToString(params.RecipientID)] = params.Clone()
}

// Remove deletes the parameters for rid and any uri pointing at them.
func (s *MemoryStore) Remove(rid []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := hex.EncodeToString(rid)
	delete(s.byRID, key)
	for uri, r := range s.ridFor {
		if hex.EncodeToString(r) == key {
			delete(s.ridFor, uri)
		}
	}
}

// Parameters implements ParameterStore.
func (s *MemoryStore) Parameters(rid []byte) (*Parameters, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.byRID[hex.EncodeToString(rid)]
	if !ok {
		return nil, false
	}
	clone := p.Clone()
	return &clone, true
}

// RecipientID implements ParameterStore.
func (s *MemoryStore) RecipientID(uri string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rid, ok := s.ridFor[uri]
	if !ok {
		return nil, false
	}
	return nonNil(rid), true
}
