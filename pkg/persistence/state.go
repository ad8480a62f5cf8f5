package persistence

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lwm2m-go/lwm2m/pkg/identity"
)

// StateVersion is the current version of the state file format.
const StateVersion = 1

// ClientState contains the runtime state of an LwM2M client.
type ClientState struct {
	// Version is the state file format version.
	Version int `json:"version"`

	// SavedAt is when the state was last saved.
	SavedAt time.Time `json:"saved_at"`

	// Servers contains the servers the client is bound to.
	Servers []ServerRecord `json:"servers,omitempty"`
}

// ServerRecord is the persisted form of an identity.Server.
type ServerRecord struct {
	// Identity is the server credential, nil for System.
	Identity *Identity `json:"identity,omitempty"`

	// ServerID is the short server id, absent for bootstrap servers.
	ServerID *uint64 `json:"server_id,omitempty"`

	// Role is SERVER, BOOTSTRAP or SYSTEM.
	Role string `json:"role"`

	// URI is the server URI.
	URI string `json:"uri,omitempty"`
}

// NewServerRecord converts a server identity to its persisted form.
func NewServerRecord(s identity.Server) ServerRecord {
	r := ServerRecord{Role: s.Role.String()}
	if !s.Peer.IsZero() {
		r.Identity = &Identity{s.Peer}
	}
	if s.ID != nil {
		id := *s.ID
		r.ServerID = &id
	}
	if s.URI != nil {
		r.URI = s.URI.String()
	}
	return r
}

// Server converts the record back to a server identity.
func (r ServerRecord) Server() (identity.Server, error) {
	var s identity.Server
	switch r.Role {
	case identity.RoleSystem.String():
		return identity.SystemServer(), nil
	case identity.RoleServer.String():
		if r.ServerID == nil {
			return s, fmt.Errorf("%w: server record without id", ErrIllegalState)
		}
		s.Role = identity.RoleServer
		id := *r.ServerID
		s.ID = &id
	case identity.RoleBootstrapServer.String():
		s.Role = identity.RoleBootstrapServer
	default:
		return s, fmt.Errorf("%w: unknown role %q", ErrIllegalState, r.Role)
	}
	if r.Identity != nil {
		s.Peer = r.Identity.Peer
	}
	if r.URI != "" {
		u, err := url.Parse(r.URI)
		if err != nil {
			return identity.Server{}, fmt.Errorf("%w: invalid uri: %v", ErrIllegalState, err)
		}
		s.URI = u
	}
	return s, nil
}

// StateStore manages persistence of client state to a JSON file.
type StateStore struct {
	mu   sync.Mutex
	path string
}

// NewStateStore creates a new client state store.
func NewStateStore(path string) *StateStore {
	return &StateStore{path: path}
}

// Path returns the state file location.
func (s *StateStore) Path() string {
	return s.path
}

// Save persists the client state to disk.
func (s *StateStore) Save(state *ClientState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	state.Version = StateVersion
	if state.SavedAt.IsZero() {
		state.SavedAt = time.Now()
	}

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(s.path, data, 0600)
}

// Load reads the client state from disk.
// Returns nil, nil if the file doesn't exist (empty state).
func (s *StateStore) Load() (*ClientState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	state := &ClientState{}
	if err := json.Unmarshal(data, state); err != nil {
		return nil, err
	}
	if state.Version > StateVersion {
		return nil, fmt.Errorf("%w: state version %d is newer than %d", ErrIllegalState, state.Version, StateVersion)
	}

	return state, nil
}

// Clear removes the state file.
func (s *StateStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := os.Remove(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
