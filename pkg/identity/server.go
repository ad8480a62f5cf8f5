package identity

import (
	"fmt"
	"net/url"
	"strconv"
)

// Role is the part a Server plays towards the local client.
type Role uint8

const (
	// RoleSystem marks internal calls. It allows the system to read
	// protected resources such as the Security object.
	RoleSystem Role = iota

	// RoleServer marks calls from an LwM2M server.
	RoleServer

	// RoleBootstrapServer marks calls from an LwM2M bootstrap server.
	RoleBootstrapServer
)

// String returns a human-readable role name.
func (r Role) String() string {
	switch r {
	case RoleSystem:
		return "SYSTEM"
	case RoleServer:
		return "SERVER"
	case RoleBootstrapServer:
		return "BOOTSTRAP"
	default:
		return "UNKNOWN"
	}
}

// Server identifies a logical LwM2M server.
//
// Equality covers the peer, the short server id and the role. The URI is
// carried for display and reconnection only; two records that differ only
// by URI name the same server.
type Server struct {
	// Peer is the credential the server is authenticated with. The zero
	// Peer means none (System).
	Peer Peer

	// ID is the short server id, nil for bootstrap servers and System.
	ID *uint64

	// Role is the server role.
	Role Role

	// URI is the server URI, nil for System.
	URI *url.URL
}

// SystemServer returns the identity for internal calls. Every call returns
// an equal value.
func SystemServer() Server {
	return Server{Role: RoleSystem}
}

// NewServer returns the identity of an LwM2M server.
func NewServer(peer Peer, id uint64, uri *url.URL) Server {
	return Server{Peer: peer, ID: &id, Role: RoleServer, URI: uri}
}

// NewBootstrapServer returns the identity of an LwM2M bootstrap server.
func NewBootstrapServer(peer Peer, uri *url.URL) Server {
	return Server{Peer: peer, Role: RoleBootstrapServer, URI: uri}
}

// IsSystem reports whether s is an internal caller.
func (s Server) IsSystem() bool {
	return s.Role == RoleSystem
}

// IsServer reports whether s is an LwM2M server.
func (s Server) IsServer() bool {
	return s.Role == RoleServer
}

// IsBootstrapServer reports whether s is an LwM2M bootstrap server.
func (s Server) IsBootstrapServer() bool {
	return s.Role == RoleBootstrapServer
}

// Equal reports whether s and other name the same logical server.
func (s Server) Equal(other Server) bool {
	if s.Role != other.Role {
		return false
	}
	if (s.ID == nil) != (other.ID == nil) {
		return false
	}
	if s.ID != nil && *s.ID != *other.ID {
		return false
	}
	return s.Peer.Equal(other.Peer)
}

// Key returns a comparable value that is equal for two servers exactly when
// Equal reports true.
func (s Server) Key() string {
	id := "-"
	if s.ID != nil {
		id = strconv.FormatUint(*s.ID, 10)
	}
	return s.Role.String() + "|" + id + "|" + s.Peer.Key()
}

// String describes the server by URI and role.
func (s Server) String() string {
	uri := ""
	if s.URI != nil {
		uri = s.URI.String()
	}
	switch s.Role {
	case RoleSystem:
		return "System"
	case RoleBootstrapServer:
		return fmt.Sprintf("%s[%s]", uri, s.Role)
	default:
		id := "?"
		if s.ID != nil {
			id = strconv.FormatUint(*s.ID, 10)
		}
		return fmt.Sprintf("%s[%s %s]", uri, s.Role, id)
	}
}
