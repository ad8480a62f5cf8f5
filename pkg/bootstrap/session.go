package bootstrap

import (
	"fmt"
	"net/netip"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/lwm2m-go/lwm2m/pkg/identity"
)

// BootstrapRequest is a client's Bootstrap-Request.
type BootstrapRequest struct {
	// Endpoint is the client endpoint name.
	Endpoint string

	// Source is the address the request came from.
	Source netip.AddrPort

	// PreferredContentFormat is the format the client asked for, if any.
	PreferredContentFormat *ContentFormat
}

// Session is one bootstrap session. Its fields are set by the Manager and
// not changed afterwards, except for cancellation.
type Session struct {
	ID            string
	Endpoint      string
	Identity      identity.Peer
	Source        netip.AddrPort
	ContentFormat ContentFormat
	Request       BootstrapRequest
	StartedAt     time.Time

	authorized bool
	cancelled  atomic.Bool
	pending    *Tasks
	noConfig   bool
}

func newSession(req BootstrapRequest, client identity.Peer, authorized bool, format ContentFormat, now time.Time) *Session {
	if req.PreferredContentFormat != nil {
		format = *req.PreferredContentFormat
	}
	return &Session{
		ID:            uuid.NewString(),
		Endpoint:      req.Endpoint,
		Identity:      client,
		Source:        req.Source,
		ContentFormat: format,
		Request:       req,
		StartedAt:     now,
		authorized:    authorized,
	}
}

// Authorized reports whether the client was allowed to bootstrap.
func (s *Session) Authorized() bool { return s.authorized }

// Cancel marks the session as cancelled. The Manager stops driving it
// before the next request.
func (s *Session) Cancel() { s.cancelled.Store(true) }

// Cancelled reports whether Cancel was called.
func (s *Session) Cancelled() bool { return s.cancelled.Load() }

// String identifies the session in logs.
func (s *Session) String() string {
	return fmt.Sprintf("Session[id=%s endpoint=%s %s]", s.ID, s.Endpoint, s.Identity)
}

// FailureCause tells why a session failed.
type FailureCause uint8

const (
	CauseUnauthorized FailureCause = iota + 1
	CauseNoConfig
	CauseInternalServerError
	CauseSendRequestFailed
	CauseRequestFailed
	CauseFinishFailed
	CauseCancelled
)

// String returns the cause name.
func (c FailureCause) String() string {
	switch c {
	case CauseUnauthorized:
		return "UNAUTHORIZED"
	case CauseNoConfig:
		return "NO_BOOTSTRAP_CONFIG"
	case CauseInternalServerError:
		return "INTERNAL_SERVER_ERROR"
	case CauseSendRequestFailed:
		return "SEND_REQUEST_FAILED"
	case CauseRequestFailed:
		return "REQUEST_FAILED"
	case CauseFinishFailed:
		return "FINISH_FAILED"
	case CauseCancelled:
		return "CANCELLED"
	default:
		return "UNKNOWN"
	}
}
