package endpoint

import (
	"bytes"
	"log/slog"
	"net/netip"
	"sync/atomic"

	"github.com/lwm2m-go/lwm2m/pkg/identity"
)

// Endpoint is a local transport endpoint exchanges arrive on.
// Implementations must be comparable, typically pointer types.
type Endpoint interface {
	// URI returns the local endpoint URI.
	URI() string

	// IsStarted reports whether the endpoint accepts traffic.
	IsStarted() bool
}

// Exchange is what the transport knows about one incoming message.
type Exchange struct {
	// Endpoint is the endpoint the message arrived on.
	Endpoint Endpoint

	// Source is the remote socket address.
	Source netip.AddrPort

	// Credential is the credential the message was protected with. It is
	// the zero Peer for unprotected messages.
	Credential identity.Peer
}

// binding pairs the current endpoint with the server it was opened for.
type binding struct {
	endpoint Endpoint
	server   identity.Server
}

// Extractor attributes incoming exchanges to the currently bound server.
//
// The binding is replaced atomically, so Extract may run on any transport
// goroutine while the connection layer binds and unbinds.
type Extractor struct {
	current atomic.Pointer[binding]
	logger  *slog.Logger
}

// NewExtractor creates an extractor without a binding. The logger may be nil.
func NewExtractor(logger *slog.Logger) *Extractor {
	return &Extractor{logger: logger}
}

// Bind makes server the owner of ep, replacing any previous binding.
func (e *Extractor) Bind(ep Endpoint, server identity.Server) {
	e.current.Store(&binding{endpoint: ep, server: server})
	e.debugLog("endpoint bound", "endpoint", uriOf(ep), "server", server.String())
}

// Unbind removes the current binding.
func (e *Extractor) Unbind() {
	if old := e.current.Swap(nil); old != nil {
		e.debugLog("endpoint unbound", "endpoint", uriOf(old.endpoint), "server", old.server.String())
	}
}

// Current returns the bound endpoint and server.
func (e *Extractor) Current() (Endpoint, identity.Server, bool) {
	b := e.current.Load()
	if b == nil {
		return nil, identity.Server{}, false
	}
	return b.endpoint, b.server, true
}

// Extract returns the bound server if ex can be attributed to it.
func (e *Extractor) Extract(ex Exchange) (identity.Server, bool) {
	b := e.current.Load()
	if b == nil || ex.Endpoint == nil {
		return identity.Server{}, false
	}
	if ex.Endpoint != b.endpoint || !b.endpoint.IsStarted() {
		return identity.Server{}, false
	}

	peer := b.server.Peer
	switch peer.Kind() {
	case identity.KindSocket:
		addr, _ := peer.SocketAddr()
		src := netip.AddrPortFrom(ex.Source.Addr().Unmap(), ex.Source.Port())
		if src != addr {
			e.debugLog("exchange source does not match server",
				"source", ex.Source.String(), "server", b.server.String())
			return identity.Server{}, false
		}
	case identity.KindOSCORE:
		want, _ := peer.RecipientID()
		got, ok := ex.Credential.RecipientID()
		if !ok || !bytes.Equal(got, want) {
			e.debugLog("exchange not protected with server recipient id",
				"credential", ex.Credential.String(), "server", b.server.String())
			return identity.Server{}, false
		}
	}
	return b.server, true
}

func (e *Extractor) debugLog(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Debug(msg, args...)
	}
}

func uriOf(ep Endpoint) string {
	if ep == nil {
		return ""
	}
	return ep.URI()
}
