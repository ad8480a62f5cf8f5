package bootstrap

import (
	"github.com/lwm2m-go/lwm2m/pkg/identity"
)

// Listener is notified of bootstrap session milestones. Methods are called
// from the goroutine driving the session and must not block.
type Listener interface {
	// SessionInitiated is called for every Bootstrap-Request, before
	// authorization.
	SessionInitiated(req BootstrapRequest, client identity.Peer)

	// Unauthorized is called when the client may not bootstrap.
	Unauthorized(req BootstrapRequest, client identity.Peer)

	Authorized(s *Session)

	// NoConfig is called when no configuration exists for the client.
	NoConfig(s *Session)

	SendRequest(s *Session, req Request)
	ResponseSuccess(s *Session, req Request, resp Response)
	ResponseError(s *Session, req Request, resp Response)

	// RequestFailure is called when no response was received for req.
	RequestFailure(s *Session, req Request, err error)

	// End is called after a successful Bootstrap-Finish.
	End(s *Session)

	Failed(s *Session, cause FailureCause)
}

// ListenerAdapter implements Listener with no-op methods. Embed it to
// override only the methods you need.
type ListenerAdapter struct{}

func (ListenerAdapter) SessionInitiated(BootstrapRequest, identity.Peer) {}
func (ListenerAdapter) Unauthorized(BootstrapRequest, identity.Peer)     {}
func (ListenerAdapter) Authorized(*Session)                              {}
func (ListenerAdapter) NoConfig(*Session)                                {}
func (ListenerAdapter) SendRequest(*Session, Request)                    {}
func (ListenerAdapter) ResponseSuccess(*Session, Request, Response)      {}
func (ListenerAdapter) ResponseError(*Session, Request, Response)        {}
func (ListenerAdapter) RequestFailure(*Session, Request, error)          {}
func (ListenerAdapter) End(*Session)                                     {}
func (ListenerAdapter) Failed(*Session, FailureCause)                    {}

var _ Listener = ListenerAdapter{}

// Listeners fans out every call to each listener in order.
type Listeners []Listener

func (ls Listeners) SessionInitiated(req BootstrapRequest, client identity.Peer) {
	for _, l := range ls {
		l.SessionInitiated(req, client)
	}
}

func (ls Listeners) Unauthorized(req BootstrapRequest, client identity.Peer) {
	for _, l := range ls {
		l.Unauthorized(req, client)
	}
}

func (ls Listeners) Authorized(s *Session) {
	for _, l := range ls {
		l.Authorized(s)
	}
}

func (ls Listeners) NoConfig(s *Session) {
	for _, l := range ls {
		l.NoConfig(s)
	}
}

func (ls Listeners) SendRequest(s *Session, req Request) {
	for _, l := range ls {
		l.SendRequest(s, req)
	}
}

func (ls Listeners) ResponseSuccess(s *Session, req Request, resp Response) {
	for _, l := range ls {
		l.ResponseSuccess(s, req, resp)
	}
}

func (ls Listeners) ResponseError(s *Session, req Request, resp Response) {
	for _, l := range ls {
		l.ResponseError(s, req, resp)
	}
}

func (ls Listeners) RequestFailure(s *Session, req Request, err error) {
	for _, l := range ls {
		l.RequestFailure(s, req, err)
	}
}

func (ls Listeners) End(s *Session) {
	for _, l := range ls {
		l.End(s)
	}
}

func (ls Listeners) Failed(s *Session, cause FailureCause) {
	for _, l := range ls {
		l.Failed(s, cause)
	}
}

var _ Listener = Listeners(nil)

// ContextRemover evicts OSCORE contexts. It is satisfied by
// *oscore.Resolver.
type ContextRemover interface {
	RemoveByRecipientID(rid []byte)
}

// OSCOREContextCleaner evicts the OSCORE context of a client whose
// bootstrap session ended or failed, so that a later session derives a
// fresh one.
type OSCOREContextCleaner struct {
	ListenerAdapter
	contexts ContextRemover
}

// NewOSCOREContextCleaner creates a cleaner evicting from contexts.
func NewOSCOREContextCleaner(contexts ContextRemover) *OSCOREContextCleaner {
	return &OSCOREContextCleaner{contexts: contexts}
}

func (c *OSCOREContextCleaner) End(s *Session) { c.evict(s) }

func (c *OSCOREContextCleaner) Failed(s *Session, _ FailureCause) { c.evict(s) }

func (c *OSCOREContextCleaner) evict(s *Session) {
	if s == nil {
		return
	}
	if rid, ok := s.Identity.RecipientID(); ok {
		c.contexts.RemoveByRecipientID(rid)
	}
}
