package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/lwm2m-go/lwm2m/pkg/identity"
)

// Session errors returned by Manager.Run.
var (
	ErrUnauthorized  = errors.New("bootstrap session unauthorized")
	ErrCancelled     = errors.New("bootstrap session cancelled")
	ErrRequestFailed = errors.New("bootstrap request failed")
	ErrFinishFailed  = errors.New("bootstrap finish failed")
	ErrNoTasks       = errors.New("no bootstrap tasks")
)

// Authorizer decides whether a client may bootstrap.
type Authorizer interface {
	Authorize(ctx context.Context, req BootstrapRequest, client identity.Peer) bool
}

// AuthorizerFunc adapts a function to Authorizer.
type AuthorizerFunc func(ctx context.Context, req BootstrapRequest, client identity.Peer) bool

func (f AuthorizerFunc) Authorize(ctx context.Context, req BootstrapRequest, client identity.Peer) bool {
	return f(ctx, req, client)
}

// AllowAll authorizes every client.
var AllowAll = AuthorizerFunc(func(context.Context, BootstrapRequest, identity.Peer) bool { return true })

// Sender sends a request to the client of a session and waits for its
// response.
type Sender interface {
	Send(ctx context.Context, req Request) (Response, error)
}

// SenderFunc adapts a function to Sender.
type SenderFunc func(ctx context.Context, req Request) (Response, error)

func (f SenderFunc) Send(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

// ManagerConfig configures a Manager.
type ManagerConfig struct {
	// Logger is used for session progress. Nil disables logging.
	Logger *slog.Logger

	// DefaultContentFormat is used for writes when neither the client nor
	// the configuration asks for one.
	DefaultContentFormat ContentFormat

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// DefaultManagerConfig returns a configuration writing TLV and without
// logging.
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{DefaultContentFormat: ContentFormatTLV}
}

// Manager runs bootstrap sessions. It holds no per-session state, so one
// Manager serves any number of concurrent sessions.
type Manager struct {
	provider   TaskProvider
	authorizer Authorizer
	listener   Listener
	config     ManagerConfig
}

// NewManager creates a manager. A nil authorizer allows every client and a
// nil listener is replaced by a no-op one.
func NewManager(provider TaskProvider, authorizer Authorizer, listener Listener, config ManagerConfig) *Manager {
	if authorizer == nil {
		authorizer = AllowAll
	}
	if listener == nil {
		listener = ListenerAdapter{}
	}
	if config.Now == nil {
		config.Now = time.Now
	}
	if config.DefaultContentFormat == 0 {
		config.DefaultContentFormat = ContentFormatTLV
	}
	return &Manager{
		provider:   provider,
		authorizer: authorizer,
		listener:   listener,
		config:     config,
	}
}

// Begin starts a session for a Bootstrap-Request from client. Check
// Session.Authorized before going on; Run fails unauthorized sessions.
func (m *Manager) Begin(ctx context.Context, req BootstrapRequest, client identity.Peer) *Session {
	m.listener.SessionInitiated(req, client)

	authorized := m.authorizer.Authorize(ctx, req, client)
	s := newSession(req, client, authorized, m.config.DefaultContentFormat, m.config.Now())
	if authorized {
		m.debugLog("bootstrap session authorized", "session", s.ID, "endpoint", s.Endpoint, "identity", client.String())
		m.listener.Authorized(s)
	} else {
		m.infoLog("bootstrap session unauthorized", "endpoint", s.Endpoint, "identity", client.String())
		m.listener.Unauthorized(req, client)
	}
	return s
}

// HasConfigFor fetches the first batch of s. It reports false when there
// is no configuration for the client. A missing configuration is looked up
// and notified once per session.
func (m *Manager) HasConfigFor(ctx context.Context, s *Session) bool {
	if s.noConfig {
		return false
	}
	if s.pending != nil {
		return true
	}
	tasks := m.provider.Tasks(ctx, s, nil)
	if tasks == nil {
		s.noConfig = true
		m.listener.NoConfig(s)
		return false
	}
	s.pending = tasks
	return true
}

// End marks s as successfully finished.
func (m *Manager) End(s *Session) {
	m.infoLog("bootstrap session finished", "session", s.ID, "endpoint", s.Endpoint,
		"duration", m.config.Now().Sub(s.StartedAt))
	m.listener.End(s)
}

// Failed marks s as failed.
func (m *Manager) Failed(s *Session, cause FailureCause) {
	m.infoLog("bootstrap session failed", "session", s.ID, "endpoint", s.Endpoint, "cause", cause.String())
	m.listener.Failed(s, cause)
}

// Run drives s to completion through sender: it sends every batch from the
// task provider, passing the responses of one batch to the provider to get
// the next, and sends Bootstrap-Finish after the last batch.
//
// Run calls End or Failed exactly once. Failed delete and discover
// requests do not end the session: deleting a missing instance is
// harmless, and a failed discover is judged by the task provider.
func (m *Manager) Run(ctx context.Context, s *Session, sender Sender) error {
	if !s.Authorized() {
		m.Failed(s, CauseUnauthorized)
		return ErrUnauthorized
	}
	if !m.HasConfigFor(ctx, s) {
		m.Failed(s, CauseNoConfig)
		return ErrNoConfig
	}

	tasks := s.pending
	s.pending = nil
	for {
		responses := make([]Response, 0, len(tasks.Requests))
		for _, req := range tasks.Requests {
			resp, cause, err := m.send(ctx, s, sender, req)
			if err != nil {
				m.Failed(s, cause)
				return err
			}
			if !resp.IsSuccess() && req.Kind() == KindWrite {
				m.Failed(s, CauseRequestFailed)
				return fmt.Errorf("%w: %s: %s", ErrRequestFailed, req, resp.Code())
			}
			responses = append(responses, resp)
		}
		if tasks.Last {
			break
		}

		tasks = m.provider.Tasks(ctx, s, responses)
		if tasks == nil {
			m.Failed(s, CauseInternalServerError)
			return ErrNoTasks
		}
	}

	resp, cause, err := m.send(ctx, s, sender, FinishRequest{})
	if err != nil {
		if cause == CauseSendRequestFailed {
			cause = CauseFinishFailed
		}
		m.Failed(s, cause)
		return err
	}
	if !resp.IsSuccess() {
		m.Failed(s, CauseFinishFailed)
		return fmt.Errorf("%w: %s", ErrFinishFailed, resp.Code())
	}

	m.End(s)
	return nil
}

// send sends one request and reports its outcome to the listener.
func (m *Manager) send(ctx context.Context, s *Session, sender Sender, req Request) (Response, FailureCause, error) {
	if s.Cancelled() {
		return nil, CauseCancelled, ErrCancelled
	}
	if err := ctx.Err(); err != nil {
		return nil, CauseCancelled, fmt.Errorf("%w: %w", ErrCancelled, err)
	}

	m.listener.SendRequest(s, req)
	m.debugLog("bootstrap request", "session", s.ID, "request", req.String())

	resp, err := sender.Send(ctx, req)
	if err == nil && resp == nil {
		err = errors.New("empty response")
	}
	if err != nil {
		m.listener.RequestFailure(s, req, err)
		if ctx.Err() != nil {
			return nil, CauseCancelled, fmt.Errorf("%w: %w", ErrCancelled, err)
		}
		return nil, CauseSendRequestFailed, fmt.Errorf("%w: %s: %w", ErrRequestFailed, req, err)
	}

	if resp.IsSuccess() {
		m.listener.ResponseSuccess(s, req, resp)
	} else {
		m.listener.ResponseError(s, req, resp)
	}
	return resp, 0, nil
}

func (m *Manager) debugLog(msg string, args ...any) {
	if m.config.Logger != nil {
		m.config.Logger.Debug(msg, args...)
	}
}

func (m *Manager) infoLog(msg string, args ...any) {
	if m.config.Logger != nil {
		m.config.Logger.Info(msg, args...)
	}
}
