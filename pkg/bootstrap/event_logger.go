package bootstrap

import (
	"time"

	"github.com/lwm2m-go/lwm2m/pkg/identity"
	"github.com/lwm2m-go/lwm2m/pkg/link"
	"github.com/lwm2m-go/lwm2m/pkg/log"
)

// Session states recorded in state change events.
const (
	StateInitiated    = "INITIATED"
	StateAuthorized   = "AUTHORIZED"
	StateUnauthorized = "UNAUTHORIZED"
	StateNoConfig     = "NO_CONFIG"
	StateFinished     = "FINISHED"
	StateFailed       = "FAILED"
)

// EventLogger is a Listener recording session events to a log.Logger.
// Requests are outgoing and responses incoming. Payload summaries never
// contain opaque resource values.
type EventLogger struct {
	logger log.Logger
	now    func() time.Time
}

var _ Listener = (*EventLogger)(nil)

// NewEventLogger creates a listener writing to logger.
func NewEventLogger(logger log.Logger) *EventLogger {
	return &EventLogger{logger: logger, now: time.Now}
}

func (l *EventLogger) SessionInitiated(req BootstrapRequest, client identity.Peer) {
	l.logger.Log(l.requestEvent(req, client, log.CategoryState, func(e *log.Event) {
		e.StateChange = &log.StateChangeEvent{NewState: StateInitiated}
	}))
}

func (l *EventLogger) Unauthorized(req BootstrapRequest, client identity.Peer) {
	l.logger.Log(l.requestEvent(req, client, log.CategoryState, func(e *log.Event) {
		e.StateChange = &log.StateChangeEvent{OldState: StateInitiated, NewState: StateUnauthorized}
	}))
}

func (l *EventLogger) Authorized(s *Session) {
	l.state(s, StateInitiated, StateAuthorized, "")
}

func (l *EventLogger) NoConfig(s *Session) {
	l.state(s, StateAuthorized, StateNoConfig, "")
}

func (l *EventLogger) SendRequest(s *Session, req Request) {
	e := l.sessionEvent(s, log.DirectionOut, log.CategoryMessage)
	e.Message = &log.MessageEvent{
		Operation: req.Kind().String(),
		Path:      req.Target().String(),
	}
	if w, ok := req.(WriteRequest); ok {
		format := uint16(w.ContentFormat)
		e.Message.ContentFormat = &format
		e.Message.Summary = w.Instance.String()
	}
	l.logger.Log(e)
}

func (l *EventLogger) ResponseSuccess(s *Session, req Request, resp Response) {
	l.response(s, req, resp)
}

func (l *EventLogger) ResponseError(s *Session, req Request, resp Response) {
	l.response(s, req, resp)
}

func (l *EventLogger) RequestFailure(s *Session, req Request, err error) {
	e := l.sessionEvent(s, log.DirectionOut, log.CategoryError)
	e.Error = &log.ErrorEventData{Message: err.Error(), Context: req.String()}
	l.logger.Log(e)
}

func (l *EventLogger) End(s *Session) {
	l.state(s, StateAuthorized, StateFinished, "")
}

func (l *EventLogger) Failed(s *Session, cause FailureCause) {
	l.state(s, "", StateFailed, cause.String())
}

func (l *EventLogger) response(s *Session, req Request, resp Response) {
	e := l.sessionEvent(s, log.DirectionIn, log.CategoryMessage)
	e.Message = &log.MessageEvent{
		Operation: req.Kind().String(),
		Path:      req.Target().String(),
		Code:      resp.Code().String(),
	}
	if d, ok := resp.(DiscoverResponse); ok {
		format := uint16(ContentFormatLink)
		e.Message.ContentFormat = &format
		e.Message.Summary = link.Format(d.Links)
	}
	l.logger.Log(e)
}

func (l *EventLogger) state(s *Session, old, state, reason string) {
	e := l.sessionEvent(s, log.DirectionIn, log.CategoryState)
	e.StateChange = &log.StateChangeEvent{OldState: old, NewState: state, Reason: reason}
	l.logger.Log(e)
}

func (l *EventLogger) sessionEvent(s *Session, dir log.Direction, cat log.Category) log.Event {
	e := log.Event{
		Timestamp: l.now(),
		SessionID: s.ID,
		Direction: dir,
		Category:  cat,
		Endpoint:  s.Endpoint,
		Identity:  s.Identity.String(),
	}
	if s.Source.IsValid() {
		e.RemoteAddr = s.Source.String()
	}
	return e
}

func (l *EventLogger) requestEvent(req BootstrapRequest, client identity.Peer, cat log.Category, fill func(*log.Event)) log.Event {
	e := log.Event{
		Timestamp: l.now(),
		Direction: log.DirectionIn,
		Category:  cat,
		Endpoint:  req.Endpoint,
		Identity:  client.String(),
	}
	if req.Source.IsValid() {
		e.RemoteAddr = req.Source.String()
	}
	fill(&e)
	return e
}
