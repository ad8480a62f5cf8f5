package bootstrap

import "context"

// Tasks is one batch of requests for a bootstrap session turn. A Tasks
// value is not modified after it is returned by a TaskProvider.
type Tasks struct {
	// Requests are sent in order.
	Requests []Request

	// SupportedObjects maps object ids to the object versions the server
	// understands in the client's responses.
	SupportedObjects map[uint16]string

	// Last is set when no further batch follows. The session finishes
	// once all requests of the last batch got a response.
	Last bool
}

// TaskProvider produces the request batches of a bootstrap session.
//
// Tasks is called with a nil previous for the first batch, then with the
// responses to the previous batch, in request order, until a batch is
// last. A nil result means the session cannot continue.
type TaskProvider interface {
	Tasks(ctx context.Context, s *Session, previous []Response) *Tasks
}

// TaskProviderFunc adapts a function to TaskProvider.
type TaskProviderFunc func(ctx context.Context, s *Session, previous []Response) *Tasks

func (f TaskProviderFunc) Tasks(ctx context.Context, s *Session, previous []Response) *Tasks {
	return f(ctx, s, previous)
}

// DefaultSupportedObjects returns the object versions of the core
// bootstrap objects.
func DefaultSupportedObjects() map[uint16]string {
	return map[uint16]string{
		ObjectSecurity:      "1.1",
		ObjectServer:        "1.1",
		ObjectAccessControl: "1.0",
	}
}

// SupportedObjects returns the core object versions plus the versions of
// the extension objects declared in cfg.
func SupportedObjects(cfg *Config) map[uint16]string {
	objects := DefaultSupportedObjects()
	if cfg == nil {
		return objects
	}
	for _, ext := range cfg.Extensions {
		objects[ext.ObjectID] = ext.ObjectVersion()
	}
	return objects
}
