// Package log records bootstrap session events for later inspection.
//
// It is separate from operational logging (slog): every request sent to a
// client, every response and every session state change becomes an
// [Event], a machine-readable trace of what a bootstrap server did to a
// device.
//
// # Basic Usage
//
// Pass a [Logger] to the component that produces events:
//
//	// Console output during development
//	events := log.NewSlogAdapter(slog.Default())
//
//	// Event file, CBOR encoded
//	events, _ := log.NewFileLogger("/var/log/lwm2m/bootstrap.evlog")
//
//	// Both
//	events := log.NewMultiLogger(log.NewSlogAdapter(slog.Default()), fileLogger)
//
// # Event Types
//
//   - Message: a request sent to or a response received from the client
//   - State: a session milestone such as AUTHORIZED, FINISHED or FAILED
//   - Error: a request that could not be delivered
//
// # File Format
//
// Event files are a stream of CBOR maps with integer keys. Use [Reader]
// with a [Filter] to read them back.
package log
