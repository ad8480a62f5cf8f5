package commands

import (
	"fmt"
	"io"

	"github.com/lwm2m-go/lwm2m/pkg/log"
)

// RunView writes the events of the log at path matching filter.
func RunView(path string, filter log.Filter, w io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}
		formatEvent(w, event)
	}
	return nil
}

// formatEvent writes a header line followed by category specific details.
func formatEvent(w io.Writer, e log.Event) {
	session := e.SessionID
	if len(session) > 8 {
		session = session[:8]
	}
	if session == "" {
		session = "--------"
	}
	fmt.Fprintf(w, "%s [%s] %-3s %-7s %s\n",
		e.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
		session, e.Direction, e.Category, e.Endpoint)

	switch {
	case e.Message != nil:
		formatMessageDetails(w, e.Message)
	case e.StateChange != nil:
		formatStateChangeDetails(w, e.StateChange)
	case e.Error != nil:
		formatErrorDetails(w, e.Error)
	}
	if e.Identity != "" {
		fmt.Fprintf(w, "  Identity: %s\n", e.Identity)
	}
	if e.RemoteAddr != "" {
		fmt.Fprintf(w, "  Remote: %s\n", e.RemoteAddr)
	}
}

func formatMessageDetails(w io.Writer, msg *log.MessageEvent) {
	if msg.IsResponse() {
		fmt.Fprintf(w, "  %s %s -> %s\n", msg.Operation, msg.Path, msg.Code)
	} else {
		fmt.Fprintf(w, "  %s %s\n", msg.Operation, msg.Path)
	}
	if msg.ContentFormat != nil {
		fmt.Fprintf(w, "  ContentFormat: %d\n", *msg.ContentFormat)
	}
	if msg.Summary != "" {
		fmt.Fprintf(w, "  Payload: %s\n", msg.Summary)
	}
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
	if err.Context != "" {
		fmt.Fprintf(w, "  Context: %s\n", err.Context)
	}
}
