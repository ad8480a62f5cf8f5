package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/lwm2m-go/lwm2m/pkg/bootstrap"
	"github.com/lwm2m-go/lwm2m/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents       int
	EventsByCategory  map[log.Category]int
	EventsByDirection map[log.Direction]int
	Sessions          map[string]*SessionStats
	Unauthorized      int
	Errors            int
	TimeRange         struct {
		Start time.Time
		End   time.Time
	}
}

// SessionStats holds statistics for a single session.
type SessionStats struct {
	FirstSeen      time.Time
	LastSeen       time.Time
	Endpoint       string
	Requests       int
	ErrorResponses int

	// Outcome is the last state reached, FailureReason the cause of a
	// failure.
	Outcome       string
	FailureReason string
}

// CollectStats reads the log at path.
func CollectStats(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory:  make(map[log.Category]int),
		EventsByDirection: make(map[log.Direction]int),
		Sessions:          make(map[string]*SessionStats),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByCategory[event.Category]++
		stats.EventsByDirection[event.Direction]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}
		if event.Error != nil {
			stats.Errors++
		}

		// Events before authorization have no session.
		if event.SessionID == "" {
			if sc := event.StateChange; sc != nil && sc.NewState == bootstrap.StateUnauthorized {
				stats.Unauthorized++
			}
			continue
		}

		s, ok := stats.Sessions[event.SessionID]
		if !ok {
			s = &SessionStats{FirstSeen: event.Timestamp, LastSeen: event.Timestamp, Endpoint: event.Endpoint}
			stats.Sessions[event.SessionID] = s
		}
		if event.Timestamp.After(s.LastSeen) {
			s.LastSeen = event.Timestamp
		}
		if m := event.Message; m != nil {
			switch {
			case !m.IsResponse():
				s.Requests++
			case m.Code[0] != '2':
				s.ErrorResponses++
			}
		}
		if sc := event.StateChange; sc != nil {
			s.Outcome = sc.NewState
			s.FailureReason = sc.Reason
		}
	}
	return stats, nil
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := CollectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== LwM2M Bootstrap Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryMessage, log.CategoryState, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Direction:")
	for _, dir := range []log.Direction{log.DirectionIn, log.DirectionOut} {
		if count := stats.EventsByDirection[dir]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", dir.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Sessions: %d\n", len(stats.Sessions))
	if len(stats.Sessions) > 0 {
		type sessionInfo struct {
			id    string
			stats *SessionStats
		}
		sessions := make([]sessionInfo, 0, len(stats.Sessions))
		for id, ss := range stats.Sessions {
			sessions = append(sessions, sessionInfo{id, ss})
		}
		sort.Slice(sessions, func(i, j int) bool {
			return sessions[i].stats.FirstSeen.Before(sessions[j].stats.FirstSeen)
		})

		fmt.Fprintln(w)
		for _, s := range sessions {
			duration := s.stats.LastSeen.Sub(s.stats.FirstSeen).Round(time.Millisecond)
			shortID := s.id
			if len(shortID) > 8 {
				shortID = shortID[:8]
			}
			fmt.Fprintf(w, "  [%s] %s: %d requests, duration %s\n", shortID, s.stats.Endpoint, s.stats.Requests, duration)
			if s.stats.Outcome != "" {
				if s.stats.FailureReason != "" {
					fmt.Fprintf(w, "           Outcome: %s (%s)\n", s.stats.Outcome, s.stats.FailureReason)
				} else {
					fmt.Fprintf(w, "           Outcome: %s\n", s.stats.Outcome)
				}
			}
			if s.stats.ErrorResponses > 0 {
				fmt.Fprintf(w, "           Error responses: %d\n", s.stats.ErrorResponses)
			}
		}
	}

	if stats.Unauthorized > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Unauthorized: %d\n", stats.Unauthorized)
	}
	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
