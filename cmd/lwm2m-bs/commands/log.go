package commands

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/lwm2m-go/lwm2m/pkg/log"
)

// LogFilterOptions are the filter flags shared by the log subcommands.
type LogFilterOptions struct {
	SessionID string
	Endpoint  string
	TimeStart string
	TimeEnd   string
	Direction string
	Category  string
}

// Filter converts the flags to a log.Filter.
func (o LogFilterOptions) Filter() (log.Filter, error) {
	filter := log.Filter{
		SessionID: o.SessionID,
		Endpoint:  o.Endpoint,
	}

	if o.TimeStart != "" {
		t, err := time.Parse(time.RFC3339, o.TimeStart)
		if err != nil {
			return filter, fmt.Errorf("invalid time-start format: %w", err)
		}
		filter.TimeStart = &t
	}
	if o.TimeEnd != "" {
		t, err := time.Parse(time.RFC3339, o.TimeEnd)
		if err != nil {
			return filter, fmt.Errorf("invalid time-end format: %w", err)
		}
		filter.TimeEnd = &t
	}
	if o.Direction != "" {
		d, err := ParseDirectionFlag(o.Direction)
		if err != nil {
			return filter, err
		}
		filter.Direction = &d
	}
	if o.Category != "" {
		c, err := ParseCategoryFlag(o.Category)
		if err != nil {
			return filter, err
		}
		filter.Category = &c
	}
	return filter, nil
}

func (o *LogFilterOptions) flags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&o.SessionID, "session", "", "only events of this session")
	cmd.Flags().StringVar(&o.Endpoint, "endpoint", "", "only events of this endpoint")
	cmd.Flags().StringVar(&o.TimeStart, "time-start", "", "only events at or after this time (RFC 3339)")
	cmd.Flags().StringVar(&o.TimeEnd, "time-end", "", "only events before this time (RFC 3339)")
	cmd.Flags().StringVar(&o.Direction, "direction", "", "only events in this direction: in or out")
	cmd.Flags().StringVar(&o.Category, "category", "", "only events of this category: message, state or error")
}

func logCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "log",
		Short: "View, export, filter and summarize session logs",
	}

	var viewOpts LogFilterOptions
	view := &cobra.Command{
		Use:   "view <file>",
		Short: "View a session log in human-readable format",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			filter, err := viewOpts.Filter()
			if err != nil {
				return err
			}
			return RunView(args[0], filter, cmd.OutOrStdout())
		},
	}
	viewOpts.flags(view)

	var format, output string
	export := &cobra.Command{
		Use:   "export <file>",
		Short: "Export a session log to JSONL or CSV",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunExport(args[0], format, output, cmd.OutOrStdout())
		},
	}
	export.Flags().StringVarP(&format, "format", "f", "jsonl", "output format: jsonl or csv")
	export.Flags().StringVarP(&output, "output", "o", "", "output file (default stdout)")

	var filterOpts FilterOptions
	filter := &cobra.Command{
		Use:   "filter <file>",
		Short: "Write the matching events of a session log to a new file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunFilter(args[0], filterOpts, cmd.OutOrStdout())
		},
	}
	filterOpts.flags(filter)
	filter.Flags().StringVarP(&filterOpts.Output, "output", "o", "", "output file")
	_ = filter.MarkFlagRequired("output")

	stats := &cobra.Command{
		Use:   "stats <file>",
		Short: "Show statistics about a session log",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return RunStats(args[0], cmd.OutOrStdout())
		},
	}

	cmd.AddCommand(view, export, filter, stats)
	return cmd
}

// ParseDirectionFlag parses a direction string (case-insensitive).
func ParseDirectionFlag(s string) (log.Direction, error) {
	switch strings.ToLower(s) {
	case "in":
		return log.DirectionIn, nil
	case "out":
		return log.DirectionOut, nil
	default:
		return 0, fmt.Errorf("invalid direction: %s (must be in or out)", s)
	}
}

// ParseCategoryFlag parses a category string (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	switch strings.ToLower(s) {
	case "message":
		return log.CategoryMessage, nil
	case "state":
		return log.CategoryState, nil
	case "error":
		return log.CategoryError, nil
	default:
		return 0, fmt.Errorf("invalid category: %s (must be message, state, or error)", s)
	}
}
