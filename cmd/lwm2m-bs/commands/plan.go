package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lwm2m-go/lwm2m/pkg/bootstrap"
	"github.com/lwm2m-go/lwm2m/pkg/identity"
	"github.com/lwm2m-go/lwm2m/pkg/link"
	"github.com/lwm2m-go/lwm2m/pkg/log"
)

// DefaultDiscoverPayload is what the simulated client answers to a
// Discover when no payload is given: a single bootstrap server Security
// instance at id 0.
const DefaultDiscoverPayload = "</0/0>"

// PlanOptions configures a planned session.
type PlanOptions struct {
	Endpoint string

	// ContentFormat is the format the client asks for, empty for the
	// server default.
	ContentFormat string

	// Discover is the link payload the simulated client answers a Discover
	// with.
	Discover string

	// Events, when set, is the path of a session log to write.
	Events string
}

func planCmd() *cobra.Command {
	var (
		opts   PlanOptions
		dbPath string
	)
	cmd := &cobra.Command{
		Use:   "plan [config-file]",
		Short: "Print the requests a bootstrap session would send",
		Long: `Plan runs a bootstrap session against a simulated client that accepts
every request and prints what is sent.

The configuration is read from config-file, or from the database for
--endpoint when no file is given. The endpoint defaults to the file name
without its extension.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			var store bootstrap.ConfigStore
			if len(args) == 1 {
				cfg, err := bootstrap.LoadFile(args[0])
				if err != nil {
					return err
				}
				if opts.Endpoint == "" {
					opts.Endpoint = strings.TrimSuffix(filepath.Base(args[0]), filepath.Ext(args[0]))
				}
				mem := bootstrap.NewMemoryStore()
				if err := mem.Put(opts.Endpoint, cfg); err != nil {
					return err
				}
				store = mem
			} else {
				if opts.Endpoint == "" {
					return fmt.Errorf("either a config file or --endpoint is required")
				}
				db, err := openDB(ctx, dbPath)
				if err != nil {
					return err
				}
				defer db.Close()
				store = db
			}
			return RunPlan(ctx, store, opts, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVarP(&opts.Endpoint, "endpoint", "e", "", "client endpoint name")
	cmd.Flags().StringVar(&opts.ContentFormat, "format", "", "content format preferred by the client (name or number)")
	cmd.Flags().StringVar(&opts.Discover, "discover", DefaultDiscoverPayload, "link payload answering a Discover")
	cmd.Flags().StringVar(&opts.Events, "events", "", "write a session log to this file")
	cmd.Flags().StringVar(&dbPath, "db", "", "sqlite database (env "+EnvDB+")")
	return cmd
}

// RunPlan runs a session for opts.Endpoint against a simulated client and
// writes the requests sent to w.
func RunPlan(ctx context.Context, store bootstrap.ConfigStore, opts PlanOptions, w io.Writer) error {
	links, err := link.Parse(opts.Discover)
	if err != nil {
		return fmt.Errorf("invalid discover payload: %w", err)
	}

	req := bootstrap.BootstrapRequest{Endpoint: opts.Endpoint}
	if opts.ContentFormat != "" {
		f, err := bootstrap.ParseContentFormat(opts.ContentFormat)
		if err != nil {
			return err
		}
		req.PreferredContentFormat = &f
	}

	client, err := identity.NewPSK(opts.Endpoint)
	if err != nil {
		return err
	}

	sinks := []log.Logger{log.NewSlogAdapter(slog.Default())}
	if opts.Events != "" {
		events, err := log.NewFileLogger(opts.Events)
		if err != nil {
			return fmt.Errorf("failed to create event log: %w", err)
		}
		defer events.Close()
		sinks = append(sinks, events)
	}
	listeners := bootstrap.Listeners{
		&planPrinter{w: w},
		bootstrap.NewEventLogger(log.NewMultiLogger(sinks...)),
	}

	provider := bootstrap.NewConfigStoreTaskProvider(store, bootstrap.TaskProviderConfig{Logger: slog.Default()})
	config := bootstrap.DefaultManagerConfig()
	config.Logger = slog.Default()
	manager := bootstrap.NewManager(provider, nil, listeners, config)

	s := manager.Begin(ctx, req, client)
	return manager.Run(ctx, s, simulatedClient(links))
}

// simulatedClient accepts every request and answers Discover with links.
func simulatedClient(links []link.Link) bootstrap.Sender {
	return bootstrap.SenderFunc(func(_ context.Context, req bootstrap.Request) (bootstrap.Response, error) {
		switch req.Kind() {
		case bootstrap.KindDiscover:
			return bootstrap.DiscoverResponse{Status: bootstrap.CodeContent, Links: links}, nil
		case bootstrap.KindDelete:
			return bootstrap.GenericResponse{Status: bootstrap.CodeDeleted}, nil
		default:
			return bootstrap.GenericResponse{Status: bootstrap.CodeChanged}, nil
		}
	})
}

// planPrinter writes one line per request.
type planPrinter struct {
	bootstrap.ListenerAdapter
	w     io.Writer
	count int
}

func (p *planPrinter) Authorized(s *bootstrap.Session) {
	fmt.Fprintf(p.w, "Session %s for %s (%s)\n", s.ID, s.Endpoint, s.ContentFormat)
}

func (p *planPrinter) NoConfig(s *bootstrap.Session) {
	fmt.Fprintf(p.w, "No bootstrap configuration for %s\n", s.Endpoint)
}

func (p *planPrinter) SendRequest(_ *bootstrap.Session, req bootstrap.Request) {
	p.count++
	fmt.Fprintf(p.w, "%3d  %s\n", p.count, req)
}

func (p *planPrinter) ResponseSuccess(_ *bootstrap.Session, req bootstrap.Request, resp bootstrap.Response) {
	if d, ok := resp.(bootstrap.DiscoverResponse); ok {
		fmt.Fprintf(p.w, "     <- %s %s\n", d.Code(), link.Format(d.Links))
	}
}

func (p *planPrinter) ResponseError(_ *bootstrap.Session, _ bootstrap.Request, resp bootstrap.Response) {
	fmt.Fprintf(p.w, "     <- %s\n", resp.Code())
}

func (p *planPrinter) End(*bootstrap.Session) {
	fmt.Fprintf(p.w, "Finished after %d requests\n", p.count)
}

func (p *planPrinter) Failed(_ *bootstrap.Session, cause bootstrap.FailureCause) {
	fmt.Fprintf(p.w, "Failed: %s\n", cause)
}
