package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/lwm2m-go/lwm2m/pkg/bootstrap"
	"github.com/lwm2m-go/lwm2m/pkg/store"
)

func configCmd() *cobra.Command {
	var dbPath string

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage bootstrap configurations in a sqlite database",
	}
	cmd.PersistentFlags().StringVar(&dbPath, "db", "", "sqlite database (env "+EnvDB+")")

	withDB := func(run func(ctx context.Context, db *store.DB, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
		return func(cmd *cobra.Command, args []string) error {
			db, err := openDB(cmd.Context(), dbPath)
			if err != nil {
				return err
			}
			defer db.Close()
			return run(cmd.Context(), db, cmd, args)
		}
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "put <endpoint> <config-file>",
			Short: "Store the configuration of an endpoint",
			Args:  cobra.ExactArgs(2),
			RunE: withDB(func(ctx context.Context, db *store.DB, cmd *cobra.Command, args []string) error {
				return RunConfigPut(ctx, db, args[0], args[1], cmd.OutOrStdout())
			}),
		},
		&cobra.Command{
			Use:   "show <endpoint>",
			Short: "Print the configuration of an endpoint as YAML",
			Args:  cobra.ExactArgs(1),
			RunE: withDB(func(ctx context.Context, db *store.DB, cmd *cobra.Command, args []string) error {
				return RunConfigShow(ctx, db, args[0], cmd.OutOrStdout())
			}),
		},
		&cobra.Command{
			Use:   "list",
			Short: "List configured endpoints",
			Args:  cobra.NoArgs,
			RunE: withDB(func(ctx context.Context, db *store.DB, cmd *cobra.Command, _ []string) error {
				return RunConfigList(ctx, db, cmd.OutOrStdout())
			}),
		},
		&cobra.Command{
			Use:   "delete <endpoint>",
			Short: "Delete the configuration of an endpoint",
			Args:  cobra.ExactArgs(1),
			RunE: withDB(func(ctx context.Context, db *store.DB, cmd *cobra.Command, args []string) error {
				return db.DeleteConfig(ctx, args[0])
			}),
		},
	)
	return cmd
}

// openDB opens the database at path, falling back to the environment.
func openDB(ctx context.Context, path string) (*store.DB, error) {
	if path == "" {
		path = getenv(EnvDB, "")
	}
	if path == "" {
		return nil, fmt.Errorf("no database: use --db or set %s", EnvDB)
	}
	config := store.DefaultConfig()
	config.Logger = slog.Default()
	return store.Open(ctx, path, config)
}

// RunConfigPut loads the configuration file at path and stores it for
// endpoint.
func RunConfigPut(ctx context.Context, db *store.DB, endpoint, path string, w io.Writer) error {
	cfg, err := bootstrap.LoadFile(path)
	if err != nil {
		return err
	}
	if err := db.PutConfig(ctx, endpoint, cfg); err != nil {
		return err
	}
	fmt.Fprintf(w, "Stored configuration for %s\n", endpoint)
	return nil
}

// RunConfigShow writes the configuration of endpoint as YAML.
func RunConfigShow(ctx context.Context, db *store.DB, endpoint string, w io.Writer) error {
	cfg, err := db.LoadConfig(ctx, endpoint)
	if err != nil {
		return fmt.Errorf("%s: %w", endpoint, err)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return enc.Close()
}

// RunConfigList writes one endpoint per line.
func RunConfigList(ctx context.Context, db *store.DB, w io.Writer) error {
	endpoints, err := db.Endpoints(ctx)
	if err != nil {
		return err
	}
	for _, ep := range endpoints {
		fmt.Fprintln(w, ep)
	}
	return nil
}
