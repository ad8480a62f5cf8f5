package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"hermannm.dev/devlog"
)

// Environment variables read by the commands.
const (
	EnvDB       = "LWM2M_BS_DB"
	EnvLogLevel = "LWM2M_LOG_LEVEL"
)

var level slog.LevelVar

// Execute runs the root command.
func Execute() error {
	return NewRootCommand().Execute()
}

// NewRootCommand builds the command tree.
func NewRootCommand() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:          "lwm2m-bs",
		Short:        "LwM2M bootstrap configuration and log tool",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := loadDotEnv(".env"); err != nil {
				return err
			}
			if logLevel == "" {
				logLevel = getenv(EnvLogLevel, "info")
			}
			l, err := parseLevel(logLevel)
			if err != nil {
				return err
			}
			level.Set(l)
			slog.SetDefault(slog.New(devlog.NewHandler(cmd.ErrOrStderr(), &devlog.Options{Level: &level})))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error (env "+EnvLogLevel+")")

	root.AddCommand(
		planCmd(),
		configCmd(),
		identityCmd(),
		oscoreCmd(),
		logCmd(),
	)
	return root
}

// loadDotEnv loads path into the environment when it exists. Variables
// already set are kept.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func parseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", s)
	}
	return l, nil
}
