package bootstrap

import (
	"context"
	"errors"
	"log/slog"

	"github.com/lwm2m-go/lwm2m/pkg/node"
)

// ErrNoConfig is returned by config stores that report a missing
// configuration as an error.
var ErrNoConfig = errors.New("no bootstrap config")

// ConfigStore looks up the bootstrap configuration of a session.
// A missing configuration is reported as (nil, nil).
type ConfigStore interface {
	Get(ctx context.Context, s *Session) (*Config, error)
}

// TaskProviderConfig configures a ConfigStoreTaskProvider.
type TaskProviderConfig struct {
	// Logger receives warnings for abandoned sessions. Nil disables
	// logging.
	Logger *slog.Logger
}

// DefaultTaskProviderConfig returns a configuration without logging.
func DefaultTaskProviderConfig() TaskProviderConfig {
	return TaskProviderConfig{}
}

// ConfigStoreTaskProvider builds request batches from the configurations
// in a ConfigStore.
//
// Without auto id mode the whole configuration is sent in a single last
// batch. In auto id mode the first batch discovers the client's objects,
// and the second batch writes the Security entries around the instance
// the client already uses for the bootstrap server.
type ConfigStoreTaskProvider struct {
	store  ConfigStore
	config TaskProviderConfig
}

var _ TaskProvider = (*ConfigStoreTaskProvider)(nil)

// NewConfigStoreTaskProvider creates a provider reading from store.
func NewConfigStoreTaskProvider(store ConfigStore, config TaskProviderConfig) *ConfigStoreTaskProvider {
	return &ConfigStoreTaskProvider{store: store, config: config}
}

// Tasks returns the batch following previous, or nil when there is no
// configuration for s or the session must be abandoned.
func (p *ConfigStoreTaskProvider) Tasks(ctx context.Context, s *Session, previous []Response) *Tasks {
	cfg, err := p.store.Get(ctx, s)
	if err != nil {
		p.warn("bootstrap config lookup failed", s, "error", err)
		return nil
	}
	if cfg == nil {
		return nil
	}

	format := s.ContentFormat
	if cfg.ContentFormat != nil {
		format = *cfg.ContentFormat
	}
	objects := SupportedObjects(cfg)

	if previous == nil {
		if cfg.AutoIDForSecurityObject {
			return &Tasks{
				Requests:         []Request{DiscoverRequest{Path: node.Root()}},
				SupportedObjects: objects,
				Last:             false,
			}
		}
		requests, err := ToRequests(cfg, format)
		if err != nil {
			p.warn("bootstrap config invalid", s, "error", err)
			return nil
		}
		return &Tasks{Requests: requests, SupportedObjects: objects, Last: true}
	}

	discover, ok := discoverResponse(previous)
	if !ok {
		p.warn("bootstrap discover failed", s)
		return nil
	}
	bsID, ok := FindBootstrapServerInstanceID(discover.Links)
	if !ok {
		p.warn("bootstrap server security instance not found", s, "links", len(discover.Links))
		return nil
	}

	requests, err := ToRequestsWithBootstrapID(cfg, format, bsID)
	if err != nil {
		p.warn("bootstrap config invalid", s, "error", err)
		return nil
	}
	return &Tasks{Requests: requests, SupportedObjects: objects, Last: true}
}

func discoverResponse(previous []Response) (DiscoverResponse, bool) {
	if len(previous) == 0 {
		return DiscoverResponse{}, false
	}
	var resp DiscoverResponse
	switch r := previous[0].(type) {
	case DiscoverResponse:
		resp = r
	case *DiscoverResponse:
		if r == nil {
			return DiscoverResponse{}, false
		}
		resp = *r
	default:
		return DiscoverResponse{}, false
	}
	return resp, resp.IsSuccess()
}

func (p *ConfigStoreTaskProvider) warn(msg string, s *Session, args ...any) {
	if p.config.Logger == nil {
		return
	}
	args = append([]any{"session", s.ID, "endpoint", s.Endpoint}, args...)
	p.config.Logger.Warn(msg, args...)
}
