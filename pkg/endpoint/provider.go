package endpoint

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lwm2m-go/lwm2m/pkg/identity"
	"github.com/lwm2m-go/lwm2m/pkg/persistence"
)

// ProviderConfig configures a Provider.
type ProviderConfig struct {
	// Logger is used for connection events. Nil disables logging.
	Logger *slog.Logger

	// State, when set, records the active server so that it can be
	// restored after a restart.
	State *persistence.StateStore
}

// Provider connects server descriptions to the identity extractor.
type Provider struct {
	extractor *Extractor
	config    ProviderConfig
}

// NewProvider creates a provider binding servers on extractor.
func NewProvider(extractor *Extractor, config ProviderConfig) *Provider {
	return &Provider{extractor: extractor, config: config}
}

// Extractor returns the extractor the provider binds on.
func (p *Provider) Extractor() *Extractor {
	return p.extractor
}

// Activate computes the identity of the server described by info, binds it
// to ep and returns it. The previous binding is replaced.
func (p *Provider) Activate(ctx context.Context, ep Endpoint, info ServerInfo) (identity.Server, error) {
	server, err := ServerIdentityFor(ctx, info)
	if err != nil {
		return identity.Server{}, err
	}
	p.extractor.Bind(ep, server)

	if p.config.State != nil {
		state := &persistence.ClientState{
			Servers: []persistence.ServerRecord{persistence.NewServerRecord(server)},
		}
		if err := p.config.State.Save(state); err != nil {
			return server, fmt.Errorf("save client state: %w", err)
		}
	}

	p.infoLog("server activated", "server", server.String(), "identity", server.Peer.String())
	return server, nil
}

// Deactivate removes the current binding and forgets the saved server.
func (p *Provider) Deactivate() error {
	p.extractor.Unbind()
	if p.config.State != nil {
		if err := p.config.State.Clear(); err != nil {
			return fmt.Errorf("clear client state: %w", err)
		}
	}
	return nil
}

// Restore binds the server saved by a previous Activate to ep. It reports
// false when nothing was saved.
func (p *Provider) Restore(ep Endpoint) (identity.Server, bool, error) {
	if p.config.State == nil {
		return identity.Server{}, false, nil
	}
	state, err := p.config.State.Load()
	if err != nil {
		return identity.Server{}, false, fmt.Errorf("load client state: %w", err)
	}
	if state == nil || len(state.Servers) == 0 {
		return identity.Server{}, false, nil
	}

	server, err := state.Servers[0].Server()
	if err != nil {
		return identity.Server{}, false, err
	}
	p.extractor.Bind(ep, server)
	p.infoLog("server restored", "server", server.String())
	return server, true, nil
}

func (p *Provider) infoLog(msg string, args ...any) {
	if p.config.Logger != nil {
		p.config.Logger.Info(msg, args...)
	}
}
