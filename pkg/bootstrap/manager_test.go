package bootstrap_test

import (
	"context"
	"errors"
	"fmt"
	"net/netip"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lwm2m-go/lwm2m/pkg/bootstrap"
	"github.com/lwm2m-go/lwm2m/pkg/bootstrap/mocks"
	"github.com/lwm2m-go/lwm2m/pkg/identity"
)

// recorder is a Listener recording the calls it gets.
type recorder struct {
	mu    sync.Mutex
	calls []string
}

func (r *recorder) add(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, fmt.Sprintf(format, args...))
}

func (r *recorder) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

func (r *recorder) SessionInitiated(req bootstrap.BootstrapRequest, _ identity.Peer) {
	r.add("initiated %s", req.Endpoint)
}

func (r *recorder) Unauthorized(req bootstrap.BootstrapRequest, _ identity.Peer) {
	r.add("unauthorized %s", req.Endpoint)
}

func (r *recorder) Authorized(s *bootstrap.Session) { r.add("authorized %s", s.Endpoint) }
func (r *recorder) NoConfig(s *bootstrap.Session)   { r.add("noconfig %s", s.Endpoint) }

func (r *recorder) SendRequest(_ *bootstrap.Session, req bootstrap.Request) {
	r.add("send %s %s", req.Kind(), req.Target())
}

func (r *recorder) ResponseSuccess(_ *bootstrap.Session, req bootstrap.Request, resp bootstrap.Response) {
	r.add("success %s %s", req.Kind(), resp.Code())
}

func (r *recorder) ResponseError(_ *bootstrap.Session, req bootstrap.Request, resp bootstrap.Response) {
	r.add("error %s %s", req.Kind(), resp.Code())
}

func (r *recorder) RequestFailure(_ *bootstrap.Session, req bootstrap.Request, err error) {
	r.add("failure %s", req.Kind())
}

func (r *recorder) End(s *bootstrap.Session) { r.add("end %s", s.Endpoint) }

func (r *recorder) Failed(_ *bootstrap.Session, cause bootstrap.FailureCause) {
	r.add("failed %s", cause)
}

var _ bootstrap.Listener = (*recorder)(nil)

func pskClient(t *testing.T) identity.Peer {
	t.Helper()
	p, err := identity.NewPSK("dev1-psk")
	require.NoError(t, err)
	return p
}

func request(endpoint string) bootstrap.BootstrapRequest {
	return bootstrap.BootstrapRequest{
		Endpoint: endpoint,
		Source:   netip.MustParseAddrPort("192.0.2.1:5684"),
	}
}

func memoryProvider(t *testing.T, endpoint string, cfg *bootstrap.Config) bootstrap.TaskProvider {
	t.Helper()
	store := bootstrap.NewMemoryStore()
	require.NoError(t, store.Put(endpoint, cfg))
	return bootstrap.NewConfigStoreTaskProvider(store, bootstrap.DefaultTaskProviderConfig())
}

func okResponse(req bootstrap.Request) bootstrap.Response {
	switch req.Kind() {
	case bootstrap.KindDelete:
		return bootstrap.GenericResponse{Status: bootstrap.CodeDeleted}
	case bootstrap.KindFinish:
		return bootstrap.GenericResponse{Status: bootstrap.CodeChanged}
	default:
		return bootstrap.GenericResponse{Status: bootstrap.CodeChanged}
	}
}

func TestManagerBegin(t *testing.T) {
	rec := &recorder{}
	deny := bootstrap.AuthorizerFunc(func(_ context.Context, req bootstrap.BootstrapRequest, _ identity.Peer) bool {
		return req.Endpoint != "intruder"
	})
	m := bootstrap.NewManager(memoryProvider(t, "dev1", &bootstrap.Config{}), deny, rec, bootstrap.DefaultManagerConfig())

	s := m.Begin(context.Background(), request("dev1"), pskClient(t))
	assert.True(t, s.Authorized())
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, bootstrap.ContentFormatTLV, s.ContentFormat)

	other := m.Begin(context.Background(), request("dev1"), pskClient(t))
	assert.NotEqual(t, s.ID, other.ID)

	denied := m.Begin(context.Background(), request("intruder"), pskClient(t))
	assert.False(t, denied.Authorized())

	err := m.Run(context.Background(), denied, mocks.NewMockSender(t))
	assert.ErrorIs(t, err, bootstrap.ErrUnauthorized)

	assert.Equal(t, []string{
		"initiated dev1", "authorized dev1",
		"initiated dev1", "authorized dev1",
		"initiated intruder", "unauthorized intruder",
		"failed UNAUTHORIZED",
	}, rec.Calls())
}

func TestManagerPreferredContentFormat(t *testing.T) {
	m := bootstrap.NewManager(memoryProvider(t, "dev1", &bootstrap.Config{}), nil, nil, bootstrap.DefaultManagerConfig())
	req := request("dev1")
	req.PreferredContentFormat = ptr(bootstrap.ContentFormatSenMLJSON)

	s := m.Begin(context.Background(), req, pskClient(t))
	assert.Equal(t, bootstrap.ContentFormatSenMLJSON, s.ContentFormat)
}

func TestManagerNoConfig(t *testing.T) {
	rec := &recorder{}
	m := bootstrap.NewManager(memoryProvider(t, "dev1", &bootstrap.Config{}), nil, rec, bootstrap.DefaultManagerConfig())

	s := m.Begin(context.Background(), request("dev2"), pskClient(t))
	assert.False(t, m.HasConfigFor(context.Background(), s))

	err := m.Run(context.Background(), s, mocks.NewMockSender(t))
	assert.ErrorIs(t, err, bootstrap.ErrNoConfig)
	assert.Equal(t, []string{
		"initiated dev2", "authorized dev2",
		"noconfig dev2", "failed NO_BOOTSTRAP_CONFIG",
	}, rec.Calls())
}

func TestManagerConfigLookedUpOnce(t *testing.T) {
	tests := []struct {
		name  string
		tasks *bootstrap.Tasks
	}{
		{"NoConfig", nil},
		{"Config", &bootstrap.Tasks{Last: true}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			provider := bootstrap.TaskProviderFunc(func(context.Context, *bootstrap.Session, []bootstrap.Response) *bootstrap.Tasks {
				calls++
				return tt.tasks
			})
			rec := &recorder{}
			m := bootstrap.NewManager(provider, nil, rec, bootstrap.DefaultManagerConfig())

			s := m.Begin(context.Background(), request("dev1"), pskClient(t))
			want := tt.tasks != nil
			assert.Equal(t, want, m.HasConfigFor(context.Background(), s))
			assert.Equal(t, want, m.HasConfigFor(context.Background(), s))
			assert.Equal(t, 1, calls)

			if want {
				return
			}
			err := m.Run(context.Background(), s, mocks.NewMockSender(t))
			assert.ErrorIs(t, err, bootstrap.ErrNoConfig)
			assert.Equal(t, 1, calls)
			assert.Equal(t, []string{
				"initiated dev1", "authorized dev1",
				"noconfig dev1", "failed NO_BOOTSTRAP_CONFIG",
			}, rec.Calls())
		})
	}
}

func TestManagerRunSingleTurn(t *testing.T) {
	cfg := &bootstrap.Config{
		ToDelete: []string{"/0"},
		Security: map[uint16]bootstrap.ServerSecurity{0: {URI: ptr("coap://dm")}},
		Servers:  map[uint16]bootstrap.ServerConfig{0: {ShortID: 1, Lifetime: 60}},
	}
	rec := &recorder{}
	m := bootstrap.NewManager(memoryProvider(t, "dev1", cfg), nil, rec, bootstrap.DefaultManagerConfig())
	s := m.Begin(context.Background(), request("dev1"), pskClient(t))
	require.True(t, m.HasConfigFor(context.Background(), s))

	sender := mocks.NewMockSender(t)
	sender.EXPECT().Send(mock.Anything, mock.Anything).RunAndReturn(func(_ context.Context, req bootstrap.Request) (bootstrap.Response, error) {
		return okResponse(req), nil
	}).Times(4)

	require.NoError(t, m.Run(context.Background(), s, sender))
	assert.Equal(t, []string{
		"initiated dev1", "authorized dev1",
		"send DELETE /0", "success DELETE 2.02",
		"send WRITE /0/0", "success WRITE 2.04",
		"send WRITE /1/0", "success WRITE 2.04",
		"send FINISH /", "success FINISH 2.04",
		"end dev1",
	}, rec.Calls())
}

func TestManagerRunAutoID(t *testing.T) {
	cfg := &bootstrap.Config{
		AutoIDForSecurityObject: true,
		Security: map[uint16]bootstrap.ServerSecurity{
			0: {URI: ptr("coaps://bs"), BootstrapServer: true},
			1: {URI: ptr("coap://dm")},
		},
	}
	m := bootstrap.NewManager(memoryProvider(t, "dev1", cfg), nil, nil, bootstrap.DefaultManagerConfig())
	s := m.Begin(context.Background(), request("dev1"), pskClient(t))

	var written []string
	sender := bootstrap.SenderFunc(func(_ context.Context, req bootstrap.Request) (bootstrap.Response, error) {
		switch r := req.(type) {
		case bootstrap.DiscoverRequest:
			return discovered(t, `</0/0>;ssid=1,</0/4>`), nil
		case bootstrap.WriteRequest:
			written = append(written, r.Path.String())
		}
		return okResponse(req), nil
	})

	require.NoError(t, m.Run(context.Background(), s, sender))
	assert.Equal(t, []string{"/0/4", "/0/0"}, written)
}

func TestManagerRunFailures(t *testing.T) {
	cfg := &bootstrap.Config{
		ToDelete: []string{"/0"},
		Security: map[uint16]bootstrap.ServerSecurity{0: {URI: ptr("coap://dm")}},
	}

	tests := []struct {
		name      string
		send      func(req bootstrap.Request) (bootstrap.Response, error)
		wantErr   error
		wantCause string
	}{
		{
			name: "TransportError",
			send: func(req bootstrap.Request) (bootstrap.Response, error) {
				if req.Kind() == bootstrap.KindWrite {
					return nil, errors.New("timeout")
				}
				return okResponse(req), nil
			},
			wantErr:   bootstrap.ErrRequestFailed,
			wantCause: "failed SEND_REQUEST_FAILED",
		},
		{
			name: "WriteRejected",
			send: func(req bootstrap.Request) (bootstrap.Response, error) {
				if req.Kind() == bootstrap.KindWrite {
					return bootstrap.GenericResponse{Status: bootstrap.CodeBadRequest}, nil
				}
				return okResponse(req), nil
			},
			wantErr:   bootstrap.ErrRequestFailed,
			wantCause: "failed REQUEST_FAILED",
		},
		{
			name: "FinishRejected",
			send: func(req bootstrap.Request) (bootstrap.Response, error) {
				if req.Kind() == bootstrap.KindFinish {
					return bootstrap.GenericResponse{Status: bootstrap.CodeNotAcceptable}, nil
				}
				return okResponse(req), nil
			},
			wantErr:   bootstrap.ErrFinishFailed,
			wantCause: "failed FINISH_FAILED",
		},
		{
			name: "FinishTransportError",
			send: func(req bootstrap.Request) (bootstrap.Response, error) {
				if req.Kind() == bootstrap.KindFinish {
					return nil, errors.New("reset")
				}
				return okResponse(req), nil
			},
			wantErr:   bootstrap.ErrRequestFailed,
			wantCause: "failed FINISH_FAILED",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			m := bootstrap.NewManager(memoryProvider(t, "dev1", cfg), nil, rec, bootstrap.DefaultManagerConfig())
			s := m.Begin(context.Background(), request("dev1"), pskClient(t))

			err := m.Run(context.Background(), s, bootstrap.SenderFunc(func(_ context.Context, req bootstrap.Request) (bootstrap.Response, error) {
				return tt.send(req)
			}))
			assert.ErrorIs(t, err, tt.wantErr)

			calls := rec.Calls()
			assert.Equal(t, tt.wantCause, calls[len(calls)-1])
			assert.NotContains(t, calls, "end dev1")
		})
	}
}

func TestManagerRunDeleteErrorContinues(t *testing.T) {
	cfg := &bootstrap.Config{ToDelete: []string{"/0/9"}}
	rec := &recorder{}
	m := bootstrap.NewManager(memoryProvider(t, "dev1", cfg), nil, rec, bootstrap.DefaultManagerConfig())
	s := m.Begin(context.Background(), request("dev1"), pskClient(t))

	err := m.Run(context.Background(), s, bootstrap.SenderFunc(func(_ context.Context, req bootstrap.Request) (bootstrap.Response, error) {
		if req.Kind() == bootstrap.KindDelete {
			return bootstrap.GenericResponse{Status: bootstrap.CodeNotFound}, nil
		}
		return okResponse(req), nil
	}))
	require.NoError(t, err)
	assert.Contains(t, rec.Calls(), "error DELETE 4.04")
	assert.Contains(t, rec.Calls(), "end dev1")
}

func TestManagerRunDiscoverFailure(t *testing.T) {
	cfg := &bootstrap.Config{
		AutoIDForSecurityObject: true,
		Security:                map[uint16]bootstrap.ServerSecurity{0: {BootstrapServer: true}},
	}
	rec := &recorder{}
	m := bootstrap.NewManager(memoryProvider(t, "dev1", cfg), nil, rec, bootstrap.DefaultManagerConfig())
	s := m.Begin(context.Background(), request("dev1"), pskClient(t))

	err := m.Run(context.Background(), s, bootstrap.SenderFunc(func(context.Context, bootstrap.Request) (bootstrap.Response, error) {
		return bootstrap.DiscoverResponse{Status: bootstrap.CodeMethodNotAllowed}, nil
	}))
	assert.ErrorIs(t, err, bootstrap.ErrNoTasks)
	calls := rec.Calls()
	assert.Equal(t, "failed INTERNAL_SERVER_ERROR", calls[len(calls)-1])
}

func TestManagerRunCancelled(t *testing.T) {
	cfg := &bootstrap.Config{
		Security: map[uint16]bootstrap.ServerSecurity{0: {}, 1: {}, 2: {}},
	}

	t.Run("Session", func(t *testing.T) {
		rec := &recorder{}
		m := bootstrap.NewManager(memoryProvider(t, "dev1", cfg), nil, rec, bootstrap.DefaultManagerConfig())
		s := m.Begin(context.Background(), request("dev1"), pskClient(t))

		sender := mocks.NewMockSender(t)
		sender.EXPECT().Send(mock.Anything, mock.Anything).RunAndReturn(func(_ context.Context, req bootstrap.Request) (bootstrap.Response, error) {
			s.Cancel()
			return okResponse(req), nil
		}).Once()

		err := m.Run(context.Background(), s, sender)
		assert.ErrorIs(t, err, bootstrap.ErrCancelled)
		assert.True(t, s.Cancelled())
		calls := rec.Calls()
		assert.Equal(t, "failed CANCELLED", calls[len(calls)-1])
	})

	t.Run("Context", func(t *testing.T) {
		m := bootstrap.NewManager(memoryProvider(t, "dev1", cfg), nil, nil, bootstrap.DefaultManagerConfig())
		s := m.Begin(context.Background(), request("dev1"), pskClient(t))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		err := m.Run(ctx, s, mocks.NewMockSender(t))
		assert.ErrorIs(t, err, bootstrap.ErrCancelled)
		assert.ErrorIs(t, err, context.Canceled)
	})
}

func TestManagerConcurrentSessions(t *testing.T) {
	store := bootstrap.NewMemoryStore()
	for i := 0; i < 8; i++ {
		require.NoError(t, store.Put(fmt.Sprintf("dev%d", i), &bootstrap.Config{
			Security: map[uint16]bootstrap.ServerSecurity{0: {URI: ptr(fmt.Sprintf("coap://dm%d", i))}},
		}))
	}
	m := bootstrap.NewManager(bootstrap.NewConfigStoreTaskProvider(store, bootstrap.DefaultTaskProviderConfig()),
		nil, nil, bootstrap.DefaultManagerConfig())

	client := pskClient(t)
	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s := m.Begin(context.Background(), request(fmt.Sprintf("dev%d", i)), client)
			errs <- m.Run(context.Background(), s, bootstrap.SenderFunc(func(_ context.Context, req bootstrap.Request) (bootstrap.Response, error) {
				return okResponse(req), nil
			}))
		}(i)
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		assert.NoError(t, err)
	}
}
