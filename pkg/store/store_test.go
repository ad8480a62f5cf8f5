package store_test

import (
	"bytes"
	"context"
	"database/sql"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwm2m-go/lwm2m/pkg/bootstrap"
	"github.com/lwm2m-go/lwm2m/pkg/endpoint"
	"github.com/lwm2m-go/lwm2m/pkg/node"
	"github.com/lwm2m-go/lwm2m/pkg/oscore"
	"github.com/lwm2m-go/lwm2m/pkg/store"
)

func ptr[T any](v T) *T { return &v }

func openDB(t *testing.T) (*store.DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "bs.db")
	db, err := store.Open(context.Background(), path, store.DefaultConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db, path
}

func params(rid []byte) oscore.Parameters {
	return oscore.Parameters{
		MasterSecret:  []byte("0123456789abcdef"),
		MasterSalt:    []byte{0x9e, 0x7c},
		SenderID:      []byte{},
		RecipientID:   rid,
		AEADAlgorithm: oscore.AlgAESCCM16_64_128,
		HMACAlgorithm: oscore.AlgHKDFSHA256,
	}
}

func TestParameters(t *testing.T) {
	db, _ := openDB(t)
	ctx := context.Background()

	require.NoError(t, db.PutParameters(ctx, "coap://bs.example.com", params([]byte{0x01})))

	got, ok := db.Parameters([]byte{0x01})
	require.True(t, ok)
	assert.True(t, params([]byte{0x01}).Equal(*got))
	assert.NotNil(t, got.SenderID, "empty sender id stays empty, not absent")

	rid, ok := db.RecipientID("coap://bs.example.com")
	require.True(t, ok)
	assert.Equal(t, []byte{0x01}, rid)

	_, ok = db.Parameters([]byte{0x02})
	assert.False(t, ok)
	_, ok = db.RecipientID("coap://unknown")
	assert.False(t, ok)

	_, err := db.LoadParameters(ctx, []byte{0x02})
	assert.ErrorIs(t, err, store.ErrNotFound)

	t.Run("ReplaceURI", func(t *testing.T) {
		require.NoError(t, db.PutParameters(ctx, "coap://bs.example.com", params([]byte{0x03})))
		_, ok := db.Parameters([]byte{0x01})
		assert.False(t, ok, "the previous entry for the uri is dropped")
		rid, ok := db.RecipientID("coap://bs.example.com")
		require.True(t, ok)
		assert.Equal(t, []byte{0x03}, rid)
	})

	t.Run("WithoutURI", func(t *testing.T) {
		require.NoError(t, db.PutParameters(ctx, "", params([]byte{0x04})))
		require.NoError(t, db.PutParameters(ctx, "", params([]byte{0x05})))
		_, ok := db.Parameters([]byte{0x04})
		assert.True(t, ok)
		_, ok = db.Parameters([]byte{0x05})
		assert.True(t, ok)
	})

	t.Run("Remove", func(t *testing.T) {
		require.NoError(t, db.RemoveParameters(ctx, []byte{0x03}))
		_, ok := db.Parameters([]byte{0x03})
		assert.False(t, ok)
		_, ok = db.RecipientID("coap://bs.example.com")
		assert.False(t, ok)
	})

	t.Run("MissingRecipientID", func(t *testing.T) {
		err := db.PutParameters(ctx, "coap://x", params(nil))
		assert.ErrorIs(t, err, oscore.ErrInvalidParameters)
	})
}

func TestParametersWithResolver(t *testing.T) {
	db, _ := openDB(t)
	require.NoError(t, db.PutParameters(context.Background(), "coap://dm", params([]byte{0x0a})))

	r := oscore.NewResolver(db, nil, oscore.DefaultResolverConfig())
	ctx, ok := r.ContextByURI("coap://dm")
	require.True(t, ok)
	assert.Equal(t, []byte{0x0a}, ctx.RecipientID())

	again, ok := r.Context([]byte{0x0a}, nil)
	require.True(t, ok)
	assert.Same(t, ctx, again)
}

func TestParametersLookupErrorLogged(t *testing.T) {
	var buf bytes.Buffer
	raw, err := sql.Open("sqlite", "file:"+filepath.Join(t.TempDir(), "bs.db"))
	require.NoError(t, err)
	require.NoError(t, raw.Close())

	closed := store.New(raw, store.Config{Logger: slog.New(slog.NewTextHandler(&buf, nil))})
	_, ok := closed.Parameters([]byte{0x01})
	assert.False(t, ok)
	assert.Contains(t, buf.String(), "oscore parameter lookup failed")
}

func sampleConfig() *bootstrap.Config {
	mode := endpoint.SecurityModePSK
	return &bootstrap.Config{
		ToDelete:                []string{"/0", "/1"},
		AutoIDForSecurityObject: true,
		ContentFormat:           ptr(bootstrap.ContentFormatSenMLCBOR),
		Security: map[uint16]bootstrap.ServerSecurity{
			0: {URI: ptr("coaps://bs"), BootstrapServer: true, SecurityMode: &mode,
				PublicKeyOrID: bootstrap.HexBytes("dev1"), SecretKey: bootstrap.HexBytes{1, 2, 3}},
			1: {URI: ptr("coap://dm"), ServerID: ptr[int64](101), CipherSuite: []uint64{49326}},
		},
		Servers: map[uint16]bootstrap.ServerConfig{
			0: {ShortID: 101, Lifetime: 300, Binding: ptr("U")},
		},
		ACLs: map[uint16]bootstrap.ACLConfig{
			0: {ObjectID: 3, ObjectInstanceID: 0, ACLs: map[uint16]int64{101: 31}},
		},
		Extensions: []bootstrap.ExtensionCollection{
			{ObjectID: bootstrap.ObjectConnectionIdentity, Instances: map[uint16]bootstrap.Extension{
				0: bootstrap.ConnectionIdentity{ID: ptr("conn"), PSKSecretKey: bootstrap.HexBytes{0xaa}},
			}},
			{ObjectID: 40000, Version: "1.1", Instances: map[uint16]bootstrap.Extension{
				2: bootstrap.ResourceMap{
					{ID: 0, Type: node.TypeString, Value: "hello"},
					{ID: 1, Type: node.TypeOpaque, Value: "cafe"},
				},
			}},
		},
	}
}

func TestConfig(t *testing.T) {
	db, _ := openDB(t)
	ctx := context.Background()
	cfg := sampleConfig()

	require.NoError(t, db.PutConfig(ctx, "dev1", cfg))
	loaded, err := db.LoadConfig(ctx, "dev1")
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	want, err := bootstrap.ToRequests(cfg, bootstrap.ContentFormatTLV)
	require.NoError(t, err)
	got, err := bootstrap.ToRequests(loaded, bootstrap.ContentFormatTLV)
	require.NoError(t, err)
	require.Equal(t, len(want), len(got))
	for i := range want {
		assert.Equal(t, want[i].String(), got[i].String())
	}

	t.Run("ConfigStore", func(t *testing.T) {
		found, err := db.Get(ctx, &bootstrap.Session{Endpoint: "dev1"})
		require.NoError(t, err)
		assert.NotNil(t, found)

		missing, err := db.Get(ctx, &bootstrap.Session{Endpoint: "dev9"})
		require.NoError(t, err)
		assert.Nil(t, missing)
	})

	t.Run("Replace", func(t *testing.T) {
		require.NoError(t, db.PutConfig(ctx, "dev1", &bootstrap.Config{ToDelete: []string{"/2"}}))
		loaded, err := db.LoadConfig(ctx, "dev1")
		require.NoError(t, err)
		assert.Equal(t, []string{"/2"}, loaded.ToDelete)
		assert.Nil(t, loaded.Security)
	})

	t.Run("Invalid", func(t *testing.T) {
		err := db.PutConfig(ctx, "dev2", &bootstrap.Config{ToDelete: []string{"/a"}})
		assert.ErrorIs(t, err, bootstrap.ErrInvalidConfig)
		assert.ErrorIs(t, db.PutConfig(ctx, "dev2", nil), bootstrap.ErrInvalidConfig)
	})

	t.Run("EndpointsAndDelete", func(t *testing.T) {
		require.NoError(t, db.PutConfig(ctx, "dev0", &bootstrap.Config{}))
		endpoints, err := db.Endpoints(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"dev0", "dev1"}, endpoints)

		require.NoError(t, db.DeleteConfig(ctx, "dev0"))
		assert.ErrorIs(t, db.DeleteConfig(ctx, "dev0"), store.ErrNotFound)
		_, err = db.LoadConfig(ctx, "dev0")
		assert.ErrorIs(t, err, store.ErrNotFound)
	})
}

func TestReopen(t *testing.T) {
	db, path := openDB(t)
	ctx := context.Background()
	require.NoError(t, db.PutConfig(ctx, "dev1", sampleConfig()))
	require.NoError(t, db.PutParameters(ctx, "coap://dm", params([]byte{0x01})))
	require.NoError(t, db.Close())

	reopened, err := store.Open(ctx, path, store.DefaultConfig())
	require.NoError(t, err)
	defer reopened.Close()

	cfg, err := reopened.LoadConfig(ctx, "dev1")
	require.NoError(t, err)
	assert.Equal(t, sampleConfig(), cfg)

	_, ok := reopened.Parameters([]byte{0x01})
	assert.True(t, ok)
}
