package commands

import (
	"bytes"
	"context"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwm2m-go/lwm2m/pkg/oscore"
)

// rfc8613Client holds the client parameters of RFC 8613 Appendix C.1.1.
var rfc8613Client = OSCOREOptions{
	MasterSecret: "0102030405060708090a0b0c0d0e0f10",
	MasterSalt:   "9e7ca92223786340",
	SenderID:     "",
	RecipientID:  "01",
	AEAD:         int(oscore.AlgAESCCM16_64_128),
	HKDF:         int(oscore.AlgHKDFSHA256),
}

func TestRunOSCOREDerive(t *testing.T) {
	var out bytes.Buffer
	require.NoError(t, RunOSCOREDerive(rfc8613Client, &out))

	s := out.String()
	assert.Contains(t, s, "AEAD:          AES-CCM-16-64-128\n")
	assert.Contains(t, s, "Sender Key:    f0910ed7295e6ad4b54fc793154302ff\n")
	assert.Contains(t, s, "Recipient Key: ffb14e093c94c9cac9471648b4f98710\n")
	assert.Contains(t, s, "Common IV:     4622d4dd6d944168eefb54987c\n")
}

func TestRunOSCOREDeriveIDContext(t *testing.T) {
	opts := rfc8613Client
	opts.IDContext = "37cbf3210017a2d3"

	var out bytes.Buffer
	require.NoError(t, RunOSCOREDerive(opts, &out))
	assert.NotContains(t, out.String(), "f0910ed7295e6ad4b54fc793154302ff")
}

func TestRunOSCOREDeriveErrors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*OSCOREOptions)
	}{
		{"BadSecretHex", func(o *OSCOREOptions) { o.MasterSecret = "xyz" }},
		{"EmptySecret", func(o *OSCOREOptions) { o.MasterSecret = "" }},
		{"BadIDContext", func(o *OSCOREOptions) { o.IDContext = "0" }},
		{"UnknownAEAD", func(o *OSCOREOptions) { o.AEAD = 99 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := rfc8613Client
			tt.mutate(&opts)
			var out bytes.Buffer
			if err := RunOSCOREDerive(opts, &out); err == nil {
				t.Errorf("RunOSCOREDerive() error = nil, want error")
			}
		})
	}
}

func TestRunOSCOREPut(t *testing.T) {
	ctx := context.Background()
	db, _ := openTestDB(t)

	var out bytes.Buffer
	require.NoError(t, RunOSCOREPut(ctx, db, "coap://dm.example.com", rfc8613Client, &out))
	assert.Contains(t, out.String(), "recipient=01")
	assert.NotContains(t, out.String(), rfc8613Client.MasterSecret)

	rid, ok := db.RecipientID("coap://dm.example.com")
	require.True(t, ok)
	assert.Equal(t, []byte{0x01}, rid)

	r := oscore.NewResolver(db, nil, oscore.DefaultResolverConfig())
	c, ok := r.ContextByURI("coap://dm.example.com")
	require.True(t, ok)
	assert.Equal(t, "f0910ed7295e6ad4b54fc793154302ff", hex.EncodeToString(c.SenderKey()))

	bad := rfc8613Client
	bad.MasterSecret = ""
	err := RunOSCOREPut(ctx, db, "coap://other", bad, &out)
	assert.ErrorIs(t, err, oscore.ErrInvalidParameters)
	_, ok = db.RecipientID("coap://other")
	assert.False(t, ok)
}
