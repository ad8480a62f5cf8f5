package identity

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"errors"
	"net/netip"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustKey(t *testing.T) *ecdsa.PrivateKey {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return key
}

func allVariants(t *testing.T) []Peer {
	t.Helper()
	sock, err := NewSocket(netip.MustParseAddrPort("10.0.0.1:5683"))
	require.NoError(t, err)
	psk, err := NewPSK("device-1")
	require.NoError(t, err)
	rpk, err := NewRPK(mustKey(t).Public())
	require.NoError(t, err)
	crt, err := NewX509("device-1")
	require.NoError(t, err)
	osc, err := NewOSCORE([]byte("device-1"))
	require.NoError(t, err)
	return []Peer{sock, psk, rpk, crt, osc}
}

func TestConstructorsRejectEmpty(t *testing.T) {
	tests := []struct {
		name string
		fn   func() (Peer, error)
	}{
		{"Socket", func() (Peer, error) { return NewSocket(netip.AddrPort{}) }},
		{"PSK", func() (Peer, error) { return NewPSK("") }},
		{"RPK", func() (Peer, error) { return NewRPK(nil) }},
		{"RPKFromDER", func() (Peer, error) { return NewRPKFromDER(nil) }},
		{"RPKFromGarbage", func() (Peer, error) { return NewRPKFromDER([]byte{0x01, 0x02}) }},
		{"X509", func() (Peer, error) { return NewX509("") }},
		{"OSCORE", func() (Peer, error) { return NewOSCORE(nil) }},
		{"OSCOREEmpty", func() (Peer, error) { return NewOSCORE([]byte{}) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := tt.fn()
			if !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("error = %v, want ErrInvalidArgument", err)
			}
			if !p.IsZero() {
				t.Errorf("peer = %v, want zero", p)
			}
		})
	}
}

func TestVariantExclusivity(t *testing.T) {
	peers := allVariants(t)

	for i, a := range peers {
		for j, b := range peers {
			if i == j {
				assert.True(t, a.Equal(b), "%v should equal itself", a)
				assert.Equal(t, a.Key(), b.Key())
				continue
			}
			assert.False(t, a.Equal(b), "%v should not equal %v", a, b)
			assert.NotEqual(t, a.Key(), b.Key())
		}
	}

	t.Run("AccessorsMatchKind", func(t *testing.T) {
		for _, p := range peers {
			_, isSock := p.SocketAddr()
			_, isPSK := p.PSKIdentity()
			_, isRPK := p.PublicKeyDER()
			_, isX509 := p.CommonName()
			_, isOSCORE := p.RecipientID()

			assert.Equal(t, p.Kind() == KindSocket, isSock, p.String())
			assert.Equal(t, p.Kind() == KindPSK, isPSK, p.String())
			assert.Equal(t, p.Kind() == KindRPK, isRPK, p.String())
			assert.Equal(t, p.Kind() == KindX509, isX509, p.String())
			assert.Equal(t, p.Kind() == KindOSCORE, isOSCORE, p.String())
		}
	})
}

func TestPeerEqualByPayload(t *testing.T) {
	t.Run("Socket", func(t *testing.T) {
		a, _ := NewSocket(netip.MustParseAddrPort("10.0.0.1:5683"))
		b, _ := NewSocket(netip.MustParseAddrPort("10.0.0.1:5683"))
		c, _ := NewSocket(netip.MustParseAddrPort("10.0.0.1:5684"))
		assert.True(t, a.Equal(b))
		assert.False(t, a.Equal(c))
	})

	t.Run("SocketUnmapsIPv4", func(t *testing.T) {
		a, _ := NewSocket(netip.MustParseAddrPort("10.0.0.1:5683"))
		b, _ := NewSocket(netip.MustParseAddrPort("[::ffff:10.0.0.1]:5683"))
		assert.True(t, a.Equal(b))
	})

	t.Run("RPK", func(t *testing.T) {
		key := mustKey(t)
		a, err := NewRPK(key.Public())
		require.NoError(t, err)

		der, err := x509.MarshalPKIXPublicKey(key.Public())
		require.NoError(t, err)
		b, err := NewRPKFromDER(der)
		require.NoError(t, err)
		assert.True(t, a.Equal(b))

		other, _ := NewRPK(mustKey(t).Public())
		assert.False(t, a.Equal(other))

		pub, ok := a.PublicKey()
		require.True(t, ok)
		assert.True(t, key.PublicKey.Equal(pub))
	})

	t.Run("OSCORECopiesInput", func(t *testing.T) {
		rid := []byte{0x01, 0x02}
		p, _ := NewOSCORE(rid)
		rid[0] = 0xff

		got, _ := p.RecipientID()
		assert.Equal(t, []byte{0x01, 0x02}, got)

		got[1] = 0xff
		again, _ := p.RecipientID()
		assert.Equal(t, []byte{0x01, 0x02}, again)
	})

	t.Run("ZeroPeers", func(t *testing.T) {
		var a, b Peer
		assert.True(t, a.Equal(b))
		assert.Equal(t, "", a.Key())
		psk, _ := NewPSK("x")
		assert.False(t, a.Equal(psk))
	})
}

func TestKeyIdentifier(t *testing.T) {
	peers := allVariants(t)

	for _, p := range peers {
		t.Run(p.Kind().String(), func(t *testing.T) {
			id, ok := p.KeyIdentifier()
			switch p.Kind() {
			case KindPSK:
				assert.True(t, ok)
				assert.Equal(t, "device-1", id)
			case KindOSCORE:
				assert.True(t, ok)
				assert.Equal(t, "6465766963652d31", id)
			default:
				assert.False(t, ok)
				assert.Empty(t, id)
			}
		})
	}
}

func TestPeerString(t *testing.T) {
	sock, _ := NewSocket(netip.MustParseAddrPort("192.0.2.7:5683"))
	psk, _ := NewPSK("dev")
	crt, _ := NewX509("cn-1")
	osc, _ := NewOSCORE([]byte{0xab, 0xcd})

	tests := []struct {
		peer Peer
		want string
	}{
		{sock, "Identity[unsecure=192.0.2.7:5683]"},
		{psk, "Identity[psk=dev]"},
		{crt, "Identity[x509=cn-1]"},
		{osc, "Identity[oscore=abcd]"},
		{Peer{}, "Identity[none]"},
	}

	for _, tt := range tests {
		if got := tt.peer.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
	}

	t.Run("RPKRedacted", func(t *testing.T) {
		key := mustKey(t)
		rpk, _ := NewRPK(key.Public())
		der, _ := rpk.PublicKeyDER()

		s := rpk.String()
		assert.True(t, strings.HasPrefix(s, "Identity[rpk=sha256:"), s)
		assert.NotContains(t, s, string(der))
		assert.Equal(t, "Identity[rpk="+Fingerprint(der)+"]", s)
	})
}

func TestIsSecure(t *testing.T) {
	for _, p := range allVariants(t) {
		assert.Equal(t, p.Kind() != KindSocket, p.IsSecure(), p.String())
	}
	assert.False(t, Peer{}.IsSecure())
}
