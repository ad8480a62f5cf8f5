package endpoint

import (
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"math/big"
	"net/netip"
	"testing"
	"time"

	"github.com/pion/dtls/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lwm2m-go/lwm2m/pkg/identity"
)

func selfSigned(t *testing.T, cn string) []byte {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(1),
		Subject:      pkix.Name{CommonName: cn},
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, key.Public(), key)
	require.NoError(t, err)
	return der
}

func TestPeerFromDTLS(t *testing.T) {
	t.Run("Certificate", func(t *testing.T) {
		p, err := PeerFromDTLS(dtls.State{PeerCertificates: [][]byte{selfSigned(t, "urn:dev:1")}})
		require.NoError(t, err)
		cn, ok := p.CommonName()
		assert.True(t, ok)
		assert.Equal(t, "urn:dev:1", cn)
	})

	t.Run("CertificateWithoutCN", func(t *testing.T) {
		p, err := PeerFromDTLS(dtls.State{PeerCertificates: [][]byte{selfSigned(t, "")}})
		require.NoError(t, err)
		cn, _ := p.CommonName()
		assert.Equal(t, identity.WildcardCommonName, cn)
	})

	t.Run("BadCertificate", func(t *testing.T) {
		_, err := PeerFromDTLS(dtls.State{PeerCertificates: [][]byte{{0x30, 0x00}}})
		assert.Error(t, err)
	})

	t.Run("PSK", func(t *testing.T) {
		p, err := PeerFromDTLS(dtls.State{IdentityHint: []byte("client-1")})
		require.NoError(t, err)
		id, ok := p.PSKIdentity()
		assert.True(t, ok)
		assert.Equal(t, "client-1", id)
	})

	t.Run("Nothing", func(t *testing.T) {
		_, err := PeerFromDTLS(dtls.State{})
		assert.ErrorIs(t, err, ErrNoCredential)
	})
}

func TestPeerFromSocket(t *testing.T) {
	p, err := PeerFromSocket(netip.MustParseAddrPort("192.0.2.3:5683"))
	require.NoError(t, err)
	assert.Equal(t, identity.KindSocket, p.Kind())

	_, err = PeerFromSocket(netip.AddrPort{})
	assert.ErrorIs(t, err, identity.ErrInvalidArgument)
}
