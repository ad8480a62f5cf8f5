package endpoint

import (
	"crypto/x509"
	"errors"
	"fmt"
	"net/netip"

	"github.com/pion/dtls/v3"

	"github.com/lwm2m-go/lwm2m/pkg/identity"
)

// ErrNoCredential is returned when a DTLS session carries neither a
// certificate nor a PSK identity.
var ErrNoCredential = errors.New("dtls session has no peer credential")

// PeerFromDTLS returns the credential the remote peer authenticated with
// during the handshake recorded in state.
//
// A peer certificate yields an X509 identity with the subject common name,
// or the wildcard name when the certificate has none. Otherwise the PSK
// identity yields a PSK identity.
func PeerFromDTLS(state dtls.State) (identity.Peer, error) {
	if len(state.PeerCertificates) > 0 {
		cert, err := x509.ParseCertificate(state.PeerCertificates[0])
		if err != nil {
			return identity.Peer{}, fmt.Errorf("parse peer certificate: %w", err)
		}
		cn, err := identity.CommonNameFromCertificate(cert)
		if errors.Is(err, identity.ErrMissingCommonName) {
			cn = identity.WildcardCommonName
		} else if err != nil {
			return identity.Peer{}, err
		}
		return identity.NewX509(cn)
	}
	if len(state.IdentityHint) > 0 {
		return identity.NewPSK(string(state.IdentityHint))
	}
	return identity.Peer{}, ErrNoCredential
}

// PeerFromSocket returns the identity of a peer on an unsecured transport.
func PeerFromSocket(addr netip.AddrPort) (identity.Peer, error) {
	return identity.NewSocket(addr)
}
