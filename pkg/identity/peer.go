package identity

import (
	"bytes"
	"crypto"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"errors"
	"fmt"
	"net/netip"
)

// Identity errors.
var (
	ErrInvalidArgument = errors.New("invalid identity argument")
)

// Kind identifies which credential variant a Peer holds.
type Kind uint8

// Peer kinds. The zero Kind marks an empty Peer.
const (
	KindSocket Kind = iota + 1
	KindPSK
	KindRPK
	KindX509
	KindOSCORE
)

// String returns a human-readable kind name.
func (k Kind) String() string {
	switch k {
	case KindSocket:
		return "SOCKET"
	case KindPSK:
		return "PSK"
	case KindRPK:
		return "RPK"
	case KindX509:
		return "X509"
	case KindOSCORE:
		return "OSCORE"
	default:
		return "NONE"
	}
}

// Peer is the credential a remote peer was authenticated with.
//
// The zero value is the absent identity: it has no kind, is not equal to
// any constructed Peer and reports IsZero. Peers are immutable; byte
// payloads are copied on construction and on access.
type Peer struct {
	kind Kind

	// addr is set for KindSocket.
	addr netip.AddrPort

	// text holds the PSK identity (KindPSK) or the common name (KindX509).
	text string

	// data holds the DER encoded public key (KindRPK) or the recipient id
	// (KindOSCORE).
	data []byte
}

// NewSocket returns an unauthenticated identity for the given socket
// address. IPv4-mapped IPv6 addresses are unmapped so that a peer compares
// equal regardless of the socket family it was observed on.
func NewSocket(addr netip.AddrPort) (Peer, error) {
	if !addr.IsValid() {
		return Peer{}, fmt.Errorf("%w: socket address is required", ErrInvalidArgument)
	}
	return Peer{
		kind: KindSocket,
		addr: netip.AddrPortFrom(addr.Addr().Unmap(), addr.Port()),
	}, nil
}

// NewPSK returns a pre-shared key identity.
func NewPSK(pskIdentity string) (Peer, error) {
	if pskIdentity == "" {
		return Peer{}, fmt.Errorf("%w: psk identity is required", ErrInvalidArgument)
	}
	return Peer{kind: KindPSK, text: pskIdentity}, nil
}

// NewRPK returns a raw public key identity.
func NewRPK(publicKey crypto.PublicKey) (Peer, error) {
	if publicKey == nil {
		return Peer{}, fmt.Errorf("%w: public key is required", ErrInvalidArgument)
	}
	der, err := x509.MarshalPKIXPublicKey(publicKey)
	if err != nil {
		return Peer{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return Peer{kind: KindRPK, data: der}, nil
}

// NewRPKFromDER returns a raw public key identity from a DER encoded
// SubjectPublicKeyInfo.
func NewRPKFromDER(der []byte) (Peer, error) {
	if len(der) == 0 {
		return Peer{}, fmt.Errorf("%w: public key is required", ErrInvalidArgument)
	}
	if _, err := x509.ParsePKIXPublicKey(der); err != nil {
		return Peer{}, fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}
	return Peer{kind: KindRPK, data: bytes.Clone(der)}, nil
}

// NewX509 returns a certificate identity reduced to its subject common name.
func NewX509(commonName string) (Peer, error) {
	if commonName == "" {
		return Peer{}, fmt.Errorf("%w: common name is required", ErrInvalidArgument)
	}
	return Peer{kind: KindX509, text: commonName}, nil
}

// NewOSCORE returns an OSCORE identity for the given recipient id.
func NewOSCORE(recipientID []byte) (Peer, error) {
	if len(recipientID) == 0 {
		return Peer{}, fmt.Errorf("%w: recipient id is required", ErrInvalidArgument)
	}
	return Peer{kind: KindOSCORE, data: bytes.Clone(recipientID)}, nil
}

// Kind returns the credential variant.
func (p Peer) Kind() Kind {
	return p.kind
}

// IsZero reports whether p is the absent identity.
func (p Peer) IsZero() bool {
	return p.kind == 0
}

// IsSecure reports whether the peer was authenticated by a credential.
func (p Peer) IsSecure() bool {
	return p.kind != 0 && p.kind != KindSocket
}

// SocketAddr returns the socket address of a Socket identity.
func (p Peer) SocketAddr() (netip.AddrPort, bool) {
	if p.kind != KindSocket {
		return netip.AddrPort{}, false
	}
	return p.addr, true
}

// PSKIdentity returns the identity of a PSK peer.
func (p Peer) PSKIdentity() (string, bool) {
	if p.kind != KindPSK {
		return "", false
	}
	return p.text, true
}

// PublicKeyDER returns the DER encoded public key of an RPK peer.
func (p Peer) PublicKeyDER() ([]byte, bool) {
	if p.kind != KindRPK {
		return nil, false
	}
	return bytes.Clone(p.data), true
}

// PublicKey returns the decoded public key of an RPK peer.
func (p Peer) PublicKey() (crypto.PublicKey, bool) {
	if p.kind != KindRPK {
		return nil, false
	}
	pub, err := x509.ParsePKIXPublicKey(p.data)
	if err != nil {
		return nil, false
	}
	return pub, true
}

// CommonName returns the subject common name of an X509 peer.
func (p Peer) CommonName() (string, bool) {
	if p.kind != KindX509 {
		return "", false
	}
	return p.text, true
}

// RecipientID returns the recipient id of an OSCORE peer.
func (p Peer) RecipientID() ([]byte, bool) {
	if p.kind != KindOSCORE {
		return nil, false
	}
	return bytes.Clone(p.data), true
}

// KeyIdentifier returns a stable identifier suitable for lookup tables.
// Only PSK (the psk identity) and OSCORE (the hex recipient id) peers have
// one.
func (p Peer) KeyIdentifier() (string, bool) {
	switch p.kind {
	case KindPSK:
		return p.text, true
	case KindOSCORE:
		return hex.EncodeToString(p.data), true
	default:
		return "", false
	}
}

// Equal reports whether p and other hold the same variant with the same
// payload.
func (p Peer) Equal(other Peer) bool {
	if p.kind != other.kind {
		return false
	}
	switch p.kind {
	case KindSocket:
		return p.addr == other.addr
	case KindPSK, KindX509:
		return p.text == other.text
	case KindRPK, KindOSCORE:
		return bytes.Equal(p.data, other.data)
	default:
		return true
	}
}

// Key returns a comparable value that is equal for two peers exactly when
// Equal reports true. The zero Peer has the empty key.
func (p Peer) Key() string {
	switch p.kind {
	case KindSocket:
		return "socket|" + p.addr.String()
	case KindPSK:
		return "psk|" + p.text
	case KindRPK:
		return "rpk|" + hex.EncodeToString(p.data)
	case KindX509:
		return "x509|" + p.text
	case KindOSCORE:
		return "oscore|" + hex.EncodeToString(p.data)
	default:
		return ""
	}
}

// String returns a distinguishing description. Public keys are reduced to a
// fingerprint.
func (p Peer) String() string {
	switch p.kind {
	case KindSocket:
		return fmt.Sprintf("Identity[unsecure=%s]", p.addr)
	case KindPSK:
		return fmt.Sprintf("Identity[psk=%s]", p.text)
	case KindRPK:
		return fmt.Sprintf("Identity[rpk=%s]", Fingerprint(p.data))
	case KindX509:
		return fmt.Sprintf("Identity[x509=%s]", p.text)
	case KindOSCORE:
		return fmt.Sprintf("Identity[oscore=%x]", p.data)
	default:
		return "Identity[none]"
	}
}

// Fingerprint returns a short SHA-256 based fingerprint of key material,
// suitable for logs.
func Fingerprint(key []byte) string {
	sum := sha256.Sum256(key)
	return "sha256:" + hex.EncodeToString(sum[:8])
}
