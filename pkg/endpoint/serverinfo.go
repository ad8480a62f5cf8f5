package endpoint

import (
	"context"
	"crypto"
	"errors"
	"fmt"
	"net"
	"net/netip"
	"net/url"
	"strconv"

	"github.com/lwm2m-go/lwm2m/pkg/identity"
)

// Default CoAP ports.
const (
	DefaultCoAPPort  = 5683
	DefaultCoAPSPort = 5684
)

// Endpoint errors.
var (
	ErrUnsupportedSecurityMode = errors.New("unsupported security mode")
	ErrInvalidServerURI        = errors.New("invalid server uri")
)

// SecurityMode is the LwM2M Security object security mode (resource 0/x/2).
type SecurityMode uint8

// Security modes with their LwM2M resource values.
const (
	SecurityModePSK   SecurityMode = 0
	SecurityModeRPK   SecurityMode = 1
	SecurityModeX509  SecurityMode = 2
	SecurityModeNoSec SecurityMode = 3
	SecurityModeEST   SecurityMode = 4
)

// String returns the mode name.
func (m SecurityMode) String() string {
	switch m {
	case SecurityModePSK:
		return "PSK"
	case SecurityModeRPK:
		return "RPK"
	case SecurityModeX509:
		return "X509"
	case SecurityModeNoSec:
		return "NO_SEC"
	case SecurityModeEST:
		return "EST"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(m))
	}
}

// Valid reports whether m is a defined security mode.
func (m SecurityMode) Valid() bool {
	return m <= SecurityModeEST
}

// IsSecure reports whether m secures the transport with DTLS.
func (m SecurityMode) IsSecure() bool {
	return m == SecurityModePSK || m == SecurityModeRPK || m == SecurityModeX509 || m == SecurityModeEST
}

// ParseSecurityMode parses a mode name as returned by String or its
// numeric resource value.
func ParseSecurityMode(s string) (SecurityMode, error) {
	for m := SecurityModePSK; m <= SecurityModeEST; m++ {
		if s == m.String() {
			return m, nil
		}
	}
	if n, err := strconv.ParseUint(s, 10, 8); err == nil && SecurityMode(n).Valid() {
		return SecurityMode(n), nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedSecurityMode, s)
}

// MarshalText implements encoding.TextMarshaler.
func (m SecurityMode) MarshalText() ([]byte, error) {
	if !m.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnsupportedSecurityMode, uint8(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *SecurityMode) UnmarshalText(text []byte) error {
	parsed, err := ParseSecurityMode(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// ServerInfo is what the client knows about a server before connecting.
type ServerInfo struct {
	// URI is the server URI from the Security object.
	URI *url.URL

	// ServerID is the short server id. Ignored for bootstrap servers.
	ServerID uint64

	// Bootstrap marks a bootstrap server.
	Bootstrap bool

	// Mode is the transport security mode.
	Mode SecurityMode

	// PSKIdentity is the identity used with SecurityModePSK.
	PSKIdentity string

	// ServerPublicKey is the server key used with SecurityModeRPK.
	ServerPublicKey crypto.PublicKey

	// OSCORERecipientID enables OSCORE on an unsecured transport when set.
	OSCORERecipientID []byte

	// Address overrides the address derived from URI. Only used for
	// unsecured servers.
	Address netip.AddrPort
}

// UsesOSCORE reports whether the server is protected with OSCORE.
func (i ServerInfo) UsesOSCORE() bool {
	return !i.Mode.IsSecure() && len(i.OSCORERecipientID) > 0
}

// ServerIdentityFor returns the identity the client expects from the server
// described by info.
//
// Servers secured by certificate get the [identity.WildcardCommonName],
// since the common name cannot be known for every certificate usage.
// Unsecured servers are identified by their socket address; a host name in
// the URI is resolved with ctx.
func ServerIdentityFor(ctx context.Context, info ServerInfo) (identity.Server, error) {
	var (
		peer identity.Peer
		err  error
	)
	switch {
	case info.Mode == SecurityModePSK:
		peer, err = identity.NewPSK(info.PSKIdentity)
	case info.Mode == SecurityModeRPK:
		peer, err = identity.NewRPK(info.ServerPublicKey)
	case info.Mode == SecurityModeX509:
		peer, err = identity.NewX509(identity.WildcardCommonName)
	case info.Mode == SecurityModeNoSec && info.UsesOSCORE():
		peer, err = identity.NewOSCORE(info.OSCORERecipientID)
	case info.Mode == SecurityModeNoSec:
		var addr netip.AddrPort
		addr, err = serverAddress(ctx, info)
		if err == nil {
			peer, err = identity.NewSocket(addr)
		}
	default:
		return identity.Server{}, fmt.Errorf("%w: %s", ErrUnsupportedSecurityMode, info.Mode)
	}
	if err != nil {
		return identity.Server{}, fmt.Errorf("server identity for %s: %w", uriString(info.URI), err)
	}

	if info.Bootstrap {
		return identity.NewBootstrapServer(peer, info.URI), nil
	}
	return identity.NewServer(peer, info.ServerID, info.URI), nil
}

func serverAddress(ctx context.Context, info ServerInfo) (netip.AddrPort, error) {
	if info.Address.IsValid() {
		return info.Address, nil
	}
	if info.URI == nil || info.URI.Hostname() == "" {
		return netip.AddrPort{}, fmt.Errorf("%w: host is required", ErrInvalidServerURI)
	}

	port := DefaultCoAPPort
	if info.URI.Scheme == "coaps" || info.URI.Scheme == "coaps+tcp" {
		port = DefaultCoAPSPort
	}
	if p := info.URI.Port(); p != "" {
		n, err := strconv.ParseUint(p, 10, 16)
		if err != nil {
			return netip.AddrPort{}, fmt.Errorf("%w: port %q", ErrInvalidServerURI, p)
		}
		port = int(n)
	}

	host := info.URI.Hostname()
	if addr, err := netip.ParseAddr(host); err == nil {
		return netip.AddrPortFrom(addr, uint16(port)), nil
	}
	addrs, err := net.DefaultResolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return netip.AddrPort{}, fmt.Errorf("resolve %s: %w", host, err)
	}
	if len(addrs) == 0 {
		return netip.AddrPort{}, fmt.Errorf("%w: %s has no address", ErrInvalidServerURI, host)
	}
	return netip.AddrPortFrom(addrs[0], uint16(port)), nil
}

func uriString(u *url.URL) string {
	if u == nil {
		return "<nil>"
	}
	return u.String()
}
