package persistence

import (
	"encoding/json"
	"fmt"
	"net/netip"

	"github.com/lwm2m-go/lwm2m/pkg/identity"
)

// PeerTypeIP is the only peer type: a peer reached over an IP socket.
const PeerTypeIP = "ip"

// IPPeer is a peer reached over an IP socket together with the identity
// it authenticated with. For secured transports the address and the
// identity differ.
type IPPeer struct {
	Addr     netip.AddrPort
	Identity identity.Peer
}

type peerJSON struct {
	Type     string          `json:"type"`
	Address  string          `json:"address"`
	Port     uint16          `json:"port"`
	Identity json.RawMessage `json:"identity"`
}

// MarshalPeer encodes an IP peer.
func MarshalPeer(p IPPeer) ([]byte, error) {
	if !p.Addr.IsValid() {
		return nil, fmt.Errorf("%w: peer address is required", ErrIllegalState)
	}
	id, err := MarshalIdentity(p.Identity)
	if err != nil {
		return nil, err
	}
	return json.Marshal(peerJSON{
		Type:     PeerTypeIP,
		Address:  p.Addr.Addr().String(),
		Port:     p.Addr.Port(),
		Identity: id,
	})
}

// UnmarshalPeer decodes an IP peer. Any type other than "ip" fails.
func UnmarshalPeer(data []byte) (IPPeer, error) {
	var w peerJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return IPPeer{}, fmt.Errorf("%w: %v", ErrIllegalState, err)
	}
	if w.Type != PeerTypeIP {
		return IPPeer{}, fmt.Errorf("%w: peer type %q is not supported", ErrIllegalState, w.Type)
	}
	addr, err := netip.ParseAddr(w.Address)
	if err != nil {
		return IPPeer{}, fmt.Errorf("%w: invalid peer address: %v", ErrIllegalState, err)
	}
	if len(w.Identity) == 0 {
		return IPPeer{}, fmt.Errorf("%w: peer identity is missing", ErrIllegalState)
	}
	id, err := UnmarshalIdentity(w.Identity)
	if err != nil {
		return IPPeer{}, err
	}
	return IPPeer{Addr: netip.AddrPortFrom(addr, w.Port), Identity: id}, nil
}
