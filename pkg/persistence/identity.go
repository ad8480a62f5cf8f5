package persistence

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"net/netip"

	"github.com/lwm2m-go/lwm2m/pkg/identity"
)

// Serialization errors.
var (
	ErrIllegalState = errors.New("illegal identity state")
)

// identityJSON is the wire shape of an identity. Exactly one group of keys
// is set.
type identityJSON struct {
	Address *string `json:"address,omitempty"`
	Port    *uint16 `json:"port,omitempty"`
	PSKID   *string `json:"pskid,omitempty"`
	RPK     *string `json:"rpk,omitempty"`
	CN      *string `json:"cn,omitempty"`
	RID     *string `json:"rid,omitempty"`
}

// Identity adapts an identity.Peer to encoding/json.
type Identity struct {
	identity.Peer
}

// MarshalJSON implements json.Marshaler.
func (i Identity) MarshalJSON() ([]byte, error) {
	w, err := toWire(i.Peer)
	if err != nil {
		return nil, err
	}
	return json.Marshal(w)
}

// UnmarshalJSON implements json.Unmarshaler.
func (i *Identity) UnmarshalJSON(data []byte) error {
	var w identityJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("%w: %v", ErrIllegalState, err)
	}
	p, err := fromWire(w)
	if err != nil {
		return err
	}
	i.Peer = p
	return nil
}

// MarshalIdentity encodes p in its JSON wire shape.
func MarshalIdentity(p identity.Peer) ([]byte, error) {
	return json.Marshal(Identity{p})
}

// UnmarshalIdentity decodes an identity from its JSON wire shape.
func UnmarshalIdentity(data []byte) (identity.Peer, error) {
	var i Identity
	if err := json.Unmarshal(data, &i); err != nil {
		if errors.Is(err, ErrIllegalState) {
			return identity.Peer{}, err
		}
		return identity.Peer{}, fmt.Errorf("%w: %v", ErrIllegalState, err)
	}
	return i.Peer, nil
}

func toWire(p identity.Peer) (identityJSON, error) {
	var w identityJSON
	switch p.Kind() {
	case identity.KindSocket:
		addr, _ := p.SocketAddr()
		host := addr.Addr().String()
		port := addr.Port()
		w.Address, w.Port = &host, &port
	case identity.KindPSK:
		id, _ := p.PSKIdentity()
		w.PSKID = &id
	case identity.KindRPK:
		der, _ := p.PublicKeyDER()
		s := hex.EncodeToString(der)
		w.RPK = &s
	case identity.KindX509:
		cn, _ := p.CommonName()
		w.CN = &cn
	case identity.KindOSCORE:
		rid, _ := p.RecipientID()
		s := hex.EncodeToString(rid)
		w.RID = &s
	default:
		return w, fmt.Errorf("%w: cannot serialize %s", ErrIllegalState, p)
	}
	return w, nil
}

// fromWire checks the key groups in a fixed order: socket, psk, rpk, cn,
// rid. The first group present wins.
func fromWire(w identityJSON) (identity.Peer, error) {
	var (
		p   identity.Peer
		err error
	)
	switch {
	case w.Address != nil && w.Port != nil:
		var addr netip.Addr
		addr, err = netip.ParseAddr(*w.Address)
		if err == nil {
			p, err = identity.NewSocket(netip.AddrPortFrom(addr, *w.Port))
		}
	case w.PSKID != nil:
		p, err = identity.NewPSK(*w.PSKID)
	case w.RPK != nil:
		var der []byte
		der, err = hex.DecodeString(*w.RPK)
		if err == nil {
			p, err = identity.NewRPKFromDER(der)
		}
	case w.CN != nil:
		p, err = identity.NewX509(*w.CN)
	case w.RID != nil:
		var rid []byte
		rid, err = hex.DecodeString(*w.RID)
		if err == nil {
			p, err = identity.NewOSCORE(rid)
		}
	default:
		return identity.Peer{}, fmt.Errorf("%w: no identity keys present", ErrIllegalState)
	}
	if err != nil {
		return identity.Peer{}, fmt.Errorf("%w: invalid identity content: %v", ErrIllegalState, err)
	}
	return p, nil
}
