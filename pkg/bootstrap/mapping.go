package bootstrap

import (
	"fmt"
	"maps"
	"slices"

	"github.com/lwm2m-go/lwm2m/pkg/link"
	"github.com/lwm2m-go/lwm2m/pkg/node"
)

// SecurityInstance maps a Security entry to object instance /0/id.
func SecurityInstance(id uint16, s ServerSecurity) node.Instance {
	var rs []node.Resource

	if s.URI != nil {
		rs = append(rs, node.NewString(0, *s.URI))
	}
	rs = append(rs, node.NewBoolean(1, s.BootstrapServer))
	if s.SecurityMode != nil {
		rs = append(rs, node.NewInteger(2, int64(*s.SecurityMode)))
	}
	rs = appendOpaque(rs, 3, s.PublicKeyOrID)
	rs = appendOpaque(rs, 4, s.ServerPublicKey)
	rs = appendOpaque(rs, 5, s.SecretKey)
	rs = appendInteger(rs, 6, s.SMSSecurityMode)
	rs = appendOpaque(rs, 7, s.SMSBindingKeyParam)
	rs = appendOpaque(rs, 8, s.SMSBindingKeySecret)
	rs = appendString(rs, 9, s.ServerSMSNumber)
	rs = appendInteger(rs, 10, s.ServerID)
	rs = appendInteger(rs, 11, s.ClientOldOffTime)
	rs = appendInteger(rs, 12, s.BootstrapServerAccountTimeout)

	rs = appendUnsigned(rs, 13, s.MatchingType)
	rs = appendString(rs, 14, s.SNI)
	rs = appendUnsigned(rs, 15, s.CertificateUsage)
	if s.CipherSuite != nil {
		values := make(map[uint16]any, len(s.CipherSuite))
		for i, suite := range s.CipherSuite {
			values[uint16(i)] = suite
		}
		r, _ := node.NewMultiple(16, node.TypeUnsigned, values)
		rs = append(rs, r)
	}
	if s.OSCORESecurityMode != nil {
		rs = append(rs, node.NewObjLink(17, node.ObjLink{ObjectID: ObjectOSCORE, InstanceID: *s.OSCORESecurityMode}))
	}

	return node.NewInstance(id, rs...)
}

// ServerInstance maps a Server entry to object instance /1/id.
func ServerInstance(id uint16, s ServerConfig) node.Instance {
	rs := []node.Resource{
		node.NewInteger(0, s.ShortID),
		node.NewInteger(1, s.Lifetime),
	}
	rs = appendInteger(rs, 2, s.DefaultMinPeriod)
	rs = appendInteger(rs, 3, s.DefaultMaxPeriod)
	rs = appendInteger(rs, 5, s.DisableTimeout)
	rs = append(rs, node.NewBoolean(6, s.NotifIfDisabled))
	rs = appendString(rs, 7, s.Binding)

	if s.APNLink != nil {
		rs = append(rs, node.NewObjLink(10, node.ObjLink{ObjectID: ObjectAPN, InstanceID: *s.APNLink}))
	}
	rs = appendUnsigned(rs, 13, s.RegistrationPriority)
	rs = appendUnsigned(rs, 14, s.InitialDelay)
	rs = appendBoolean(rs, 15, s.RegistrationFailure)
	rs = appendBoolean(rs, 16, s.BootstrapOnRegistrationFailure)
	rs = appendUnsigned(rs, 17, s.CommunicationRetryCount)
	rs = appendUnsigned(rs, 18, s.CommunicationRetryTimer)
	rs = appendUnsigned(rs, 19, s.SequenceDelayTimer)
	rs = appendUnsigned(rs, 20, s.SequenceRetryCount)
	rs = appendBoolean(rs, 21, s.Trigger)
	rs = appendString(rs, 22, s.PreferredTransport)
	rs = appendBoolean(rs, 23, s.MuteSend)

	return node.NewInstance(id, rs...)
}

// ACLInstance maps an ACL entry to object instance /2/id.
func ACLInstance(id uint16, a ACLConfig) node.Instance {
	rs := []node.Resource{
		node.NewInteger(0, a.ObjectID),
		node.NewInteger(1, a.ObjectInstanceID),
	}
	if a.ACLs != nil {
		values := make(map[uint16]any, len(a.ACLs))
		for ssid, rights := range a.ACLs {
			values[ssid] = rights
		}
		r, _ := node.NewMultiple(2, node.TypeInteger, values)
		rs = append(rs, r)
	}
	rs = appendInteger(rs, 3, a.AccessControlOwner)

	return node.NewInstance(id, rs...)
}

// OSCOREInstance maps an OSCORE entry to object instance /21/id.
func OSCOREInstance(id uint16, o OSCOREObject) node.Instance {
	var rs []node.Resource
	rs = appendOpaque(rs, 0, o.MasterSecret)
	rs = appendOpaque(rs, 1, o.SenderID)
	rs = appendOpaque(rs, 2, o.RecipientID)
	rs = appendInteger(rs, 3, o.AEADAlgorithm)
	rs = appendInteger(rs, 4, o.HMACAlgorithm)
	rs = appendOpaque(rs, 5, o.MasterSalt)

	return node.NewInstance(id, rs...)
}

// ExtensionInstance maps a vendor object entry to an object instance.
func ExtensionInstance(id uint16, ext Extension) (node.Instance, error) {
	rs, err := ext.Resources()
	if err != nil {
		return node.Instance{}, err
	}
	return node.NewInstance(id, rs...), nil
}

func appendString(rs []node.Resource, id uint16, v *string) []node.Resource {
	if v == nil {
		return rs
	}
	return append(rs, node.NewString(id, *v))
}

func appendInteger(rs []node.Resource, id uint16, v *int64) []node.Resource {
	if v == nil {
		return rs
	}
	return append(rs, node.NewInteger(id, *v))
}

func appendUnsigned(rs []node.Resource, id uint16, v *uint64) []node.Resource {
	if v == nil {
		return rs
	}
	return append(rs, node.NewUnsigned(id, *v))
}

func appendBoolean(rs []node.Resource, id uint16, v *bool) []node.Resource {
	if v == nil {
		return rs
	}
	return append(rs, node.NewBoolean(id, *v))
}

func appendOpaque(rs []node.Resource, id uint16, v []byte) []node.Resource {
	if v == nil {
		return rs
	}
	return append(rs, node.NewOpaque(id, v))
}

// ToRequests builds the full request batch for cfg, writing every instance
// at the id it has in cfg.
func ToRequests(cfg *Config, format ContentFormat) ([]Request, error) {
	return toRequests(cfg, format, func(b *batch) {
		for _, id := range sortedKeys(cfg.Security) {
			b.write(node.InstancePath(ObjectSecurity, id), SecurityInstance(id, cfg.Security[id]))
		}
	})
}

// ToRequestsWithBootstrapID builds the full request batch for cfg with the
// Security entries renumbered around bsID, the Security instance the
// client already uses for this bootstrap server.
//
// The entry flagged as bootstrap server is written at bsID. The others
// get ids from a counter starting at 0 that skips bsID, in ascending order
// of their configured ids.
func ToRequestsWithBootstrapID(cfg *Config, format ContentFormat, bsID uint16) ([]Request, error) {
	return toRequests(cfg, format, func(b *batch) {
		var next uint16
		for _, key := range sortedKeys(cfg.Security) {
			s := cfg.Security[key]
			if s.BootstrapServer {
				b.write(node.InstancePath(ObjectSecurity, bsID), SecurityInstance(bsID, s))
				continue
			}
			if next == bsID {
				next++
			}
			b.write(node.InstancePath(ObjectSecurity, next), SecurityInstance(next, s))
			next++
		}
	})
}

type batch struct {
	format   ContentFormat
	requests []Request
}

func (b *batch) write(p node.Path, inst node.Instance) {
	b.requests = append(b.requests, WriteRequest{Path: p, Instance: inst, ContentFormat: b.format})
}

func toRequests(cfg *Config, format ContentFormat, security func(*batch)) ([]Request, error) {
	b := &batch{format: format}

	for _, p := range cfg.ToDelete {
		path, err := node.ParsePath(p)
		if err != nil {
			return nil, fmt.Errorf("%w: toDelete: %w", ErrInvalidConfig, err)
		}
		b.requests = append(b.requests, DeleteRequest{Path: path})
	}

	security(b)

	for _, id := range sortedKeys(cfg.Servers) {
		b.write(node.InstancePath(ObjectServer, id), ServerInstance(id, cfg.Servers[id]))
	}
	for _, id := range sortedKeys(cfg.ACLs) {
		b.write(node.InstancePath(ObjectAccessControl, id), ACLInstance(id, cfg.ACLs[id]))
	}
	for _, id := range sortedKeys(cfg.OSCORE) {
		b.write(node.InstancePath(ObjectOSCORE, id), OSCOREInstance(id, cfg.OSCORE[id]))
	}

	for _, ext := range cfg.Extensions {
		for _, id := range ext.InstanceIDs() {
			inst, err := ExtensionInstance(id, ext.Instances[id])
			if err != nil {
				return nil, fmt.Errorf("%w: extension /%d/%d: %w", ErrInvalidConfig, ext.ObjectID, id, err)
			}
			b.write(node.InstancePath(ext.ObjectID, id), inst)
		}
	}

	return b.requests, nil
}

func sortedKeys[V any](m map[uint16]V) []uint16 {
	return slices.Sorted(maps.Keys(m))
}

// FindBootstrapServerInstanceID returns the id of the first Security
// object instance in links without an "ssid" attribute. Bootstrap server
// Security instances have no short server id.
func FindBootstrapServerInstanceID(links []link.Link) (uint16, bool) {
	for _, l := range links {
		p, err := l.Path()
		if err != nil || !p.IsInstance() || p.ObjectID() != ObjectSecurity {
			continue
		}
		if l.Has("ssid") {
			continue
		}
		id, _ := p.InstanceID()
		return id, true
	}
	return 0, false
}
