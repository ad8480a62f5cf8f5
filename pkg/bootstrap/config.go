package bootstrap

import (
	"encoding/hex"
	"errors"
	"fmt"
	"slices"

	"github.com/lwm2m-go/lwm2m/pkg/endpoint"
	"github.com/lwm2m-go/lwm2m/pkg/node"
	"github.com/lwm2m-go/lwm2m/pkg/oscore"
)

// Object ids written by the bootstrap server.
const (
	ObjectSecurity      uint16 = 0
	ObjectServer        uint16 = 1
	ObjectAccessControl uint16 = 2
	ObjectAPN           uint16 = 11
	ObjectOSCORE        uint16 = 21
)

// ErrInvalidConfig is returned by Config.Validate.
var ErrInvalidConfig = errors.New("invalid bootstrap config")

// HexBytes is a byte string written as hex in configuration files.
type HexBytes []byte

// MarshalText implements encoding.TextMarshaler.
func (b HexBytes) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(b)), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (b *HexBytes) UnmarshalText(text []byte) error {
	decoded, err := hex.DecodeString(string(text))
	if err != nil {
		return fmt.Errorf("invalid hex value: %w", err)
	}
	*b = decoded
	return nil
}

// Config is everything the bootstrap server writes to one client.
// Map keys are object instance ids.
type Config struct {
	// ToDelete lists paths deleted before anything is written.
	ToDelete []string `yaml:"toDelete,omitempty" json:"toDelete,omitempty"`

	Security map[uint16]ServerSecurity `yaml:"security,omitempty" json:"security,omitempty"`
	Servers  map[uint16]ServerConfig   `yaml:"servers,omitempty" json:"servers,omitempty"`
	ACLs     map[uint16]ACLConfig      `yaml:"acls,omitempty" json:"acls,omitempty"`
	OSCORE   map[uint16]OSCOREObject   `yaml:"oscore,omitempty" json:"oscore,omitempty"`

	// Extensions are vendor object collections, written after the core
	// objects in declaration order.
	Extensions []ExtensionCollection `yaml:"extensions,omitempty" json:"extensions,omitempty"`

	// ContentFormat overrides the content format negotiated for the session.
	ContentFormat *ContentFormat `yaml:"contentFormat,omitempty" json:"contentFormat,omitempty"`

	// AutoIDForSecurityObject starts the session with a Discover to learn
	// which Security instance the client uses for this bootstrap server.
	AutoIDForSecurityObject bool `yaml:"autoIdForSecurityObject,omitempty" json:"autoIdForSecurityObject,omitempty"`
}

// ServerSecurity is a Security object (0) instance.
type ServerSecurity struct {
	URI             *string                `yaml:"uri,omitempty" json:"uri,omitempty"`
	BootstrapServer bool                   `yaml:"bootstrapServer" json:"bootstrapServer"`
	SecurityMode    *endpoint.SecurityMode `yaml:"securityMode,omitempty" json:"securityMode,omitempty"`
	PublicKeyOrID   HexBytes               `yaml:"publicKeyOrId,omitempty" json:"publicKeyOrId,omitempty"`
	ServerPublicKey HexBytes               `yaml:"serverPublicKey,omitempty" json:"serverPublicKey,omitempty"`
	SecretKey       HexBytes               `yaml:"secretKey,omitempty" json:"secretKey,omitempty"`

	SMSSecurityMode     *int64   `yaml:"smsSecurityMode,omitempty" json:"smsSecurityMode,omitempty"`
	SMSBindingKeyParam  HexBytes `yaml:"smsBindingKeyParam,omitempty" json:"smsBindingKeyParam,omitempty"`
	SMSBindingKeySecret HexBytes `yaml:"smsBindingKeySecret,omitempty" json:"smsBindingKeySecret,omitempty"`
	ServerSMSNumber     *string  `yaml:"serverSmsNumber,omitempty" json:"serverSmsNumber,omitempty"`

	ServerID                      *int64 `yaml:"serverId,omitempty" json:"serverId,omitempty"`
	ClientOldOffTime              *int64 `yaml:"clientOldOffTime,omitempty" json:"clientOldOffTime,omitempty"`
	BootstrapServerAccountTimeout *int64 `yaml:"bootstrapServerAccountTimeout,omitempty" json:"bootstrapServerAccountTimeout,omitempty"`

	// Since 1.1.
	MatchingType     *uint64  `yaml:"matchingType,omitempty" json:"matchingType,omitempty"`
	SNI              *string  `yaml:"sni,omitempty" json:"sni,omitempty"`
	CertificateUsage *uint64  `yaml:"certificateUsage,omitempty" json:"certificateUsage,omitempty"`
	CipherSuite      []uint64 `yaml:"cipherSuite,omitempty" json:"cipherSuite,omitempty"`

	// OSCORESecurityMode is the OSCORE object (21) instance id this
	// Security instance links to.
	OSCORESecurityMode *uint16 `yaml:"oscoreSecurityMode,omitempty" json:"oscoreSecurityMode,omitempty"`
}

// ServerConfig is a Server object (1) instance.
type ServerConfig struct {
	ShortID          int64   `yaml:"shortId" json:"shortId"`
	Lifetime         int64   `yaml:"lifetime" json:"lifetime"`
	DefaultMinPeriod *int64  `yaml:"defaultMinPeriod,omitempty" json:"defaultMinPeriod,omitempty"`
	DefaultMaxPeriod *int64  `yaml:"defaultMaxPeriod,omitempty" json:"defaultMaxPeriod,omitempty"`
	DisableTimeout   *int64  `yaml:"disableTimeout,omitempty" json:"disableTimeout,omitempty"`
	NotifIfDisabled  bool    `yaml:"notifIfDisabled" json:"notifIfDisabled"`
	Binding          *string `yaml:"binding,omitempty" json:"binding,omitempty"`

	// Since 1.1.
	APNLink                        *uint16 `yaml:"apnLink,omitempty" json:"apnLink,omitempty"`
	RegistrationPriority           *uint64 `yaml:"registrationPriority,omitempty" json:"registrationPriority,omitempty"`
	InitialDelay                   *uint64 `yaml:"initialDelay,omitempty" json:"initialDelay,omitempty"`
	RegistrationFailure            *bool   `yaml:"registrationFailure,omitempty" json:"registrationFailure,omitempty"`
	BootstrapOnRegistrationFailure *bool   `yaml:"bootstrapOnRegistrationFailure,omitempty" json:"bootstrapOnRegistrationFailure,omitempty"`
	CommunicationRetryCount        *uint64 `yaml:"communicationRetryCount,omitempty" json:"communicationRetryCount,omitempty"`
	CommunicationRetryTimer        *uint64 `yaml:"communicationRetryTimer,omitempty" json:"communicationRetryTimer,omitempty"`
	SequenceDelayTimer             *uint64 `yaml:"sequenceDelayTimer,omitempty" json:"sequenceDelayTimer,omitempty"`
	SequenceRetryCount             *uint64 `yaml:"sequenceRetryCount,omitempty" json:"sequenceRetryCount,omitempty"`
	Trigger                        *bool   `yaml:"trigger,omitempty" json:"trigger,omitempty"`
	PreferredTransport             *string `yaml:"preferredTransport,omitempty" json:"preferredTransport,omitempty"`
	MuteSend                       *bool   `yaml:"muteSend,omitempty" json:"muteSend,omitempty"`
}

// ACLConfig is an Access Control object (2) instance.
type ACLConfig struct {
	ObjectID         int64 `yaml:"objectId" json:"objectId"`
	ObjectInstanceID int64 `yaml:"objectInstanceId" json:"objectInstanceId"`

	// ACLs maps short server ids to access rights bit masks.
	ACLs               map[uint16]int64 `yaml:"acls,omitempty" json:"acls,omitempty"`
	AccessControlOwner *int64           `yaml:"accessControlOwner,omitempty" json:"accessControlOwner,omitempty"`
}

// OSCOREObject is an OSCORE object (21) instance.
type OSCOREObject struct {
	MasterSecret  HexBytes `yaml:"masterSecret,omitempty" json:"masterSecret,omitempty"`
	SenderID      HexBytes `yaml:"senderId,omitempty" json:"senderId,omitempty"`
	RecipientID   HexBytes `yaml:"recipientId,omitempty" json:"recipientId,omitempty"`
	AEADAlgorithm *int64   `yaml:"aeadAlgorithm,omitempty" json:"aeadAlgorithm,omitempty"`
	HMACAlgorithm *int64   `yaml:"hmacAlgorithm,omitempty" json:"hmacAlgorithm,omitempty"`
	MasterSalt    HexBytes `yaml:"masterSalt,omitempty" json:"masterSalt,omitempty"`
}

// Parameters returns the OSCORE parameters of o as seen by the client it
// is written to. Absent algorithms select the defaults.
func (o OSCOREObject) Parameters() oscore.Parameters {
	p := oscore.Parameters{
		MasterSecret: slices.Clone(o.MasterSecret),
		SenderID:     slices.Clone(o.SenderID),
		RecipientID:  slices.Clone(o.RecipientID),
		MasterSalt:   slices.Clone(o.MasterSalt),
	}
	if o.AEADAlgorithm != nil {
		p.AEADAlgorithm = oscore.AEADAlg(*o.AEADAlgorithm)
	}
	if o.HMACAlgorithm != nil {
		p.HMACAlgorithm = oscore.HKDFAlg(*o.HMACAlgorithm)
	}
	return p
}

// ServerParameters returns the parameters of o from the server's side:
// sender and recipient ids are swapped.
func (o OSCOREObject) ServerParameters() oscore.Parameters {
	p := o.Parameters()
	p.SenderID, p.RecipientID = p.RecipientID, p.SenderID
	return p
}

// Validate checks c for errors that would make the request batch
// impossible to build.
func (c *Config) Validate() error {
	for _, p := range c.ToDelete {
		if _, err := node.ParsePath(p); err != nil {
			return fmt.Errorf("%w: toDelete: %w", ErrInvalidConfig, err)
		}
	}

	for id, s := range c.Security {
		if s.SecurityMode != nil && !s.SecurityMode.Valid() {
			return fmt.Errorf("%w: security %d: %w %d", ErrInvalidConfig, id, endpoint.ErrUnsupportedSecurityMode, uint8(*s.SecurityMode))
		}
		if s.OSCORESecurityMode != nil {
			if _, ok := c.OSCORE[*s.OSCORESecurityMode]; !ok {
				return fmt.Errorf("%w: security %d: oscore instance %d not configured", ErrInvalidConfig, id, *s.OSCORESecurityMode)
			}
		}
	}

	for id, o := range c.OSCORE {
		if len(o.MasterSecret) == 0 || o.RecipientID == nil || o.SenderID == nil {
			continue
		}
		if _, err := oscore.Derive(o.Parameters(), nil); err != nil {
			return fmt.Errorf("%w: oscore %d: %w", ErrInvalidConfig, id, err)
		}
	}

	if c.AutoIDForSecurityObject && c.BootstrapServerCount() > 1 {
		return fmt.Errorf("%w: auto id mode allows one bootstrap server security entry", ErrInvalidConfig)
	}

	seen := make(map[uint16]bool, len(c.Extensions))
	for _, ext := range c.Extensions {
		switch ext.ObjectID {
		case ObjectSecurity, ObjectServer, ObjectAccessControl, ObjectOSCORE:
			return fmt.Errorf("%w: extension uses core object id %d", ErrInvalidConfig, ext.ObjectID)
		}
		if seen[ext.ObjectID] {
			return fmt.Errorf("%w: extension object %d declared twice", ErrInvalidConfig, ext.ObjectID)
		}
		seen[ext.ObjectID] = true
	}
	return nil
}

// BootstrapServerCount returns the number of Security entries flagged as
// bootstrap server.
func (c *Config) BootstrapServerCount() int {
	n := 0
	for _, s := range c.Security {
		if s.BootstrapServer {
			n++
		}
	}
	return n
}
