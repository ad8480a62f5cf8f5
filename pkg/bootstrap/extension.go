package bootstrap

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"math"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/lwm2m-go/lwm2m/pkg/node"
)

// Vendor objects with built-in configuration types.
const (
	ObjectConnectionIdentity        uint16 = 36050
	ObjectConnectionServiceEndpoint uint16 = 36051
)

// DefaultExtensionVersion is used for collections without a version.
const DefaultExtensionVersion = "1.0"

// Extension is the configuration of one vendor object instance.
type Extension interface {
	// Resources returns the resources written for the instance. Absent
	// optional values are left out.
	Resources() ([]node.Resource, error)
}

// ExtensionCollection holds the instances of one vendor object.
type ExtensionCollection struct {
	ObjectID  uint16               `yaml:"objectId" json:"objectId"`
	Version   string               `yaml:"version,omitempty" json:"version,omitempty"`
	Instances map[uint16]Extension `yaml:"instances" json:"instances"`
}

// ObjectVersion returns the declared object version or the default.
func (c ExtensionCollection) ObjectVersion() string {
	if c.Version == "" {
		return DefaultExtensionVersion
	}
	return c.Version
}

// InstanceIDs returns the instance ids in ascending order.
func (c ExtensionCollection) InstanceIDs() []uint16 {
	ids := make([]uint16, 0, len(c.Instances))
	for id := range c.Instances {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// UnmarshalJSON decodes instances into the type registered for the
// object id.
func (c *ExtensionCollection) UnmarshalJSON(data []byte) error {
	var raw struct {
		ObjectID  uint16                     `json:"objectId"`
		Version   string                     `json:"version"`
		Instances map[uint16]json.RawMessage `json:"instances"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	instances := make(map[uint16]Extension, len(raw.Instances))
	for id, msg := range raw.Instances {
		ext, err := decodeExtension(raw.ObjectID, func(v any) error { return json.Unmarshal(msg, v) })
		if err != nil {
			return fmt.Errorf("extension /%d/%d: %w", raw.ObjectID, id, err)
		}
		instances[id] = ext
	}
	*c = ExtensionCollection{ObjectID: raw.ObjectID, Version: raw.Version, Instances: instances}
	return nil
}

// UnmarshalYAML decodes instances into the type registered for the
// object id.
func (c *ExtensionCollection) UnmarshalYAML(value *yaml.Node) error {
	var raw struct {
		ObjectID  uint16               `yaml:"objectId"`
		Version   string               `yaml:"version"`
		Instances map[uint16]yaml.Node `yaml:"instances"`
	}
	if err := value.Decode(&raw); err != nil {
		return err
	}

	instances := make(map[uint16]Extension, len(raw.Instances))
	for id, n := range raw.Instances {
		ext, err := decodeExtension(raw.ObjectID, n.Decode)
		if err != nil {
			return fmt.Errorf("extension /%d/%d: %w", raw.ObjectID, id, err)
		}
		instances[id] = ext
	}
	*c = ExtensionCollection{ObjectID: raw.ObjectID, Version: raw.Version, Instances: instances}
	return nil
}

func decodeExtension(objectID uint16, decode func(v any) error) (Extension, error) {
	switch objectID {
	case ObjectConnectionIdentity:
		var ext ConnectionIdentity
		if err := decode(&ext); err != nil {
			return nil, err
		}
		return ext, nil
	case ObjectConnectionServiceEndpoint:
		var ext ConnectionServiceEndpoint
		if err := decode(&ext); err != nil {
			return nil, err
		}
		return ext, nil
	default:
		var ext ResourceMap
		if err := decode(&ext); err != nil {
			return nil, err
		}
		return ext, nil
	}
}

// ConnectionIdentity is an instance of object 36050.
type ConnectionIdentity struct {
	ID           *string  `yaml:"id,omitempty" json:"id,omitempty"`
	PSKIdentity  *string  `yaml:"pskIdentity,omitempty" json:"pskIdentity,omitempty"`
	PSKSecretKey HexBytes `yaml:"pskSecretKey,omitempty" json:"pskSecretKey,omitempty"`
}

// Resources implements Extension.
func (c ConnectionIdentity) Resources() ([]node.Resource, error) {
	var rs []node.Resource
	if c.ID != nil {
		rs = append(rs, node.NewString(0, *c.ID))
	}
	if c.PSKIdentity != nil {
		rs = append(rs, node.NewString(1, *c.PSKIdentity))
	}
	if c.PSKSecretKey != nil {
		rs = append(rs, node.NewOpaque(2, c.PSKSecretKey))
	}
	return rs, nil
}

// ConnectionServiceEndpoint is an instance of object 36051.
type ConnectionServiceEndpoint struct {
	ServiceName     *string  `yaml:"serviceName,omitempty" json:"serviceName,omitempty"`
	Payload         *string  `yaml:"payload,omitempty" json:"payload,omitempty"`
	ServiceURI      *string  `yaml:"serviceUri,omitempty" json:"serviceUri,omitempty"`
	TopicRoot       *string  `yaml:"topicRoot,omitempty" json:"topicRoot,omitempty"`
	ServerPublicKey HexBytes `yaml:"serverPublicKey,omitempty" json:"serverPublicKey,omitempty"`
}

// Resources implements Extension.
func (c ConnectionServiceEndpoint) Resources() ([]node.Resource, error) {
	var rs []node.Resource
	for id, v := range []*string{c.ServiceName, c.Payload, c.ServiceURI, c.TopicRoot} {
		if v != nil {
			rs = append(rs, node.NewString(uint16(id), *v))
		}
	}
	if c.ServerPublicKey != nil {
		rs = append(rs, node.NewOpaque(4, c.ServerPublicKey))
	}
	return rs, nil
}

// ResourceSpec is a typed resource as written in configuration files.
// Opaque values are hex strings, object links "object:instance" and times
// RFC 3339 strings or Unix seconds.
type ResourceSpec struct {
	ID     uint16         `yaml:"id" json:"id"`
	Type   node.Type      `yaml:"type" json:"type"`
	Value  any            `yaml:"value,omitempty" json:"value,omitempty"`
	Values map[uint16]any `yaml:"values,omitempty" json:"values,omitempty"`
}

// ResourceMap is the configuration of an instance of a vendor object
// without a built-in type.
type ResourceMap []ResourceSpec

// Resources implements Extension.
func (m ResourceMap) Resources() ([]node.Resource, error) {
	rs := make([]node.Resource, 0, len(m))
	for _, spec := range m {
		r, err := spec.resource()
		if err != nil {
			return nil, err
		}
		rs = append(rs, r)
	}
	return rs, nil
}

func (s ResourceSpec) resource() (node.Resource, error) {
	if s.Values != nil {
		values := make(map[uint16]any, len(s.Values))
		for id, raw := range s.Values {
			v, err := coerce(s.Type, raw)
			if err != nil {
				return node.Resource{}, fmt.Errorf("resource %d instance %d: %w", s.ID, id, err)
			}
			values[id] = v
		}
		return node.NewMultiple(s.ID, s.Type, values)
	}

	v, err := coerce(s.Type, s.Value)
	if err != nil {
		return node.Resource{}, fmt.Errorf("resource %d: %w", s.ID, err)
	}
	return node.NewSingle(s.ID, s.Type, v)
}

// coerce converts a decoded YAML or JSON scalar to the Go type of t.
func coerce(t node.Type, v any) (any, error) {
	switch t {
	case node.TypeString, node.TypeCoreLink:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case node.TypeInteger:
		if n, ok := toInt64(v); ok {
			return n, nil
		}
	case node.TypeUnsigned:
		if n, ok := toInt64(v); ok && n >= 0 {
			return uint64(n), nil
		}
		if n, ok := v.(uint64); ok {
			return n, nil
		}
	case node.TypeFloat:
		switch n := v.(type) {
		case float64:
			return n, nil
		case int:
			return float64(n), nil
		case int64:
			return float64(n), nil
		}
	case node.TypeBoolean:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case node.TypeOpaque:
		switch b := v.(type) {
		case string:
			decoded, err := hex.DecodeString(b)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", node.ErrTypeMismatch, err)
			}
			return decoded, nil
		case []byte:
			return b, nil
		}
	case node.TypeTime:
		switch tv := v.(type) {
		case time.Time:
			return tv, nil
		case string:
			parsed, err := time.Parse(time.RFC3339, tv)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", node.ErrTypeMismatch, err)
			}
			return parsed, nil
		default:
			if n, ok := toInt64(v); ok {
				return time.Unix(n, 0).UTC(), nil
			}
		}
	case node.TypeObjLink:
		if s, ok := v.(string); ok {
			l, err := node.ParseObjLink(s)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", node.ErrTypeMismatch, err)
			}
			return l, nil
		}
	}
	return nil, fmt.Errorf("%w: %T for %s", node.ErrTypeMismatch, v, t)
}

func toInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int64:
		return n, true
	case uint64:
		if n <= math.MaxInt64 {
			return int64(n), true
		}
	case float64:
		if n == math.Trunc(n) && n >= math.MinInt64 && n <= math.MaxInt64 {
			return int64(n), true
		}
	}
	return 0, false
}
