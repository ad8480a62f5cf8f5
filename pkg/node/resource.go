package node

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

// ErrTypeMismatch is returned when a value does not match the resource type.
var ErrTypeMismatch = errors.New("value does not match resource type")

// Type is the LwM2M data type of a resource value.
type Type uint8

const (
	TypeString Type = iota + 1
	TypeInteger
	TypeUnsigned
	TypeFloat
	TypeBoolean
	TypeOpaque
	TypeTime
	TypeObjLink
	TypeCoreLink
)

// String returns the type name.
func (t Type) String() string {
	switch t {
	case TypeString:
		return "STRING"
	case TypeInteger:
		return "INTEGER"
	case TypeUnsigned:
		return "UNSIGNED_INTEGER"
	case TypeFloat:
		return "FLOAT"
	case TypeBoolean:
		return "BOOLEAN"
	case TypeOpaque:
		return "OPAQUE"
	case TypeTime:
		return "TIME"
	case TypeObjLink:
		return "OBJLNK"
	case TypeCoreLink:
		return "CORELINK"
	default:
		return "UNKNOWN"
	}
}

// ParseType parses a type name as returned by String.
func ParseType(s string) (Type, error) {
	for t := TypeString; t <= TypeCoreLink; t++ {
		if t.String() == s {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown resource type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if t < TypeString || t > TypeCoreLink {
		return nil, fmt.Errorf("unknown resource type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// ObjLink is an object link value: a reference to an object instance.
type ObjLink struct {
	ObjectID   uint16
	InstanceID uint16
}

// String returns the "object:instance" form.
func (l ObjLink) String() string {
	return strconv.FormatUint(uint64(l.ObjectID), 10) + ":" + strconv.FormatUint(uint64(l.InstanceID), 10)
}

// ParseObjLink parses the "object:instance" form.
func ParseObjLink(s string) (ObjLink, error) {
	obj, inst, ok := strings.Cut(s, ":")
	if !ok {
		return ObjLink{}, fmt.Errorf("invalid object link %q", s)
	}
	o, err := strconv.ParseUint(obj, 10, 16)
	if err != nil {
		return ObjLink{}, fmt.Errorf("invalid object link %q: %w", s, err)
	}
	i, err := strconv.ParseUint(inst, 10, 16)
	if err != nil {
		return ObjLink{}, fmt.Errorf("invalid object link %q: %w", s, err)
	}
	return ObjLink{ObjectID: uint16(o), InstanceID: uint16(i)}, nil
}

// checkValue verifies that v has the Go type used for t.
func checkValue(t Type, v any) error {
	ok := false
	switch t {
	case TypeString, TypeCoreLink:
		_, ok = v.(string)
	case TypeInteger:
		_, ok = v.(int64)
	case TypeUnsigned:
		_, ok = v.(uint64)
	case TypeFloat:
		_, ok = v.(float64)
	case TypeBoolean:
		_, ok = v.(bool)
	case TypeOpaque:
		_, ok = v.([]byte)
	case TypeTime:
		_, ok = v.(time.Time)
	case TypeObjLink:
		_, ok = v.(ObjLink)
	}
	if !ok {
		return fmt.Errorf("%w: %T for %s", ErrTypeMismatch, v, t)
	}
	return nil
}

// Resource is a single or multiple LwM2M resource.
type Resource struct {
	id       uint16
	typ      Type
	multiple bool
	value    any
	values   map[uint16]any
}

// NewSingle creates a single-valued resource.
func NewSingle(id uint16, t Type, v any) (Resource, error) {
	if err := checkValue(t, v); err != nil {
		return Resource{}, fmt.Errorf("resource %d: %w", id, err)
	}
	if b, ok := v.([]byte); ok {
		v = slices.Clone(b)
	}
	return Resource{id: id, typ: t, value: v}, nil
}

// NewMultiple creates a multiple resource from resource instance values.
// An empty set is valid.
func NewMultiple(id uint16, t Type, values map[uint16]any) (Resource, error) {
	copied := make(map[uint16]any, len(values))
	for rid, v := range values {
		if err := checkValue(t, v); err != nil {
			return Resource{}, fmt.Errorf("resource %d instance %d: %w", id, rid, err)
		}
		if b, ok := v.([]byte); ok {
			v = slices.Clone(b)
		}
		copied[rid] = v
	}
	return Resource{id: id, typ: t, multiple: true, values: copied}, nil
}

// NewString creates a string resource.
func NewString(id uint16, v string) Resource {
	return Resource{id: id, typ: TypeString, value: v}
}

// NewInteger creates an integer resource.
func NewInteger(id uint16, v int64) Resource {
	return Resource{id: id, typ: TypeInteger, value: v}
}

// NewUnsigned creates an unsigned integer resource.
func NewUnsigned(id uint16, v uint64) Resource {
	return Resource{id: id, typ: TypeUnsigned, value: v}
}

// NewBoolean creates a boolean resource.
func NewBoolean(id uint16, v bool) Resource {
	return Resource{id: id, typ: TypeBoolean, value: v}
}

// NewOpaque creates an opaque resource. The value is copied.
func NewOpaque(id uint16, v []byte) Resource {
	return Resource{id: id, typ: TypeOpaque, value: slices.Clone(v)}
}

// NewObjLink creates an object link resource.
func NewObjLink(id uint16, v ObjLink) Resource {
	return Resource{id: id, typ: TypeObjLink, value: v}
}

// ID returns the resource id.
func (r Resource) ID() uint16 { return r.id }

// Type returns the value type.
func (r Resource) Type() Type { return r.typ }

// IsMultiple reports whether r holds resource instances.
func (r Resource) IsMultiple() bool { return r.multiple }

// Value returns the value of a single resource, nil for multiple ones.
func (r Resource) Value() any {
	if b, ok := r.value.([]byte); ok {
		return slices.Clone(b)
	}
	return r.value
}

// Values returns a copy of the resource instances of a multiple resource.
func (r Resource) Values() map[uint16]any {
	if !r.multiple {
		return nil
	}
	out := make(map[uint16]any, len(r.values))
	for id, v := range r.values {
		if b, ok := v.([]byte); ok {
			v = slices.Clone(b)
		}
		out[id] = v
	}
	return out
}

// InstanceIDs returns the sorted resource instance ids.
func (r Resource) InstanceIDs() []uint16 {
	ids := make([]uint16, 0, len(r.values))
	for id := range r.values {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// String formats the resource. Opaque values are shown by length only.
func (r Resource) String() string {
	if !r.multiple {
		return fmt.Sprintf("%d=%s", r.id, formatValue(r.value))
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d=[", r.id)
	for i, id := range r.InstanceIDs() {
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%d:%s", id, formatValue(r.values[id]))
	}
	b.WriteByte(']')
	return b.String()
}

func formatValue(v any) string {
	switch v := v.(type) {
	case []byte:
		return fmt.Sprintf("opaque(%d)", len(v))
	case string:
		return strconv.Quote(v)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(v)
	}
}
