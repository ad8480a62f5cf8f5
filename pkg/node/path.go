package node

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidPath is returned for paths that cannot be parsed.
var ErrInvalidPath = errors.New("invalid path")

// Path depths.
const (
	DepthRoot     = 0
	DepthObject   = 1
	DepthInstance = 2
	DepthResource = 3
)

// Path addresses a node of the object tree.
type Path struct {
	ids   [DepthResource]uint16
	depth uint8
}

// Root returns the root path "/".
func Root() Path {
	return Path{}
}

// ObjectPath returns "/objectID".
func ObjectPath(objectID uint16) Path {
	return Path{ids: [DepthResource]uint16{objectID}, depth: DepthObject}
}

// InstancePath returns "/objectID/instanceID".
func InstancePath(objectID, instanceID uint16) Path {
	return Path{ids: [DepthResource]uint16{objectID, instanceID}, depth: DepthInstance}
}

// ResourcePath returns "/objectID/instanceID/resourceID".
func ResourcePath(objectID, instanceID, resourceID uint16) Path {
	return Path{ids: [DepthResource]uint16{objectID, instanceID, resourceID}, depth: DepthResource}
}

// ParsePath parses a path such as "/0/1". A missing leading slash is
// accepted; a trailing slash is not.
func ParsePath(s string) (Path, error) {
	trimmed := strings.TrimPrefix(s, "/")
	if trimmed == "" {
		return Root(), nil
	}

	parts := strings.Split(trimmed, "/")
	if len(parts) > DepthResource {
		return Path{}, fmt.Errorf("%w: %q has more than %d segments", ErrInvalidPath, s, DepthResource)
	}

	var p Path
	for i, part := range parts {
		id, err := strconv.ParseUint(part, 10, 16)
		if err != nil {
			return Path{}, fmt.Errorf("%w: %q segment %d: %v", ErrInvalidPath, s, i, err)
		}
		p.ids[i] = uint16(id)
	}
	p.depth = uint8(len(parts))
	return p, nil
}

// MustParsePath is like ParsePath but panics on error. It is meant for
// constant paths.
func MustParsePath(s string) Path {
	p, err := ParsePath(s)
	if err != nil {
		panic(err)
	}
	return p
}

// Depth returns the number of path segments.
func (p Path) Depth() int { return int(p.depth) }

// IsRoot reports whether p is "/".
func (p Path) IsRoot() bool { return p.depth == DepthRoot }

// IsObject reports whether p addresses an object.
func (p Path) IsObject() bool { return p.depth == DepthObject }

// IsInstance reports whether p addresses an object instance.
func (p Path) IsInstance() bool { return p.depth == DepthInstance }

// IsResource reports whether p addresses a resource.
func (p Path) IsResource() bool { return p.depth == DepthResource }

// ObjectID returns the object id. It is zero for the root path.
func (p Path) ObjectID() uint16 { return p.ids[0] }

// InstanceID returns the instance id and whether p has one.
func (p Path) InstanceID() (uint16, bool) {
	return p.ids[1], p.depth >= DepthInstance
}

// ResourceID returns the resource id and whether p has one.
func (p Path) ResourceID() (uint16, bool) {
	return p.ids[2], p.depth >= DepthResource
}

// String returns the slash separated form.
func (p Path) String() string {
	if p.depth == DepthRoot {
		return "/"
	}
	var b strings.Builder
	for i := 0; i < int(p.depth); i++ {
		b.WriteByte('/')
		b.WriteString(strconv.FormatUint(uint64(p.ids[i]), 10))
	}
	return b.String()
}

// MarshalText implements encoding.TextMarshaler.
func (p Path) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (p *Path) UnmarshalText(text []byte) error {
	parsed, err := ParsePath(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
