package node

import (
	"slices"
	"strconv"
	"strings"
)

// Instance is an object instance with its resources.
type Instance struct {
	id        uint16
	resources map[uint16]Resource
}

// NewInstance creates an instance. A later resource replaces an earlier one
// with the same id.
func NewInstance(id uint16, resources ...Resource) Instance {
	m := make(map[uint16]Resource, len(resources))
	for _, r := range resources {
		m[r.id] = r
	}
	return Instance{id: id, resources: m}
}

// ID returns the instance id.
func (i Instance) ID() uint16 { return i.id }

// Resource returns the resource with the given id.
func (i Instance) Resource(id uint16) (Resource, bool) {
	r, ok := i.resources[id]
	return r, ok
}

// Len returns the number of resources.
func (i Instance) Len() int { return len(i.resources) }

// ResourceIDs returns the sorted resource ids.
func (i Instance) ResourceIDs() []uint16 {
	ids := make([]uint16, 0, len(i.resources))
	for id := range i.resources {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Resources returns the resources ordered by id.
func (i Instance) Resources() []Resource {
	out := make([]Resource, 0, len(i.resources))
	for _, id := range i.ResourceIDs() {
		out = append(out, i.resources[id])
	}
	return out
}

// WithID returns a copy of i with a different instance id.
func (i Instance) WithID(id uint16) Instance {
	i.id = id
	return i
}

// String formats the instance with its resources ordered by id.
func (i Instance) String() string {
	var b strings.Builder
	b.WriteString("Instance[id=")
	b.WriteString(strconv.FormatUint(uint64(i.id), 10))
	for _, r := range i.Resources() {
		b.WriteByte(' ')
		b.WriteString(r.String())
	}
	b.WriteByte(']')
	return b.String()
}
