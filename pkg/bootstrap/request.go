package bootstrap

import (
	"fmt"

	"github.com/lwm2m-go/lwm2m/pkg/node"
)

// RequestKind identifies a downlink bootstrap request.
type RequestKind uint8

const (
	KindDiscover RequestKind = iota + 1
	KindWrite
	KindDelete
	KindFinish
)

// String returns the request name.
func (k RequestKind) String() string {
	switch k {
	case KindDiscover:
		return "DISCOVER"
	case KindWrite:
		return "WRITE"
	case KindDelete:
		return "DELETE"
	case KindFinish:
		return "FINISH"
	default:
		return "UNKNOWN"
	}
}

// Request is a request sent from the bootstrap server to the client.
type Request interface {
	Kind() RequestKind
	Target() node.Path
	String() string
}

// DiscoverRequest is a Bootstrap-Discover.
type DiscoverRequest struct {
	Path node.Path
}

func (DiscoverRequest) Kind() RequestKind   { return KindDiscover }
func (r DiscoverRequest) Target() node.Path { return r.Path }
func (r DiscoverRequest) String() string    { return "DISCOVER " + r.Path.String() }

// WriteRequest is a Bootstrap-Write of one object instance.
type WriteRequest struct {
	Path          node.Path
	Instance      node.Instance
	ContentFormat ContentFormat
}

func (WriteRequest) Kind() RequestKind   { return KindWrite }
func (r WriteRequest) Target() node.Path { return r.Path }
func (r WriteRequest) String() string {
	return fmt.Sprintf("WRITE %s (%s) %s", r.Path, r.ContentFormat, r.Instance)
}

// DeleteRequest is a Bootstrap-Delete.
type DeleteRequest struct {
	Path node.Path
}

func (DeleteRequest) Kind() RequestKind   { return KindDelete }
func (r DeleteRequest) Target() node.Path { return r.Path }
func (r DeleteRequest) String() string    { return "DELETE " + r.Path.String() }

// FinishRequest is a Bootstrap-Finish.
type FinishRequest struct{}

func (FinishRequest) Kind() RequestKind { return KindFinish }
func (FinishRequest) Target() node.Path { return node.Root() }
func (FinishRequest) String() string    { return "FINISH" }

// Compile-time interface checks.
var (
	_ Request = DiscoverRequest{}
	_ Request = WriteRequest{}
	_ Request = DeleteRequest{}
	_ Request = FinishRequest{}
)
