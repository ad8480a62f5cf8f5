package bootstrap

import (
	"fmt"

	"github.com/lwm2m-go/lwm2m/pkg/link"
)

// ResponseCode is a CoAP response code (class << 5 | detail).
type ResponseCode uint8

// Response codes seen during bootstrap.
const (
	CodeCreated             ResponseCode = 0x41 // 2.01
	CodeDeleted             ResponseCode = 0x42 // 2.02
	CodeChanged             ResponseCode = 0x44 // 2.04
	CodeContent             ResponseCode = 0x45 // 2.05
	CodeBadRequest          ResponseCode = 0x80 // 4.00
	CodeUnauthorized        ResponseCode = 0x81 // 4.01
	CodeNotFound            ResponseCode = 0x84 // 4.04
	CodeMethodNotAllowed    ResponseCode = 0x85 // 4.05
	CodeNotAcceptable       ResponseCode = 0x86 // 4.06
	CodeUnsupportedFormat   ResponseCode = 0x8f // 4.15
	CodeInternalServerError ResponseCode = 0xa0 // 5.00
)

// Class returns the code class (2, 4 or 5).
func (c ResponseCode) Class() uint8 { return uint8(c) >> 5 }

// Detail returns the code detail.
func (c ResponseCode) Detail() uint8 { return uint8(c) & 0x1f }

// IsSuccess reports whether c is a 2.xx code.
func (c ResponseCode) IsSuccess() bool { return c.Class() == 2 }

// String returns the dotted "c.dd" form.
func (c ResponseCode) String() string {
	return fmt.Sprintf("%d.%02d", c.Class(), c.Detail())
}

// Response is a client response to a bootstrap request.
type Response interface {
	Code() ResponseCode
	IsSuccess() bool
}

// GenericResponse answers Write, Delete and Finish requests.
type GenericResponse struct {
	Status  ResponseCode
	Message string
}

func (r GenericResponse) Code() ResponseCode { return r.Status }
func (r GenericResponse) IsSuccess() bool    { return r.Status.IsSuccess() }

func (r GenericResponse) String() string {
	if r.Message == "" {
		return r.Status.String()
	}
	return r.Status.String() + " " + r.Message
}

// DiscoverResponse answers a Discover request with the object links present
// on the client.
type DiscoverResponse struct {
	Status  ResponseCode
	Links   []link.Link
	Message string
}

func (r DiscoverResponse) Code() ResponseCode { return r.Status }
func (r DiscoverResponse) IsSuccess() bool    { return r.Status.IsSuccess() }

func (r DiscoverResponse) String() string {
	if !r.IsSuccess() {
		return GenericResponse{Status: r.Status, Message: r.Message}.String()
	}
	return r.Status.String() + " " + link.Format(r.Links)
}

var (
	_ Response = GenericResponse{}
	_ Response = DiscoverResponse{}
)
