// Package link parses and formats CoRE link format (RFC 6690) payloads as
// returned by LwM2M Discover requests.
//
// A Discover on "/" yields one link per object and object instance:
//
//	</>;lwm2m=1.1,</0>;ver=1.1,</0/0>,</0/1>;ssid=101,</1>;ver=1.1,</1/0>;ssid=101
//
// Attribute values may be quoted; quoted values may contain commas and
// semicolons.
package link
