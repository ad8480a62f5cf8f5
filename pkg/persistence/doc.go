// Package persistence serializes peer identities and keeps the client's
// server bindings across restarts.
//
// Identities use a flat JSON object whose keys tell the variants apart:
//
//	{"address": "192.0.2.1", "port": 5683}   socket
//	{"pskid": "device-1"}                    pre-shared key
//	{"rpk": "3059301306..."}                 raw public key, hex DER
//	{"cn": "device-1"}                       X.509 common name
//	{"rid": "0102"}                          OSCORE recipient id, hex
//
// Peers wrap an identity together with the socket they were seen on. The
// [StateStore] writes the known servers to a JSON state file.
package persistence
