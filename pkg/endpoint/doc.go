// Package endpoint decides which LwM2M server sent an incoming exchange.
//
// A client talks to one server at a time. When it connects, the transport
// [Provider] turns the server's [ServerInfo] into an identity.Server and
// binds it to the endpoint it opened. Every exchange that later arrives is
// passed to the [Extractor], which attributes it to the bound server only
// when:
//
//   - it arrived on the bound endpoint and that endpoint is started
//   - for unsecured servers, its source address is the server address
//   - for OSCORE servers, it was protected with the server's recipient id
//
// Anything else is rejected. Rejection is not an error; the caller treats
// the exchange as coming from an unknown peer.
//
// # Limitations
//
// Only a single server per endpoint is supported. Binding a new server
// replaces the previous binding.
//
// # DTLS
//
// [PeerFromDTLS] converts the state of a completed pion/dtls handshake into
// the credential carried by an [Exchange].
package endpoint
