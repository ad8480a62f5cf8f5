// Package identity models who a remote LwM2M peer is and how it was
// authenticated.
//
// # Peer Identities
//
// A [Peer] is exactly one of five credential variants:
//
//   - Socket: no transport security, identified by its IP address and port
//   - PSK: pre-shared key, identified by the PSK identity string
//   - RPK: raw public key, identified by the key itself
//   - X509: certificate, reduced to the subject common name
//   - OSCORE: object security, identified by the recipient id
//
// Variants are mutually exclusive. Two peers of different kinds are never
// equal, even when their payloads look alike. Use [Peer.Equal] for
// comparison and [Peer.Key] when a peer must be used as a map key.
//
// # Server Identities
//
// A [Server] names a logical LwM2M server as seen from the client: its peer
// credential, its short server id, its role and its URI. The URI is
// informational and does not take part in equality. [SystemServer] is the
// sentinel used for internal calls that bypass access control.
//
// # X.509 Common Names
//
// Servers authenticated with certificates are recorded with the
// [WildcardCommonName] because the CN cannot be derived for every
// certificate usage. [CommonNameFromRFC2253] and [CommonNameFromCertificate]
// extract real common names where they are needed.
package identity
