// Package oscore derives and caches OSCORE security contexts (RFC 8613).
//
// Long-lived [Parameters] (master secret, sender and recipient ids,
// algorithms, master salt) are provisioned through the LwM2M OSCORE object
// and kept in a [ParameterStore]. A [Resolver] turns them into a [Context]
// on first use and caches it, so that sequence numbers and the replay window
// persist across messages.
//
// # Derivation
//
// [Derive] implements RFC 8613 section 3.2. Keys and the common IV are
// expanded with HKDF from the master secret and salt, using a CBOR encoded
// info array:
//
//	info = [ id, id_context, alg_aead, type, L ]
//
// # Fallback
//
// When a peer signals that its context state was lost, the [Fallback] flag is
// raised. While it is set, the resolver replaces fresh contexts with contexts
// derived for the re-derivation procedure of RFC 8613 Appendix B.2, starting
// in [PhaseClientInitiate].
//
// # Concurrency
//
// The resolver cache is guarded by a read-write mutex. Derivations for the
// same recipient id and id context are collapsed into one; derivations for
// different keys proceed independently.
package oscore
