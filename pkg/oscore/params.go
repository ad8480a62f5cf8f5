package oscore

import (
	"bytes"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"hash"
)

// AEADAlg is a COSE AEAD algorithm identifier.
type AEADAlg int

// Supported AEAD algorithms.
const (
	AlgA128GCM          AEADAlg = 1
	AlgA192GCM          AEADAlg = 2
	AlgA256GCM          AEADAlg = 3
	AlgAESCCM16_64_128  AEADAlg = 10
	AlgChaCha20Poly1305 AEADAlg = 24
	AlgAESCCM16_128_128 AEADAlg = 30
)

// DefaultAEADAlgorithm is used when no AEAD algorithm is provisioned.
const DefaultAEADAlgorithm = AlgAESCCM16_64_128

type aeadSpec struct {
	name     string
	keyLen   int
	nonceLen int
	tagLen   int
}

var aeadSpecs = map[AEADAlg]aeadSpec{
	AlgA128GCM:          {"A128GCM", 16, 12, 16},
	AlgA192GCM:          {"A192GCM", 24, 12, 16},
	AlgA256GCM:          {"A256GCM", 32, 12, 16},
	AlgAESCCM16_64_128:  {"AES-CCM-16-64-128", 16, 13, 8},
	AlgChaCha20Poly1305: {"ChaCha20/Poly1305", 32, 12, 16},
	AlgAESCCM16_128_128: {"AES-CCM-16-128-128", 16, 13, 16},
}

// String returns the COSE algorithm name.
func (a AEADAlg) String() string {
	if s, ok := aeadSpecs[a]; ok {
		return s.name
	}
	return fmt.Sprintf("AEAD(%d)", int(a))
}

// Supported reports whether a can be used for a context.
func (a AEADAlg) Supported() bool {
	_, ok := aeadSpecs[a]
	return ok
}

// KeyLen returns the key length in bytes.
func (a AEADAlg) KeyLen() int { return aeadSpecs[a].keyLen }

// NonceLen returns the nonce length in bytes.
func (a AEADAlg) NonceLen() int { return aeadSpecs[a].nonceLen }

// TagLen returns the authentication tag length in bytes.
func (a AEADAlg) TagLen() int { return aeadSpecs[a].tagLen }

// HKDFAlg is a COSE HKDF algorithm identifier.
type HKDFAlg int

// Supported key derivation algorithms.
const (
	AlgHKDFSHA256 HKDFAlg = -10
	AlgHKDFSHA512 HKDFAlg = -11
)

// DefaultHKDFAlgorithm is used when no HKDF algorithm is provisioned.
const DefaultHKDFAlgorithm = AlgHKDFSHA256

// String returns the COSE algorithm name.
func (h HKDFAlg) String() string {
	switch h {
	case AlgHKDFSHA256:
		return "HKDF-SHA-256"
	case AlgHKDFSHA512:
		return "HKDF-SHA-512"
	default:
		return fmt.Sprintf("HKDF(%d)", int(h))
	}
}

// Supported reports whether h can be used for a context.
func (h HKDFAlg) Supported() bool {
	return h == AlgHKDFSHA256 || h == AlgHKDFSHA512
}

func (h HKDFAlg) hash() func() hash.Hash {
	if h == AlgHKDFSHA512 {
		return sha512.New
	}
	return sha256.New
}

// Parameters are the long-lived inputs of an OSCORE context, as provisioned
// in an LwM2M OSCORE object instance.
type Parameters struct {
	MasterSecret []byte

	// SenderID identifies this end. It may be empty.
	SenderID []byte

	// RecipientID identifies the peer. It may be empty.
	RecipientID []byte

	// AEADAlgorithm defaults to AES-CCM-16-64-128 when zero.
	AEADAlgorithm AEADAlg

	// HMACAlgorithm defaults to HKDF SHA-256 when zero.
	HMACAlgorithm HKDFAlg

	// MasterSalt may be empty.
	MasterSalt []byte
}

// aead returns the effective AEAD algorithm.
func (p Parameters) aead() AEADAlg {
	if p.AEADAlgorithm == 0 {
		return DefaultAEADAlgorithm
	}
	return p.AEADAlgorithm
}

// hkdf returns the effective HKDF algorithm.
func (p Parameters) hkdf() HKDFAlg {
	if p.HMACAlgorithm == 0 {
		return DefaultHKDFAlgorithm
	}
	return p.HMACAlgorithm
}

// Clone returns a deep copy of p.
func (p Parameters) Clone() Parameters {
	p.MasterSecret = bytes.Clone(p.MasterSecret)
	p.SenderID = bytes.Clone(p.SenderID)
	p.RecipientID = bytes.Clone(p.RecipientID)
	p.MasterSalt = bytes.Clone(p.MasterSalt)
	return p
}

// Equal reports whether p and other describe the same context inputs.
func (p Parameters) Equal(other Parameters) bool {
	return bytes.Equal(p.MasterSecret, other.MasterSecret) &&
		bytes.Equal(p.SenderID, other.SenderID) &&
		bytes.Equal(p.RecipientID, other.RecipientID) &&
		p.aead() == other.aead() &&
		p.hkdf() == other.hkdf() &&
		bytes.Equal(p.MasterSalt, other.MasterSalt)
}

// String describes p without revealing the master secret or salt.
func (p Parameters) String() string {
	return fmt.Sprintf("OscoreParameters[sender=%x recipient=%x aead=%s hkdf=%s secret=%d bytes salt=%d bytes]",
		p.SenderID, p.RecipientID, p.aead(), p.hkdf(), len(p.MasterSecret), len(p.MasterSalt))
}
