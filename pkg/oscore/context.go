package oscore

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/pion/dtls/v3/pkg/crypto/ccm"
	"golang.org/x/crypto/chacha20poly1305"
)

// MaxSequenceNumber is the largest Partial IV value (2^40 - 1).
const MaxSequenceNumber uint64 = 1<<40 - 1

// ReplayWindowSize is the number of recent sequence numbers tracked for
// replay protection.
const ReplayWindowSize = 32

// Context errors.
var (
	ErrSequenceExhausted = errors.New("oscore sender sequence number exhausted")
	ErrReplay            = errors.New("oscore message replayed")
	ErrDecrypt           = errors.New("oscore decryption failed")
)

// RederivationPhase tracks the context re-derivation procedure of RFC 8613
// Appendix B.2.
type RederivationPhase uint8

// Re-derivation phases. PhaseNone marks a context that is not being
// re-derived.
const (
	PhaseNone RederivationPhase = iota
	PhaseClientInitiate
	PhaseClientPhase1
	PhaseClientPhase2
	PhaseClientPhase3
	PhaseServerInitiate
	PhaseServerPhase1
	PhaseServerPhase2
	PhaseServerPhase3
)

// String returns the phase name.
func (p RederivationPhase) String() string {
	switch p {
	case PhaseNone:
		return "INACTIVE"
	case PhaseClientInitiate:
		return "CLIENT_INITIATE"
	case PhaseClientPhase1:
		return "CLIENT_PHASE_1"
	case PhaseClientPhase2:
		return "CLIENT_PHASE_2"
	case PhaseClientPhase3:
		return "CLIENT_PHASE_3"
	case PhaseServerInitiate:
		return "SERVER_INITIATE"
	case PhaseServerPhase1:
		return "SERVER_PHASE_1"
	case PhaseServerPhase2:
		return "SERVER_PHASE_2"
	case PhaseServerPhase3:
		return "SERVER_PHASE_3"
	default:
		return "UNKNOWN"
	}
}

// Context is a derived OSCORE security context.
//
// Keys, ids and the common IV are fixed at derivation. The sender sequence
// number, the replay window and the re-derivation phase change as messages
// are exchanged and are safe for concurrent use.
type Context struct {
	params Parameters

	senderID     []byte
	recipientID  []byte
	idContext    []byte
	aead         AEADAlg
	hkdf         HKDFAlg
	senderKey    []byte
	recipientKey []byte
	commonIV     []byte

	mu        sync.Mutex
	senderSeq uint64
	phase     RederivationPhase

	// replaySeen is false until the first message was accepted.
	replaySeen    bool
	replayHighest uint64
	replayWindow  uint32
}

// Parameters returns a copy of the parameters the context was derived from.
func (c *Context) Parameters() Parameters { return c.params.Clone() }

// SenderID returns the sender id.
func (c *Context) SenderID() []byte { return bytes.Clone(c.senderID) }

// RecipientID returns the recipient id.
func (c *Context) RecipientID() []byte { return bytes.Clone(c.recipientID) }

// IDContext returns the ID Context, nil when absent.
func (c *Context) IDContext() []byte { return bytes.Clone(c.idContext) }

// AEADAlgorithm returns the AEAD algorithm.
func (c *Context) AEADAlgorithm() AEADAlg { return c.aead }

// HKDFAlgorithm returns the key derivation algorithm.
func (c *Context) HKDFAlgorithm() HKDFAlg { return c.hkdf }

// SenderKey returns the sender key.
func (c *Context) SenderKey() []byte { return bytes.Clone(c.senderKey) }

// RecipientKey returns the recipient key.
func (c *Context) RecipientKey() []byte { return bytes.Clone(c.recipientKey) }

// CommonIV returns the common IV.
func (c *Context) CommonIV() []byte { return bytes.Clone(c.commonIV) }

// RederivationPhase returns the current re-derivation phase.
func (c *Context) RederivationPhase() RederivationPhase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

// SetRederivationPhase moves the context to phase.
func (c *Context) SetRederivationPhase(phase RederivationPhase) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.phase = phase
}

// RederivationEnabled reports whether the context takes part in a
// re-derivation procedure.
func (c *Context) RederivationEnabled() bool {
	return c.RederivationPhase() != PhaseNone
}

// NextSequence returns the next sender sequence number and advances it.
func (c *Context) NextSequence() (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.senderSeq > MaxSequenceNumber {
		return 0, ErrSequenceExhausted
	}
	seq := c.senderSeq
	c.senderSeq++
	return seq, nil
}

// CheckReplay accepts seq as a received Partial IV. It fails with ErrReplay
// if seq was already accepted or is older than the replay window.
func (c *Context) CheckReplay(seq uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.replayCheckLocked(seq); err != nil {
		return err
	}
	c.replayRecordLocked(seq)
	return nil
}

func (c *Context) replayCheckLocked(seq uint64) error {
	if seq > MaxSequenceNumber {
		return fmt.Errorf("%w: sequence number %d out of range", ErrReplay, seq)
	}
	if !c.replaySeen || seq > c.replayHighest {
		return nil
	}
	diff := c.replayHighest - seq
	if diff >= ReplayWindowSize {
		return fmt.Errorf("%w: sequence number %d outside window", ErrReplay, seq)
	}
	if c.replayWindow&(1<<diff) != 0 {
		return fmt.Errorf("%w: sequence number %d", ErrReplay, seq)
	}
	return nil
}

func (c *Context) replayRecordLocked(seq uint64) {
	switch {
	case !c.replaySeen:
		c.replaySeen = true
		c.replayHighest = seq
		c.replayWindow = 1
	case seq > c.replayHighest:
		shift := seq - c.replayHighest
		if shift >= ReplayWindowSize {
			c.replayWindow = 1
		} else {
			c.replayWindow = c.replayWindow<<shift | 1
		}
		c.replayHighest = seq
	default:
		c.replayWindow |= 1 << (c.replayHighest - seq)
	}
}

// Nonce computes the AEAD nonce for a Partial IV and the id of the party
// that generated it, as specified in RFC 8613 section 5.2.
func (c *Context) Nonce(seq uint64, id []byte) ([]byte, error) {
	n := c.aead.NonceLen()
	if seq > MaxSequenceNumber {
		return nil, fmt.Errorf("%w: sequence number %d out of range", ErrInvalidParameters, seq)
	}
	if len(id) > n-6 {
		return nil, fmt.Errorf("%w: id longer than %d bytes", ErrInvalidParameters, n-6)
	}

	nonce := make([]byte, n)
	nonce[0] = byte(len(id))
	copy(nonce[n-5-len(id):n-5], id)

	var piv [8]byte
	binary.BigEndian.PutUint64(piv[:], seq)
	copy(nonce[n-5:], piv[3:])

	for i := range nonce {
		nonce[i] ^= c.commonIV[i]
	}
	return nonce, nil
}

// SenderAEAD returns the AEAD keyed with the sender key.
func (c *Context) SenderAEAD() (cipher.AEAD, error) {
	return newAEAD(c.aead, c.senderKey)
}

// RecipientAEAD returns the AEAD keyed with the recipient key.
func (c *Context) RecipientAEAD() (cipher.AEAD, error) {
	return newAEAD(c.aead, c.recipientKey)
}

// Seal protects plaintext with the next sender sequence number. It returns
// the sequence number used as Partial IV and the ciphertext.
func (c *Context) Seal(plaintext, aad []byte) (uint64, []byte, error) {
	seq, err := c.NextSequence()
	if err != nil {
		return 0, nil, err
	}
	nonce, err := c.Nonce(seq, c.senderID)
	if err != nil {
		return 0, nil, err
	}
	a, err := c.SenderAEAD()
	if err != nil {
		return 0, nil, err
	}
	return seq, a.Seal(nil, nonce, plaintext, aad), nil
}

// Open verifies and decrypts a message the peer protected with Partial IV
// seq. The sequence number is recorded in the replay window only when
// decryption succeeds.
func (c *Context) Open(seq uint64, ciphertext, aad []byte) ([]byte, error) {
	c.mu.Lock()
	err := c.replayCheckLocked(seq)
	c.mu.Unlock()
	if err != nil {
		return nil, err
	}

	nonce, err := c.Nonce(seq, c.recipientID)
	if err != nil {
		return nil, err
	}
	a, err := c.RecipientAEAD()
	if err != nil {
		return nil, err
	}
	plaintext, err := a.Open(nil, nonce, ciphertext, aad)
	if err != nil {
		return nil, ErrDecrypt
	}

	if err := c.CheckReplay(seq); err != nil {
		return nil, err
	}
	return plaintext, nil
}

func newAEAD(alg AEADAlg, key []byte) (cipher.AEAD, error) {
	switch alg {
	case AlgA128GCM, AlgA192GCM, AlgA256GCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	case AlgAESCCM16_64_128, AlgAESCCM16_128_128:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return ccm.NewCCM(block, alg.TagLen(), alg.NonceLen())
	case AlgChaCha20Poly1305:
		return chacha20poly1305.New(key)
	default:
		return nil, fmt.Errorf("%w: aead %s", ErrUnsupportedAlgorithm, alg)
	}
}
