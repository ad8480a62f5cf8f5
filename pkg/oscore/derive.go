package oscore

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/fxamacker/cbor/v2"
	"golang.org/x/crypto/hkdf"
)

// Derivation errors.
var (
	ErrInvalidParameters    = errors.New("invalid oscore parameters")
	ErrUnsupportedAlgorithm = errors.New("unsupported oscore algorithm")
)

// infoEncMode encodes the HKDF info array.
var infoEncMode cbor.EncMode

func init() {
	var err error

	encOpts := cbor.EncOptions{
		Sort:          cbor.SortCanonical,
		IndefLength:   cbor.IndefLengthForbidden,
		NilContainers: cbor.NilContainerAsNull,
	}
	infoEncMode, err = encOpts.EncMode()
	if err != nil {
		panic(fmt.Sprintf("failed to create OSCORE CBOR encoder mode: %v", err))
	}
}

// Derive computes a security context from p as specified in RFC 8613
// section 3.2. idContext is the optional ID Context; nil means absent.
func Derive(p Parameters, idContext []byte) (*Context, error) {
	aead, alg := p.aead(), p.hkdf()
	if !aead.Supported() {
		return nil, fmt.Errorf("%w: aead %s", ErrUnsupportedAlgorithm, aead)
	}
	if !alg.Supported() {
		return nil, fmt.Errorf("%w: hkdf %s", ErrUnsupportedAlgorithm, alg)
	}
	if len(p.MasterSecret) == 0 {
		return nil, fmt.Errorf("%w: master secret is required", ErrInvalidParameters)
	}
	maxID := aead.NonceLen() - 6
	if len(p.SenderID) > maxID {
		return nil, fmt.Errorf("%w: sender id longer than %d bytes", ErrInvalidParameters, maxID)
	}
	if len(p.RecipientID) > maxID {
		return nil, fmt.Errorf("%w: recipient id longer than %d bytes", ErrInvalidParameters, maxID)
	}

	senderID := nonNil(p.SenderID)
	recipientID := nonNil(p.RecipientID)

	senderKey, err := expand(p, alg, aead, senderID, idContext, "Key", aead.KeyLen())
	if err != nil {
		return nil, err
	}
	recipientKey, err := expand(p, alg, aead, recipientID, idContext, "Key", aead.KeyLen())
	if err != nil {
		return nil, err
	}
	commonIV, err := expand(p, alg, aead, []byte{}, idContext, "IV", aead.NonceLen())
	if err != nil {
		return nil, err
	}

	return &Context{
		params:       p.Clone(),
		senderID:     senderID,
		recipientID:  recipientID,
		idContext:    bytes.Clone(idContext),
		aead:         aead,
		hkdf:         alg,
		senderKey:    senderKey,
		recipientKey: recipientKey,
		commonIV:     commonIV,
	}, nil
}

// expand runs HKDF for one output: a sender key, a recipient key or the
// common IV.
func expand(p Parameters, alg HKDFAlg, aead AEADAlg, id, idContext []byte, typ string, length int) ([]byte, error) {
	var ctxField any
	if idContext != nil {
		ctxField = idContext
	}
	info, err := infoEncMode.Marshal([]any{id, ctxField, int(aead), typ, uint(length)})
	if err != nil {
		return nil, fmt.Errorf("encode hkdf info: %w", err)
	}

	out := make([]byte, length)
	r := hkdf.New(alg.hash(), p.MasterSecret, p.MasterSalt, info)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("hkdf expand %s: %w", typ, err)
	}
	return out, nil
}

func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return bytes.Clone(b)
}
