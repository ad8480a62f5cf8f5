package store

import (
	"context"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/lwm2m-go/lwm2m/pkg/oscore"
)

var _ oscore.ParameterStore = (*DB)(nil)

// parametersRow is the stored form of oscore.Parameters.
type parametersRow struct {
	MasterSecret []byte         `cbor:"1,keyasint"`
	MasterSalt   []byte         `cbor:"2,keyasint,omitempty"`
	SenderID     []byte         `cbor:"3,keyasint"`
	RecipientID  []byte         `cbor:"4,keyasint"`
	AEAD         oscore.AEADAlg `cbor:"5,keyasint,omitempty"`
	HKDF         oscore.HKDFAlg `cbor:"6,keyasint,omitempty"`
}

// PutParameters stores params for the server at uri, replacing any entry
// with the same uri or recipient id. uri may be empty.
func (d *DB) PutParameters(ctx context.Context, uri string, params oscore.Parameters) error {
	if params.RecipientID == nil {
		return fmt.Errorf("%w: missing recipient id", oscore.ErrInvalidParameters)
	}
	blob, err := cbor.Marshal(parametersRow{
		MasterSecret: params.MasterSecret,
		MasterSalt:   params.MasterSalt,
		SenderID:     params.SenderID,
		RecipientID:  params.RecipientID,
		AEAD:         params.AEADAlgorithm,
		HKDF:         params.HMACAlgorithm,
	})
	if err != nil {
		return fmt.Errorf("encode oscore parameters: %w", err)
	}

	var uriValue sql.NullString
	if uri != "" {
		uriValue = sql.NullString{String: uri, Valid: true}
	}
	return d.inTx(ctx, func(tx *sql.Tx) error {
		if uriValue.Valid {
			if _, err := tx.ExecContext(ctx, `DELETE FROM oscore_parameters WHERE uri = ?`, uri); err != nil {
				return fmt.Errorf("replace oscore parameters: %w", err)
			}
		}
		_, err := tx.ExecContext(ctx,
			`INSERT OR REPLACE INTO oscore_parameters (recipient_id, uri, params) VALUES (?, ?, ?)`,
			params.RecipientID, uriValue, blob)
		if err != nil {
			return fmt.Errorf("store oscore parameters: %w", err)
		}
		return nil
	})
}

// RemoveParameters deletes the parameters with recipient id rid.
func (d *DB) RemoveParameters(ctx context.Context, rid []byte) error {
	if _, err := d.db.ExecContext(ctx, `DELETE FROM oscore_parameters WHERE recipient_id = ?`, rid); err != nil {
		return fmt.Errorf("remove oscore parameters: %w", err)
	}
	return nil
}

// LoadParameters returns the parameters with recipient id rid, or
// ErrNotFound.
func (d *DB) LoadParameters(ctx context.Context, rid []byte) (*oscore.Parameters, error) {
	var blob []byte
	err := d.db.QueryRowContext(ctx, `SELECT params FROM oscore_parameters WHERE recipient_id = ?`, rid).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load oscore parameters: %w", err)
	}

	var row parametersRow
	if err := cbor.Unmarshal(blob, &row); err != nil {
		return nil, fmt.Errorf("decode oscore parameters: %w", err)
	}
	return &oscore.Parameters{
		MasterSecret:  row.MasterSecret,
		MasterSalt:    row.MasterSalt,
		SenderID:      nonNil(row.SenderID),
		RecipientID:   nonNil(row.RecipientID),
		AEADAlgorithm: row.AEAD,
		HMACAlgorithm: row.HKDF,
	}, nil
}

// Parameters implements oscore.ParameterStore. Database errors are logged
// and reported as a miss.
func (d *DB) Parameters(rid []byte) (*oscore.Parameters, bool) {
	ctx, cancel := d.lookupContext()
	defer cancel()

	params, err := d.LoadParameters(ctx, rid)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			d.errorLog("oscore parameter lookup failed", "rid", hex.EncodeToString(rid), "error", err)
		}
		return nil, false
	}
	return params, true
}

// RecipientID implements oscore.ParameterStore.
func (d *DB) RecipientID(uri string) ([]byte, bool) {
	ctx, cancel := d.lookupContext()
	defer cancel()

	var rid []byte
	err := d.db.QueryRowContext(ctx, `SELECT recipient_id FROM oscore_parameters WHERE uri = ?`, uri).Scan(&rid)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			d.errorLog("oscore recipient lookup failed", "uri", uri, "error", err)
		}
		return nil, false
	}
	return nonNil(rid), true
}

// nonNil keeps empty ids distinguishable from absent ones.
func nonNil(b []byte) []byte {
	if b == nil {
		return []byte{}
	}
	return b
}
