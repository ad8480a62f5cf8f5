package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/lwm2m-go/lwm2m/pkg/bootstrap"
)

var _ bootstrap.ConfigStore = (*DB)(nil)

// PutConfig validates cfg and stores it for endpoint, replacing any
// previous configuration.
func (d *DB) PutConfig(ctx context.Context, endpoint string, cfg *bootstrap.Config) error {
	if cfg == nil {
		return fmt.Errorf("%w: nil config", bootstrap.ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	doc, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode bootstrap config: %w", err)
	}

	_, err = d.db.ExecContext(ctx,
		`INSERT INTO bootstrap_configs (endpoint, config, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(endpoint) DO UPDATE SET config = excluded.config, updated_at = excluded.updated_at`,
		endpoint, string(doc), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("store bootstrap config: %w", err)
	}
	return nil
}

// LoadConfig returns the configuration of endpoint, or ErrNotFound.
func (d *DB) LoadConfig(ctx context.Context, endpoint string) (*bootstrap.Config, error) {
	var doc string
	err := d.db.QueryRowContext(ctx, `SELECT config FROM bootstrap_configs WHERE endpoint = ?`, endpoint).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load bootstrap config: %w", err)
	}

	var cfg bootstrap.Config
	if err := json.Unmarshal([]byte(doc), &cfg); err != nil {
		return nil, fmt.Errorf("decode bootstrap config %q: %w", endpoint, err)
	}
	return &cfg, nil
}

// DeleteConfig removes the configuration of endpoint. It reports
// ErrNotFound when there was none.
func (d *DB) DeleteConfig(ctx context.Context, endpoint string) error {
	res, err := d.db.ExecContext(ctx, `DELETE FROM bootstrap_configs WHERE endpoint = ?`, endpoint)
	if err != nil {
		return fmt.Errorf("delete bootstrap config: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// Endpoints returns the endpoints with a configuration, sorted.
func (d *DB) Endpoints(ctx context.Context) ([]string, error) {
	rows, err := d.db.QueryContext(ctx, `SELECT endpoint FROM bootstrap_configs ORDER BY endpoint`)
	if err != nil {
		return nil, fmt.Errorf("list bootstrap configs: %w", err)
	}
	defer rows.Close()

	var endpoints []string
	for rows.Next() {
		var ep string
		if err := rows.Scan(&ep); err != nil {
			return nil, fmt.Errorf("list bootstrap configs: %w", err)
		}
		endpoints = append(endpoints, ep)
	}
	return endpoints, rows.Err()
}

// Get implements bootstrap.ConfigStore.
func (d *DB) Get(ctx context.Context, s *bootstrap.Session) (*bootstrap.Config, error) {
	cfg, err := d.LoadConfig(ctx, s.Endpoint)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return cfg, err
}
