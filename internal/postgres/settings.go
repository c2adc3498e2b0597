package postgres

import (
	"context"

	"github.com/dukerupert/vatcheck/internal/domain"
	"github.com/dukerupert/vatcheck/internal/settings"
	"github.com/dukerupert/vatcheck/internal/vat"
	"github.com/jackc/pgx/v5"
)

// SettingsStore keeps the VAT configuration in the vat_settings key/value table.
type SettingsStore struct {
	db DB
}

var _ settings.Store = (*SettingsStore)(nil)

// NewSettingsStore creates a SettingsStore.
func NewSettingsStore(db DB) *SettingsStore {
	return &SettingsStore{db: db}
}

// Load reads every VAT key in one query.
func (s *SettingsStore) Load(ctx context.Context) (vat.Config, error) {
	const op = "settings.load"
	const q = `SELECT key, value FROM vat_settings WHERE key = ANY($1)`

	rows, err := s.db.Query(ctx, q, settings.Keys())
	if err != nil {
		return vat.Config{}, domain.Internal(err, op, "failed to load VAT settings")
	}

	values := make(map[string]string, len(settings.Keys()))
	var key, value string
	_, err = pgx.ForEachRow(rows, []any{&key, &value}, func() error {
		values[key] = value
		return nil
	})
	if err != nil {
		return vat.Config{}, domain.Internal(err, op, "failed to read VAT settings")
	}

	return settings.Decode(values)
}

// Save validates cfg and writes every key in one transaction.
func (s *SettingsStore) Save(ctx context.Context, cfg vat.Config) error {
	const op = "settings.save"
	const q = `
INSERT INTO vat_settings (key, value, updated_at)
VALUES ($1, $2, NOW())
ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
`
	values := settings.Encode(cfg)
	cfg.ExcludedCountry = values[settings.KeyCountry]
	if err := settings.Validate(cfg); err != nil {
		return err
	}

	err := pgx.BeginFunc(ctx, s.db, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		for _, key := range settings.Keys() {
			batch.Queue(q, key, values[key])
		}
		return tx.SendBatch(ctx, batch).Close()
	})
	if err != nil {
		return domain.Internal(err, op, "failed to save VAT settings")
	}
	return nil
}
