package postgres

import (
	"context"
	"errors"
	"fmt"

	domainErrors "github.com/cassiomorais/checkout/internal/domain/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SettingsRepository stores payment gateway settings as key/value rows.
type SettingsRepository struct {
	pool *pgxpool.Pool
}

func NewSettingsRepository(pool *pgxpool.Pool) *SettingsRepository {
	return &SettingsRepository{pool: pool}
}

func (r *SettingsRepository) db(ctx context.Context) DBTX {
	return ConnFromCtx(ctx, r.pool)
}

func (r *SettingsRepository) Get(ctx context.Context, key string) (string, bool, error) {
	var (
		value     string
		encrypted bool
	)
	err := r.db(ctx).QueryRow(ctx,
		`SELECT value, encrypted FROM payment_gateway_settings WHERE key = $1`, key,
	).Scan(&value, &encrypted)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", false, domainErrors.ErrSettingNotFound
		}
		return "", false, fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, encrypted, nil
}

func (r *SettingsRepository) Set(ctx context.Context, key, value string, encrypted bool) error {
	_, err := r.db(ctx).Exec(ctx,
		`INSERT INTO payment_gateway_settings (key, value, encrypted, updated_at)
		 VALUES ($1, $2, $3, NOW())
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, encrypted = EXCLUDED.encrypted, updated_at = NOW()`,
		key, value, encrypted,
	)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}
