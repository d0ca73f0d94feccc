package implementation

import (
	"context"
	"database/sql"

	sbnmodels "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Models"
)

type PostgresSettingsRepository struct {
	db *sql.DB
}

func NewPostgresSettingsRepository(db *sql.DB) *PostgresSettingsRepository {
	return &PostgresSettingsRepository{db: db}
}

func (r *PostgresSettingsRepository) GetSetting(ctx context.Context, key string) (*sbnmodels.SystemSetting, error) {
	query := `SELECT key, value, description FROM system_settings WHERE key = $1`

	var setting sbnmodels.SystemSetting
	err := r.db.QueryRowContext(ctx, query, key).Scan(&setting.Key, &setting.Value, &setting.Description)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}

	return &setting, nil
}

func (r *PostgresSettingsRepository) UpsertSetting(ctx context.Context, setting sbnmodels.SystemSetting) error {
	query := `
		INSERT INTO system_settings (key, value, description)
		VALUES ($1, $2, $3)
		ON CONFLICT (key)
		DO UPDATE SET value = EXCLUDED.value
	`

	_, err := r.db.ExecContext(ctx, query, setting.Key, setting.Value, setting.Description)
	return err
}
