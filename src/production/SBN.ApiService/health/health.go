package health

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"
	config "gitlab.com/binsense1/sbn.bin_server/src/production/SBN.Config"
)

// HealthChecker provides health check functionality
type HealthChecker struct {
	db *sql.DB
}

// NewHealthChecker creates a new health checker
func NewHealthChecker(db *sql.DB) *HealthChecker {
	return &HealthChecker{db: db}
}

// PingPostgres checks if the PostgreSQL connection is healthy
func (h *HealthChecker) PingPostgres(ctx context.Context) error {
	if h.db == nil {
		return fmt.Errorf("database connection is nil")
	}
	return h.db.PingContext(ctx)
}

// CheckDatabaseHealth performs a comprehensive database health check
func (h *HealthChecker) CheckDatabaseHealth(ctx context.Context) error {
	if err := h.PingPostgres(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	var result int
	err := h.db.QueryRowContext(ctx, "SELECT 1").Scan(&result)
	if err != nil {
		return fmt.Errorf("database query failed: %w", err)
	}

	return nil
}

// ConnectPostgresWithTimeout creates a PostgreSQL connection with a timeout context
func ConnectPostgresWithTimeout(cfg *config.Config, timeout time.Duration) (*sql.DB, error) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	db, err := sql.Open("postgres", cfg.GetDatabaseDSN())
	if err != nil {
		return nil, fmt.Errorf("unable to open PostgreSQL connection: %w", err)
	}

	// Test the connection
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("unable to ping PostgreSQL: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(cfg.Database.MaxConns)
	db.SetMaxIdleConns(cfg.Database.MinConns)
	db.SetConnMaxLifetime(5 * time.Minute)

	return db, nil
}

// DatabaseManager handles database schema operations
type DatabaseManager struct {
	db *sql.DB
}

// NewDatabaseManager creates a new database manager
func NewDatabaseManager(db *sql.DB) *DatabaseManager {
	return &DatabaseManager{db: db}
}

// CreateTables creates the required tables if they don't exist
func (dm *DatabaseManager) CreateTables(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	createDevicesTable := `
		CREATE TABLE IF NOT EXISTS devices (
			id                 TEXT PRIMARY KEY,
			name               TEXT,
			location           TEXT DEFAULT 'Unknown',
			threshold          INTEGER NOT NULL DEFAULT 85,
			deployed           BOOLEAN NOT NULL DEFAULT false,
			last_seen          TIMESTAMPTZ,
			status             TEXT NOT NULL DEFAULT 'offline',
			battery_percentage DOUBLE PRECISION,
			voltage            DOUBLE PRECISION,
			is_tilted          BOOLEAN
		);
	`

	createReadingsTable := `
		CREATE TABLE IF NOT EXISTS readings (
			id                 BIGSERIAL PRIMARY KEY,
			device_id          TEXT NOT NULL,
			fill_level         DOUBLE PRECISION NOT NULL,
			battery_percentage DOUBLE PRECISION NOT NULL,
			voltage            DOUBLE PRECISION NOT NULL,
			is_tilted          BOOLEAN NOT NULL,
			created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
			FOREIGN KEY (device_id) REFERENCES devices(id) ON DELETE CASCADE
		);
	`

	createSettingsTable := `
		CREATE TABLE IF NOT EXISTS system_settings (
			key         TEXT PRIMARY KEY,
			value       BIGINT NOT NULL,
			description TEXT
		);
	`

	createIndexes := `
		CREATE INDEX IF NOT EXISTS idx_readings_device_created_desc ON readings (device_id, created_at DESC);
		CREATE INDEX IF NOT EXISTS idx_devices_deployed ON devices (deployed);
	`

	queries := []string{
		createDevicesTable,
		createReadingsTable,
		createSettingsTable,
		createIndexes,
	}

	for _, query := range queries {
		if _, err := dm.db.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("failed to execute query: %w", err)
		}
	}

	return nil
}

// Close closes the database connection
func (dm *DatabaseManager) Close() error {
	if dm.db != nil {
		return dm.db.Close()
	}
	return nil
}
