//go:generate go run github.com/golang/mock/mockgen -destination=./mocks/usage_repository.go -package=mocks . UsageRepository

// Package database implements TimescaleDB-backed storage of usage history.
//
// Architecture:
//   - Device timeline samples land in the device_usage hypertable
//   - Network day/week/month totals land in network_usage, one row per fetch
//   - Samples overlap between refreshes, so inserts upsert on their time key
//   - Reads aggregate with time_bucket()
//
// Example usage:
//
//	repo, err := NewPostgresRepo("host=localhost port=5432 dbname=usage sslmode=disable")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer repo.Close()
//
//	if err := repo.StoreSnapshot(ctx, snap); err != nil {
//	    log.Warn(err)
//	}
//	points, err := repo.QueryDeviceUsage(ctx, "123", "aabbccddeeff", start, end, "1h")
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/davelindo/eero-menu-bar-sub001/internal/models"
)

// ErrInvalidWindow is returned for a bucket size outside SupportedWindows.
var ErrInvalidWindow = errors.New("invalid time window")

// SupportedWindows maps the accepted bucket sizes to their interval literal.
var SupportedWindows = map[string]string{
	"5m": "5 minutes",
	"1h": "1 hour",
	"1d": "1 day",
}

// Schema creates the tables used by PostgresRepo. It is safe to run on every
// start.
const Schema = `
CREATE TABLE IF NOT EXISTS device_usage (
    time        TIMESTAMPTZ NOT NULL,
    network_id  TEXT        NOT NULL,
    device_key  TEXT        NOT NULL,
    device_name TEXT        NOT NULL DEFAULT '',
    download    BIGINT      NOT NULL,
    upload      BIGINT      NOT NULL,
    PRIMARY KEY (network_id, device_key, time)
);
SELECT create_hypertable('device_usage', 'time', if_not_exists => TRUE);

CREATE TABLE IF NOT EXISTS network_usage (
    time       TIMESTAMPTZ NOT NULL,
    network_id TEXT        NOT NULL,
    period     TEXT        NOT NULL,
    download   BIGINT      NOT NULL,
    upload     BIGINT      NOT NULL,
    PRIMARY KEY (network_id, period, time)
);
SELECT create_hypertable('network_usage', 'time', if_not_exists => TRUE);
`

// UsageRepository defines the usage history operations.
//
// This interface provides methods for:
//   - Persisting the usage carried by an account snapshot
//   - Bucketed per-device usage reads
//   - Resource cleanup
type UsageRepository interface {
	// StoreSnapshot writes every device timeline sample and network total
	// of snap in a single transaction.
	StoreSnapshot(ctx context.Context, snap *models.AccountSnapshot) error

	// QueryDeviceUsage sums one device's samples into window-sized buckets
	// between start and end.
	QueryDeviceUsage(ctx context.Context, networkID, deviceKey string, start, end time.Time, window string) ([]UsagePoint, error)

	Close() error
}

// UsagePoint is one aggregated bucket.
type UsagePoint struct {
	Time     time.Time
	Download int64
	Upload   int64
}

// PostgresRepo implements UsageRepository using TimescaleDB.
type PostgresRepo struct {
	db *sql.DB
}

// NewPostgresRepo opens the connection pool and verifies connectivity.
//
// The connection string may be a URL or lib/pq keyword/value pairs, see
// config.DatabaseConfig.ConnString.
func NewPostgresRepo(connStr string) (*PostgresRepo, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, err
	}

	// Verify connection
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return &PostgresRepo{db: db}, nil
}

// SetMaxOpenConns caps the pool size.
func (s *PostgresRepo) SetMaxOpenConns(n int) {
	s.db.SetMaxOpenConns(n)
}

// EnsureSchema applies Schema.
func (s *PostgresRepo) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, Schema); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}
	return nil
}

type deviceRow struct {
	Time      time.Time
	NetworkID string
	Key       string
	Name      string
	Traffic   models.Traffic
}

type networkRow struct {
	Time      time.Time
	NetworkID string
	Period    string
	Traffic   models.Traffic
}

// snapshotRows flattens snap into insertable rows. Networks without activity
// contribute nothing; network totals are stamped with the fetch time.
func snapshotRows(snap *models.AccountSnapshot) ([]deviceRow, []networkRow) {
	if snap == nil {
		return nil, nil
	}

	var devices []deviceRow
	var networks []networkRow
	for _, network := range snap.Networks {
		if network.Activity == nil {
			continue
		}
		for _, timeline := range network.Activity.DeviceTimelines {
			for _, sample := range timeline.Samples {
				devices = append(devices, deviceRow{
					Time:      sample.Time,
					NetworkID: network.ExternalID,
					Key:       timeline.Key,
					Name:      timeline.Name,
					Traffic:   models.Traffic{Download: sample.Download, Upload: sample.Upload},
				})
			}
		}

		periods := []struct {
			name    string
			traffic *models.Traffic
		}{
			{"day", network.Activity.Network.Day},
			{"week", network.Activity.Network.Week},
			{"month", network.Activity.Network.Month},
		}
		for _, p := range periods {
			if p.traffic == nil {
				continue
			}
			networks = append(networks, networkRow{
				Time:      snap.FetchedAt,
				NetworkID: network.ExternalID,
				Period:    p.name,
				Traffic:   *p.traffic,
			})
		}
	}
	return devices, networks
}

// StoreSnapshot performs the bulk upsert.
//
// The operation is atomic - either all rows are written or none.
//
// Transaction Flow:
//  1. Begin transaction
//  2. Prepare both upsert statements
//  3. Execute inserts
//  4. Commit or rollback
func (s *PostgresRepo) StoreSnapshot(ctx context.Context, snap *models.AccountSnapshot) error {
	devices, networks := snapshotRows(snap)
	if len(devices) == 0 && len(networks) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() // rollback if not committed

	deviceStmt, err := tx.PrepareContext(ctx, `
        INSERT INTO device_usage (time, network_id, device_key, device_name, download, upload)
        VALUES ($1, $2, $3, $4, $5, $6)
        ON CONFLICT (network_id, device_key, time)
        DO UPDATE SET device_name = EXCLUDED.device_name,
                      download = EXCLUDED.download,
                      upload = EXCLUDED.upload
    `)
	if err != nil {
		return fmt.Errorf("failed to prepare device statement: %w", err)
	}
	defer deviceStmt.Close()

	networkStmt, err := tx.PrepareContext(ctx, `
        INSERT INTO network_usage (time, network_id, period, download, upload)
        VALUES ($1, $2, $3, $4, $5)
        ON CONFLICT (network_id, period, time) DO NOTHING
    `)
	if err != nil {
		return fmt.Errorf("failed to prepare network statement: %w", err)
	}
	defer networkStmt.Close()

	for _, r := range devices {
		if _, err := deviceStmt.ExecContext(ctx, r.Time, r.NetworkID, r.Key, r.Name, r.Traffic.Download, r.Traffic.Upload); err != nil {
			return fmt.Errorf("failed to insert device sample: %w", err)
		}
	}
	for _, r := range networks {
		if _, err := networkStmt.ExecContext(ctx, r.Time, r.NetworkID, r.Period, r.Traffic.Download, r.Traffic.Upload); err != nil {
			return fmt.Errorf("failed to insert network total: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// QueryDeviceUsage retrieves and sums device samples.
//
// Parameters:
//   - start: Beginning of time range (inclusive)
//   - end: End of time range (inclusive)
//   - window: Time bucket size ("5m", "1h", "1d")
//
// Returns ErrInvalidWindow for an unsupported window and an error when end
// precedes start; neither touches the database.
func (s *PostgresRepo) QueryDeviceUsage(
	ctx context.Context,
	networkID, deviceKey string,
	start, end time.Time,
	window string,
) ([]UsagePoint, error) {
	interval, ok := SupportedWindows[window]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidWindow, window)
	}
	if end.Before(start) {
		return nil, fmt.Errorf("end %s is before start %s", end.Format(time.RFC3339), start.Format(time.RFC3339))
	}

	rows, err := s.db.QueryContext(ctx, `
        SELECT
            time_bucket($1::interval, time) AS bucket_time,
            SUM(download) AS download,
            SUM(upload) AS upload
        FROM device_usage
        WHERE network_id = $2 AND device_key = $3 AND time BETWEEN $4 AND $5
        GROUP BY bucket_time
        ORDER BY bucket_time
    `, interval, networkID, deviceKey, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []UsagePoint
	for rows.Next() {
		var p UsagePoint
		if err := rows.Scan(&p.Time, &p.Download, &p.Upload); err != nil {
			return nil, err
		}
		results = append(results, p)
	}
	return results, rows.Err()
}

// Close releases all database resources.
func (s *PostgresRepo) Close() error {
	return s.db.Close()
}

// Compile-time interface implementation check
var _ UsageRepository = (*PostgresRepo)(nil)
