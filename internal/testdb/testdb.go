// Package testdb gives repository tests a migrated Postgres pool. Tests skip
// unless TEST_DATABASE_URL is set. Every seeded row uses fresh ids, so
// packages can share one database without truncating it.
package testdb

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"marketplace/pkg/config"
	"marketplace/pkg/db"
	"marketplace/pkg/status"
)

const EnvURL = "TEST_DATABASE_URL"

// Open migrates the database named by TEST_DATABASE_URL and returns a pool
// closed at test cleanup.
func Open(t *testing.T) *pgxpool.Pool {
	t.Helper()

	url := os.Getenv(EnvURL)
	if url == "" {
		t.Skipf("%s not set; skipping repository test", EnvURL)
	}
	cfg := config.Config{DatabaseURL: url}

	require.NoError(t, db.Migrate("file://"+migrationsDir(), cfg))

	pool, err := db.Open(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return pool
}

func migrationsDir() string {
	_, file, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(file), "..", "..", "migrations")
}

func User(t *testing.T, pool *pgxpool.Pool, name string, role status.Role) string {
	t.Helper()
	const q = `INSERT INTO users (name, email, role) VALUES ($1, $2, $3) RETURNING id`
	var id string
	err := pool.QueryRow(context.Background(), q, name, uuid.NewString()+"@example.test", string(role)).Scan(&id)
	require.NoError(t, err)
	return id
}

func Bid(t *testing.T, pool *pgxpool.Pool, customerID string, s status.BidStatus) string {
	t.Helper()
	const q = `
INSERT INTO bids (customer_id, service_name, address, budget, status)
VALUES ($1, 'Gardening', '1 Test St', 80, $2)
RETURNING id
`
	var id string
	require.NoError(t, pool.QueryRow(context.Background(), q, customerID, int(s)).Scan(&id))
	return id
}

func Offer(t *testing.T, pool *pgxpool.Pool, bidID, workerID string, price decimal.Decimal) string {
	t.Helper()
	const q = `INSERT INTO offers (bid_id, worker_id, price) VALUES ($1, $2, $3) RETURNING id`
	var id string
	require.NoError(t, pool.QueryRow(context.Background(), q, bidID, workerID, price).Scan(&id))
	return id
}

func Booking(t *testing.T, pool *pgxpool.Pool, customerID, workerID string, s status.BookingStatus) string {
	t.Helper()
	const q = `
INSERT INTO bookings (customer_id, worker_id, service_name, address, price, status)
VALUES ($1, $2, 'Plumbing', '1 Test St', 40, $3)
RETURNING id
`
	var id string
	require.NoError(t, pool.QueryRow(context.Background(), q, customerID, workerID, int(s)).Scan(&id))
	return id
}

// Count runs a COUNT(*) query.
func Count(t *testing.T, pool *pgxpool.Pool, q string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, pool.QueryRow(context.Background(), q, args...).Scan(&n))
	return n
}

func StatusEvents(t *testing.T, pool *pgxpool.Pool, entityID string) int {
	t.Helper()
	return Count(t, pool, `SELECT COUNT(*) FROM status_events WHERE entity_id = $1`, entityID)
}

func AuditLogs(t *testing.T, pool *pgxpool.Pool, entityID, action string) int {
	t.Helper()
	return Count(t, pool, `SELECT COUNT(*) FROM audit_logs WHERE entity_id = $1 AND action = $2`, entityID, action)
}
