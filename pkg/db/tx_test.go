package db_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/testdb"
	"marketplace/pkg/db"
	"marketplace/pkg/status"
)

func TestWithTx(t *testing.T) {
	pool := testdb.Open(t)
	ctx := context.Background()
	customer := testdb.User(t, pool, "Cleo", status.RoleCustomer)
	rename := func(tx pgx.Tx, name string) error {
		_, err := tx.Exec(ctx, `UPDATE users SET name = $2 WHERE id = $1`, customer, name)
		return err
	}
	named := func(name string) int {
		return testdb.Count(t, pool, `SELECT COUNT(*) FROM users WHERE id = $1 AND name = $2`, customer, name)
	}

	errStop := errors.New("stop")
	err := db.WithTx(ctx, pool, func(tx pgx.Tx) error {
		require.NoError(t, rename(tx, "Rolled"))
		return errStop
	})
	assert.Same(t, errStop, err, "fn's error is returned as-is")
	assert.Zero(t, named("Rolled"))

	err = db.WithTx(ctx, pool, func(tx pgx.Tx) error { return rename(tx, "Kept") })
	require.NoError(t, err)
	assert.Equal(t, 1, named("Kept"))
}
