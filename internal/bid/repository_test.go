package bid

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace/internal/testdb"
	"marketplace/pkg/status"
)

func TestRepository_AcceptOffer(t *testing.T) {
	pool := testdb.Open(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	customer := testdb.User(t, pool, "Cleo", status.RoleCustomer)
	ann := testdb.User(t, pool, "Ann", status.RoleWorker)
	bo := testdb.User(t, pool, "Bo", status.RoleWorker)
	bidID := testdb.Bid(t, pool, customer, status.BidOpen)
	first := testdb.Offer(t, pool, bidID, ann, decimal.RequireFromString("75.00"))
	second := testdb.Offer(t, pool, bidID, bo, decimal.RequireFromString("62.50"))

	offers, err := repo.ListOffers(ctx, bidID, customer)
	require.NoError(t, err)
	require.Len(t, offers, 2)
	assert.Equal(t, second, offers[0].ID, "cheapest offer first")
	assert.Equal(t, "Bo", offers[0].WorkerName)

	t.Run("unknown offer rolls back", func(t *testing.T) {
		_, err := repo.AcceptOffer(ctx, bidID, uuid.NewString(), customer)
		require.ErrorIs(t, err, ErrOfferNotFound)

		b, err := repo.GetForCustomer(ctx, bidID, customer)
		require.NoError(t, err)
		assert.Equal(t, status.BidOpen, b.Status)
		assert.Zero(t, testdb.StatusEvents(t, pool, bidID))
	})

	t.Run("another customer sees not found", func(t *testing.T) {
		stranger := testdb.User(t, pool, "Sam", status.RoleCustomer)
		_, err := repo.AcceptOffer(ctx, bidID, second, stranger)
		require.ErrorIs(t, err, ErrNotFound)
	})

	res, err := repo.AcceptOffer(ctx, bidID, second, customer)
	require.NoError(t, err)
	assert.Equal(t, status.BidConfirmed, res.Bid.Status)
	assert.Equal(t, bo, res.WorkerID)
	require.NotEmpty(t, res.BookingID)

	b, err := repo.GetForCustomer(ctx, bidID, customer)
	require.NoError(t, err)
	assert.Equal(t, status.BidConfirmed, b.Status)

	assert.Equal(t, 1, testdb.Count(t, pool, `SELECT COUNT(*) FROM offers WHERE id = $1 AND accepted`, second))
	assert.Equal(t, 0, testdb.Count(t, pool, `SELECT COUNT(*) FROM offers WHERE id = $1 AND accepted`, first))
	assert.Equal(t, 1, testdb.Count(t, pool, `
SELECT COUNT(*) FROM bookings
WHERE id = $1 AND bid_id = $2 AND offer_id = $3 AND worker_id = $4 AND customer_id = $5
  AND status = $6 AND price = 62.50
`, res.BookingID, bidID, second, bo, customer, int(status.BookingConfirmed)))

	assert.Equal(t, 1, testdb.StatusEvents(t, pool, bidID))
	assert.Equal(t, 1, testdb.StatusEvents(t, pool, res.BookingID))
	assert.Equal(t, 1, testdb.AuditLogs(t, pool, bidID, "OFFER_ACCEPTED"))

	t.Run("confirmed bid accepts no more offers", func(t *testing.T) {
		_, err := repo.AcceptOffer(ctx, bidID, first, customer)
		require.ErrorIs(t, err, ErrOffersClosed)
		assert.Equal(t, 1, testdb.Count(t, pool, `SELECT COUNT(*) FROM bookings WHERE bid_id = $1`, bidID))

		_, err = repo.ListOffers(ctx, bidID, customer)
		require.ErrorIs(t, err, ErrOffersClosed)
	})
}

func TestRepository_Cancel(t *testing.T) {
	pool := testdb.Open(t)
	repo := NewRepository(pool)
	ctx := context.Background()

	customer := testdb.User(t, pool, "Cleo", status.RoleCustomer)
	open := testdb.Bid(t, pool, customer, status.BidOpen)
	closed := testdb.Bid(t, pool, customer, status.BidClosed)

	b, err := repo.Cancel(ctx, open, customer, "found someone")
	require.NoError(t, err)
	assert.Equal(t, status.BidCanceledByCustomer, b.Status)

	stored, err := repo.GetForCustomer(ctx, open, customer)
	require.NoError(t, err)
	assert.Equal(t, status.BidCanceledByCustomer, stored.Status)
	assert.Equal(t, "found someone", stored.CancelReason)
	assert.Equal(t, 1, testdb.StatusEvents(t, pool, open))
	assert.Equal(t, 1, testdb.AuditLogs(t, pool, open, "BID_CANCELED"))

	_, err = repo.Cancel(ctx, closed, customer, "late")
	require.ErrorIs(t, err, ErrNotCancelable)
	assert.Zero(t, testdb.StatusEvents(t, pool, closed))

	items, err := repo.ListForCustomer(ctx, customer)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}
