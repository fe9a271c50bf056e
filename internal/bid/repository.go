package bid

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"marketplace/internal/audit"
	"marketplace/internal/booking"
	"marketplace/internal/events"
	"marketplace/pkg/db"
	"marketplace/pkg/status"
)

const selectColumns = `
SELECT b.id, b.customer_id, b.service_name, b.description, b.address, b.budget::text,
       b.status, COALESCE(b.cancel_reason, ''),
       (SELECT COUNT(*) FROM offers o WHERE o.bid_id = b.id),
       b.created_at, b.updated_at
FROM bids b
`

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func scan(row pgx.Row) (*Bid, error) {
	var (
		b      Bid
		budget string
		code   int
	)
	if err := row.Scan(
		&b.ID, &b.CustomerID, &b.ServiceName, &b.Description, &b.Address, &budget,
		&code, &b.CancelReason, &b.OfferCount, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	b.Status = status.BidStatus(code)
	v, err := decimal.NewFromString(budget)
	if err != nil {
		return nil, fmt.Errorf("parse budget | %w", err)
	}
	b.Budget = v
	return &b, nil
}

func (r *Repository) ListForCustomer(ctx context.Context, customerID string) ([]Bid, error) {
	const q = selectColumns + `
WHERE b.customer_id = $1
ORDER BY b.created_at DESC
`
	rows, err := r.db.Query(ctx, q, customerID)
	if err != nil {
		return nil, fmt.Errorf("list bids | %w", err)
	}
	defer rows.Close()

	out := []Bid{}
	for rows.Next() {
		b, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *Repository) GetForCustomer(ctx context.Context, id, customerID string) (*Bid, error) {
	const q = selectColumns + `WHERE b.id = $1 AND b.customer_id = $2`
	return scan(r.db.QueryRow(ctx, q, id, customerID))
}

func getForUpdate(ctx context.Context, tx pgx.Tx, id, customerID string) (*Bid, error) {
	const q = selectColumns + `WHERE b.id = $1 AND b.customer_id = $2 FOR UPDATE OF b`
	return scan(tx.QueryRow(ctx, q, id, customerID))
}

func getForUpdateAny(ctx context.Context, tx pgx.Tx, id string) (*Bid, error) {
	const q = selectColumns + `WHERE b.id = $1 FOR UPDATE OF b`
	return scan(tx.QueryRow(ctx, q, id))
}

func updateStatus(ctx context.Context, tx pgx.Tx, id string, to status.BidStatus, reason *string) error {
	const q = `
UPDATE bids
SET status = $2, cancel_reason = COALESCE($3, cancel_reason), updated_at = NOW()
WHERE id = $1
`
	_, err := tx.Exec(ctx, q, id, int(to), reason)
	return err
}

func record(ctx context.Context, tx pgx.Tx, b *Bid, to status.BidStatus, userID, actor, action, reason string, meta map[string]any) error {
	if err := events.Insert(ctx, tx, events.StatusEvent{
		EntityKind: events.KindBid,
		EntityID:   b.ID,
		FromStatus: int(b.Status),
		ToStatus:   int(to),
		Actor:      actor,
		Reason:     reason,
		OccurredAt: time.Now(),
	}); err != nil {
		return fmt.Errorf("insert status event | %w", err)
	}
	if meta == nil {
		meta = map[string]any{}
	}
	meta["from"] = int(b.Status)
	meta["to"] = int(to)
	if err := audit.Insert(ctx, tx, audit.Entry{
		UserID:     userID,
		EntityKind: string(events.KindBid),
		EntityID:   b.ID,
		Action:     action,
		Actor:      actor,
		Metadata:   meta,
	}); err != nil {
		return fmt.Errorf("insert audit log | %w", err)
	}
	return nil
}

func (r *Repository) Cancel(ctx context.Context, id, customerID, reason string) (*Bid, error) {
	var out *Bid
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		b, err := getForUpdate(ctx, tx, id, customerID)
		if err != nil {
			return err
		}
		if !status.CanCancelBid(b.Status) {
			return ErrNotCancelable
		}

		next := status.BidCanceledByCustomer
		if err := updateStatus(ctx, tx, b.ID, next, &reason); err != nil {
			return fmt.Errorf("update bid status | %w", err)
		}
		if err := record(ctx, tx, b, next, customerID, string(status.RoleCustomer), "BID_CANCELED", reason, nil); err != nil {
			return err
		}

		b.Status = next
		b.CancelReason = reason
		out = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Repository) ListOffers(ctx context.Context, id, customerID string) ([]Offer, error) {
	b, err := r.GetForCustomer(ctx, id, customerID)
	if err != nil {
		return nil, err
	}
	if !status.CanViewOffers(b.Status) {
		return nil, ErrOffersClosed
	}

	const q = `
SELECT o.id, o.bid_id, o.worker_id, u.name, o.price::text, o.message, o.accepted, o.created_at
FROM offers o
JOIN users u ON u.id = o.worker_id
WHERE o.bid_id = $1
ORDER BY o.price ASC, o.created_at ASC
`
	rows, err := r.db.Query(ctx, q, b.ID)
	if err != nil {
		return nil, fmt.Errorf("list offers | %w", err)
	}
	defer rows.Close()

	out := []Offer{}
	for rows.Next() {
		var (
			o     Offer
			price string
		)
		if err := rows.Scan(&o.ID, &o.BidID, &o.WorkerID, &o.WorkerName, &price, &o.Message, &o.Accepted, &o.CreatedAt); err != nil {
			return nil, err
		}
		if o.Price, err = decimal.NewFromString(price); err != nil {
			return nil, fmt.Errorf("parse offer price | %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// AcceptOffer confirms the bid and creates a confirmed booking for the offer's worker.
func (r *Repository) AcceptOffer(ctx context.Context, id, offerID, customerID string) (*Acceptance, error) {
	var out Acceptance
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		b, err := getForUpdate(ctx, tx, id, customerID)
		if err != nil {
			return err
		}
		if !status.CanAcceptOffer(b.Status) {
			return ErrOffersClosed
		}

		const qOffer = `
SELECT worker_id, price::text
FROM offers
WHERE id = $1 AND bid_id = $2
FOR UPDATE
`
		var workerID, price string
		if err := tx.QueryRow(ctx, qOffer, offerID, b.ID).Scan(&workerID, &price); err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrOfferNotFound
			}
			return fmt.Errorf("load offer | %w", err)
		}
		amount, err := decimal.NewFromString(price)
		if err != nil {
			return fmt.Errorf("parse offer price | %w", err)
		}

		if _, err := tx.Exec(ctx, `UPDATE offers SET accepted = true WHERE id = $1`, offerID); err != nil {
			return fmt.Errorf("mark offer accepted | %w", err)
		}

		next := status.BidConfirmed
		if err := updateStatus(ctx, tx, b.ID, next, nil); err != nil {
			return fmt.Errorf("update bid status | %w", err)
		}

		bookingID, err := booking.InsertConfirmed(ctx, tx, booking.New{
			CustomerID:  b.CustomerID,
			WorkerID:    workerID,
			BidID:       b.ID,
			OfferID:     offerID,
			ServiceName: b.ServiceName,
			Address:     b.Address,
			Price:       amount,
		})
		if err != nil {
			return fmt.Errorf("create booking | %w", err)
		}

		if err := record(ctx, tx, b, next, customerID, string(status.RoleCustomer), "OFFER_ACCEPTED", "",
			map[string]any{"offerId": offerID, "bookingId": bookingID}); err != nil {
			return err
		}
		if err := events.Insert(ctx, tx, events.StatusEvent{
			EntityKind: events.KindBooking,
			EntityID:   bookingID,
			ToStatus:   int(status.BookingConfirmed),
			Actor:      string(status.RoleCustomer),
			OccurredAt: time.Now(),
		}); err != nil {
			return fmt.Errorf("insert booking event | %w", err)
		}

		b.Status = next
		out = Acceptance{Bid: *b, BookingID: bookingID, WorkerID: workerID}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ApplyStatus stores an authoritative status pushed by dispatch inside the caller's tx.
// Any enumerated status is accepted; re-applying the current status is a no-op.
func ApplyStatus(ctx context.Context, tx pgx.Tx, id string, to status.BidStatus, actor string) (*Bid, error) {
	b, err := getForUpdateAny(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b.Status == to {
		return b, nil
	}
	if err := updateStatus(ctx, tx, b.ID, to, nil); err != nil {
		return nil, fmt.Errorf("update bid status | %w", err)
	}
	if err := record(ctx, tx, b, to, "", actor, "STATUS_PUSHED", "", nil); err != nil {
		return nil, err
	}
	b.Status = to
	return b, nil
}
