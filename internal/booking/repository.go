package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"marketplace/internal/audit"
	"marketplace/internal/events"
	"marketplace/pkg/db"
	"marketplace/pkg/status"
)

const pgUniqueViolation = "23505"

const selectColumns = `
SELECT id, customer_id, worker_id, bid_id, offer_id, service_name, address, price::text,
       scheduled_at, status, COALESCE(cancel_reason, ''), created_at, updated_at
FROM bookings
`

// ownedBy matches rows the caller participates in, given the placeholder
// positions of the user id and role arguments.
func ownedBy(user, role int) string {
	return fmt.Sprintf("(($%[2]d::text = 'customer' AND customer_id = $%[1]d) OR ($%[2]d::text = 'worker' AND worker_id = $%[1]d))", user, role)
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func scan(row pgx.Row) (*Booking, error) {
	var (
		b     Booking
		price string
		code  int
	)
	if err := row.Scan(
		&b.ID, &b.CustomerID, &b.WorkerID, &b.BidID, &b.OfferID, &b.ServiceName, &b.Address, &price,
		&b.ScheduledAt, &code, &b.CancelReason, &b.CreatedAt, &b.UpdatedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	// Stored codes are kept as-is; unknown ones render as Unknown.
	b.Status = status.BookingStatus(code)
	p, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("parse price | %w", err)
	}
	b.Price = p
	return &b, nil
}

func (r *Repository) ListForUser(ctx context.Context, userID string, role status.Role) ([]Booking, error) {
	q := selectColumns + `
WHERE ` + ownedBy(1, 2) + `
ORDER BY created_at DESC
`
	rows, err := r.db.Query(ctx, q, userID, string(role))
	if err != nil {
		return nil, fmt.Errorf("list bookings | %w", err)
	}
	defer rows.Close()

	out := []Booking{}
	for rows.Next() {
		b, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *b)
	}
	return out, rows.Err()
}

func (r *Repository) GetForUser(ctx context.Context, id, userID string, role status.Role) (*Booking, error) {
	q := selectColumns + `WHERE id = $1 AND ` + ownedBy(2, 3)
	return scan(r.db.QueryRow(ctx, q, id, userID, string(role)))
}

func getForUpdate(ctx context.Context, tx pgx.Tx, id, userID string, role status.Role) (*Booking, error) {
	q := selectColumns + `WHERE id = $1 AND ` + ownedBy(2, 3) + ` FOR UPDATE`
	return scan(tx.QueryRow(ctx, q, id, userID, string(role)))
}

func getForUpdateAny(ctx context.Context, tx pgx.Tx, id string) (*Booking, error) {
	q := selectColumns + `WHERE id = $1 FOR UPDATE`
	return scan(tx.QueryRow(ctx, q, id))
}

func updateStatus(ctx context.Context, tx pgx.Tx, id string, to status.BookingStatus, reason *string) error {
	const q = `
UPDATE bookings
SET status = $2, cancel_reason = COALESCE($3, cancel_reason), updated_at = NOW()
WHERE id = $1
`
	_, err := tx.Exec(ctx, q, id, int(to), reason)
	return err
}

func record(ctx context.Context, tx pgx.Tx, b *Booking, to status.BookingStatus, userID, actor, action, reason string) error {
	if err := events.Insert(ctx, tx, events.StatusEvent{
		EntityKind: events.KindBooking,
		EntityID:   b.ID,
		FromStatus: int(b.Status),
		ToStatus:   int(to),
		Actor:      actor,
		Reason:     reason,
		OccurredAt: time.Now(),
	}); err != nil {
		return fmt.Errorf("insert status event | %w", err)
	}
	if err := audit.Insert(ctx, tx, audit.Entry{
		UserID:     userID,
		EntityKind: string(events.KindBooking),
		EntityID:   b.ID,
		Action:     action,
		Actor:      actor,
		Metadata:   map[string]any{"from": int(b.Status), "to": int(to)},
	}); err != nil {
		return fmt.Errorf("insert audit log | %w", err)
	}
	return nil
}

// Cancel moves the caller's booking to the canceled status for their role.
func (r *Repository) Cancel(ctx context.Context, id, userID string, role status.Role, reason string) (*Booking, error) {
	var out *Booking
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		b, err := getForUpdate(ctx, tx, id, userID, role)
		if err != nil {
			return err
		}
		if !status.IsCancelable(b.Status, role) {
			return ErrNotCancelable
		}

		next := status.CanceledBy(role)
		if err := updateStatus(ctx, tx, b.ID, next, &reason); err != nil {
			return fmt.Errorf("update booking status | %w", err)
		}
		if err := record(ctx, tx, b, next, userID, string(role), "BOOKING_CANCELED", reason); err != nil {
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

func (r *Repository) AddReview(ctx context.Context, id, userID string, role status.Role, rating int, comment string) (*Review, error) {
	var out Review
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		b, err := getForUpdate(ctx, tx, id, userID, role)
		if err != nil {
			return err
		}
		if !status.CanAddReview(b.Status, role) {
			return ErrNotReviewable
		}

		const q = `
INSERT INTO reviews (booking_id, rating, comment)
VALUES ($1, $2, $3)
RETURNING id, booking_id, rating, comment, created_at
`
		if err := tx.QueryRow(ctx, q, b.ID, rating, comment).Scan(&out.ID, &out.BookingID, &out.Rating, &out.Comment, &out.CreatedAt); err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
				return ErrAlreadyReviewed
			}
			return fmt.Errorf("insert review | %w", err)
		}

		return audit.Insert(ctx, tx, audit.Entry{
			UserID:     userID,
			EntityKind: string(events.KindBooking),
			EntityID:   b.ID,
			Action:     "REVIEW_ADDED",
			Actor:      string(role),
			Metadata:   map[string]any{"rating": rating},
		})
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// ApplyStatus stores an authoritative status pushed by dispatch inside the caller's tx.
// Any enumerated status is accepted; re-applying the current status is a no-op.
func ApplyStatus(ctx context.Context, tx pgx.Tx, id string, to status.BookingStatus, actor string) (*Booking, error) {
	b, err := getForUpdateAny(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if b.Status == to {
		return b, nil
	}
	if err := updateStatus(ctx, tx, b.ID, to, nil); err != nil {
		return nil, fmt.Errorf("update booking status | %w", err)
	}
	if err := record(ctx, tx, b, to, "", actor, "STATUS_PUSHED", ""); err != nil {
		return nil, err
	}
	b.Status = to
	return b, nil
}

func (r *Repository) Events(ctx context.Context, id string) ([]events.StatusEvent, error) {
	return events.ListByEntity(ctx, r.db, events.KindBooking, id)
}

// InsertConfirmed creates the booking for an accepted offer inside the caller's tx.
func InsertConfirmed(ctx context.Context, tx pgx.Tx, n New) (string, error) {
	const q = `
INSERT INTO bookings (customer_id, worker_id, bid_id, offer_id, service_name, address, price, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING id
`
	var id string
	err := tx.QueryRow(ctx, q, n.CustomerID, n.WorkerID, n.BidID, n.OfferID, n.ServiceName, n.Address, n.Price, int(status.BookingConfirmed)).Scan(&id)
	return id, err
}
