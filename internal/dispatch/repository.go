package dispatch

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"marketplace/internal/bid"
	"marketplace/internal/booking"
	"marketplace/internal/events"
	"marketplace/pkg/db"
	"marketplace/pkg/status"
)

const actor = "dispatch"

var (
	ErrDuplicate     = errors.New("push already applied")
	ErrEventConflict = errors.New("event id reused with a different payload")
	ErrNotFound      = errors.New("entity not found")
	ErrUnknownKind   = errors.New("unknown entity kind")
)

// Push is one authoritative status update.
type Push struct {
	Kind        events.Kind
	ID          string
	Status      int
	EventID     string
	PayloadHash string
}

// Result describes the entity after a push. WorkerID is empty for bids.
type Result struct {
	Kind       events.Kind
	ID         string
	Status     int
	Label      string
	Badge      status.Badge
	CustomerID string
	WorkerID   string
}

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Apply(ctx context.Context, p Push) (*Result, error) {
	var out *Result
	err := db.WithTx(ctx, r.db, func(tx pgx.Tx) error {
		if p.EventID != "" {
			if err := claimEvent(ctx, tx, p); err != nil {
				return err
			}
		}

		switch p.Kind {
		case events.KindBooking:
			to, err := status.ParseBookingStatus(p.Status)
			if err != nil {
				return err
			}
			b, err := booking.ApplyStatus(ctx, tx, p.ID, to, actor)
			if errors.Is(err, booking.ErrNotFound) {
				return ErrNotFound
			}
			if err != nil {
				return err
			}
			out = &Result{
				Kind: p.Kind, ID: b.ID, Status: int(b.Status),
				Label: b.Status.Label(), Badge: b.Status.Badge(),
				CustomerID: b.CustomerID, WorkerID: b.WorkerID,
			}
		case events.KindBid:
			to, err := status.ParseBidStatus(p.Status)
			if err != nil {
				return err
			}
			b, err := bid.ApplyStatus(ctx, tx, p.ID, to, actor)
			if errors.Is(err, bid.ErrNotFound) {
				return ErrNotFound
			}
			if err != nil {
				return err
			}
			out = &Result{
				Kind: p.Kind, ID: b.ID, Status: int(b.Status),
				Label: b.Status.Label(), Badge: b.Status.Badge(),
				CustomerID: b.CustomerID,
			}
		default:
			return ErrUnknownKind
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// claimEvent records p's event id. A seen id yields ErrDuplicate when the
// payload matches the first delivery and ErrEventConflict when it does not.
func claimEvent(ctx context.Context, tx pgx.Tx, p Push) error {
	const q = `
INSERT INTO dispatch_events (event_id, entity_kind, entity_id, status, payload_hash)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (event_id) DO NOTHING
`
	tag, err := tx.Exec(ctx, q, p.EventID, string(p.Kind), p.ID, p.Status, p.PayloadHash)
	if err != nil {
		return fmt.Errorf("insert dispatch event | %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}

	var stored string
	if err := tx.QueryRow(ctx, `SELECT payload_hash FROM dispatch_events WHERE event_id = $1`, p.EventID).Scan(&stored); err != nil {
		return fmt.Errorf("load dispatch event | %w", err)
	}
	if stored != p.PayloadHash {
		return ErrEventConflict
	}
	return ErrDuplicate
}
