package events

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Kind string

const (
	KindBooking Kind = "booking"
	KindBid     Kind = "bid"
)

// StatusEvent is one recorded status change of a booking or bid.
type StatusEvent struct {
	ID         string    `json:"id"`
	EntityKind Kind      `json:"entityKind"`
	EntityID   string    `json:"entityId"`
	FromStatus int       `json:"fromStatus"`
	ToStatus   int       `json:"toStatus"`
	Actor      string    `json:"actor"`
	Reason     string    `json:"reason,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

func Insert(ctx context.Context, tx pgx.Tx, e StatusEvent) error {
	var reason *string
	if e.Reason != "" {
		reason = &e.Reason
	}
	if e.OccurredAt.IsZero() {
		e.OccurredAt = time.Now()
	}
	const q = `
INSERT INTO status_events (entity_kind, entity_id, from_status, to_status, actor, reason, occurred_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
`
	_, err := tx.Exec(ctx, q, string(e.EntityKind), e.EntityID, e.FromStatus, e.ToStatus, e.Actor, reason, e.OccurredAt)
	return err
}

func ListByEntity(ctx context.Context, db *pgxpool.Pool, kind Kind, entityID string) ([]StatusEvent, error) {
	const q = `
SELECT id, entity_kind, entity_id, from_status, to_status, actor, COALESCE(reason, ''), occurred_at
FROM status_events
WHERE entity_kind = $1 AND entity_id = $2
ORDER BY occurred_at ASC, created_at ASC
`
	rows, err := db.Query(ctx, q, string(kind), entityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []StatusEvent{}
	for rows.Next() {
		var (
			e StatusEvent
			k string
		)
		if err := rows.Scan(&e.ID, &k, &e.EntityID, &e.FromStatus, &e.ToStatus, &e.Actor, &e.Reason, &e.OccurredAt); err != nil {
			return nil, err
		}
		e.EntityKind = Kind(k)
		out = append(out, e)
	}
	return out, rows.Err()
}
