package audit

import (
	"context"
	"encoding/json"

	"github.com/jackc/pgx/v5"
)

// Entry is an audit row written next to every state-changing action.
type Entry struct {
	UserID     string
	EntityKind string
	EntityID   string
	Action     string
	Actor      string
	Metadata   any
}

func Insert(ctx context.Context, tx pgx.Tx, e Entry) error {
	var meta *string
	if e.Metadata != nil {
		b, err := json.Marshal(e.Metadata)
		if err != nil {
			return err
		}
		str := string(b)
		meta = &str
	}
	var userID *string
	if e.UserID != "" {
		userID = &e.UserID
	}
	const q = `
INSERT INTO audit_logs (user_id, entity_kind, entity_id, action, actor, metadata)
VALUES ($1, $2, $3, $4, $5, CAST($6 AS jsonb))
`
	_, err := tx.Exec(ctx, q, userID, e.EntityKind, e.EntityID, e.Action, e.Actor, meta)
	return err
}
