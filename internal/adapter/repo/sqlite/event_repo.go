package sqlite

import (
	"context"

	"civico/internal/adapter/repo/codec"
	"civico/internal/domain/settlement"

	"github.com/jmoiron/sqlx"
)

type eventRow struct {
	Type        string `db:"type"`
	OccurredAt  int64  `db:"occurred_at"`
	PayloadJSON string `db:"payload_json"`
}

type EventRepo struct {
	db *DB
}

func NewEventRepo(db *DB) EventRepo {
	return EventRepo{db: db}
}

func (r EventRepo) Append(ctx context.Context, settlementID string, events []settlement.Event) error {
	for _, e := range events {
		payload, err := codec.EncodePayload(e.Payload)
		if err != nil {
			return err
		}
		_, err = r.db.ext(ctx).ExecContext(ctx,
			"INSERT INTO ledger_events (settlement_id, type, occurred_at, payload_json) VALUES (?, ?, ?, ?)",
			settlementID, e.Type, unixNano(e.OccurredAt), string(payload))
		if err != nil {
			return mapError(err)
		}
	}
	return nil
}

func (r EventRepo) ListBySettlement(ctx context.Context, settlementID string, limit int) ([]settlement.Event, error) {
	if limit <= 0 {
		limit = -1
	}
	var rows []eventRow
	err := sqlx.SelectContext(ctx, r.db.ext(ctx), &rows,
		"SELECT type, occurred_at, payload_json FROM ledger_events WHERE settlement_id = ? ORDER BY occurred_at DESC, id DESC LIMIT ?",
		settlementID, limit)
	if err != nil {
		return nil, mapError(err)
	}
	out := make([]settlement.Event, 0, len(rows))
	for _, row := range rows {
		out = append(out, settlement.Event{
			Type:       row.Type,
			OccurredAt: fromUnixNano(row.OccurredAt),
			Payload:    codec.DecodePayload([]byte(row.PayloadJSON)),
		})
	}
	return out, nil
}
