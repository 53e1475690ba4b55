package gormrepo

import (
	"context"

	"civico/internal/adapter/repo/codec"
	"civico/internal/adapter/repo/gorm/model"
	"civico/internal/domain/settlement"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type EventRepo struct {
	db *gorm.DB
}

func NewEventRepo(db *gorm.DB) EventRepo {
	return EventRepo{db: db}
}

func (r EventRepo) Append(ctx context.Context, settlementID string, events []settlement.Event) error {
	if len(events) == 0 {
		return nil
	}
	rows := make([]model.LedgerEvent, 0, len(events))
	for _, e := range events {
		b, err := codec.EncodePayload(e.Payload)
		if err != nil {
			return err
		}
		rows = append(rows, model.LedgerEvent{
			SettlementID: settlementID,
			Type:         e.Type,
			OccurredAt:   e.OccurredAt.UTC(),
			Payload:      datatypes.JSON(b),
		})
	}
	return mapError(getDBFromCtx(ctx, r.db).Create(&rows).Error)
}

// ListBySettlement returns newest events first. A settlement without events
// yields an empty slice.
func (r EventRepo) ListBySettlement(ctx context.Context, settlementID string, limit int) ([]settlement.Event, error) {
	rows := []model.LedgerEvent{}
	query := getDBFromCtx(ctx, r.db).
		Where(&model.LedgerEvent{SettlementID: settlementID}).
		Clauses(clause.OrderBy{
			Columns: []clause.OrderByColumn{
				{Column: clause.Column{Name: "occurred_at"}, Desc: true},
				{Column: clause.Column{Name: "id"}, Desc: true},
			},
		})
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&rows).Error; err != nil {
		return nil, mapError(err)
	}

	out := make([]settlement.Event, 0, len(rows))
	for _, row := range rows {
		out = append(out, settlement.Event{
			Type:       row.Type,
			OccurredAt: row.OccurredAt.UTC(),
			Payload:    codec.DecodePayload(row.Payload),
		})
	}
	return out, nil
}
