package gormrepo

import (
	"context"
	"time"

	"civico/internal/adapter/repo/codec"
	"civico/internal/adapter/repo/gorm/model"
	"civico/internal/app/ports"
	"civico/internal/domain/settlement"
	"civico/internal/domain/worldmap"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type SettlementRepo struct {
	db *gorm.DB
}

func NewSettlementRepo(db *gorm.DB) SettlementRepo {
	return SettlementRepo{db: db}
}

func (r SettlementRepo) GetByID(ctx context.Context, id string) (settlement.Snapshot, error) {
	return r.first(ctx, false, "id = ?", id)
}

func (r SettlementRepo) GetByUsername(ctx context.Context, username string) (settlement.Snapshot, error) {
	return r.first(ctx, false, "username = ?", username)
}

func (r SettlementRepo) GetByCoordinates(ctx context.Context, p worldmap.Point) (settlement.Snapshot, error) {
	return r.first(ctx, false, "x = ? AND y = ?", p.X, p.Y)
}

func (r SettlementRepo) LockByID(ctx context.Context, id string) (settlement.Snapshot, error) {
	return r.first(ctx, true, "id = ?", id)
}

func (r SettlementRepo) LockByCoordinates(ctx context.Context, p worldmap.Point) (settlement.Snapshot, error) {
	return r.first(ctx, true, "x = ? AND y = ?", p.X, p.Y)
}

func (r SettlementRepo) first(ctx context.Context, lock bool, query string, args ...any) (settlement.Snapshot, error) {
	db := getDBFromCtx(ctx, r.db)
	if lock {
		db = db.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	var row model.Settlement
	if err := db.Where(query, args...).First(&row).Error; err != nil {
		return settlement.Snapshot{}, mapError(err)
	}
	return toSnapshot(row)
}

func (r SettlementRepo) Create(ctx context.Context, s settlement.Snapshot) error {
	row, err := toRow(s)
	if err != nil {
		return err
	}
	if row.Version == 0 {
		row.Version = 1
	}
	now := time.Now().UTC()
	row.CreatedAt = now
	row.UpdatedAt = now
	return mapError(getDBFromCtx(ctx, r.db).Create(&row).Error)
}

func (r SettlementRepo) Apply(ctx context.Context, s settlement.Snapshot, fields settlement.Field, expectedVersion int64) error {
	updates, err := columnUpdates(s, fields)
	if err != nil {
		return err
	}
	updates["version"] = expectedVersion + 1
	updates["updated_at"] = time.Now().UTC()

	res := getDBFromCtx(ctx, r.db).Model(&model.Settlement{}).
		Where("id = ? AND version = ?", s.ID, expectedVersion).
		Updates(updates)
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ports.ErrConflict
	}
	return nil
}

func columnUpdates(s settlement.Snapshot, fields settlement.Field) (map[string]any, error) {
	updates := map[string]any{}
	if fields.Has(settlement.FieldResources) {
		res := s.Resources
		updates["lumber"] = res.Lumber.Stock
		updates["iron"] = res.Iron.Stock
		updates["clay"] = res.Clay.Stock
		updates["wheat"] = res.Wheat.Stock
		updates["max_lumber"] = res.Lumber.Max
		updates["max_iron"] = res.Iron.Max
		updates["max_clay"] = res.Clay.Max
		updates["max_wheat"] = res.Wheat.Max
		updates["lumber_rate"] = res.Lumber.Rate
		updates["iron_rate"] = res.Iron.Rate
		updates["clay_rate"] = res.Clay.Rate
		updates["wheat_rate"] = res.Wheat.Rate
		updates["resources_at"] = res.Timestamp.UTC()
	}
	if fields.Has(settlement.FieldPopulation) {
		updates["population"] = int32(s.Population)
	}
	if fields.Has(settlement.FieldPacifism) {
		updates["pacifist"] = s.Pacifist
		updates["pacifism_disabled_until"] = nullableTime(s.PacifismDisabledUntil)
	}

	type jsonColumn struct {
		field  settlement.Field
		column string
		encode func() ([]byte, error)
	}
	columns := []jsonColumn{
		{settlement.FieldFields, "fields", func() ([]byte, error) { return codec.EncodeFields(s.Fields) }},
		{settlement.FieldBuildings, "buildings", func() ([]byte, error) { return codec.EncodeBuildings(s.Buildings) }},
		{settlement.FieldTroops, "troops", func() ([]byte, error) { return codec.EncodeTroops(s.Troops) }},
		{settlement.FieldGroups, "dispatched_groups", func() ([]byte, error) { return codec.EncodeGroups(s.Groups) }},
		{settlement.FieldInbox, "inbox", func() ([]byte, error) { return codec.EncodeInbox(s.Inbox) }},
	}
	for _, c := range columns {
		if !fields.Has(c.field) {
			continue
		}
		b, err := c.encode()
		if err != nil {
			return nil, err
		}
		updates[c.column] = datatypes.JSON(b)
	}
	return updates, nil
}

func toRow(s settlement.Snapshot) (model.Settlement, error) {
	cols, err := codec.EncodeColumns(s)
	if err != nil {
		return model.Settlement{}, err
	}
	res := s.Resources
	return model.Settlement{
		ID:                    s.ID,
		Username:              s.Username,
		X:                     int32(s.Coordinates.X),
		Y:                     int32(s.Coordinates.Y),
		Population:            int32(s.Population),
		Lumber:                res.Lumber.Stock,
		Iron:                  res.Iron.Stock,
		Clay:                  res.Clay.Stock,
		Wheat:                 res.Wheat.Stock,
		MaxLumber:             res.Lumber.Max,
		MaxIron:               res.Iron.Max,
		MaxClay:               res.Clay.Max,
		MaxWheat:              res.Wheat.Max,
		LumberRate:            res.Lumber.Rate,
		IronRate:              res.Iron.Rate,
		ClayRate:              res.Clay.Rate,
		WheatRate:             res.Wheat.Rate,
		ResourcesAt:           res.Timestamp.UTC(),
		Fields:                datatypes.JSON(cols.Fields),
		Buildings:             datatypes.JSON(cols.Buildings),
		Troops:                datatypes.JSON(cols.Troops),
		DispatchedGroups:      datatypes.JSON(cols.Groups),
		Inbox:                 datatypes.JSON(cols.Inbox),
		Pacifist:              s.Pacifist,
		PacifismDisabledUntil: nullableTime(s.PacifismDisabledUntil),
		Version:               s.Version,
	}, nil
}

func toSnapshot(row model.Settlement) (settlement.Snapshot, error) {
	s := settlement.Snapshot{
		ID:          row.ID,
		Username:    row.Username,
		Coordinates: worldmap.Point{X: int(row.X), Y: int(row.Y)},
		Population:  int(row.Population),
		Resources: settlement.ResourceState{
			Lumber:    settlement.Resource{Stock: row.Lumber, Max: row.MaxLumber, Rate: row.LumberRate},
			Iron:      settlement.Resource{Stock: row.Iron, Max: row.MaxIron, Rate: row.IronRate},
			Clay:      settlement.Resource{Stock: row.Clay, Max: row.MaxClay, Rate: row.ClayRate},
			Wheat:     settlement.Resource{Stock: row.Wheat, Max: row.MaxWheat, Rate: row.WheatRate},
			Timestamp: row.ResourcesAt.UTC(),
		},
		Pacifist: row.Pacifist,
		Version:  row.Version,
	}
	if row.PacifismDisabledUntil != nil {
		s.PacifismDisabledUntil = row.PacifismDisabledUntil.UTC()
	}
	err := codec.DecodeColumns(codec.Columns{
		Fields:    row.Fields,
		Buildings: row.Buildings,
		Troops:    row.Troops,
		Groups:    row.DispatchedGroups,
		Inbox:     row.Inbox,
	}, &s)
	if err != nil {
		return settlement.Snapshot{}, err
	}
	return s, nil
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	u := t.UTC()
	return &u
}
