package sqlite

import (
	"context"
	"strings"
	"time"

	"civico/internal/adapter/repo/codec"
	"civico/internal/app/ports"
	"civico/internal/domain/settlement"
	"civico/internal/domain/worldmap"

	"github.com/jmoiron/sqlx"
)

type settlementRow struct {
	ID                    string  `db:"id"`
	Username              string  `db:"username"`
	X                     int     `db:"x"`
	Y                     int     `db:"y"`
	Population            int     `db:"population"`
	Lumber                float64 `db:"lumber"`
	Iron                  float64 `db:"iron"`
	Clay                  float64 `db:"clay"`
	Wheat                 float64 `db:"wheat"`
	MaxLumber             float64 `db:"max_lumber"`
	MaxIron               float64 `db:"max_iron"`
	MaxClay               float64 `db:"max_clay"`
	MaxWheat              float64 `db:"max_wheat"`
	LumberRate            float64 `db:"lumber_rate"`
	IronRate              float64 `db:"iron_rate"`
	ClayRate              float64 `db:"clay_rate"`
	WheatRate             float64 `db:"wheat_rate"`
	ResourcesAt           int64   `db:"resources_at"`
	FieldsJSON            string  `db:"fields_json"`
	BuildingsJSON         string  `db:"buildings_json"`
	TroopsJSON            string  `db:"troops_json"`
	GroupsJSON            string  `db:"groups_json"`
	InboxJSON             string  `db:"inbox_json"`
	Pacifist              bool    `db:"pacifist"`
	PacifismDisabledUntil int64   `db:"pacifism_disabled_until"`
	Version               int64   `db:"version"`
}

const selectSettlement = `SELECT id, username, x, y, population,
	lumber, iron, clay, wheat, max_lumber, max_iron, max_clay, max_wheat,
	lumber_rate, iron_rate, clay_rate, wheat_rate, resources_at,
	fields_json, buildings_json, troops_json, groups_json, inbox_json,
	pacifist, pacifism_disabled_until, version
	FROM settlements `

type SettlementRepo struct {
	db *DB
}

func NewSettlementRepo(db *DB) SettlementRepo {
	return SettlementRepo{db: db}
}

func (r SettlementRepo) GetByID(ctx context.Context, id string) (settlement.Snapshot, error) {
	return r.get(ctx, "WHERE id = ?", id)
}

func (r SettlementRepo) GetByUsername(ctx context.Context, username string) (settlement.Snapshot, error) {
	return r.get(ctx, "WHERE username = ?", username)
}

func (r SettlementRepo) GetByCoordinates(ctx context.Context, p worldmap.Point) (settlement.Snapshot, error) {
	return r.get(ctx, "WHERE x = ? AND y = ?", p.X, p.Y)
}

// LockByID reads inside the caller's IMMEDIATE transaction, which already
// holds the database write lock.
func (r SettlementRepo) LockByID(ctx context.Context, id string) (settlement.Snapshot, error) {
	return r.GetByID(ctx, id)
}

func (r SettlementRepo) LockByCoordinates(ctx context.Context, p worldmap.Point) (settlement.Snapshot, error) {
	return r.GetByCoordinates(ctx, p)
}

func (r SettlementRepo) get(ctx context.Context, where string, args ...any) (settlement.Snapshot, error) {
	var row settlementRow
	if err := sqlx.GetContext(ctx, r.db.ext(ctx), &row, selectSettlement+where, args...); err != nil {
		return settlement.Snapshot{}, mapError(err)
	}
	return row.snapshot()
}

func (r SettlementRepo) Create(ctx context.Context, s settlement.Snapshot) error {
	row, err := newSettlementRow(s)
	if err != nil {
		return err
	}
	if row.Version == 0 {
		row.Version = 1
	}
	_, err = sqlx.NamedExecContext(ctx, r.db.ext(ctx), `INSERT INTO settlements
		(id, username, x, y, population,
		 lumber, iron, clay, wheat, max_lumber, max_iron, max_clay, max_wheat,
		 lumber_rate, iron_rate, clay_rate, wheat_rate, resources_at,
		 fields_json, buildings_json, troops_json, groups_json, inbox_json,
		 pacifist, pacifism_disabled_until, version)
		VALUES (:id, :username, :x, :y, :population,
		 :lumber, :iron, :clay, :wheat, :max_lumber, :max_iron, :max_clay, :max_wheat,
		 :lumber_rate, :iron_rate, :clay_rate, :wheat_rate, :resources_at,
		 :fields_json, :buildings_json, :troops_json, :groups_json, :inbox_json,
		 :pacifist, :pacifism_disabled_until, :version)`, row)
	return mapError(err)
}

func (r SettlementRepo) Apply(ctx context.Context, s settlement.Snapshot, fields settlement.Field, expectedVersion int64) error {
	row, err := newSettlementRow(s)
	if err != nil {
		return err
	}
	sets := []string{"version = :next_version"}
	for _, c := range []struct {
		field   settlement.Field
		columns []string
	}{
		{settlement.FieldResources, []string{
			"lumber", "iron", "clay", "wheat",
			"max_lumber", "max_iron", "max_clay", "max_wheat",
			"lumber_rate", "iron_rate", "clay_rate", "wheat_rate", "resources_at",
		}},
		{settlement.FieldPopulation, []string{"population"}},
		{settlement.FieldFields, []string{"fields_json"}},
		{settlement.FieldBuildings, []string{"buildings_json"}},
		{settlement.FieldTroops, []string{"troops_json"}},
		{settlement.FieldGroups, []string{"groups_json"}},
		{settlement.FieldInbox, []string{"inbox_json"}},
		{settlement.FieldPacifism, []string{"pacifist", "pacifism_disabled_until"}},
	} {
		if !fields.Has(c.field) {
			continue
		}
		for _, col := range c.columns {
			sets = append(sets, col+" = :"+col)
		}
	}

	args := struct {
		settlementRow
		ExpectedVersion int64 `db:"expected_version"`
		NextVersion     int64 `db:"next_version"`
	}{row, expectedVersion, expectedVersion + 1}
	res, err := sqlx.NamedExecContext(ctx, r.db.ext(ctx),
		"UPDATE settlements SET "+strings.Join(sets, ", ")+" WHERE id = :id AND version = :expected_version", args)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return ports.ErrConflict
	}
	return nil
}

func newSettlementRow(s settlement.Snapshot) (settlementRow, error) {
	cols, err := codec.EncodeColumns(s)
	if err != nil {
		return settlementRow{}, err
	}
	res := s.Resources
	row := settlementRow{
		ID:            s.ID,
		Username:      s.Username,
		X:             s.Coordinates.X,
		Y:             s.Coordinates.Y,
		Population:    s.Population,
		Lumber:        res.Lumber.Stock,
		Iron:          res.Iron.Stock,
		Clay:          res.Clay.Stock,
		Wheat:         res.Wheat.Stock,
		MaxLumber:     res.Lumber.Max,
		MaxIron:       res.Iron.Max,
		MaxClay:       res.Clay.Max,
		MaxWheat:      res.Wheat.Max,
		LumberRate:    res.Lumber.Rate,
		IronRate:      res.Iron.Rate,
		ClayRate:      res.Clay.Rate,
		WheatRate:     res.Wheat.Rate,
		ResourcesAt:   unixNano(res.Timestamp),
		FieldsJSON:    string(cols.Fields),
		BuildingsJSON: string(cols.Buildings),
		TroopsJSON:    string(cols.Troops),
		GroupsJSON:    string(cols.Groups),
		InboxJSON:     string(cols.Inbox),
		Pacifist:      s.Pacifist,
		Version:       s.Version,
	}
	row.PacifismDisabledUntil = unixNano(s.PacifismDisabledUntil)
	return row, nil
}

func (row settlementRow) snapshot() (settlement.Snapshot, error) {
	s := settlement.Snapshot{
		ID:          row.ID,
		Username:    row.Username,
		Coordinates: worldmap.Point{X: row.X, Y: row.Y},
		Population:  row.Population,
		Resources: settlement.ResourceState{
			Lumber:    settlement.Resource{Stock: row.Lumber, Max: row.MaxLumber, Rate: row.LumberRate},
			Iron:      settlement.Resource{Stock: row.Iron, Max: row.MaxIron, Rate: row.IronRate},
			Clay:      settlement.Resource{Stock: row.Clay, Max: row.MaxClay, Rate: row.ClayRate},
			Wheat:     settlement.Resource{Stock: row.Wheat, Max: row.MaxWheat, Rate: row.WheatRate},
			Timestamp: fromUnixNano(row.ResourcesAt),
		},
		Pacifist:              row.Pacifist,
		PacifismDisabledUntil: fromUnixNano(row.PacifismDisabledUntil),
		Version:               row.Version,
	}
	err := codec.DecodeColumns(codec.Columns{
		Fields:    []byte(row.FieldsJSON),
		Buildings: []byte(row.BuildingsJSON),
		Troops:    []byte(row.TroopsJSON),
		Groups:    []byte(row.GroupsJSON),
		Inbox:     []byte(row.InboxJSON),
	}, &s)
	if err != nil {
		return settlement.Snapshot{}, err
	}
	return s, nil
}

// Times are stored as Unix nanoseconds; zero means unset.
func unixNano(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixNano()
}

func fromUnixNano(n int64) time.Time {
	if n == 0 {
		return time.Time{}
	}
	return time.Unix(0, n).UTC()
}
