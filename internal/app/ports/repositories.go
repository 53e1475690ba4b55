package ports

import (
	"context"
	"time"

	"civico/internal/domain/settlement"
	"civico/internal/domain/worldmap"
)

// SettlementRepository loads and stores settlement snapshots. Lock* variants
// must be called inside RunInTx and hold the row until the transaction ends.
type SettlementRepository interface {
	GetByID(ctx context.Context, id string) (settlement.Snapshot, error)
	GetByUsername(ctx context.Context, username string) (settlement.Snapshot, error)
	GetByCoordinates(ctx context.Context, p worldmap.Point) (settlement.Snapshot, error)
	LockByID(ctx context.Context, id string) (settlement.Snapshot, error)
	LockByCoordinates(ctx context.Context, p worldmap.Point) (settlement.Snapshot, error)
	Create(ctx context.Context, s settlement.Snapshot) error
	// Apply writes the given columns of s and bumps the version to
	// expectedVersion+1. It returns ErrConflict when the stored version moved.
	Apply(ctx context.Context, s settlement.Snapshot, fields settlement.Field, expectedVersion int64) error
}

// MapIndex records which settlement owns each map cell.
type MapIndex interface {
	Claim(ctx context.Context, p worldmap.Point, settlementID string) error
	IsOccupied(ctx context.Context, p worldmap.Point) (bool, error)
	NextFree(ctx context.Context, from worldmap.Point, size int) (worldmap.Point, bool, error)
}

type CredentialRecord struct {
	SettlementID string
	Username     string
	Salt         []byte
	Hash         []byte
	TokenHash    string
	CreatedAt    time.Time
}

type CredentialRepository interface {
	Create(ctx context.Context, credential CredentialRecord) error
	GetByUsername(ctx context.Context, username string) (CredentialRecord, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (CredentialRecord, error)
	SetTokenHash(ctx context.Context, settlementID, tokenHash string) error
}

type LedgerEventRepository interface {
	Append(ctx context.Context, settlementID string, events []settlement.Event) error
	ListBySettlement(ctx context.Context, settlementID string, limit int) ([]settlement.Event, error)
}
