package sqlite

import (
	"context"

	"civico/internal/app/ports"

	"github.com/jmoiron/sqlx"
)

type credentialRow struct {
	SettlementID string `db:"settlement_id"`
	Username     string `db:"username"`
	Salt         []byte `db:"salt"`
	Hash         []byte `db:"hash"`
	TokenHash    string `db:"token_hash"`
	CreatedAt    int64  `db:"created_at"`
}

type CredentialRepo struct {
	db *DB
}

func NewCredentialRepo(db *DB) CredentialRepo {
	return CredentialRepo{db: db}
}

func (r CredentialRepo) Create(ctx context.Context, c ports.CredentialRecord) error {
	_, err := sqlx.NamedExecContext(ctx, r.db.ext(ctx), `INSERT INTO credentials
		(settlement_id, username, salt, hash, token_hash, created_at)
		VALUES (:settlement_id, :username, :salt, :hash, :token_hash, :created_at)`, credentialRow{
		SettlementID: c.SettlementID,
		Username:     c.Username,
		Salt:         c.Salt,
		Hash:         c.Hash,
		TokenHash:    c.TokenHash,
		CreatedAt:    unixNano(c.CreatedAt),
	})
	return mapError(err)
}

func (r CredentialRepo) GetByUsername(ctx context.Context, username string) (ports.CredentialRecord, error) {
	return r.get(ctx, "username = ?", username)
}

func (r CredentialRepo) GetByTokenHash(ctx context.Context, tokenHash string) (ports.CredentialRecord, error) {
	if tokenHash == "" {
		return ports.CredentialRecord{}, ports.ErrNotFound
	}
	return r.get(ctx, "token_hash = ?", tokenHash)
}

func (r CredentialRepo) SetTokenHash(ctx context.Context, settlementID, tokenHash string) error {
	res, err := r.db.ext(ctx).ExecContext(ctx,
		"UPDATE credentials SET token_hash = ? WHERE settlement_id = ?", tokenHash, settlementID)
	if err != nil {
		return mapError(err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return mapError(err)
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r CredentialRepo) get(ctx context.Context, where string, arg any) (ports.CredentialRecord, error) {
	var row credentialRow
	err := sqlx.GetContext(ctx, r.db.ext(ctx), &row,
		"SELECT settlement_id, username, salt, hash, token_hash, created_at FROM credentials WHERE "+where, arg)
	if err != nil {
		return ports.CredentialRecord{}, mapError(err)
	}
	return ports.CredentialRecord{
		SettlementID: row.SettlementID,
		Username:     row.Username,
		Salt:         row.Salt,
		Hash:         row.Hash,
		TokenHash:    row.TokenHash,
		CreatedAt:    fromUnixNano(row.CreatedAt),
	}, nil
}
