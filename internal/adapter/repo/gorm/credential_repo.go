package gormrepo

import (
	"context"
	"time"

	"civico/internal/adapter/repo/gorm/model"
	"civico/internal/app/ports"

	"gorm.io/gorm"
)

type CredentialRepo struct {
	db *gorm.DB
}

func NewCredentialRepo(db *gorm.DB) CredentialRepo {
	return CredentialRepo{db: db}
}

func (r CredentialRepo) Create(ctx context.Context, credential ports.CredentialRecord) error {
	row := model.Credential{
		SettlementID: credential.SettlementID,
		Username:     credential.Username,
		Salt:         credential.Salt,
		Hash:         credential.Hash,
		TokenHash:    credential.TokenHash,
		CreatedAt:    credential.CreatedAt,
		UpdatedAt:    time.Now().UTC(),
	}
	return mapError(getDBFromCtx(ctx, r.db).Create(&row).Error)
}

func (r CredentialRepo) GetByUsername(ctx context.Context, username string) (ports.CredentialRecord, error) {
	return r.first(ctx, &model.Credential{Username: username})
}

func (r CredentialRepo) GetByTokenHash(ctx context.Context, tokenHash string) (ports.CredentialRecord, error) {
	if tokenHash == "" {
		return ports.CredentialRecord{}, ports.ErrNotFound
	}
	return r.first(ctx, &model.Credential{TokenHash: tokenHash})
}

func (r CredentialRepo) SetTokenHash(ctx context.Context, settlementID, tokenHash string) error {
	res := getDBFromCtx(ctx, r.db).Model(&model.Credential{}).
		Where("settlement_id = ?", settlementID).
		Updates(map[string]any{"token_hash": tokenHash, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return mapError(res.Error)
	}
	if res.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r CredentialRepo) first(ctx context.Context, where *model.Credential) (ports.CredentialRecord, error) {
	var row model.Credential
	if err := getDBFromCtx(ctx, r.db).Where(where).First(&row).Error; err != nil {
		return ports.CredentialRecord{}, mapError(err)
	}
	return ports.CredentialRecord{
		SettlementID: row.SettlementID,
		Username:     row.Username,
		Salt:         row.Salt,
		Hash:         row.Hash,
		TokenHash:    row.TokenHash,
		CreatedAt:    row.CreatedAt,
	}, nil
}
