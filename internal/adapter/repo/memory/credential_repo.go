package memory

import (
	"context"

	"civico/internal/app/ports"
)

type CredentialRepo struct {
	store *Store
}

func NewCredentialRepo(store *Store) CredentialRepo {
	return CredentialRepo{store: store}
}

func (r CredentialRepo) Create(ctx context.Context, credential ports.CredentialRecord) error {
	return r.store.write(ctx, func() error {
		for _, c := range r.store.credentials {
			if c.Username == credential.Username {
				return ports.ErrConflict
			}
		}
		if _, ok := r.store.credentials[credential.SettlementID]; ok {
			return ports.ErrConflict
		}
		r.store.credentials[credential.SettlementID] = credential
		return nil
	})
}

func (r CredentialRepo) GetByUsername(ctx context.Context, username string) (ports.CredentialRecord, error) {
	return r.find(ctx, func(c ports.CredentialRecord) bool { return c.Username == username })
}

func (r CredentialRepo) GetByTokenHash(ctx context.Context, tokenHash string) (ports.CredentialRecord, error) {
	if tokenHash == "" {
		return ports.CredentialRecord{}, ports.ErrNotFound
	}
	return r.find(ctx, func(c ports.CredentialRecord) bool { return c.TokenHash == tokenHash })
}

func (r CredentialRepo) SetTokenHash(ctx context.Context, settlementID, tokenHash string) error {
	return r.store.write(ctx, func() error {
		c, ok := r.store.credentials[settlementID]
		if !ok {
			return ports.ErrNotFound
		}
		c.TokenHash = tokenHash
		r.store.credentials[settlementID] = c
		return nil
	})
}

func (r CredentialRepo) find(ctx context.Context, match func(ports.CredentialRecord) bool) (ports.CredentialRecord, error) {
	var out ports.CredentialRecord
	err := r.store.read(ctx, func() error {
		for _, c := range r.store.credentials {
			if match(c) {
				out = c
				return nil
			}
		}
		return ports.ErrNotFound
	})
	return out, err
}
