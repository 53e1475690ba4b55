package memory

import "context"

type TxManager struct {
	store *Store
}

func NewTxManager(store *Store) TxManager {
	return TxManager{store: store}
}

// RunInTx serializes transactions on the store lock. When fn fails every
// write it made is undone; a nested call joins the outer transaction.
func (t TxManager) RunInTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	t.store.mu.Lock()
	defer t.store.mu.Unlock()
	saved := t.store.checkpoint()
	if err := fn(context.WithValue(ctx, txKey, true)); err != nil {
		t.store.restore(saved)
		return err
	}
	return nil
}
