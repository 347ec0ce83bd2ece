package relational

import (
	"context"
	"database/sql"

	"github.com/unet-io/unet/pkg/errcode"
	"github.com/unet-io/unet/pkg/storage"
)

// txn wraps *sql.Tx as the storage.Transaction contract. Unlike the
// tabular backend's snapshot-and-restore scheme, this backend uses
// sqlite's native transaction log: while held, every CRUD method on
// the owning Store routes through tx (see Store.conn), and Commit or
// Rollback ends that routing.
type txn struct {
	store *Store
	tx    *sql.Tx
}

// BeginTransaction acquires the store's transaction lock and starts a
// native sqlite transaction. The lock is held until Commit or
// Rollback, serializing transactional access the same way the
// tabular backend's mutex serializes its snapshot/restore.
func (s *Store) BeginTransaction(ctx context.Context) (storage.Transaction, error) {
	s.txMu.Lock()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		s.txMu.Unlock()
		return nil, errcode.ConnectionError{Message: err.Error()}
	}
	s.currentTx = tx
	return &txn{store: s, tx: tx}, nil
}

func (t *txn) Commit(ctx context.Context) error {
	defer func() {
		t.store.currentTx = nil
		t.store.txMu.Unlock()
	}()
	if err := t.tx.Commit(); err != nil {
		return errcode.ConnectionError{Message: err.Error()}
	}
	return nil
}

func (t *txn) Rollback(ctx context.Context) error {
	defer func() {
		t.store.currentTx = nil
		t.store.txMu.Unlock()
	}()
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return errcode.ConnectionError{Message: err.Error()}
	}
	return nil
}
