// Package pgx implements the narrative store on PostgreSQL via pgx/v5.
package pgx

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/plotweave/backend/pkg/store"
)

type pgxIConn interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// NarrativeDBStore is the PostgreSQL-backed narrative store. It accepts any
// connection that satisfies pgxIConn, usually a *pgxpool.Pool.
type NarrativeDBStore struct {
	conn pgxIConn
}

// NewNarrativeDBStore creates a store on top of an existing connection pool.
func NewNarrativeDBStore(conn pgxIConn) *NarrativeDBStore {
	return &NarrativeDBStore{conn: conn}
}

// Begin opens an import transaction.
func (s *NarrativeDBStore) Begin(ctx context.Context) (store.NarrativeTx, error) {
	tx, err := s.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &narrativeTx{tx: tx}, nil
}

type narrativeTx struct {
	tx pgx.Tx
}

func (t *narrativeTx) Commit(ctx context.Context) error {
	return t.tx.Commit(ctx)
}

func (t *narrativeTx) Rollback(ctx context.Context) error {
	return t.tx.Rollback(ctx)
}
