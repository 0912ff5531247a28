package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"gradnet/internal/domain"
)

// DBTX es el subconjunto de pgx que usan los repositorios; lo cumplen
// tanto *pgxpool.Pool como pgx.Tx.
type DBTX interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TxManager ejecuta fn dentro de una transaccion propagada por el contexto.
type TxManager interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type txKey struct{}

// PgTxManager implementa TxManager sobre pgxpool.
type PgTxManager struct {
	pool *pgxpool.Pool
}

func NewPgTxManager(pool *pgxpool.Pool) *PgTxManager {
	return &PgTxManager{pool: pool}
}

// WithTx hace commit si fn termina sin error y rollback en cualquier otro caso.
// Si el contexto ya lleva una transaccion, fn se une a ella.
func (m *PgTxManager) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, m.pool, func(ctx context.Context, _ DBTX) error {
		return fn(ctx)
	})
}

func withTx(ctx context.Context, pool *pgxpool.Pool, fn func(ctx context.Context, tx DBTX) error) (err error) {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return fn(ctx, tx)
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback(context.Background())
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback(context.Background())
			return
		}
		err = tx.Commit(ctx)
	}()

	err = fn(context.WithValue(ctx, txKey{}, tx), tx)
	return err
}

// totalPastEnd recalcula el total cuando la pagina pedida quedo vacia:
// COUNT(*) OVER() no devuelve filas en ese caso.
func totalPastEnd(ctx context.Context, db DBTX, total, got int, page domain.Page, countQuery string, args ...any) (int, error) {
	if got > 0 || page.Offset() == 0 {
		return total, nil
	}
	if err := db.QueryRow(ctx, countQuery, args...).Scan(&total); err != nil {
		return 0, err
	}
	return total, nil
}

// conn devuelve la transaccion del contexto o el pool.
func conn(ctx context.Context, pool *pgxpool.Pool) DBTX {
	if tx, ok := ctx.Value(txKey{}).(pgx.Tx); ok {
		return tx
	}
	return pool
}
