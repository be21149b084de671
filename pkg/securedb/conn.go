package securedb

import (
	"context"
	"database/sql"

	"github.com/Mindburn-Labs/helm/core/pkg/observability"
)

// Runner is anything that can execute SQL: a *sql.DB or a *sql.Tx. Every
// statement builder in this package takes a Runner rather than a concrete
// connection type, so the same builder runs inside or outside a transaction
// without the caller choosing a different code path.
type Runner interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

var (
	_ Runner = (*sql.DB)(nil)
	_ Runner = (*sql.Tx)(nil)
)

type txKey struct{}

// Conn is the secure database handle module code receives instead of a raw
// *sql.DB. Its *sql.DB field is unexported, but Runner() hands that *sql.DB
// out as a Runner (unwrapped when no observability provider is attached),
// so a holder of a Conn can issue any SQL through it, scoped or not.
type Conn struct {
	db       *sql.DB
	dialect  Dialect
	observer *observability.Provider
}

// NewConn wraps db for dialect. dialect must match the driver db was opened
// with — this package does not sniff it.
func NewConn(db *sql.DB, dialect Dialect) *Conn {
	return &Conn{db: db, dialect: dialect}
}

// WithObservability attaches an observability.Provider. When set, every
// Runner handed out by this Conn (Runner and the Runner passed into
// Transaction's fn) wraps query/exec calls in a span plus RED metrics.
func (c *Conn) WithObservability(observer *observability.Provider) *Conn {
	c.observer = observer
	return c
}

// Dialect reports the dialect this connection renders SQL for.
func (c *Conn) Dialect() Dialect { return c.dialect }

// Runner returns the root Runner for statement builders invoked outside a
// transaction: the underlying *sql.DB, wrapped with observability spans if
// WithObservability was called.
func (c *Conn) Runner() Runner { return c.wrap(c.db) }

func (c *Conn) wrap(r Runner) Runner {
	if c.observer == nil {
		return r
	}
	return &instrumentedRunner{next: r, observer: c.observer}
}

// Transaction runs fn inside a database transaction, committing on a nil
// return and rolling back otherwise. fn receives a context carrying the
// transaction marker (see InTransaction) and the transaction's Runner.
//
// This is the Go analogue of secure_conn.rs's SecureConn::transaction: the
// original consumes `self` to make the outer connection statically
// unreachable inside the closure. Go has no linear ownership, so the
// guarantee here is conventional rather than compiler-enforced — callers
// should thread the Runner fn receives rather than closing over c.Runner().
func (c *Conn) Transaction(ctx context.Context, fn func(ctx context.Context, tx Runner) error) (err error) {
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	txCtx := context.WithValue(ctx, txKey{}, tx)

	defer func() {
		if r := recover(); r != nil {
			_ = tx.Rollback()
			panic(r)
		}
	}()

	if err = fn(txCtx, c.wrap(tx)); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}

// InTransaction reports whether ctx was produced by Conn.Transaction. Kept
// for call sites that assert "this must run inside a transaction" (e.g. a
// multi-statement domain operation) without threading a separate bool.
func InTransaction(ctx context.Context) bool {
	_, ok := ctx.Value(txKey{}).(*sql.Tx)
	return ok
}
