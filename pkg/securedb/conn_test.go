package securedb_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Mindburn-Labs/helm/core/pkg/securedb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConn_Transaction_CommitsOnSuccess(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE widgets SET name = \$1`).WithArgs("ok").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	conn := securedb.NewConn(db, securedb.DialectPostgres)
	var sawTx bool
	err = conn.Transaction(context.Background(), func(ctx context.Context, tx securedb.Runner) error {
		sawTx = securedb.InTransaction(ctx)
		_, execErr := tx.ExecContext(ctx, "UPDATE widgets SET name = $1", "ok")
		return execErr
	})

	require.NoError(t, err)
	assert.True(t, sawTx)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConn_Transaction_RollsBackOnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	conn := securedb.NewConn(db, securedb.DialectPostgres)
	wantErr := errors.New("boom")
	err = conn.Transaction(context.Background(), func(ctx context.Context, tx securedb.Runner) error {
		return wantErr
	})

	require.ErrorIs(t, err, wantErr)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConn_Transaction_RollsBackAndRepanicsOnPanic(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectRollback()

	conn := securedb.NewConn(db, securedb.DialectPostgres)

	assert.Panics(t, func() {
		_ = conn.Transaction(context.Background(), func(ctx context.Context, tx securedb.Runner) error {
			panic("kaboom")
		})
	})
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConn_InTransaction_FalseOutsideTransaction(t *testing.T) {
	assert.False(t, securedb.InTransaction(context.Background()))
}

func TestConn_Runner_ReturnsDB(t *testing.T) {
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	conn := securedb.NewConn(db, securedb.DialectSQLite)
	var _ securedb.Runner = conn.Runner()
	var _ *sql.DB = db
	assert.Equal(t, securedb.DialectSQLite, conn.Dialect())
}
