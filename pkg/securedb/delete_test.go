package securedb_test

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Mindburn-Labs/helm/core/pkg/scope"
	"github.com/Mindburn-Labs/helm/core/pkg/securedb"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScopedDeleteMany_Exec_ScopedDelete(t *testing.T) {
	entity := widgetEntity(t)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM widgets WHERE \(tenant_id IN \(\$1\)\)`).
		WithArgs(tenantA.String()).
		WillReturnResult(sqlmock.NewResult(0, 3))

	rows, err := securedb.NewDeleteMany(entity, "widgets").
		ScopeWith(scope.ForTenant(tenantA), securedb.DialectPostgres).
		Exec(context.Background(), db)

	require.NoError(t, err)
	assert.Equal(t, int64(3), rows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestScopedDeleteMany_Exec_ExtraFilterRebound(t *testing.T) {
	entity := widgetEntity(t)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM widgets WHERE \(tenant_id IN \(\$1\)\) AND \(status = \$2\)`).
		WithArgs(tenantA.String(), "archived").
		WillReturnResult(sqlmock.NewResult(0, 1))

	rows, err := securedb.NewDeleteMany(entity, "widgets").
		ScopeWith(scope.ForTenant(tenantA), securedb.DialectPostgres).
		Filter("status = ?", "archived").
		Exec(context.Background(), db)

	require.NoError(t, err)
	assert.Equal(t, int64(1), rows)
}

func TestScopedDeleteMany_Exec_DenyAll_IssuesWhereFalse(t *testing.T) {
	entity := widgetEntity(t)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`DELETE FROM widgets WHERE \(FALSE\)`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	rows, err := securedb.NewDeleteMany(entity, "widgets").
		ScopeWith(scope.DenyAll(), securedb.DialectPostgres).
		Exec(context.Background(), db)

	require.NoError(t, err)
	assert.Equal(t, int64(0), rows)
}

func TestDeleteByID_DeletesSingleRow(t *testing.T) {
	entity := widgetEntity(t)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
	mock.ExpectExec(`DELETE FROM widgets WHERE \(tenant_id IN \(\$1\)\) AND \(id = \$2\)`).
		WithArgs(tenantA.String(), id.String()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	deleted, err := securedb.DeleteByID(context.Background(), db, securedb.DialectPostgres, "widgets", entity, scope.ForTenant(tenantA), id)

	require.NoError(t, err)
	assert.True(t, deleted)
}

func TestDeleteByID_NoRowsAffected_ReturnsFalse(t *testing.T) {
	entity := widgetEntity(t)
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.MustParse("bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb")
	mock.ExpectExec(`DELETE FROM widgets WHERE \(tenant_id IN \(\$1\)\) AND \(id = \$2\)`).
		WithArgs(tenantA.String(), id.String()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	deleted, err := securedb.DeleteByID(context.Background(), db, securedb.DialectPostgres, "widgets", entity, scope.ForTenant(tenantA), id)

	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestDeleteByID_NoResourceColumn_Invalid(t *testing.T) {
	entity := scope.MustRegister(scope.EntityConfig{
		Name:       t.Name() + "-no-resource",
		NoTenant:   true,
		NoResource: true,
		NoOwner:    true,
		NoType:     true,
	})
	db, _, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	_, err = securedb.DeleteByID(context.Background(), db, securedb.DialectPostgres, "widgets", entity, scope.AllowAll(), tenantA)

	require.Error(t, err)
	var scopeErr *securedb.ScopeError
	require.ErrorAs(t, err, &scopeErr)
	assert.Equal(t, securedb.KindInvalid, scopeErr.Kind)
}
