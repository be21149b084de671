package securedb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/Mindburn-Labs/helm/core/pkg/scope"
	"github.com/google/uuid"
)

// UpdateMany is the unscoped bulk-update builder for an entity. Mirrors
// SecureUpdateMany<E, Unscoped> from db_ops.rs: Set/SetExpr are available
// before scoping (they just accumulate), but ScopeWith is the only way to
// reach Exec.
type UpdateMany struct {
	entity                scope.ScopableEntity
	table                 string
	setValues             map[string]any
	setExprs              []setExpr
	tenantUpdateAttempted bool
}

type setExpr struct {
	column string
	expr   string
	args   []any
}

// NewUpdateMany starts an unscoped update builder for table.
func NewUpdateMany(entity scope.ScopableEntity, table string) *UpdateMany {
	return &UpdateMany{entity: entity, table: table, setValues: map[string]any{}}
}

// Set assigns column a literal value. If column is the entity's tenant
// column, the attempt is recorded — db_ops.rs only rejects this at Exec, to
// match how SeaORM's col_expr can't itself see whether a later call
// overwrites the same column.
func (u *UpdateMany) Set(column string, value any) *UpdateMany {
	if tenantCol := u.entity.TenantColumn(); tenantCol != "" && column == tenantCol {
		u.tenantUpdateAttempted = true
	}
	u.setValues[column] = value
	return u
}

// SetExpr assigns column a raw SQL expression written with "?" placeholders,
// e.g. SetExpr("login_count", "login_count + 1").
func (u *UpdateMany) SetExpr(column, expr string, args ...any) *UpdateMany {
	if tenantCol := u.entity.TenantColumn(); tenantCol != "" && column == tenantCol {
		u.tenantUpdateAttempted = true
	}
	u.setExprs = append(u.setExprs, setExpr{column: column, expr: expr, args: args})
	return u
}

// ScopeWith applies s as the update's row filter.
func (u *UpdateMany) ScopeWith(s scope.AccessScope, dialect Dialect) *ScopedUpdateMany {
	return &ScopedUpdateMany{update: u, dialect: dialect, accessScope: s}
}

// ScopedUpdateMany is a scoped bulk update. Only this type can Exec.
type ScopedUpdateMany struct {
	update      *UpdateMany
	dialect     Dialect
	accessScope scope.AccessScope
	extraWhere  []whereClause
}

// Filter ANDs an additional SQL condition (written with "?" placeholders)
// onto the update's WHERE clause.
func (s *ScopedUpdateMany) Filter(condition string, args ...any) *ScopedUpdateMany {
	s.extraWhere = append(s.extraWhere, whereClause{sql: condition, args: args})
	return s
}

// Exec runs the UPDATE, failing closed with Denied if any Set/SetExpr call
// touched the tenant column — the Go port of db_ops.rs's SecureUpdateMany::exec
// checking tenant_update_attempted before ever building SQL.
func (s *ScopedUpdateMany) Exec(ctx context.Context, runner Runner) (int64, error) {
	if s.update.tenantUpdateAttempted {
		return 0, Denied("tenant_id is immutable")
	}

	seq := newPlaceholderSeq(s.dialect)

	literalCols := make([]string, 0, len(s.update.setValues))
	for c := range s.update.setValues {
		literalCols = append(literalCols, c)
	}
	sort.Strings(literalCols)

	var setParts []string
	var args []any
	for _, c := range literalCols {
		setParts = append(setParts, c+" = "+seq.next())
		args = append(args, s.update.setValues[c])
	}
	for _, e := range s.update.setExprs {
		setParts = append(setParts, e.column+" = "+rebind(e.expr, seq))
		args = append(args, e.args...)
	}
	if len(setParts) == 0 {
		return 0, Invalid("update has no columns set")
	}

	cond := buildScopeCondition(s.accessScope, s.update.entity, seq)
	var where strings.Builder
	where.WriteString("(")
	where.WriteString(cond.SQL)
	where.WriteString(")")
	args = append(args, cond.Args...)

	for _, w := range s.extraWhere {
		where.WriteString(" AND (")
		where.WriteString(rebind(w.sql, seq))
		where.WriteString(")")
		args = append(args, w.args...)
	}

	var b strings.Builder
	b.WriteString("UPDATE ")
	b.WriteString(s.update.table)
	b.WriteString(" SET ")
	b.WriteString(strings.Join(setParts, ", "))
	b.WriteString(" WHERE ")
	b.WriteString(where.String())

	result, err := runner.ExecContext(ctx, b.String(), args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// SecureUpdateWithScope performs a single-row, tenant-immutable update: it
// first confirms id is visible under s (Denied if not), then — if entity has
// a tenant column and values sets it — confirms the new value matches the
// row's current stored value (Denied("tenant_id is immutable") if not),
// and only then executes the UPDATE. Ported from db_ops.rs's
// secure_update_with_scope.
func SecureUpdateWithScope(ctx context.Context, runner Runner, dialect Dialect, table string, entity scope.ScopableEntity, s scope.AccessScope, id uuid.UUID, values ColumnValues) (int64, error) {
	resourceCol := entity.ResourceColumn()
	if resourceCol == "" {
		return 0, Invalid("entity does not have a resource column")
	}

	visible, err := NewSelect[struct{}](runner, dialect, table, entity, "1", func(*sql.Rows) (struct{}, error) { return struct{}{}, nil }).
		ScopeWith(s).
		Filter(resourceCol+" = ?", id.String()).
		Count(ctx)
	if err != nil {
		return 0, err
	}
	if visible == 0 {
		return 0, Denied("entity not found or not accessible under scope")
	}

	if tenantCol := entity.TenantColumn(); tenantCol != "" {
		if newVal, set := values[tenantCol]; set {
			seq := newPlaceholderSeq(dialect)
			var stored string
			storedQuery := fmt.Sprintf("SELECT %s FROM %s WHERE %s = %s", tenantCol, table, resourceCol, seq.next())
			if err := runner.QueryRowContext(ctx, storedQuery, id.String()).Scan(&stored); err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return 0, Denied("entity not found or not accessible under scope")
				}
				return 0, err
			}
			newScope, err := nativeToScopeValue(newVal)
			if err != nil || !scope.ValueFromString(stored).Equal(newScope) {
				return 0, Denied("tenant_id is immutable")
			}
		}
	}

	// The visibility and tenant-immutability checks above already did the
	// real access-control work; this row is addressed directly by id, so the
	// update itself only needs an unconstrained scope plus the id filter.
	rows, err := NewUpdateMany(entity, table).applyValues(values).
		ScopeWith(scope.AllowAll(), dialect).
		Filter(resourceCol+" = ?", id.String()).
		Exec(ctx, runner)
	if err != nil {
		return 0, err
	}
	return rows, nil
}

// applyValues is a Set-many convenience for SecureUpdateWithScope, which
// already validated tenant immutability above and scopes purely by id — it
// does not need ScopedUpdateMany's own tenant guard to see these columns as
// a fresh attempt.
func (u *UpdateMany) applyValues(values ColumnValues) *UpdateMany {
	for col, val := range values {
		u.setValues[col] = val
	}
	u.tenantUpdateAttempted = false
	return u
}

