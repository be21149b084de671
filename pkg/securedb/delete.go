package securedb

import (
	"context"
	"strings"

	"github.com/Mindburn-Labs/helm/core/pkg/scope"
	"github.com/google/uuid"
)

// DeleteMany is the unscoped bulk-delete builder for an entity. Mirrors
// SecureDeleteMany<E, Unscoped> from db_ops.rs: ScopeWith is the only way
// to reach Exec.
type DeleteMany struct {
	entity scope.ScopableEntity
	table  string
}

// NewDeleteMany starts an unscoped delete builder for table.
func NewDeleteMany(entity scope.ScopableEntity, table string) *DeleteMany {
	return &DeleteMany{entity: entity, table: table}
}

// ScopeWith applies s as the delete's row filter.
func (d *DeleteMany) ScopeWith(s scope.AccessScope, dialect Dialect) *ScopedDeleteMany {
	return &ScopedDeleteMany{delete: d, dialect: dialect, accessScope: s}
}

// ScopedDeleteMany is a scoped bulk delete. Only this type can Exec.
type ScopedDeleteMany struct {
	delete      *DeleteMany
	dialect     Dialect
	accessScope scope.AccessScope
	extraWhere  []whereClause
}

// Filter ANDs an additional SQL condition (written with "?" placeholders)
// onto the delete's WHERE clause.
func (s *ScopedDeleteMany) Filter(condition string, args ...any) *ScopedDeleteMany {
	s.extraWhere = append(s.extraWhere, whereClause{sql: condition, args: args})
	return s
}

// Exec runs the DELETE and returns the number of rows removed.
func (s *ScopedDeleteMany) Exec(ctx context.Context, runner Runner) (int64, error) {
	seq := newPlaceholderSeq(s.dialect)
	cond := buildScopeCondition(s.accessScope, s.delete.entity, seq)

	var b strings.Builder
	b.WriteString("DELETE FROM ")
	b.WriteString(s.delete.table)
	b.WriteString(" WHERE (")
	b.WriteString(cond.SQL)
	b.WriteString(")")

	args := append([]any{}, cond.Args...)
	for _, w := range s.extraWhere {
		b.WriteString(" AND (")
		b.WriteString(rebind(w.sql, seq))
		b.WriteString(")")
		args = append(args, w.args...)
	}

	result, err := runner.ExecContext(ctx, b.String(), args...)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// DeleteByID deletes a single row by resource id, scoped. Returns an error
// if the entity has no resource column.
func DeleteByID(ctx context.Context, runner Runner, dialect Dialect, table string, entity scope.ScopableEntity, s scope.AccessScope, id uuid.UUID) (bool, error) {
	resourceCol := entity.ResourceColumn()
	if resourceCol == "" {
		return false, Invalid("entity does not have a resource column")
	}

	rows, err := NewDeleteMany(entity, table).
		ScopeWith(s, dialect).
		Filter(resourceCol+" = ?", id.String()).
		Exec(ctx, runner)
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}
