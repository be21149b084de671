package securedb

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/Mindburn-Labs/helm/core/pkg/scope"
)

// ColumnValues is the set of columns a caller intends to write, the Go
// analogue of a SeaORM ActiveModel's explicitly-Set fields. A column absent
// from the map is SeaORM's ActiveValue::NotSet (skipped during scope
// validation, not a failure); a present key maps to the literal value to
// write, including nil for SQL NULL.
type ColumnValues map[string]any

// ValidateInsertScope fail-closed-validates values against s: an
// unrestricted entity or an unconstrained scope always passes; a deny-all
// scope always fails; otherwise at least one constraint must be fully
// satisfied by the columns that are actually set (columns absent from
// values are skipped for that filter, not treated as a mismatch). This is
// the Go port of db_ops.rs's validate_insert_scope.
func ValidateInsertScope(values ColumnValues, s scope.AccessScope, entity scope.ScopableEntity) error {
	if entity.IsUnrestricted() || s.IsUnconstrained() {
		return nil
	}
	if s.IsDenyAll() {
		return Denied("scope denies all access")
	}

	for _, c := range s.Constraints() {
		if constraintSatisfiedByValues(c, values, entity) {
			return nil
		}
	}
	return Denied("insert values do not satisfy any scope constraint")
}

// constraintSatisfiedByValues reports whether every filter in c that
// references a set column is satisfied. An unresolvable property fails the
// whole constraint immediately (fail-closed); a column that simply isn't
// present in values is skipped for that filter.
func constraintSatisfiedByValues(c scope.Constraint, values ColumnValues, entity scope.ScopableEntity) bool {
	for _, f := range c.Filters() {
		column, ok := entity.ResolveProperty(f.Property())
		if !ok {
			return false
		}
		raw, set := values[column]
		if !set {
			continue
		}
		val, err := nativeToScopeValue(raw)
		if err != nil {
			return false
		}
		if !f.Values().Contains(val) {
			return false
		}
	}
	return true
}

// SecureInsert validates values against s and entity, then executes an
// INSERT into table. If entity declares a tenant column, values must set
// it — the Go port of db_ops.rs's secure_insert requiring the tenant column
// be Set before validation ever runs.
func SecureInsert(ctx context.Context, runner Runner, dialect Dialect, table string, entity scope.ScopableEntity, values ColumnValues, s scope.AccessScope) (sql.Result, error) {
	if tenantCol := entity.TenantColumn(); tenantCol != "" {
		if _, ok := values[tenantCol]; !ok {
			return nil, Invalid("tenant column is required on insert")
		}
	}

	if err := ValidateInsertScope(values, s, entity); err != nil {
		return nil, err
	}

	query, args := buildInsertSQL(dialect, table, values)
	return runner.ExecContext(ctx, query, args...)
}

// buildInsertSQL renders a deterministic-column-order INSERT statement.
func buildInsertSQL(dialect Dialect, table string, values ColumnValues) (string, []any) {
	columns := make([]string, 0, len(values))
	for col := range values {
		columns = append(columns, col)
	}
	sort.Strings(columns)

	seq := newPlaceholderSeq(dialect)
	placeholders := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		placeholders[i] = seq.next()
		args[i] = values[col]
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(table)
	b.WriteString(" (")
	b.WriteString(strings.Join(columns, ", "))
	b.WriteString(") VALUES (")
	b.WriteString(strings.Join(placeholders, ", "))
	b.WriteString(")")
	return b.String(), args
}

// ValidateTenantInScope is the standalone tenant-membership check used by
// callers that already have a tenant id in hand (e.g. a handler validating
// a path parameter before touching storage) rather than a full column set.
// Ported from db_ops.rs's validate_tenant_in_scope.
func ValidateTenantInScope(tenantID string, s scope.AccessScope) error {
	if s.IsUnconstrained() {
		return nil
	}
	if !s.HasProperty(scope.PropOwnerTenantID) {
		return Denied("tenant scope required but scope carries no tenant constraint")
	}
	if !s.ContainsValue(scope.PropOwnerTenantID, scope.ValueFromString(tenantID)) {
		return TenantNotInScope(tenantID)
	}
	return nil
}
