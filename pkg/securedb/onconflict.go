package securedb

import (
	"context"
	"database/sql"
	"sort"
	"strings"

	"github.com/Mindburn-Labs/helm/core/pkg/scope"
)

// OnConflict builds an ON CONFLICT ... DO UPDATE clause for SecureInsert's
// upsert form, refusing at construction time to let the entity's tenant
// column appear anywhere in the update branch. Ported from db_ops.rs's
// SecureOnConflict — conflict-target columns are trusted (they identify a
// unique index, not user input), update values are not.
type OnConflict struct {
	entity       scope.ScopableEntity
	targetCols   []string
	updateCols   []string
	updateValues map[string]any
}

// NewOnConflict starts a builder targeting the given unique-index columns.
func NewOnConflict(entity scope.ScopableEntity, targetCols ...string) *OnConflict {
	return &OnConflict{entity: entity, targetCols: append([]string{}, targetCols...)}
}

// UpdateColumns marks cols to be updated from the corresponding excluded
// (proposed-insert) row. Returns an error without mutating the builder if
// the tenant column is among them.
func (o *OnConflict) UpdateColumns(cols ...string) (*OnConflict, error) {
	tenantCol := o.entity.TenantColumn()
	for _, c := range cols {
		if tenantCol != "" && c == tenantCol {
			return nil, Denied("tenant_id is immutable")
		}
	}
	o.updateCols = append(o.updateCols, cols...)
	return o, nil
}

// Value sets an explicit literal (not excluded-row) update value for col.
// Returns an error without mutating the builder if col is the tenant column.
func (o *OnConflict) Value(col string, value any) (*OnConflict, error) {
	if tenantCol := o.entity.TenantColumn(); tenantCol != "" && col == tenantCol {
		return nil, Denied("tenant_id is immutable")
	}
	if o.updateValues == nil {
		o.updateValues = map[string]any{}
	}
	o.updateValues[col] = value
	return o, nil
}

// build renders the dialect-specific ON CONFLICT clause and its args,
// appended after seq has already issued placeholders for everything earlier
// in the statement (the VALUES list of the INSERT it attaches to).
func (o *OnConflict) build(dialect Dialect, seq *placeholderSeq) (string, []any) {
	var b strings.Builder
	b.WriteString("ON CONFLICT (")
	b.WriteString(strings.Join(o.targetCols, ", "))
	b.WriteString(")")

	if len(o.updateCols) == 0 && len(o.updateValues) == 0 {
		b.WriteString(" DO NOTHING")
		return b.String(), nil
	}

	b.WriteString(" DO UPDATE SET ")
	var assignments []string
	var args []any

	excludedPrefix := "excluded."
	if dialect == DialectPostgres {
		excludedPrefix = "EXCLUDED."
	}
	for _, c := range o.updateCols {
		assignments = append(assignments, c+" = "+excludedPrefix+c)
	}

	literalCols := make([]string, 0, len(o.updateValues))
	for c := range o.updateValues {
		literalCols = append(literalCols, c)
	}
	sort.Strings(literalCols)
	for _, c := range literalCols {
		assignments = append(assignments, c+" = "+seq.next())
		args = append(args, o.updateValues[c])
	}

	b.WriteString(strings.Join(assignments, ", "))
	return b.String(), args
}

// SecureUpsert validates values exactly as SecureInsert does, then executes
// an INSERT ... ON CONFLICT using conflict. conflict is not checked against
// entity: its tenant-column guard uses the entity conflict was built with.
func SecureUpsert(ctx context.Context, runner Runner, dialect Dialect, table string, entity scope.ScopableEntity, values ColumnValues, s scope.AccessScope, conflict *OnConflict) (sql.Result, error) {
	if tenantCol := entity.TenantColumn(); tenantCol != "" {
		if _, ok := values[tenantCol]; !ok {
			return nil, Invalid("tenant column is required on insert")
		}
	}
	if err := ValidateInsertScope(values, s, entity); err != nil {
		return nil, err
	}

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
	b.WriteString(") ")

	clause, conflictArgs := conflict.build(dialect, seq)
	b.WriteString(clause)
	args = append(args, conflictArgs...)

	return runner.ExecContext(ctx, b.String(), args...)
}
