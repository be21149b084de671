package securedb

import (
	"context"
	"database/sql"
	"strconv"
	"strings"

	"github.com/Mindburn-Labs/helm/core/pkg/scope"
	"github.com/google/uuid"
)

// RowScanner maps one *sql.Rows cursor position to an E. Callers supply it
// once per entity type (typically a small closure over sql.Rows.Scan into
// the entity's fields), the same role SeaORM's generated FromQueryResult
// plays for the original.
type RowScanner[E any] func(*sql.Rows) (E, error)

// Select is the unscoped read-query builder for entity type E. It is the Go
// analogue of select.rs's SecureSelect<E, Unscoped>: the only thing it can
// do is transition to a Scoped query via ScopeWith. There is no All/One/
// Count method here, so a query literally cannot compile into something
// that reaches the database without first being scoped.
//
// This is implemented as two distinct generic types, Select[E] and
// Scoped[E], each parameterized by a single type argument, rather than one
// type parameterized by both the entity and a phantom state marker. Go does
// not allow a method on a generic type to specialize one of several type
// parameters to a concrete value (the receiver's type parameters must stay
// abstract), so SecureSelect[E, Scoped]-only methods cannot be declared the
// way select.rs declares impl<E> SecureSelect<E, Scoped>. Splitting state
// into separate named types sidesteps the limitation entirely and reads
// more idiomatically in Go besides: the type itself documents which phase a
// query is in.
type Select[E any] struct {
	runner  Runner
	dialect Dialect
	table   string
	entity  scope.ScopableEntity
	columns string
	scan    RowScanner[E]
}

// NewSelect builds an unscoped query over table, reading columns (pass "*"
// for all) and decoded by scan.
func NewSelect[E any](runner Runner, dialect Dialect, table string, entity scope.ScopableEntity, columns string, scan RowScanner[E]) *Select[E] {
	return &Select[E]{runner: runner, dialect: dialect, table: table, entity: entity, columns: columns, scan: scan}
}

// ScopeWith applies accessScope as the query's row filter, producing the
// only value this package lets a caller run a SELECT from.
func (s *Select[E]) ScopeWith(accessScope scope.AccessScope) *Scoped[E] {
	return &Scoped[E]{base: s, accessScope: accessScope}
}

// whereClause is one caller-appended AND term: SQL written with dialect-
// agnostic "?" placeholders, plus its positional args.
type whereClause struct {
	sql  string
	args []any
}

// Scoped is a read query that has been given an AccessScope. It is the Go
// analogue of select.rs's SecureSelect<E, Scoped> — every terminal method
// (All, One, Count) and every further-narrowing method (AndID, Filter,
// OrderBy, Limit, Offset) lives here, never on Select[E].
type Scoped[E any] struct {
	base        *Select[E]
	accessScope scope.AccessScope
	extraWhere  []whereClause
	orderBy     string
	limit       *int64
	offset      *int64
}

// Filter ANDs an additional SQL condition onto the query. condition is
// written with "?" placeholders regardless of dialect; this package
// renumbers them at build time to sit after the scope condition's own
// placeholders. Intended for narrowing by non-scope predicates, e.g. a
// status column.
func (s *Scoped[E]) Filter(condition string, args ...any) *Scoped[E] {
	s.extraWhere = append(s.extraWhere, whereClause{sql: condition, args: args})
	return s
}

// AndID narrows the query to a single resource by id. Returns an error if
// the entity has no resource column — the Go analogue of select.rs's
// ScopeError::Invalid("Entity does not have a resource column").
func (s *Scoped[E]) AndID(id uuid.UUID) (*Scoped[E], error) {
	col := s.base.entity.ResourceColumn()
	if col == "" {
		return nil, Invalid("entity does not have a resource column")
	}
	return s.Filter(col+" = ?", id.String()), nil
}

// OrderBy appends an ORDER BY clause. column is trusted SQL, never user
// input — callers must validate it against a column whitelist first.
func (s *Scoped[E]) OrderBy(column string, desc bool) *Scoped[E] {
	direction := "ASC"
	if desc {
		direction = "DESC"
	}
	if s.orderBy != "" {
		s.orderBy += ", "
	}
	s.orderBy += column + " " + direction
	return s
}

// Limit sets a row limit.
func (s *Scoped[E]) Limit(n int64) *Scoped[E] {
	s.limit = &n
	return s
}

// Offset sets a row offset.
func (s *Scoped[E]) Offset(n int64) *Scoped[E] {
	s.offset = &n
	return s
}

// buildWhere renders the shared WHERE fragment (scope condition AND every
// Filter()-appended clause) against a single placeholder sequence so
// Postgres placeholders number continuously across the whole statement.
func (s *Scoped[E]) buildWhere(seq *placeholderSeq) (string, []any) {
	cond := buildScopeCondition(s.accessScope, s.base.entity, seq)
	var b strings.Builder
	b.WriteString("(")
	b.WriteString(cond.SQL)
	b.WriteString(")")
	args := append([]any{}, cond.Args...)

	for _, w := range s.extraWhere {
		b.WriteString(" AND (")
		b.WriteString(rebind(w.sql, seq))
		b.WriteString(")")
		args = append(args, w.args...)
	}
	return b.String(), args
}

func (s *Scoped[E]) build() (string, []any) {
	seq := newPlaceholderSeq(s.base.dialect)
	where, args := s.buildWhere(seq)

	var b strings.Builder
	b.WriteString("SELECT ")
	b.WriteString(s.base.columns)
	b.WriteString(" FROM ")
	b.WriteString(s.base.table)
	b.WriteString(" WHERE ")
	b.WriteString(where)

	if s.orderBy != "" {
		b.WriteString(" ORDER BY ")
		b.WriteString(s.orderBy)
	}
	if s.limit != nil {
		b.WriteString(" LIMIT " + strconv.FormatInt(*s.limit, 10))
	}
	if s.offset != nil {
		b.WriteString(" OFFSET " + strconv.FormatInt(*s.offset, 10))
	}
	return b.String(), args
}

// All executes the query and scans every matching row.
func (s *Scoped[E]) All(ctx context.Context) ([]E, error) {
	query, args := s.build()
	rows, err := s.base.runner.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []E
	for rows.Next() {
		e, err := s.base.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// One executes the query with an implicit LIMIT 1 and returns the first
// match, if any. The bool result mirrors Option::None from select.rs's one().
func (s *Scoped[E]) One(ctx context.Context) (E, bool, error) {
	limited := *s
	one := int64(1)
	limited.limit = &one

	results, err := limited.All(ctx)
	var zero E
	if err != nil {
		return zero, false, err
	}
	if len(results) == 0 {
		return zero, false, nil
	}
	return results[0], true, nil
}

// Count executes a SELECT COUNT(*) over the same condition.
func (s *Scoped[E]) Count(ctx context.Context) (int64, error) {
	seq := newPlaceholderSeq(s.base.dialect)
	where, args := s.buildWhere(seq)

	query := "SELECT COUNT(*) FROM " + s.base.table + " WHERE " + where

	var count int64
	err := s.base.runner.QueryRowContext(ctx, query, args...).Scan(&count)
	return count, err
}
