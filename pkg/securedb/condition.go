package securedb

import (
	"strings"

	"github.com/Mindburn-Labs/helm/core/pkg/scope"
)

// ScopeCondition is a SQL boolean expression (no leading "WHERE") together
// with its positional arguments, ready to be spliced into a statement.
type ScopeCondition struct {
	SQL  string
	Args []any
}

// BuildScopeCondition translates an AccessScope into a SQL condition against
// entity's resolved columns, the Go analogue of cond.rs's
// build_scope_condition: unconstrained (or an unrestricted entity) compiles
// to "TRUE", deny-all to "FALSE", and otherwise each constraint compiles to
// an AND of its filters and the constraints OR together. A constraint whose
// filter references a property the entity doesn't resolve is dropped
// entirely (fail-closed) rather than silently widening the scope; if every
// constraint drops this way the result is "FALSE", same as an explicit
// deny-all.
func BuildScopeCondition(s scope.AccessScope, entity scope.ScopableEntity, dialect Dialect) ScopeCondition {
	return buildScopeCondition(s, entity, newPlaceholderSeq(dialect))
}

// buildScopeCondition is BuildScopeCondition against a caller-supplied
// placeholder sequence, so a statement builder that also has its own
// clauses (an UPDATE's SET list, a Filter()-appended fragment) can number
// every placeholder in the finished statement without collisions. Every
// multi-clause statement builder in this package uses this form and keeps
// BuildScopeCondition itself as the single-condition convenience entry
// point used by callers (and tests) that only need the condition in
// isolation.
func buildScopeCondition(s scope.AccessScope, entity scope.ScopableEntity, seq *placeholderSeq) ScopeCondition {
	if entity.IsUnrestricted() || s.IsUnconstrained() {
		return ScopeCondition{SQL: "TRUE"}
	}
	if s.IsDenyAll() {
		return ScopeCondition{SQL: "FALSE"}
	}

	var compiled []ScopeCondition
	for _, c := range s.Constraints() {
		if cond, ok := buildConstraintCondition(c, entity, seq); ok {
			compiled = append(compiled, cond)
		}
	}

	switch len(compiled) {
	case 0:
		return ScopeCondition{SQL: "FALSE"}
	case 1:
		return compiled[0]
	default:
		parts := make([]string, len(compiled))
		var args []any
		for i, c := range compiled {
			parts[i] = "(" + c.SQL + ")"
			args = append(args, c.Args...)
		}
		return ScopeCondition{SQL: strings.Join(parts, " OR "), Args: args}
	}
}

// buildConstraintCondition compiles one constraint (AND of filters). Returns
// ok=false if any filter's property isn't resolvable on entity — the whole
// constraint is then dropped by the caller, never partially applied.
func buildConstraintCondition(c scope.Constraint, entity scope.ScopableEntity, seq *placeholderSeq) (ScopeCondition, bool) {
	filters := c.Filters()
	if len(filters) == 0 {
		return ScopeCondition{SQL: "TRUE"}, true
	}

	// Resolve every property before issuing any placeholder, so a dropped
	// constraint leaves no gap in the statement's numbering.
	for _, f := range filters {
		if _, ok := entity.ResolveProperty(f.Property()); !ok {
			return ScopeCondition{}, false
		}
	}

	parts := make([]string, 0, len(filters))
	var args []any
	for _, f := range filters {
		column, ok := entity.ResolveProperty(f.Property())
		if !ok {
			return ScopeCondition{}, false
		}

		switch f.Kind() {
		case scope.FilterEq:
			parts = append(parts, column+" = "+seq.next())
			args = append(args, f.Values().At(0).Native())
		case scope.FilterIn:
			values := f.Values()
			if values.Len() == 0 {
				// An empty IN matches nothing; rendering it as a literal
				// FALSE keeps the AND chain correct without a driver-
				// specific empty-tuple syntax.
				parts = append(parts, "FALSE")
				continue
			}
			placeholders := make([]string, values.Len())
			for i := 0; i < values.Len(); i++ {
				placeholders[i] = seq.next()
				args = append(args, values.At(i).Native())
			}
			parts = append(parts, column+" IN ("+strings.Join(placeholders, ", ")+")")
		default:
			return ScopeCondition{}, false
		}
	}

	return ScopeCondition{SQL: strings.Join(parts, " AND "), Args: args}, true
}
