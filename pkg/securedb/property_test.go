//go:build property
// +build property

package securedb_test

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/Mindburn-Labs/helm/core/pkg/scope"
	"github.com/Mindburn-Labs/helm/core/pkg/securedb"
	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func propertyWidgetEntity(t *testing.T) scope.ScopableEntity {
	t.Helper()
	name := t.Name() + "-widget"
	if e, ok := scope.Lookup(name); ok {
		return e
	}
	return scope.MustRegister(scope.EntityConfig{
		Name:           name,
		TenantColumn:   "tenant_id",
		ResourceColumn: "id",
		NoOwner:        true,
		NoType:         true,
	})
}

func genTenantUUID() gopter.Gen {
	return gen.OneConstOf(
		uuid.MustParse("11111111-1111-1111-1111-111111111111"),
		uuid.MustParse("22222222-2222-2222-2222-222222222222"),
		uuid.MustParse("33333333-3333-3333-3333-333333333333"),
	)
}

// TestBuildScopeCondition_AlgebraicIdentity is P3: allow_all translates to
// TRUE, deny_all to FALSE, and a single-constraint scope translates to the
// same condition as that constraint alone.
func TestBuildScopeCondition_AlgebraicIdentity(t *testing.T) {
	entity := propertyWidgetEntity(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("allow_all is TRUE", prop.ForAll(
		func(_ bool) bool {
			cond := securedb.BuildScopeCondition(scope.AllowAll(), entity, securedb.DialectPostgres)
			return cond.SQL == "TRUE" && len(cond.Args) == 0
		},
		gen.Bool(),
	))

	properties.Property("deny_all is FALSE", prop.ForAll(
		func(_ bool) bool {
			cond := securedb.BuildScopeCondition(scope.DenyAll(), entity, securedb.DialectPostgres)
			return cond.SQL == "FALSE" && len(cond.Args) == 0
		},
		gen.Bool(),
	))

	properties.Property("a single constraint translates the same standalone as inside from_constraints", prop.ForAll(
		func(id uuid.UUID) bool {
			c := scope.NewConstraint(scope.InUUIDs(scope.PropOwnerTenantID, []uuid.UUID{id}))
			standalone := securedb.BuildScopeCondition(scope.Single(c), entity, securedb.DialectPostgres)
			viaConstraints := securedb.BuildScopeCondition(scope.FromConstraints([]scope.Constraint{c}), entity, securedb.DialectPostgres)
			return standalone.SQL == viaConstraints.SQL && len(standalone.Args) == len(viaConstraints.Args)
		},
		genTenantUUID(),
	))

	properties.TestingRun(t)
}

// TestBuildScopeCondition_Disjunction is P4: translating from_constraints
// over N constraints is equivalent to OR-ing each constraint's own
// translation — checked here by asserting every constraint's rendered
// fragment appears, joined by " OR ", in the combined condition.
func TestBuildScopeCondition_Disjunction(t *testing.T) {
	entity := propertyWidgetEntity(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("from_constraints([C1..Cn]) renders as OR of each Ci", prop.ForAll(
		func(ids []uuid.UUID) bool {
			if len(ids) == 0 {
				return true
			}
			var constraints []scope.Constraint
			var parts []string
			for _, id := range ids {
				c := scope.NewConstraint(scope.InUUIDs(scope.PropOwnerTenantID, []uuid.UUID{id}))
				constraints = append(constraints, c)
				parts = append(parts, securedb.BuildScopeCondition(scope.Single(c), entity, securedb.DialectPostgres).SQL)
			}
			combined := securedb.BuildScopeCondition(scope.FromConstraints(constraints), entity, securedb.DialectPostgres)
			if len(constraints) == 1 {
				return combined.SQL == parts[0]
			}
			for _, p := range parts {
				if !containsSubstring(combined.SQL, p) {
					return false
				}
			}
			return true
		},
		gen.SliceOfN(3, genTenantUUID()),
	))

	properties.TestingRun(t)
}

func containsSubstring(haystack, needle string) bool {
	return len(needle) == 0 || indexOf(haystack, needle) >= 0
}

func indexOf(haystack, needle string) int {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return i
		}
	}
	return -1
}

// TestScopedUpdateMany_TenantImmutability is P5: no sequence of Set/SetExpr
// calls naming the tenant column ever reaches a successful Exec.
func TestScopedUpdateMany_TenantImmutability(t *testing.T) {
	entity := propertyWidgetEntity(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 50
	properties := gopter.NewProperties(parameters)

	properties.Property("setting the tenant column always denies at Exec", prop.ForAll(
		func(id uuid.UUID, useSetExpr bool) bool {
			db, mock, err := sqlmock.New()
			if err != nil {
				return false
			}
			defer db.Close()

			upd := securedb.NewUpdateMany(entity, "widgets")
			if useSetExpr {
				upd = upd.SetExpr("tenant_id", "?", id.String())
			} else {
				upd = upd.Set("tenant_id", id.String())
			}
			scoped := upd.ScopeWith(scope.ForTenant(id), securedb.DialectPostgres)

			_, err = scoped.Exec(t.Context(), db)
			return err != nil && mock.ExpectationsWereMet() == nil
		},
		genTenantUUID(),
		gen.Bool(),
	))

	properties.TestingRun(t)
}

// TestValidateInsertScope_Soundness is P6: insert validation passes iff some
// constraint is fully satisfied by the columns actually set.
func TestValidateInsertScope_Soundness(t *testing.T) {
	entity := propertyWidgetEntity(t)

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	properties.Property("insert passes iff the set tenant column is in the scope's allowed set", prop.ForAll(
		func(allowed, attempted uuid.UUID) bool {
			s := scope.ForTenant(allowed)
			values := securedb.ColumnValues{"tenant_id": attempted.String()}

			err := securedb.ValidateInsertScope(values, s, entity)
			wantOK := allowed == attempted
			return (err == nil) == wantOK
		},
		genTenantUUID(),
		genTenantUUID(),
	))

	properties.Property("a column absent from values is never a mismatch", prop.ForAll(
		func(allowed uuid.UUID) bool {
			s := scope.ForTenant(allowed)
			err := securedb.ValidateInsertScope(securedb.ColumnValues{}, s, entity)
			return err == nil
		},
		genTenantUUID(),
	))

	properties.TestingRun(t)
}
