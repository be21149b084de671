package securedb_test

import (
	"testing"

	"github.com/Mindburn-Labs/helm/core/pkg/scope"
	"github.com/Mindburn-Labs/helm/core/pkg/securedb"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ownerCityEntity(t *testing.T) scope.ScopableEntity {
	t.Helper()
	name := t.Name() + "-owner-city"
	if e, ok := scope.Lookup(name); ok {
		return e
	}
	return scope.MustRegister(scope.EntityConfig{
		Name:             name,
		TenantColumn:     "tenant_id",
		OwnerColumn:      "user_id",
		NoResource:       true,
		NoType:           true,
		CustomProperties: map[string]string{"city_id": "city_id"},
	})
}

// S4 — Owner+city CREATE: a scope with one constraint of three filters
// (tenant_id In [T1], owner_id Eq U1, city_id Eq C1). Insert validation
// passes when the active values match every filter, and fails the moment
// any set column (here user_id) falls outside its filter's value set.
func TestScenario_S4_OwnerCityCreate(t *testing.T) {
	entity := ownerCityEntity(t)
	t1 := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	u1 := uuid.MustParse("aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa")
	u2 := uuid.MustParse("bbbbbbbb-bbbb-bbbb-bbbb-bbbbbbbbbbbb")
	c1 := "city-1"

	s := scope.Single(scope.NewConstraint(
		scope.InUUIDs(scope.PropOwnerTenantID, []uuid.UUID{t1}),
		scope.Eq(scope.PropOwnerID, scope.UUID(u1)),
		scope.Eq("city_id", scope.String(c1)),
	))

	values := securedb.ColumnValues{
		"tenant_id": t1.String(),
		"user_id":   u1.String(),
		"city_id":   c1,
	}
	require.NoError(t, securedb.ValidateInsertScope(values, s, entity))

	values["user_id"] = u2.String()
	err := securedb.ValidateInsertScope(values, s, entity)
	require.Error(t, err)
	assert.True(t, securedb.IsDenied(err))
}

// S5 — Cross-tenant upsert blocked: an OnConflict builder refuses, at
// construction time and before any SQL is issued, to let the tenant column
// appear among the update columns.
func TestScenario_S5_CrossTenantUpsertBlocked(t *testing.T) {
	entity := ownerCityEntity(t)

	_, err := securedb.NewOnConflict(entity, "id").UpdateColumns("tenant_id", "other_col")

	require.Error(t, err)
	assert.True(t, securedb.IsDenied(err))
}
