package scope

import "github.com/google/uuid"

// AccessScope is a disjunction of Constraints plus an unconstrained flag.
//
//   - unconstrained=true,  constraints=[] → allow-all: a valid PDP outcome
//     meaning "yes, no row-level filter."
//   - unconstrained=false, constraints=[] → deny-all.
//
// The zero value is deny-all, matching the original's Default.
type AccessScope struct {
	constraints   []Constraint
	unconstrained bool
}

// FromConstraints builds a scope as the disjunction of the given constraints.
func FromConstraints(constraints []Constraint) AccessScope {
	cp := make([]Constraint, len(constraints))
	copy(cp, constraints)
	return AccessScope{constraints: cp}
}

// Single builds a scope with exactly one constraint.
func Single(c Constraint) AccessScope {
	return AccessScope{constraints: []Constraint{c}}
}

// AllowAll builds the unconstrained scope: every row matches.
func AllowAll() AccessScope {
	return AccessScope{unconstrained: true}
}

// DenyAll builds the scope that matches no rows.
func DenyAll() AccessScope {
	return AccessScope{}
}

// ForTenant builds a single-constraint scope restricting owner_tenant_id to id.
func ForTenant(id uuid.UUID) AccessScope {
	return ForTenants([]uuid.UUID{id})
}

// ForTenants builds a single-constraint scope restricting owner_tenant_id to ids.
func ForTenants(ids []uuid.UUID) AccessScope {
	return Single(NewConstraint(InUUIDs(PropOwnerTenantID, ids)))
}

// ForResource builds a single-constraint scope restricting id to the given resource.
func ForResource(id uuid.UUID) AccessScope {
	return ForResources([]uuid.UUID{id})
}

// ForResources builds a single-constraint scope restricting id to ids.
func ForResources(ids []uuid.UUID) AccessScope {
	return Single(NewConstraint(InUUIDs(PropResourceID, ids)))
}

// Constraints returns the scope's constraints (empty for both allow-all and
// deny-all).
func (s AccessScope) Constraints() []Constraint { return s.constraints }

// IsUnconstrained reports whether the scope is allow-all.
func (s AccessScope) IsUnconstrained() bool { return s.unconstrained }

// IsDenyAll reports whether the scope matches no rows: not unconstrained and
// carrying no constraints.
func (s AccessScope) IsDenyAll() bool {
	return !s.unconstrained && len(s.constraints) == 0
}

// HasProperty reports whether any constraint mentions property.
func (s AccessScope) HasProperty(property string) bool {
	for _, c := range s.constraints {
		for _, f := range c.Filters() {
			if f.Property() == property {
				return true
			}
		}
	}
	return false
}

// AllValuesFor returns every value any constraint's filter on property
// carries, across all constraints and filters (duplicates included, order
// preserved).
func (s AccessScope) AllValuesFor(property string) []Value {
	var out []Value
	for _, c := range s.constraints {
		for _, f := range c.Filters() {
			if f.Property() != property {
				continue
			}
			vals := f.Values()
			for i := 0; i < vals.Len(); i++ {
				out = append(out, vals.At(i))
			}
		}
	}
	return out
}

// AllUUIDValuesFor is AllValuesFor filtered to UUID-kind values only.
func (s AccessScope) AllUUIDValuesFor(property string) []uuid.UUID {
	var out []uuid.UUID
	for _, v := range s.AllValuesFor(property) {
		if id, ok := v.AsUUID(); ok {
			out = append(out, id)
		}
	}
	return out
}

// ContainsValue reports whether any constraint's filter on property contains
// value.
func (s AccessScope) ContainsValue(property string, value Value) bool {
	for _, c := range s.constraints {
		for _, f := range c.Filters() {
			if f.Property() != property {
				continue
			}
			if f.Values().Contains(value) {
				return true
			}
		}
	}
	return false
}

// ContainsUUID is ContainsValue specialized to UUIDs.
func (s AccessScope) ContainsUUID(property string, id uuid.UUID) bool {
	return s.ContainsValue(property, UUID(id))
}
