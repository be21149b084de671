package scope

import "fmt"

// ScopableEntity is the per-entity declaration a derive macro would
// generate in a language with one: which storage column backs each
// authorization dimension (tenant, resource, owner, type), plus a closed
// whitelist resolving any other authorization property name to a column.
//
// Go has neither derive macros nor, for the purposes of this interface, any
// need for one: ScopableEntity is implemented once per entity type as a
// small static value, registered at package init() via MustRegister. This
// is the "compile-time registered table" alternative Design Notes §9 calls
// out explicitly for languages without a derive mechanism.
type ScopableEntity interface {
	// Name returns the entity's registered name (used for registry lookup
	// and error messages).
	Name() string
	// TenantColumn returns the storage column backing owner_tenant_id, or
	// "" if the entity has no tenant dimension.
	TenantColumn() string
	// ResourceColumn returns the storage column backing id, or "" if none.
	ResourceColumn() string
	// OwnerColumn returns the storage column backing owner_id, or "" if none.
	OwnerColumn() string
	// TypeColumn returns the storage column backing a type discriminator,
	// or "" if none.
	TypeColumn() string
	// IsUnrestricted reports whether this entity bypasses scoping entirely
	// (all four dimensions absent by declaration, not by omission).
	IsUnrestricted() bool
	// ResolveProperty maps an authorization property name to a storage
	// column. Returns ("", false) for any property not declared — including
	// well-known properties whose dimension was declared no_X.
	ResolveProperty(property string) (column string, ok bool)
}

// staticEntity is the concrete ScopableEntity built by MustRegister.
type staticEntity struct {
	name           string
	tenantCol      string
	resourceCol    string
	ownerCol       string
	typeCol        string
	unrestricted   bool
	propertyToCol  map[string]string
}

func (e *staticEntity) Name() string           { return e.name }
func (e *staticEntity) TenantColumn() string   { return e.tenantCol }
func (e *staticEntity) ResourceColumn() string { return e.resourceCol }
func (e *staticEntity) OwnerColumn() string    { return e.ownerCol }
func (e *staticEntity) TypeColumn() string     { return e.typeCol }
func (e *staticEntity) IsUnrestricted() bool   { return e.unrestricted }

func (e *staticEntity) ResolveProperty(property string) (string, bool) {
	col, ok := e.propertyToCol[property]
	return col, ok
}

// Dimension identifies one of the four well-known authorization dimensions.
type Dimension int

const (
	DimensionTenant Dimension = iota
	DimensionResource
	DimensionOwner
	DimensionType
)

// EntityConfig is the registration-time configuration for one entity,
// the Go analogue of a struct's #[secure(...)] attributes.
type EntityConfig struct {
	Name string

	// Exactly one of {Column, NoBinding} must be set per dimension. Leaving
	// both unset for a dimension that is never assigned below is the
	// "missing decision" compile-time error from spec §4.2 — enforced here
	// at MustRegister time via the XColumn/NoX fields.
	TenantColumn, ResourceColumn, OwnerColumn, TypeColumn string
	NoTenant, NoResource, NoOwner, NoType                 bool

	// Unrestricted short-circuits the whole entity: all four dimensions
	// None, IsUnrestricted() true. Mutually exclusive with every other
	// field above and with CustomProperties.
	Unrestricted bool

	// CustomProperties extends the property-to-column map beyond the
	// well-known four. Keys must not be one of the reserved well-known
	// property names (scope.PropOwnerTenantID/PropResourceID/PropOwnerID).
	CustomProperties map[string]string
}

var registry = map[string]ScopableEntity{}

// MustRegister validates config and registers a ScopableEntity under
// config.Name, returning it for the caller to embed in its entity type
// (typically as a package-level var assigned from an init() call). It
// panics on any validation failure — the closest Go analogue available to
// a macro-expansion-time compile error: a misconfigured entity prevents the
// program from starting rather than silently misbehaving on a live request.
func MustRegister(config EntityConfig) ScopableEntity {
	if config.Name == "" {
		panic("scope: MustRegister: entity name must not be empty")
	}
	if _, exists := registry[config.Name]; exists {
		panic(fmt.Sprintf("scope: MustRegister: entity %q already registered", config.Name))
	}

	if config.Unrestricted {
		if config.TenantColumn != "" || config.ResourceColumn != "" || config.OwnerColumn != "" || config.TypeColumn != "" ||
			config.NoTenant || config.NoResource || config.NoOwner || config.NoType || len(config.CustomProperties) > 0 {
			panic(fmt.Sprintf("scope: MustRegister(%q): unrestricted is mutually exclusive with every other attribute", config.Name))
		}
		e := &staticEntity{name: config.Name, unrestricted: true, propertyToCol: map[string]string{}}
		registry[config.Name] = e
		return e
	}

	e := &staticEntity{name: config.Name, propertyToCol: map[string]string{}}

	bindDimension := func(dim Dimension, dimName, col string, noX bool) {
		if col != "" && noX {
			panic(fmt.Sprintf("scope: MustRegister(%q): both a %s_col and no_%s given", config.Name, dimName, dimName))
		}
		if col == "" && !noX {
			panic(fmt.Sprintf("scope: MustRegister(%q): dimension %s requires either a column binding or an explicit no_%s marker", config.Name, dimName, dimName))
		}
		if col == "" {
			return
		}
		var reserved string
		switch dim {
		case DimensionTenant:
			e.tenantCol = col
			reserved = PropOwnerTenantID
		case DimensionResource:
			e.resourceCol = col
			reserved = PropResourceID
		case DimensionOwner:
			e.ownerCol = col
			reserved = PropOwnerID
		case DimensionType:
			e.typeCol = col
			return
		}
		if reserved != "" {
			e.propertyToCol[reserved] = col
		}
	}

	bindDimension(DimensionTenant, "tenant", config.TenantColumn, config.NoTenant)
	bindDimension(DimensionResource, "resource", config.ResourceColumn, config.NoResource)
	bindDimension(DimensionOwner, "owner", config.OwnerColumn, config.NoOwner)
	bindDimension(DimensionType, "type", config.TypeColumn, config.NoType)

	reservedNames := map[string]bool{PropOwnerTenantID: true, PropResourceID: true, PropOwnerID: true}
	seen := map[string]bool{}
	for prop, col := range config.CustomProperties {
		if prop == "" || col == "" {
			panic(fmt.Sprintf("scope: MustRegister(%q): pep_prop with empty property or column string", config.Name))
		}
		if reservedNames[prop] {
			panic(fmt.Sprintf("scope: MustRegister(%q): pep_prop %q uses a reserved well-known property name; use the matching dimension attribute instead", config.Name, prop))
		}
		if seen[prop] {
			panic(fmt.Sprintf("scope: MustRegister(%q): duplicate pep_prop property %q", config.Name, prop))
		}
		seen[prop] = true
		e.propertyToCol[prop] = col
	}

	registry[config.Name] = e
	return e
}

// Lookup returns the registered ScopableEntity for name, if any.
func Lookup(name string) (ScopableEntity, bool) {
	e, ok := registry[name]
	return e, ok
}
