package pep

import "github.com/Mindburn-Labs/helm/core/pkg/pdp"

// ResourceType statically describes a resource type and the properties the
// PEP knows how to compile PDP constraints against. Declared once per
// resource and passed to every Enforcer call for that resource.
type ResourceType struct {
	Name                string
	SupportedProperties []string
}

// AccessRequest carries per-call overrides to the defaults Enforcer.AccessScope
// would otherwise use. All fields default to "not overridden" — callers set
// only what the operation at hand needs.
type AccessRequest struct {
	resourceProperties map[string]any
	tenantContext       *pdp.TenantContext
	requireConstraints  *bool
}

// NewAccessRequest returns an empty AccessRequest with every field
// unoverridden.
func NewAccessRequest() *AccessRequest {
	return &AccessRequest{resourceProperties: map[string]any{}}
}

// WithResourceProperty adds a single ABAC resource property for the PDP to
// evaluate against (e.g. a target tenant on a CREATE).
func (r *AccessRequest) WithResourceProperty(key string, value any) *AccessRequest {
	r.resourceProperties[key] = value
	return r
}

// WithResourceProperties replaces the full set of resource properties.
func (r *AccessRequest) WithResourceProperties(props map[string]any) *AccessRequest {
	r.resourceProperties = props
	return r
}

func (r *AccessRequest) tenant() *pdp.TenantContext {
	if r.tenantContext == nil {
		r.tenantContext = &pdp.TenantContext{
			Mode:        pdp.TenantModeSubtree,
			BarrierMode: pdp.BarrierModeRespect,
		}
	}
	return r.tenantContext
}

// WithContextTenantID overrides the context tenant id (default: none — the
// PDP decides). This is the only way to scope a request to a tenant; there
// is no implicit fallback to the subject's own tenant.
func (r *AccessRequest) WithContextTenantID(tenantID string) *AccessRequest {
	r.tenant().RootID = tenantID
	return r
}

// WithTenantMode overrides the tenant hierarchy mode (default: Subtree).
func (r *AccessRequest) WithTenantMode(mode pdp.TenantMode) *AccessRequest {
	r.tenant().Mode = mode
	return r
}

// WithBarrierMode overrides the tenant barrier enforcement mode (default:
// Respect).
func (r *AccessRequest) WithBarrierMode(mode pdp.BarrierMode) *AccessRequest {
	r.tenant().BarrierMode = mode
	return r
}

// WithTenantStatus filters by tenant status (e.g. ["active"]).
func (r *AccessRequest) WithTenantStatus(statuses []string) *AccessRequest {
	r.tenant().TenantStatus = statuses
	return r
}

// WithTenantContext sets the entire tenant context at once, replacing any
// previously set fields.
func (r *AccessRequest) WithTenantContext(tc pdp.TenantContext) *AccessRequest {
	r.tenantContext = &tc
	return r
}

// WithRequireConstraints overrides the require_constraints flag sent to the
// PDP (default: true). When false, empty constraints compile to an
// unconstrained AccessScope rather than a compile error — appropriate for
// operations like CREATE or a prefetch-first GET that can tolerate "no
// row-level filtering" as a legitimate answer.
func (r *AccessRequest) WithRequireConstraints(require bool) *AccessRequest {
	r.requireConstraints = &require
	return r
}
