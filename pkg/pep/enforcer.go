package pep

import (
	"context"
	"fmt"

	"github.com/Mindburn-Labs/helm/core/pkg/observability"
	"github.com/Mindburn-Labs/helm/core/pkg/pdp"
	"github.com/Mindburn-Labs/helm/core/pkg/scope"
	"go.opentelemetry.io/otel/attribute"
)

// DeniedError is returned when the PDP explicitly denied access. It carries
// the PDP's deny reason (if any) for structured logging/problem-details
// mapping — never for display to the end user verbatim.
type DeniedError struct {
	DenyReason *pdp.DenyReason
}

func (e *DeniedError) Error() string {
	if e.DenyReason != nil {
		return fmt.Sprintf("access denied by pdp: %s", e.DenyReason.ErrorCode)
	}
	return "access denied by pdp"
}

// Enforcer is the Policy Enforcement Point: it holds a pdp.Client and the
// capabilities this PEP advertises, and exposes the full enforce flow
// (build request -> evaluate -> compile constraints) as well as the
// request-building step alone for callers that need to inspect it.
//
// Constructed once during service init; cheap to pass around (holds only a
// client reference, a capability slice, and an optional observability
// provider). A single Enforcer serves every
// resource type in a process — the resource type is supplied per call via
// ResourceType.
type Enforcer struct {
	client       pdp.Client
	capabilities []string
	observer     *observability.Provider
}

// NewEnforcer builds an Enforcer around a pdp.Client.
func NewEnforcer(client pdp.Client) *Enforcer {
	return &Enforcer{client: client}
}

// WithCapabilities sets the PEP capabilities advertised to the PDP on every
// request (e.g. "tenant_hierarchy").
func (e *Enforcer) WithCapabilities(capabilities []string) *Enforcer {
	e.capabilities = capabilities
	return e
}

// WithObservability attaches an observability.Provider. When set,
// AccessScopeWith records a span plus RED metrics (decision latency, deny
// rate, compile failures) around the evaluate+compile flow. A nil provider
// (the zero value) leaves the enforcer unobserved — observability is
// optional, not a requirement to construct an Enforcer.
func (e *Enforcer) WithObservability(observer *observability.Provider) *Enforcer {
	e.observer = observer
	return e
}

// BuildRequest builds a PDP evaluation request using defaults: no context
// tenant (the PDP decides), the enforcer's advertised capabilities, and the
// given require_constraints flag.
func (e *Enforcer) BuildRequest(ctx *SecurityContext, resource ResourceType, action string, resourceID string, requireConstraints bool) *pdp.EvaluationRequest {
	return e.BuildRequestWith(ctx, resource, action, resourceID, requireConstraints, NewAccessRequest())
}

// BuildRequestWith builds a PDP evaluation request with per-request
// overrides from an AccessRequest.
//
// The caller's tenant context is passed through exactly as given in req —
// if no context tenant id was set, tenant_context is omitted entirely and
// the PDP determines scoping by its own rules. There is no implicit
// fallback to the subject's own tenant: silently scoping every request to
// ctx.SubjectTenantID() would defeat cross-tenant operations a PDP policy
// might legitimately grant (e.g. a platform-admin role), and would make the
// fallback invisible to anyone reading the call site.
func (e *Enforcer) BuildRequestWith(ctx *SecurityContext, resource ResourceType, action string, resourceID string, requireConstraints bool, req *AccessRequest) *pdp.EvaluationRequest {
	subjectProperties := ctx.SubjectProperties()
	subjectProperties["tenant_id"] = ctx.SubjectTenantID()

	return &pdp.EvaluationRequest{
		Subject: pdp.Subject{
			ID:          ctx.SubjectID(),
			SubjectType: ctx.SubjectType(),
			Properties:  subjectProperties,
		},
		Action: pdp.Action{Name: action},
		Resource: pdp.Resource{
			ResourceType: resource.Name,
			ID:           resourceID,
			Properties:   req.resourceProperties,
		},
		Context: pdp.EvaluationRequestContext{
			TenantContext:       req.tenantContext,
			TokenScopes:         ctx.TokenScopes(),
			RequireConstraints:  requireConstraints,
			Capabilities:        e.capabilities,
			SupportedProperties: resource.SupportedProperties,
			BearerToken:         ctx.BearerToken(),
		},
	}
}

// AccessScope executes the full PEP flow with require_constraints=true:
// build request -> evaluate -> compile constraints to an AccessScope. This
// is the default for CRUD operations, which expect the PDP to always
// return row-level constraints.
func (e *Enforcer) AccessScope(goCtx context.Context, secCtx *SecurityContext, resource ResourceType, action string, resourceID string) (scope.AccessScope, error) {
	return e.AccessScopeWith(goCtx, secCtx, resource, action, resourceID, NewAccessRequest())
}

// AccessScopeWith executes the full PEP flow with per-request overrides.
// require_constraints comes from req (default true); when false, the PDP
// may legitimately return no constraints, which compiles to
// scope.AllowAll() rather than a compile error.
func (e *Enforcer) AccessScopeWith(goCtx context.Context, secCtx *SecurityContext, resource ResourceType, action string, resourceID string, req *AccessRequest) (result scope.AccessScope, err error) {
	requireConstraints := true
	if req.requireConstraints != nil {
		requireConstraints = *req.requireConstraints
	}

	if e.observer != nil {
		var done func(error)
		goCtx, done = e.observer.TrackOperation(goCtx, "pep.access_scope",
			attribute.String("pep.resource_type", resource.Name),
			attribute.String("pep.action", action),
		)
		defer func() { done(err) }()
	}

	evalReq := e.BuildRequestWith(secCtx, resource, action, resourceID, requireConstraints, req)

	resp, evalErr := e.client.Evaluate(goCtx, evalReq)
	if evalErr != nil {
		err = fmt.Errorf("pdp evaluation failed: %w", evalErr)
		return scope.AccessScope{}, err
	}

	if !resp.Decision {
		if e.observer != nil {
			e.observer.RecordRequest(goCtx, attribute.String("pep.outcome", "deny"))
		}
		err = &DeniedError{DenyReason: resp.Context.DenyReason}
		return scope.AccessScope{}, err
	}

	result, err = CompileToAccessScope(resp, requireConstraints, resource.SupportedProperties)
	if err != nil && e.observer != nil {
		e.observer.RecordRequest(goCtx, attribute.String("pep.outcome", "compile_failure"))
	}
	return result, err
}
