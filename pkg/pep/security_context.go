// Package pep implements the Policy Enforcement Point: it builds PDP
// evaluation requests from a caller's security context, calls the
// configured pdp.Client, and compiles the response into a scope.AccessScope
// the secure data-access layer can execute against.
package pep

// SecurityContext describes the caller of a request: who they are, which
// tenant they belong to, and what credentials travel with the call. It is
// built once per inbound request (e.g. in HTTP middleware) and threaded
// through to every PolicyEnforcer call.
//
// There is deliberately no method that falls back from an unset context
// tenant to "the subject's own tenant" — see Enforcer.AccessScope. Building
// that fallback into SecurityContext would silently reintroduce it.
type SecurityContext struct {
	subjectID         string
	subjectTenantID   string
	subjectType       string
	tokenScopes       []string
	bearerToken       string
	subjectProperties map[string]any
}

// SecurityContextOption configures a SecurityContext under construction.
type SecurityContextOption func(*SecurityContext)

// WithSubjectTenantID sets the subject's own tenant id, carried in the PDP
// request's subject.properties per the AuthZEN wire shape. It does not by
// itself scope the request to that tenant — see AccessRequest.WithContextTenantID.
func WithSubjectTenantID(tenantID string) SecurityContextOption {
	return func(c *SecurityContext) { c.subjectTenantID = tenantID }
}

// WithSubjectType sets the subject type (e.g. "user", "service_account").
func WithSubjectType(subjectType string) SecurityContextOption {
	return func(c *SecurityContext) { c.subjectType = subjectType }
}

// WithTokenScopes sets the OAuth-style scopes carried on the caller's token.
func WithTokenScopes(scopes []string) SecurityContextOption {
	return func(c *SecurityContext) { c.tokenScopes = scopes }
}

// WithBearerToken attaches the raw bearer token, forwarded to the PDP for
// plugins that need to re-verify or inspect it directly.
func WithBearerToken(token string) SecurityContextOption {
	return func(c *SecurityContext) { c.bearerToken = token }
}

// WithSubjectProperty attaches a single free-form subject property (e.g.
// "department", "clearance_level") to be forwarded to the PDP alongside the
// well-known subject fields. Calling it more than once with the same name
// overwrites the earlier value.
func WithSubjectProperty(name string, value any) SecurityContextOption {
	return func(c *SecurityContext) {
		if c.subjectProperties == nil {
			c.subjectProperties = make(map[string]any)
		}
		c.subjectProperties[name] = value
	}
}

// WithSubjectProperties merges a whole map of free-form subject properties,
// e.g. ones read off an identity-provider claims set. Individual entries can
// still be overridden by a later WithSubjectProperty.
func WithSubjectProperties(props map[string]any) SecurityContextOption {
	return func(c *SecurityContext) {
		if len(props) == 0 {
			return
		}
		if c.subjectProperties == nil {
			c.subjectProperties = make(map[string]any, len(props))
		}
		for k, v := range props {
			c.subjectProperties[k] = v
		}
	}
}

// NewSecurityContext builds a SecurityContext for an authenticated subject.
func NewSecurityContext(subjectID string, opts ...SecurityContextOption) *SecurityContext {
	c := &SecurityContext{subjectID: subjectID}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AnonymousSecurityContext returns a context with no subject id, used for
// unauthenticated calls that still need to flow through the enforcer (the
// PDP decides whether anonymous access is permitted at all).
func AnonymousSecurityContext() *SecurityContext {
	return &SecurityContext{}
}

func (c *SecurityContext) SubjectID() string       { return c.subjectID }
func (c *SecurityContext) SubjectTenantID() string { return c.subjectTenantID }
func (c *SecurityContext) SubjectType() string     { return c.subjectType }
func (c *SecurityContext) TokenScopes() []string   { return c.tokenScopes }
func (c *SecurityContext) BearerToken() string     { return c.bearerToken }

// SubjectProperties returns the caller's free-form subject properties. The
// returned map is never nil, and is a copy: mutating it does not affect the
// SecurityContext.
func (c *SecurityContext) SubjectProperties() map[string]any {
	out := make(map[string]any, len(c.subjectProperties))
	for k, v := range c.subjectProperties {
		out[k] = v
	}
	return out
}
