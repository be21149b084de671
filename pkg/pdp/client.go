// Package pdp defines the Policy Decision Point client contract: a single
// async evaluation operation plus the wire types it exchanges, per the
// external interface wire shape. Implementations must be thread-safe and
// cheaply shareable — the enforcer holds one as shared state.
package pdp

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Client is the PDP client contract. A single operation: evaluate a
// request, get back a decision plus optional constraints or deny reason.
type Client interface {
	Evaluate(ctx context.Context, req *EvaluationRequest) (*EvaluationResponse, error)
}

// ErrorCode discriminates the PdpError variants from spec §4.3. These are
// transport/plugin-layer failures, distinct from an authoritative policy
// deny (which is carried in EvaluationResponse.Decision=false, not as a Go
// error).
type ErrorCode int

const (
	// ErrCodeUnauthorized: the PDP rejected the call for reasons unrelated
	// to the policy decision itself (e.g. plugin authentication failure).
	ErrCodeUnauthorized ErrorCode = iota
	// ErrCodeNoPluginAvailable: no PDP plugin is configured/reachable for
	// this resource type or tenant.
	ErrCodeNoPluginAvailable
	// ErrCodeServiceUnavailable: the PDP is reachable but unable to serve.
	ErrCodeServiceUnavailable
	// ErrCodeInternal: any other PDP-side failure.
	ErrCodeInternal
)

func (c ErrorCode) String() string {
	switch c {
	case ErrCodeUnauthorized:
		return "unauthorized"
	case ErrCodeNoPluginAvailable:
		return "no_plugin_available"
	case ErrCodeServiceUnavailable:
		return "service_unavailable"
	case ErrCodeInternal:
		return "internal"
	default:
		return "unknown"
	}
}

// Error is the typed error a Client returns for transport/plugin-layer
// failures. The core never retries these; a caller may choose a retry
// strategy for transient transport errors if the operation is idempotent.
type Error struct {
	Code ErrorCode
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pdp: %s: %s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("pdp: %s: %s", e.Code, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

// Is supports errors.Is(err, pdp.ErrServiceUnavailable) etc. by comparing
// codes whenever the target is also an *Error; the target's message and
// wrapped error are ignored.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code
}

// Sentinel *Error values for errors.Is comparisons against a bare code.
var (
	ErrUnauthorized      = &Error{Code: ErrCodeUnauthorized}
	ErrNoPluginAvailable = &Error{Code: ErrCodeNoPluginAvailable}
	ErrServiceUnavailable = &Error{Code: ErrCodeServiceUnavailable}
	ErrInternal          = &Error{Code: ErrCodeInternal}
)

// NewError builds an *Error with a message and optional wrapped cause.
func NewError(code ErrorCode, msg string, cause error) *Error {
	return &Error{Code: code, Msg: msg, Err: cause}
}

// TenantMode is the tenant-context hierarchy mode.
type TenantMode string

const (
	TenantModeSubtree  TenantMode = "Subtree"
	TenantModeRootOnly TenantMode = "RootOnly"
)

// BarrierMode controls whether tenant-hierarchy barriers are respected.
type BarrierMode string

const (
	BarrierModeRespect BarrierMode = "Respect"
	BarrierModeIgnore  BarrierMode = "Ignore"
)

// TenantContext is the optional tenant-scoping context attached to a request.
type TenantContext struct {
	Mode         TenantMode  `json:"mode,omitempty"`
	RootID       string      `json:"root_id,omitempty"`
	BarrierMode  BarrierMode `json:"barrier_mode,omitempty"`
	TenantStatus []string    `json:"tenant_status,omitempty"`
}

// Subject identifies the caller.
type Subject struct {
	ID          string         `json:"id"`
	SubjectType string         `json:"subject_type,omitempty"`
	Properties  map[string]any `json:"properties"`
}

// Action names the operation being authorized.
type Action struct {
	Name string `json:"name"`
}

// Resource identifies the target of the operation.
type Resource struct {
	ResourceType string         `json:"resource_type"`
	ID           string         `json:"id,omitempty"`
	Properties   map[string]any `json:"properties"`
}

// EvaluationRequestContext carries the evaluation-wide metadata: tenant
// context, token scopes, the require_constraints flag, advertised PEP
// capabilities, the resource type's supported-property list verbatim, and
// the bearer token if present.
type EvaluationRequestContext struct {
	TenantContext       *TenantContext `json:"tenant_context,omitempty"`
	TokenScopes         []string       `json:"token_scopes"`
	RequireConstraints  bool           `json:"require_constraints"`
	Capabilities        []string       `json:"capabilities"`
	SupportedProperties []string       `json:"supported_properties"`
	BearerToken         string         `json:"bearer_token,omitempty"`
}

// EvaluationRequest is the full PDP wire request per spec §6.
type EvaluationRequest struct {
	Subject  Subject                  `json:"subject"`
	Action   Action                   `json:"action"`
	Resource Resource                 `json:"resource"`
	Context  EvaluationRequestContext `json:"context"`
}

// PredicateKind discriminates Eq from In predicates on the wire.
type PredicateKind string

const (
	PredicateEq PredicateKind = "Eq"
	PredicateIn PredicateKind = "In"
)

// Predicate is a single wire-level constraint predicate. Exactly one of
// Value/Values is populated, per Kind.
type Predicate struct {
	Kind     PredicateKind `json:"kind"`
	Property string        `json:"property"`
	Value    any           `json:"value,omitempty"`
	Values   []any         `json:"values,omitempty"`
}

// ResponseConstraint is one disjunct: a conjunction of predicates.
type ResponseConstraint struct {
	Predicates []Predicate `json:"predicates"`
}

// DenyReason is the structured deny explanation: an error code plus
// optional human-readable detail. Never surfaced verbatim to end users.
type DenyReason struct {
	ErrorCode string `json:"error_code"`
	Details   string `json:"details,omitempty"`
}

// EvaluationResponseContext carries the ordered constraint list and the
// optional deny reason.
type EvaluationResponseContext struct {
	Constraints []ResponseConstraint `json:"constraints"`
	DenyReason  *DenyReason          `json:"deny_reason,omitempty"`
}

// EvaluationResponse is the full PDP wire response per spec §6.
type EvaluationResponse struct {
	Decision bool                      `json:"decision"`
	Context  EvaluationResponseContext `json:"context"`

	// DecisionHash is a deterministic content hash of the response
	// (see hash.go), populated by clients that choose to compute it;
	// optional, not part of the wire contract.
	DecisionHash string `json:"-"`

	// EvaluatedAt records when the client received this response, used only
	// for structured logging — not part of the wire contract.
	EvaluatedAt time.Time `json:"-"`
}
