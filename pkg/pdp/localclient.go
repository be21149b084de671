package pdp

import "context"

// LocalClient is a deterministic, in-process Client implementation with no
// network dependency. It exists for tests and for local operability checks
// (see cmd/pepcheck) — never for production policy decisions. Its decision
// function is supplied by the caller, so test suites can script arbitrary
// PDP behavior without standing up a server.
//
// This plays the role original_source/.../pep/local_client.rs plays in the
// original: a minimal, always-available client a host process can wire in
// when no remote PDP is configured, distinct from the concrete PDP plugin
// implementations (static, single-tenant) that spec.md explicitly places
// out of scope.
type LocalClient struct {
	Decide func(ctx context.Context, req *EvaluationRequest) (*EvaluationResponse, error)
}

// NewAllowAllLocalClient returns a LocalClient that allows every request
// without constraints — useful only in tests exercising the allow-all path
// (spec S1).
func NewAllowAllLocalClient() *LocalClient {
	return &LocalClient{
		Decide: func(ctx context.Context, req *EvaluationRequest) (*EvaluationResponse, error) {
			return &EvaluationResponse{Decision: true}, nil
		},
	}
}

// NewDenyLocalClient returns a LocalClient that denies every request with
// the given reason (reason may be nil).
func NewDenyLocalClient(reason *DenyReason) *LocalClient {
	return &LocalClient{
		Decide: func(ctx context.Context, req *EvaluationRequest) (*EvaluationResponse, error) {
			return &EvaluationResponse{
				Decision: false,
				Context:  EvaluationResponseContext{DenyReason: reason},
			}, nil
		},
	}
}

// Evaluate implements Client.
func (c *LocalClient) Evaluate(ctx context.Context, req *EvaluationRequest) (*EvaluationResponse, error) {
	if c.Decide == nil {
		return nil, NewError(ErrCodeInternal, "local client has no decision function configured", nil)
	}
	return c.Decide(ctx, req)
}
