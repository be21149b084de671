package pdp

import "github.com/Mindburn-Labs/helm/core/pkg/canonicalize"

// ComputeDecisionHash returns a deterministic "sha256:<hex>" digest of a
// response's decision-relevant fields (decision, constraints, deny reason),
// suitable as a structured log field correlating repeated evaluations of
// the same logical request. It is not used for caching: the core never
// caches PDP decisions (see spec.md Non-goals).
func ComputeDecisionHash(resp *EvaluationResponse) (string, error) {
	canonicalSubset := struct {
		Decision    bool                      `json:"decision"`
		Constraints []ResponseConstraint      `json:"constraints"`
		DenyReason  *DenyReason               `json:"deny_reason,omitempty"`
	}{
		Decision:    resp.Decision,
		Constraints: resp.Context.Constraints,
		DenyReason:  resp.Context.DenyReason,
	}

	digest, err := canonicalize.CanonicalHash(canonicalSubset)
	if err != nil {
		return "", err
	}
	return "sha256:" + digest, nil
}
