package pep

import (
	"errors"
	"net/http"

	"github.com/Mindburn-Labs/helm/core/pkg/api"
	"github.com/Mindburn-Labs/helm/core/pkg/pdp"
)

// WriteEnforcementError maps an error returned from Enforcer.AccessScope(With)
// to an RFC 9457 Problem Details response via pkg/api. Every branch is
// fail-closed: an error type this function doesn't recognize falls through
// to 500, never to an implicit allow.
func WriteEnforcementError(w http.ResponseWriter, err error) {
	var denied *DeniedError
	if errors.As(err, &denied) {
		var reason *api.DenyReason
		if denied.DenyReason != nil {
			reason = &api.DenyReason{
				ErrorCode: denied.DenyReason.ErrorCode,
				Details:   denied.DenyReason.Details,
			}
		}
		api.WriteDenied(w, reason)
		return
	}

	var required ConstraintsRequiredButAbsent
	if errors.As(err, &required) {
		api.WriteInternal(w, err)
		return
	}

	var allFailed AllConstraintsFailed
	if errors.As(err, &allFailed) {
		api.WriteInternal(w, err)
		return
	}

	var pdpErr *pdp.Error
	if errors.As(err, &pdpErr) {
		switch pdpErr.Code {
		case pdp.ErrCodeUnauthorized:
			api.WriteUnauthorized(w, "policy decision point rejected the request credentials")
		case pdp.ErrCodeNoPluginAvailable:
			api.WriteError(w, http.StatusServiceUnavailable, "Service Unavailable", "no policy decision point plugin available for this resource type")
		case pdp.ErrCodeServiceUnavailable:
			api.WriteError(w, http.StatusServiceUnavailable, "Service Unavailable", "policy decision point is unavailable")
		default:
			api.WriteInternal(w, err)
		}
		return
	}

	api.WriteInternal(w, err)
}
