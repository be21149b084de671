package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"time"

	"github.com/Mindburn-Labs/helm/core/pkg/pdp"
	"github.com/Mindburn-Labs/helm/core/pkg/pep"
	"github.com/Mindburn-Labs/helm/core/pkg/scope"
	"github.com/Mindburn-Labs/helm/core/pkg/securedb"
)

// documentEntity is the canned resource type pepcheck exercises against the
// secure data-access layer: one tenant column, one resource column.
var documentEntity = scope.MustRegister(scope.EntityConfig{
	Name:           "pepcheck.document",
	TenantColumn:   "tenant_id",
	ResourceColumn: "id",
	NoOwner:        true,
	NoType:         true,
})

// runCheckCmd implements `pepcheck check`.
//
// Exit codes:
//
//	0 = allowed
//	1 = denied (by the pdp, or fail-closed by constraint compilation)
//	2 = runtime error
func runCheckCmd(args []string, stdout, stderr io.Writer) int {
	cmd := flag.NewFlagSet("check", flag.ContinueOnError)
	cmd.SetOutput(stderr)

	var (
		subjectID  string
		tenantID   string
		action     string
		resourceID string
		pdpURL     string
		localMode  string
		jsonOutput bool
	)

	cmd.StringVar(&subjectID, "subject", "", "Subject id (REQUIRED)")
	cmd.StringVar(&tenantID, "tenant", "", "Subject and context tenant id")
	cmd.StringVar(&action, "action", "read", "Action name")
	cmd.StringVar(&resourceID, "resource-id", "", "Target resource id, if any")
	cmd.StringVar(&pdpURL, "pdp-url", "", "Remote PDP endpoint (default: use --local)")
	cmd.StringVar(&localMode, "local", "allow", "Local PDP mode when --pdp-url is unset: allow|deny")
	cmd.BoolVar(&jsonOutput, "json", false, "Output as JSON")

	if err := cmd.Parse(args); err != nil {
		return 2
	}
	if subjectID == "" {
		_, _ = fmt.Fprintln(stderr, "Error: --subject is required")
		return 2
	}

	client, err := buildClient(pdpURL, localMode, tenantID)
	if err != nil {
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", err)
		return 2
	}

	enforcer := pep.NewEnforcer(client).WithCapabilities([]string{"tenant_hierarchy"})
	secCtx := pep.NewSecurityContext(subjectID, pep.WithSubjectTenantID(tenantID))
	resource := pep.ResourceType{
		Name:                "document",
		SupportedProperties: []string{scope.PropOwnerTenantID, scope.PropResourceID},
	}

	req := pep.NewAccessRequest()
	if tenantID != "" {
		req = req.WithContextTenantID(tenantID)
	}

	result := map[string]any{
		"subject": subjectID,
		"tenant":  tenantID,
		"action":  action,
	}

	accessScope, evalErr := enforcer.AccessScopeWith(context.Background(), secCtx, resource, action, resourceID, req)

	var denied *pep.DeniedError
	switch {
	case evalErr == nil:
		result["allowed"] = true
		result["scope_postgres"] = securedb.BuildScopeCondition(accessScope, documentEntity, securedb.DialectPostgres)
		result["scope_sqlite"] = securedb.BuildScopeCondition(accessScope, documentEntity, securedb.DialectSQLite)
		printResult(stdout, jsonOutput, result)
		return 0
	case errors.As(evalErr, &denied):
		result["allowed"] = false
		result["reason"] = denied.Error()
		printResult(stdout, jsonOutput, result)
		return 1
	case errors.As(evalErr, new(pep.CompileError)):
		result["allowed"] = false
		result["reason"] = evalErr.Error()
		printResult(stdout, jsonOutput, result)
		return 1
	default:
		_, _ = fmt.Fprintf(stderr, "Error: %v\n", evalErr)
		return 2
	}
}

// buildClient resolves the pdp.Client to evaluate against: a remote PDP
// when pdpURL is set, otherwise one of the canned pdp.LocalClient modes
// exactly as its own doc comment describes using this command for.
func buildClient(pdpURL, localMode, tenantID string) (pdp.Client, error) {
	if pdpURL != "" {
		return pdp.NewHTTPClient(pdpURL, 5*time.Second), nil
	}

	switch localMode {
	case "allow":
		return localAllowClient(tenantID), nil
	case "deny":
		return pdp.NewDenyLocalClient(&pdp.DenyReason{
			ErrorCode: "policy_denied",
			Details:   "pepcheck --local=deny",
		}), nil
	default:
		return nil, fmt.Errorf("unknown --local mode %q (want allow|deny)", localMode)
	}
}

// localAllowClient returns a client that always decides true, attaching a
// single owner_tenant_id=tenantID constraint when tenantID is set. With no
// tenantID it allows with no constraints at all, which — since
// AccessScopeWith defaults require_constraints to true — fails closed as
// ConstraintsRequiredButAbsent rather than silently compiling to allow-all;
// that is a legitimate result to exercise, not a bug in this command.
func localAllowClient(tenantID string) *pdp.LocalClient {
	return &pdp.LocalClient{
		Decide: func(ctx context.Context, req *pdp.EvaluationRequest) (*pdp.EvaluationResponse, error) {
			resp := &pdp.EvaluationResponse{Decision: true}
			if tenantID != "" {
				resp.Context.Constraints = []pdp.ResponseConstraint{
					{Predicates: []pdp.Predicate{
						{Kind: pdp.PredicateEq, Property: scope.PropOwnerTenantID, Value: tenantID},
					}},
				}
			}
			return resp, nil
		},
	}
}

func printResult(w io.Writer, asJSON bool, result map[string]any) {
	if asJSON {
		data, _ := json.MarshalIndent(result, "", "  ")
		_, _ = fmt.Fprintln(w, string(data))
		return
	}

	if allowed, _ := result["allowed"].(bool); allowed {
		_, _ = fmt.Fprintf(w, "ALLOWED subject=%s tenant=%s action=%s\n", result["subject"], result["tenant"], result["action"])
		_, _ = fmt.Fprintf(w, "  postgres: %v\n", result["scope_postgres"])
		_, _ = fmt.Fprintf(w, "  sqlite:   %v\n", result["scope_sqlite"])
	} else {
		_, _ = fmt.Fprintf(w, "DENIED subject=%s tenant=%s action=%s\n", result["subject"], result["tenant"], result["action"])
		_, _ = fmt.Fprintf(w, "  reason: %v\n", result["reason"])
	}
}
