package pep

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Mindburn-Labs/helm/core/pkg/pdp"
	"github.com/Mindburn-Labs/helm/core/pkg/scope"
	"github.com/google/uuid"
)

// CompileError is the marker interface satisfied by both constraint
// compilation failure modes. Callers that only care "did compilation fail"
// can type-switch on this; callers that care which way it failed type-assert
// to the concrete type.
type CompileError interface {
	error
	compileError()
}

// ConstraintsRequiredButAbsent is returned when require_constraints was true
// but the PDP returned an empty constraint list. Fail-closed: this is not
// treated as allow-all.
type ConstraintsRequiredButAbsent struct{}

func (ConstraintsRequiredButAbsent) Error() string {
	return "constraints required but pdp returned none (fail-closed)"
}
func (ConstraintsRequiredButAbsent) compileError() {}

// AllConstraintsFailed is returned when the PDP returned constraints but
// every one of them failed to compile (an unsupported property, an
// undecodable value, or an unknown predicate kind). Fail-closed: a failing
// constraint is dropped as a whole, which only narrows the resulting scope,
// and a response whose constraints all fail never degrades to allow-all.
type AllConstraintsFailed struct {
	Reason string
}

func (e AllConstraintsFailed) Error() string {
	return fmt.Sprintf("all constraints failed compilation (fail-closed): %s", e.Reason)
}
func (AllConstraintsFailed) compileError() {}

// CompileToAccessScope compiles an allowed PDP response's constraints into
// an AccessScope. The caller must have already checked response.Decision ==
// true; this function only handles the constraint half of the PEP flow.
//
// Compilation matrix (decision=true assumed):
//
//	require_constraints=false, constraints=[]      -> AllowAll()
//	require_constraints=false, constraints=[..]    -> compiled constraints
//	require_constraints=true,  constraints=[]      -> ConstraintsRequiredButAbsent
//	require_constraints=true,  constraints=[..]    -> compiled constraints
//
// Each PDP constraint compiles to a scope.Constraint (AND of filters);
// multiple constraints OR together via scope.FromConstraints. A predicate
// referencing a property outside supportedProperties fails that whole
// constraint (fail-closed); if every constraint fails this way, the overall
// result is AllConstraintsFailed.
func CompileToAccessScope(resp *pdp.EvaluationResponse, requireConstraints bool, supportedProperties []string) (scope.AccessScope, error) {
	if len(resp.Context.Constraints) == 0 {
		if requireConstraints {
			return scope.AccessScope{}, ConstraintsRequiredButAbsent{}
		}
		return scope.AllowAll(), nil
	}

	supported := make(map[string]bool, len(supportedProperties))
	for _, p := range supportedProperties {
		supported[p] = true
	}

	var constraints []scope.Constraint
	var failReasons []string

	for _, c := range resp.Context.Constraints {
		compiled, err := compileConstraint(c, supported)
		if err != nil {
			slog.Warn("constraint compilation failed (fail-closed), possible pdp contract violation",
				"reason", err.Error())
			failReasons = append(failReasons, err.Error())
			continue
		}
		constraints = append(constraints, compiled)
	}

	if len(constraints) == 0 {
		return scope.AccessScope{}, AllConstraintsFailed{Reason: strings.Join(failReasons, "; ")}
	}

	allEmpty := true
	for _, c := range constraints {
		if !c.IsEmpty() {
			allEmpty = false
			break
		}
	}
	if allEmpty {
		return scope.AllowAll(), nil
	}

	return scope.FromConstraints(constraints), nil
}

func compileConstraint(c pdp.ResponseConstraint, supported map[string]bool) (scope.Constraint, error) {
	filters := make([]scope.Filter, 0, len(c.Predicates))

	for _, pred := range c.Predicates {
		var property string
		var filter scope.Filter

		switch pred.Kind {
		case pdp.PredicateEq:
			value, err := jsonToScopeValue(pred.Value)
			if err != nil {
				return scope.Constraint{}, err
			}
			property = pred.Property
			filter = scope.Eq(pred.Property, value)
		case pdp.PredicateIn:
			values := make([]scope.Value, 0, len(pred.Values))
			for _, v := range pred.Values {
				sv, err := jsonToScopeValue(v)
				if err != nil {
					return scope.Constraint{}, err
				}
				values = append(values, sv)
			}
			property = pred.Property
			filter = scope.In(pred.Property, values)
		default:
			return scope.Constraint{}, fmt.Errorf("unsupported predicate kind: %s", pred.Kind)
		}

		if !supported[property] {
			return scope.Constraint{}, fmt.Errorf("unsupported property: %s", property)
		}

		filters = append(filters, filter)
	}

	return scope.NewConstraint(filters...), nil
}

// jsonToScopeValue converts a decoded JSON value (string, json.Number, bool —
// the shapes encoding/json produces for `any` when the decoder has
// UseNumber() set, as pdp.HTTPClient's response decode does) into a
// scope.Value. Strings that parse as UUIDs are classified as such; everything
// else stays a string. Only integral JSON numbers are accepted, matching the
// scope algebra's Int variant.
//
// Numbers must arrive as json.Number, not float64: a float64 has already
// lost precision for any JSON integer literal beyond 2^53, so validating
// integrality on it after the fact cannot catch that loss (it would report
// success on a value that was already silently rounded during decode).
// json.Number keeps the original decimal text intact until Int64 parses it
// directly, so a large snowflake-style resource id either round-trips exactly
// or fails closed here — it never silently compiles to the wrong value.
func jsonToScopeValue(v any) (scope.Value, error) {
	switch val := v.(type) {
	case string:
		if id, err := uuid.Parse(val); err == nil {
			return scope.UUID(id), nil
		}
		return scope.String(val), nil
	case json.Number:
		n, err := val.Int64()
		if err != nil {
			return scope.Value{}, fmt.Errorf("only integer json numbers are supported for scope filters, got: %v", val)
		}
		return scope.Int(n), nil
	case float64:
		// Only reachable from a caller that decoded without UseNumber (e.g.
		// pdp.LocalClient test doubles constructing values by hand); kept so
		// jsonToScopeValue stays usable outside the HTTP transport path, but
		// already-lossy float64 inputs beyond 2^53 can't be recovered here.
		if val != float64(int64(val)) {
			return scope.Value{}, fmt.Errorf("only integer json numbers are supported for scope filters, got: %v", val)
		}
		return scope.Int(int64(val)), nil
	case bool:
		return scope.Bool(val), nil
	default:
		return scope.Value{}, fmt.Errorf("unsupported json value type for scope filter: %T", v)
	}
}
