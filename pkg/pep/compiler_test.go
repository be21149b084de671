package pep_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/Mindburn-Labs/helm/core/pkg/pdp"
	"github.com/Mindburn-Labs/helm/core/pkg/pep"
	"github.com/Mindburn-Labs/helm/core/pkg/scope"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	t1 = "11111111-1111-1111-1111-111111111111"
	t2 = "22222222-2222-2222-2222-222222222222"
	r1 = "aaaaaaaa-aaaa-aaaa-aaaa-aaaaaaaaaaaa"
)

var defaultProps = []string{scope.PropOwnerTenantID, scope.PropResourceID}

func mustUUID(t *testing.T, s string) uuid.UUID {
	t.Helper()
	id, err := uuid.Parse(s)
	require.NoError(t, err)
	return id
}

func eqPredicate(property, value string) pdp.Predicate {
	return pdp.Predicate{Kind: pdp.PredicateEq, Property: property, Value: value}
}

func inPredicate(property string, values ...string) pdp.Predicate {
	anyValues := make([]any, len(values))
	for i, v := range values {
		anyValues[i] = v
	}
	return pdp.Predicate{Kind: pdp.PredicateIn, Property: property, Values: anyValues}
}

// eqIntPredicateFromWire round-trips a predicate through encoding/json with
// UseNumber set, the same decoding path pdp.HTTPClient.Evaluate uses for its
// response body. This is what actually lands in Predicate.Value for a JSON
// integer: a json.Number, not a float64.
func eqIntPredicateFromWire(t *testing.T, property string, numberLiteral string) pdp.Predicate {
	t.Helper()
	wire := []byte(`{"kind":"Eq","property":"` + property + `","value":` + numberLiteral + `}`)
	dec := json.NewDecoder(bytes.NewReader(wire))
	dec.UseNumber()
	var pred pdp.Predicate
	require.NoError(t, dec.Decode(&pred))
	return pred
}

func TestCompileToAccessScope_NoRequireConstraints_Empty_ReturnsAllowAll(t *testing.T) {
	resp := &pdp.EvaluationResponse{Decision: true}

	result, err := pep.CompileToAccessScope(resp, false, defaultProps)

	require.NoError(t, err)
	assert.True(t, result.IsUnconstrained())
}

func TestCompileToAccessScope_NoRequireConstraints_WithConstraints_CompilesThem(t *testing.T) {
	resp := &pdp.EvaluationResponse{
		Decision: true,
		Context: pdp.EvaluationResponseContext{
			Constraints: []pdp.ResponseConstraint{
				{Predicates: []pdp.Predicate{eqPredicate(scope.PropOwnerTenantID, t1)}},
			},
		},
	}

	result, err := pep.CompileToAccessScope(resp, false, defaultProps)

	require.NoError(t, err)
	assert.False(t, result.IsUnconstrained())
	assert.Equal(t, []uuid.UUID{mustUUID(t, t1)}, result.AllUUIDValuesFor(scope.PropOwnerTenantID))
}

func TestCompileToAccessScope_RequireConstraints_Empty_ReturnsError(t *testing.T) {
	resp := &pdp.EvaluationResponse{Decision: true}

	_, err := pep.CompileToAccessScope(resp, true, defaultProps)

	assert.ErrorIs(t, err, pep.ConstraintsRequiredButAbsent{})
}

func TestCompileToAccessScope_SingleTenantEqConstraint(t *testing.T) {
	resp := &pdp.EvaluationResponse{
		Decision: true,
		Context: pdp.EvaluationResponseContext{
			Constraints: []pdp.ResponseConstraint{
				{Predicates: []pdp.Predicate{eqPredicate(scope.PropOwnerTenantID, t1)}},
			},
		},
	}

	result, err := pep.CompileToAccessScope(resp, true, defaultProps)

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{mustUUID(t, t1)}, result.AllUUIDValuesFor(scope.PropOwnerTenantID))
	assert.Empty(t, result.AllUUIDValuesFor(scope.PropResourceID))
}

func TestCompileToAccessScope_MultipleTenantsInConstraint(t *testing.T) {
	resp := &pdp.EvaluationResponse{
		Decision: true,
		Context: pdp.EvaluationResponseContext{
			Constraints: []pdp.ResponseConstraint{
				{Predicates: []pdp.Predicate{inPredicate(scope.PropOwnerTenantID, t1, t2)}},
			},
		},
	}

	result, err := pep.CompileToAccessScope(resp, true, defaultProps)

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{mustUUID(t, t1), mustUUID(t, t2)}, result.AllUUIDValuesFor(scope.PropOwnerTenantID))
}

func TestCompileToAccessScope_MultipleConstraints_ProduceOrScope(t *testing.T) {
	resp := &pdp.EvaluationResponse{
		Decision: true,
		Context: pdp.EvaluationResponseContext{
			Constraints: []pdp.ResponseConstraint{
				{Predicates: []pdp.Predicate{inPredicate(scope.PropOwnerTenantID, t1)}},
				{Predicates: []pdp.Predicate{inPredicate(scope.PropOwnerTenantID, t2)}},
			},
		},
	}

	result, err := pep.CompileToAccessScope(resp, true, defaultProps)

	require.NoError(t, err)
	assert.Len(t, result.Constraints(), 2)
	assert.True(t, result.ContainsUUID(scope.PropOwnerTenantID, mustUUID(t, t1)))
	assert.True(t, result.ContainsUUID(scope.PropOwnerTenantID, mustUUID(t, t2)))
}

func TestCompileToAccessScope_UnknownProperty_FailsConstraint(t *testing.T) {
	resp := &pdp.EvaluationResponse{
		Decision: true,
		Context: pdp.EvaluationResponseContext{
			Constraints: []pdp.ResponseConstraint{
				{Predicates: []pdp.Predicate{eqPredicate("unknown_property", t1)}},
			},
		},
	}

	_, err := pep.CompileToAccessScope(resp, true, defaultProps)

	var failed pep.AllConstraintsFailed
	require.ErrorAs(t, err, &failed)
}

func TestCompileToAccessScope_MixedKnownAndUnknown_SucceedsOnKnown(t *testing.T) {
	resp := &pdp.EvaluationResponse{
		Decision: true,
		Context: pdp.EvaluationResponseContext{
			Constraints: []pdp.ResponseConstraint{
				{Predicates: []pdp.Predicate{eqPredicate("group_id", t1)}},
				{Predicates: []pdp.Predicate{inPredicate(scope.PropOwnerTenantID, t2)}},
			},
		},
	}

	result, err := pep.CompileToAccessScope(resp, true, defaultProps)

	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{mustUUID(t, t2)}, result.AllUUIDValuesFor(scope.PropOwnerTenantID))
}

func TestCompileToAccessScope_BothTenantAndResourceInSingleConstraint(t *testing.T) {
	resp := &pdp.EvaluationResponse{
		Decision: true,
		Context: pdp.EvaluationResponseContext{
			Constraints: []pdp.ResponseConstraint{
				{Predicates: []pdp.Predicate{
					inPredicate(scope.PropOwnerTenantID, t1),
					eqPredicate(scope.PropResourceID, r1),
				}},
			},
		},
	}

	result, err := pep.CompileToAccessScope(resp, true, defaultProps)

	require.NoError(t, err)
	require.Len(t, result.Constraints(), 1)
	assert.Equal(t, []uuid.UUID{mustUUID(t, t1)}, result.AllUUIDValuesFor(scope.PropOwnerTenantID))
	assert.Equal(t, []uuid.UUID{mustUUID(t, r1)}, result.AllUUIDValuesFor(scope.PropResourceID))
}

func TestCompileToAccessScope_SupportedPropertiesValidation(t *testing.T) {
	limitedProps := []string{scope.PropOwnerTenantID}
	resp := &pdp.EvaluationResponse{
		Decision: true,
		Context: pdp.EvaluationResponseContext{
			Constraints: []pdp.ResponseConstraint{
				{Predicates: []pdp.Predicate{eqPredicate(scope.PropResourceID, r1)}},
			},
		},
	}

	_, err := pep.CompileToAccessScope(resp, true, limitedProps)

	var failed pep.AllConstraintsFailed
	require.ErrorAs(t, err, &failed)
}

// TestCompileToAccessScope_LargeIntegerSurvivesWireDecode guards against
// silent precision loss on resource ids beyond 2^53: without UseNumber on
// the response decode, this exact value would already have been rounded to
// a nearby float64 before compilation ever saw it.
func TestCompileToAccessScope_LargeIntegerSurvivesWireDecode(t *testing.T) {
	const wantID = int64(9007199254740993) // 2^53 + 1, not exactly representable as float64
	pred := eqIntPredicateFromWire(t, scope.PropResourceID, "9007199254740993")

	resp := &pdp.EvaluationResponse{
		Decision: true,
		Context: pdp.EvaluationResponseContext{
			Constraints: []pdp.ResponseConstraint{
				{Predicates: []pdp.Predicate{pred}},
			},
		},
	}

	result, err := pep.CompileToAccessScope(resp, true, defaultProps)

	require.NoError(t, err)
	require.Len(t, result.Constraints(), 1)
	values := result.AllValuesFor(scope.PropResourceID)
	require.Len(t, values, 1)
	gotID, ok := values[0].AsInt()
	require.True(t, ok)
	assert.Equal(t, wantID, gotID)
}

// TestCompileToAccessScope_NonIntegerJSONNumber_FailsClosed ensures a
// fractional json.Number (which can't be an exact scope.Int) fails the
// constraint rather than truncating silently.
func TestCompileToAccessScope_NonIntegerJSONNumber_FailsClosed(t *testing.T) {
	pred := eqIntPredicateFromWire(t, scope.PropResourceID, "1.5")

	resp := &pdp.EvaluationResponse{
		Decision: true,
		Context: pdp.EvaluationResponseContext{
			Constraints: []pdp.ResponseConstraint{
				{Predicates: []pdp.Predicate{pred}},
			},
		},
	}

	_, err := pep.CompileToAccessScope(resp, true, defaultProps)

	var failed pep.AllConstraintsFailed
	require.ErrorAs(t, err, &failed)
}
