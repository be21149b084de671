package securedb

import (
	"fmt"

	"github.com/Mindburn-Labs/helm/core/pkg/scope"
	"github.com/google/uuid"
)

// nativeToScopeValue converts a column value as a caller would pass it to
// ColumnValues (string, uuid.UUID, int64, int, bool) into a scope.Value for
// comparison against a compiled filter. Mirrors the Value ingestion rule:
// strings that parse as a UUID are reclassified as such.
func nativeToScopeValue(v any) (scope.Value, error) {
	switch val := v.(type) {
	case uuid.UUID:
		return scope.UUID(val), nil
	case string:
		return scope.ValueFromString(val), nil
	case int64:
		return scope.Int(val), nil
	case int:
		return scope.Int(int64(val)), nil
	case bool:
		return scope.Bool(val), nil
	default:
		return scope.Value{}, fmt.Errorf("securedb: unsupported column value type %T", v)
	}
}
