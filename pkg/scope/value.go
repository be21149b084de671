// Package scope implements the access-scope algebra: typed predicates over
// authorization property names, composed into disjunctions of conjunctions,
// plus the per-entity column mapping ("resource type registry") that lets
// the secure data-access layer translate a scope into a storage condition.
//
// Every type here is an immutable value type with structural equality. None
// of the accessors allocate when the underlying storage already matches the
// requested shape — downstream code (the SQL translator, the insert
// validator) iterates filter values without caring whether the predicate was
// built as Eq or In.
package scope

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind discriminates the scalar types a Value may hold.
type Kind int

const (
	KindUUID Kind = iota
	KindString
	KindInt
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindUUID:
		return "uuid"
	case KindString:
		return "string"
	case KindInt:
		return "int"
	case KindBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Value is a discriminated union of the scalar types an authorization
// property may carry: UUID, string, signed 64-bit integer, boolean. Strings
// that parse as a UUID are re-classified as Kind UUID at every value
// ingestion boundary (PDP response decoding, storage-column inspection);
// downstream comparison is by discriminant plus contents, never by a
// type-erased string form.
type Value struct {
	kind Kind
	u    uuid.UUID
	s    string
	i    int64
	b    bool
}

// UUID builds a Value from a uuid.UUID.
func UUID(id uuid.UUID) Value { return Value{kind: KindUUID, u: id} }

// String builds a Value from a string, without attempting UUID detection.
// Callers ingesting untrusted strings (JSON, column scans) should use
// ValueFromString instead, which applies the re-classification rule.
func String(s string) Value { return Value{kind: KindString, s: s} }

// Int builds a Value from a signed 64-bit integer.
func Int(i int64) Value { return Value{kind: KindInt, i: i} }

// Bool builds a Value from a boolean.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// ValueFromString classifies a raw string as UUID if it parses as one,
// otherwise as a plain string. This is the ingestion-boundary rule from the
// data model: "strings that parse as UUID are re-classified as UUID."
func ValueFromString(s string) Value {
	if id, err := uuid.Parse(s); err == nil {
		return UUID(id)
	}
	return String(s)
}

// Kind reports the value's discriminant.
func (v Value) Kind() Kind { return v.kind }

// AsUUID returns the value's UUID and true if it holds one.
func (v Value) AsUUID() (uuid.UUID, bool) {
	if v.kind != KindUUID {
		return uuid.UUID{}, false
	}
	return v.u, true
}

// AsString returns the value's string and true if it holds one.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// AsInt returns the value's int64 and true if it holds one.
func (v Value) AsInt() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// AsBool returns the value's bool and true if it holds one.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// Equal compares two values by discriminant and contents.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindUUID:
		return v.u == other.u
	case KindString:
		return v.s == other.s
	case KindInt:
		return v.i == other.i
	case KindBool:
		return v.b == other.b
	default:
		return false
	}
}

// String implements fmt.Stringer for logging.
func (v Value) String() string {
	switch v.kind {
	case KindUUID:
		return v.u.String()
	case KindString:
		return v.s
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	default:
		return "<invalid scope value>"
	}
}

// Native returns the value as its corresponding Go native type, suitable as
// a database/sql query argument.
func (v Value) Native() any {
	switch v.kind {
	case KindUUID:
		return v.u.String()
	case KindString:
		return v.s
	case KindInt:
		return v.i
	case KindBool:
		return v.b
	default:
		return nil
	}
}

// Well-known authorization property names. Reserved: entity derives (here,
// registrations — see entity.go) must map these via dimension bindings, never
// via a custom property mapping.
const (
	PropOwnerTenantID = "owner_tenant_id"
	PropResourceID    = "id"
	PropOwnerID       = "owner_id"
)
