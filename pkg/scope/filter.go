package scope

import "github.com/google/uuid"

// FilterKind discriminates Eq from In predicates.
type FilterKind int

const (
	FilterEq FilterKind = iota
	FilterIn
)

// Filter is a typed predicate over a named authorization property: equality
// against a single Value, or membership in a set of Values. An empty In is
// admissible and matches no rows — see DESIGN.md's Open Question (a).
type Filter struct {
	kind     FilterKind
	property string
	single   Value
	multiple []Value
}

// Eq builds an equality filter.
func Eq(property string, value Value) Filter {
	return Filter{kind: FilterEq, property: property, single: value}
}

// In builds a set-membership filter. The slice is copied so the filter
// owns its storage and remains immutable after construction.
func In(property string, values []Value) Filter {
	cp := make([]Value, len(values))
	copy(cp, values)
	return Filter{kind: FilterIn, property: property, multiple: cp}
}

// InUUIDs is a convenience constructor for the common case of an In filter
// over UUID values.
func InUUIDs(property string, ids []uuid.UUID) Filter {
	values := make([]Value, len(ids))
	for i, id := range ids {
		values[i] = UUID(id)
	}
	return In(property, values)
}

// Kind reports whether the filter is Eq or In.
func (f Filter) Kind() FilterKind { return f.kind }

// Property returns the authorization property name this filter constrains.
func (f Filter) Property() string { return f.property }

// Values returns a uniform view over the filter's value(s): a single-element
// view for Eq, a direct slice view for In. Neither case allocates: Eq
// returns a view backed by the filter's own scalar field, In returns a view
// over its existing backing slice.
func (f Filter) Values() FilterValues {
	if f.kind == FilterEq {
		return FilterValues{single: &f.single, isSingle: true}
	}
	return FilterValues{multiple: f.multiple}
}

// UUIDValues returns the filter's values as UUIDs, skipping any non-UUID
// entries. Returned only for callers that already know the property is
// UUID-typed (e.g. tenant/resource/owner columns).
func (f Filter) UUIDValues() []uuid.UUID {
	var out []uuid.UUID
	vals := f.Values()
	for i := 0; i < vals.Len(); i++ {
		if id, ok := vals.At(i).AsUUID(); ok {
			out = append(out, id)
		}
	}
	return out
}

// FilterValues is the uniform iteration view over a Filter's value(s).
type FilterValues struct {
	isSingle bool
	single   *Value
	multiple []Value
}

// Len returns the number of values in the view.
func (fv FilterValues) Len() int {
	if fv.isSingle {
		return 1
	}
	return len(fv.multiple)
}

// At returns the i-th value in the view.
func (fv FilterValues) At(i int) Value {
	if fv.isSingle {
		return *fv.single
	}
	return fv.multiple[i]
}

// Contains reports whether the view holds a value equal to v.
func (fv FilterValues) Contains(v Value) bool {
	for i := 0; i < fv.Len(); i++ {
		if fv.At(i).Equal(v) {
			return true
		}
	}
	return false
}

// Slice materializes the view as a []Value. Unlike Len/At/Contains this does
// allocate; use it only where a concrete slice is genuinely required (e.g.
// building a SQL IN (...) argument list).
func (fv FilterValues) Slice() []Value {
	out := make([]Value, fv.Len())
	for i := range out {
		out[i] = fv.At(i)
	}
	return out
}
