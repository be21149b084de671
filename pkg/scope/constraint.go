package scope

// Constraint is an ordered list of Filters, semantically a conjunction. An
// empty conjunction is TRUE (allow-all for that alternative).
type Constraint struct {
	filters []Filter
}

// NewConstraint builds a constraint from its filters. The slice is copied.
func NewConstraint(filters ...Filter) Constraint {
	cp := make([]Filter, len(filters))
	copy(cp, filters)
	return Constraint{filters: cp}
}

// Filters returns the constraint's filters in order.
func (c Constraint) Filters() []Filter { return c.filters }

// IsEmpty reports whether the constraint has no filters (TRUE).
func (c Constraint) IsEmpty() bool { return len(c.filters) == 0 }
