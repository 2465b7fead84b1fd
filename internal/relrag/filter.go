package relrag

// PropertyFilter is the tagged-variant encoding of one property filter spec
// (§4.H, §9 "dynamic property filter spec"). Exactly one of Eq, OneOf, or
// Range is meaningful, selected by Kind.
type PropertyFilter struct {
	Kind  FilterKind
	Eq    string
	OneOf []string
	Gte   *string
	Lte   *string
}

type FilterKind string

const (
	FilterEq    FilterKind = "eq"
	FilterOneOf FilterKind = "one_of"
	FilterRange FilterKind = "range"
)

// NewEqFilter builds an equality filter, the variant the wire form {eq: v}
// decodes into.
func NewEqFilter(value string) PropertyFilter {
	return PropertyFilter{Kind: FilterEq, Eq: value}
}

// NewOneOfFilter builds a set-membership filter. An empty set means the
// filter is ignored entirely (§4.H).
func NewOneOfFilter(values []string) PropertyFilter {
	return PropertyFilter{Kind: FilterOneOf, OneOf: values}
}

// NewRangeFilter builds a gte/lte range filter. Either bound may be nil.
func NewRangeFilter(gte, lte *string) PropertyFilter {
	return PropertyFilter{Kind: FilterRange, Gte: gte, Lte: lte}
}

// Active reports whether the filter should contribute a predicate at all;
// an empty OneOf list is inert per §4.H.
func (f PropertyFilter) Active() bool {
	switch f.Kind {
	case FilterOneOf:
		return len(f.OneOf) > 0
	case FilterEq:
		return true
	case FilterRange:
		return f.Gte != nil || f.Lte != nil
	default:
		return false
	}
}
