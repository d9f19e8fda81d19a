package metrics

import "strings"

// Filter selects registry entries. Filters are used by the typed getters and
// by RemoveMatching.
type Filter func(Name, Metric) bool

// All matches every entry.
var All Filter = func(Name, Metric) bool { return true }

// And returns a filter matching entries that both f and g match.
func (f Filter) And(g Filter) Filter {
	return func(name Name, m Metric) bool {
		return f(name, m) && g(name, m)
	}
}

// KeyPrefix matches entries whose name key starts with prefix.
func KeyPrefix(prefix string) Filter {
	return func(name Name, _ Metric) bool {
		return strings.HasPrefix(name.Key(), prefix)
	}
}

// OfKind matches entries of kind k.
func OfKind(k Kind) Filter {
	return func(_ Name, m Metric) bool {
		return m.Kind() == k
	}
}

func orAll(f Filter) Filter {
	if f == nil {
		return All
	}
	return f
}
