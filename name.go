package metrics

import (
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Name identifies a metric: a dotted key plus an optional set of tags.
//
// Name is an immutable, comparable value and can be used directly as a map
// key. Two names are equal iff their keys and tag sets are equal; the order
// in which tags were supplied is irrelevant. Every combinator returns a new
// Name and leaves its receiver untouched.
type Name struct {
	key  string
	tags string // canonical encoding, see encodeTags
}

// Empty is the Name with no key and no tags.
var Empty Name

// Build joins the non-empty parts with "." into an untagged Name.
func Build(parts ...string) Name {
	return Name{key: joinKeys(parts...)}
}

// Key returns the dotted key.
func (n Name) Key() string { return n.key }

// Tags returns a copy of the tag set.
func (n Name) Tags() map[string]string { return decodeTags(n.tags) }

// HasTags reports whether the name carries any tag.
func (n Name) HasTags() bool { return n.tags != "" }

// IsEmpty reports whether n has neither key nor tags.
func (n Name) IsEmpty() bool { return n == Empty }

// Resolve returns a new Name with suffix appended to the key. Tags are
// carried over.
func (n Name) Resolve(suffix string) Name {
	return Name{key: joinKeys(n.key, suffix), tags: n.tags}
}

// Tagged returns a new Name with the given key/value pairs added to the tag
// set. Later pairs override earlier ones and existing tags with the same
// key. An odd number of arguments is an ErrInvalidArgument.
func (n Name) Tagged(pairs ...string) (Name, error) {
	if len(pairs)%2 != 0 {
		return n, errors.Wrapf(ErrInvalidArgument, "tag pairs must have even length, got %d", len(pairs))
	}
	if len(pairs) == 0 {
		return n, nil
	}
	tags := n.Tags()
	for i := 0; i < len(pairs); i += 2 {
		tags[pairs[i]] = pairs[i+1]
	}
	return Name{key: n.key, tags: encodeTags(tags)}, nil
}

// WithTags returns a new Name with tags merged into the tag set, overriding
// existing tags with the same key.
func (n Name) WithTags(tags map[string]string) Name {
	if len(tags) == 0 {
		return n
	}
	merged := n.Tags()
	maps.Copy(merged, tags)
	return Name{key: n.key, tags: encodeTags(merged)}
}

// Join concatenates the keys of names with "." and unions their tags. When
// two names carry the same tag key, the later one wins.
func Join(names ...Name) Name {
	keys := make([]string, len(names))
	tags := map[string]string{}
	for i, n := range names {
		keys[i] = n.key
		maps.Copy(tags, n.Tags())
	}
	return Name{key: joinKeys(keys...), tags: encodeTags(tags)}
}

// String renders the name as key{k1=v1,k2=v2}, tags sorted by key.
func (n Name) String() string {
	if n.tags == "" {
		return n.key
	}
	tags := n.Tags()
	var b strings.Builder
	b.WriteString(n.key)
	b.WriteByte('{')
	for i, k := range slices.Sorted(maps.Keys(tags)) {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(tags[k])
	}
	b.WriteByte('}')
	return b.String()
}

// Compare orders names by key, then by tag set. It returns -1, 0 or +1, and
// returns 0 iff a == b.
func Compare(a, b Name) int {
	if c := strings.Compare(a.key, b.key); c != 0 {
		return c
	}
	return strings.Compare(a.tags, b.tags)
}

func joinKeys(parts ...string) string {
	var b strings.Builder
	for _, p := range parts {
		if p == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(p)
	}
	return b.String()
}

// encodeTags renders tags sorted by key as "k"="v","k"="v" with Go quoting,
// which is unambiguous for any key or value.
func encodeTags(tags map[string]string) string {
	if len(tags) == 0 {
		return ""
	}
	var b strings.Builder
	for i, k := range slices.Sorted(maps.Keys(tags)) {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(strconv.Quote(k))
		b.WriteByte('=')
		b.WriteString(strconv.Quote(tags[k]))
	}
	return b.String()
}

func decodeTags(s string) map[string]string {
	tags := map[string]string{}
	for s != "" {
		k, rest := unquotePrefix(s)
		v, rest := unquotePrefix(rest[1:]) // skip '='
		tags[k] = v
		s = strings.TrimPrefix(rest, ",")
	}
	return tags
}

func unquotePrefix(s string) (string, string) {
	q, err := strconv.QuotedPrefix(s)
	if err != nil {
		panic("metrics: corrupt tag encoding " + strconv.Quote(s))
	}
	v, _ := strconv.Unquote(q)
	return v, s[len(q):]
}
