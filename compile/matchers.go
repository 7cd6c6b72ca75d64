package compile

import (
	"strings"

	"github.com/dgoffredo/tisch/diag"
	"github.com/dgoffredo/tisch/pattern"
	"github.com/dgoffredo/tisch/value"
)

// maxShown bounds how much of a candidate value is quoted in a diagnostic.
const maxShown = 80

// brief renders v for diagnostics, eliding the middle of long values.
func brief(v value.Value) string {
	s := v.String()
	if len(s) <= maxShown {
		return s
	}
	return s[:maxShown/2] + " ... " + s[len(s)-maxShown/2:]
}

// article returns the category name with its indefinite article.
func article(k value.Kind) string {
	switch k {
	case value.Array, value.Object:
		return "an " + k.String()
	case value.Null:
		return "null"
	default:
		return "a " + k.String()
	}
}

// node holds the source pattern of a matcher and renders it on demand.
type node struct {
	src pattern.Node
}

func (n node) String() string { return n.src.String() }

type literalMatcher struct {
	node
	want value.Value
}

func (m *literalMatcher) Match(v value.Value, log *diag.Log) bool {
	if value.Equal(v, m.want) {
		return true
	}
	log.Addf("expected %s but got %s", m.want, brief(v))
	return false
}

type typeMatcher struct {
	node
	kind value.Kind
}

func (m *typeMatcher) Match(v value.Value, log *diag.Log) bool {
	if v.Kind() == m.kind {
		return true
	}
	log.Addf("expected %s but got %s: %s", article(m.kind), article(v.Kind()), brief(v))
	return false
}

type sequenceMatcher struct {
	node
	elements []pattern.Matcher
}

func (m *sequenceMatcher) Match(v value.Value, log *diag.Log) bool {
	if v.Kind() != value.Array {
		log.Addf("expected an array matching %s but got %s: %s", m, article(v.Kind()), brief(v))
		return false
	}
	if v.Len() != len(m.elements) {
		log.Addf("array %s has %d elements but %s requires exactly %d", brief(v), v.Len(), m, len(m.elements))
		return false
	}
	return matchPrefix(m.elements, v.Items(), m, log)
}

// matchPrefix matches items[i] against elements[i], stopping at the first
// failure.
func matchPrefix(elements []pattern.Matcher, items []value.Value, whole pattern.Matcher, log *diag.Log) bool {
	for i, em := range elements {
		if !em.Match(items[i], log) {
			log.Addf("at index %d of an array that must match %s", i, whole)
			return false
		}
	}
	return true
}

type variadicMatcher struct {
	node
	prefix []pattern.Matcher
	repeat pattern.Matcher
	count  pattern.Quantifier
}

func (m *variadicMatcher) Match(v value.Value, log *diag.Log) bool {
	if v.Kind() != value.Array {
		log.Addf("expected an array matching %s but got %s: %s", m, article(v.Kind()), brief(v))
		return false
	}
	items := v.Items()
	if len(items) < len(m.prefix) {
		log.Addf("array %s has %d elements but %s requires at least %d", brief(v), len(items), m, len(m.prefix)+m.count.Min)
		return false
	}
	if !matchPrefix(m.prefix, items[:len(m.prefix)], m, log) {
		return false
	}
	tail := items[len(m.prefix):]
	if !m.count.Allows(len(tail)) {
		log.Addf("array %s has %d repeated elements but %s allows %s", brief(v), len(tail), m, m.count)
		return false
	}
	for i, item := range tail {
		if !m.repeat.Match(item, log) {
			log.Addf("repeated element at index %d does not match %s in %s", len(m.prefix)+i, m.repeat, m)
			return false
		}
	}
	return true
}

type field struct {
	key     string
	matcher pattern.Matcher
}

type mappingMatcher struct {
	node
	required     []field
	requiredKeys map[string]struct{}
	optional     map[string]pattern.Matcher
	rest         pattern.Quantifier
	open         bool
}

func (m *mappingMatcher) Match(v value.Value, log *diag.Log) bool {
	if v.Kind() != value.Object {
		log.Addf("expected an object matching %s but got %s: %s", m, article(v.Kind()), brief(v))
		return false
	}

	ok := true
	for _, f := range m.required {
		got, present := v.Get(f.key)
		if !present {
			log.Addf("object %s is missing required key %s; required keys are [%s]", brief(v), value.Quote(f.key), m.requiredList())
			ok = false
			continue
		}
		if !f.matcher.Match(got, log) {
			log.Addf("at key %s of an object that must match %s", value.Quote(f.key), m)
			ok = false
		}
	}
	if !ok {
		return false
	}

	var leftovers []string
	for _, member := range v.Members() {
		if _, isRequired := m.requiredKeys[member.Key]; isRequired {
			continue
		}
		if om, isOptional := m.optional[member.Key]; isOptional {
			if !om.Match(member.Value, log) {
				log.Addf("at optional key %s of an object that must match %s", value.Quote(member.Key), m)
				return false
			}
			continue
		}
		leftovers = append(leftovers, member.Key)
	}

	if m.rest.Allows(len(leftovers)) {
		return true
	}
	if !m.open {
		log.Addf("object %s has unexpected keys [%s] not allowed by %s", brief(v), quoteAll(leftovers), m)
	} else {
		log.Addf("object %s has %d additional keys [%s] but %s allows %s", brief(v), len(leftovers), quoteAll(leftovers), m, m.rest)
	}
	return false
}

func (m *mappingMatcher) requiredList() string {
	keys := make([]string, len(m.required))
	for i, f := range m.required {
		keys[i] = f.key
	}
	return quoteAll(keys)
}

func quoteAll(keys []string) string {
	quoted := make([]string, len(keys))
	for i, k := range keys {
		quoted[i] = value.Quote(k)
	}
	return strings.Join(quoted, ", ")
}

type wildcardMatcher struct {
	node
	each  pattern.Matcher
	count pattern.Quantifier
}

func (m *wildcardMatcher) Match(v value.Value, log *diag.Log) bool {
	if v.Kind() != value.Object {
		log.Addf("expected an object matching %s but got %s: %s", m, article(v.Kind()), brief(v))
		return false
	}
	if !m.count.Allows(v.Len()) {
		log.Addf("object %s has %d entries but %s requires %s", brief(v), v.Len(), m, m.count)
		return false
	}
	for _, member := range v.Members() {
		if !m.each.Match(member.Value, log) {
			log.Addf("at key %s of an object that must match %s", value.Quote(member.Key), m)
			return false
		}
	}
	return true
}

type unionMatcher struct {
	node
	alternatives []pattern.Matcher
}

func (m *unionMatcher) Match(v value.Value, log *diag.Log) bool {
	if len(m.alternatives) == 0 {
		return true
	}
	mark := log.Checkpoint()
	for _, alt := range m.alternatives {
		if alt.Match(v, log) {
			log.Rollback(mark)
			return true
		}
	}
	names := make([]string, len(m.alternatives))
	for i, alt := range m.alternatives {
		names[i] = alt.String()
	}
	log.Addf("value %s matches none of the alternatives: %s", brief(v), strings.Join(names, ", "))
	return false
}

// refMatcher indirects through a placeholder cell so that references compiled
// before their definition see the final matcher at match time.
type refMatcher struct {
	cell *cell
}

func (m *refMatcher) Match(v value.Value, log *diag.Log) bool {
	target := m.cell.target
	if target == nil {
		log.Addf("reference %s is unbound", m)
		return false
	}
	return target.Match(v, log)
}

func (m *refMatcher) String() string { return "<" + m.cell.name + ">" }
