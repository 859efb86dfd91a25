package filter

import (
	"errors"
	"net/url"
	"slices"
	"sort"
	"strconv"
	"strings"
	"unicode"
)

// DefaultCategoryParam is the level newly selected categories are sent
// under when the server has not bound the category dimension.
const DefaultCategoryParam = "category2"

// ErrCategoryLevelAmbiguous describes a selected category id that matched
// no echoed level. Resolve never returns it: such ids are sent under the
// default category parameter. It is exposed so callers can report it.
var ErrCategoryLevelAmbiguous = errors.New("category level ambiguous")

// idSeparator joins multiple ids for one parameter.
const idSeparator = "_"

// Params is a flat backend query-parameter map. A nil Params means
// "not yet resolved"; an empty non-nil Params means "no filters".
type Params map[string]string

// IsResolved reports whether p was produced by a resolution.
func (p Params) IsResolved() bool {
	return p != nil
}

// Apply copies every parameter into q.
func (p Params) Apply(q url.Values) {
	for k, v := range p {
		q.Set(k, v)
	}
}

// Resolver resolves selections. The zero value uses DefaultCategoryParam
// and the dimension names as fallbacks.
type Resolver struct {
	// DefaultCategoryParam overrides DefaultCategoryParam when the server has
	// not bound the category dimension.
	DefaultCategoryParam string
	// Fallbacks overrides the name used for an unbound dimension.
	Fallbacks map[Dimension]string
}

// Resolution is a resolved parameter map plus a report of the category
// decisions taken.
type Resolution struct {
	Params Params
	// Defaulted lists category ids with no echoed level, sent under the
	// default category parameter.
	Defaulted []string
	// Ambiguous maps category ids echoed under more than one level to every
	// level they were found under, lowest first. The first entry was used.
	Ambiguous map[string][]string
	// Collisions lists parameter names bound to more than one dimension.
	// Their values are merged, not overwritten.
	Collisions []string
}

// add writes ids under name, appending to ids already written there by
// another dimension.
func (res *Resolution) add(name string, ids []string) {
	v := strings.Join(ids, idSeparator)
	prev, ok := res.Params[name]
	if !ok {
		res.Params[name] = v
		return
	}
	if !slices.Contains(res.Collisions, name) {
		res.Collisions = append(res.Collisions, name)
	}
	res.Params[name] = prev + idSeparator + v
}

// Resolve is Resolver{}.Resolve.
func Resolve(sel Selection, bindings Bindings, levels ActiveLevels) Params {
	return Resolver{}.Resolve(sel, bindings, levels)
}

// Resolve maps sel to backend query parameters.
func (r Resolver) Resolve(sel Selection, bindings Bindings, levels ActiveLevels) Params {
	return r.Explain(sel, bindings, levels).Params
}

// Explain resolves sel and reports how category ids were placed.
//
// Non-category dimensions produce one entry under their bound name with ids
// joined by "_". Each selected category id keeps the level the server last
// echoed it under; ids with no echoed level go to the default category
// parameter. When an id is echoed under several levels the lowest-numbered
// level wins. Dimensions the server binds to the same name share it: their
// ids are joined and the name is reported in Collisions.
func (r Resolver) Explain(sel Selection, bindings Bindings, levels ActiveLevels) Resolution {
	res := Resolution{Params: Params{}}
	if sel.IsEmpty() {
		return res
	}

	for _, d := range Dimensions {
		if d == Category {
			continue
		}
		ids := sel.IDs(d)
		if len(ids) == 0 {
			continue
		}
		res.add(r.paramName(d, bindings), ids)
	}

	categories := sel.IDs(Category)
	if len(categories) == 0 {
		return res
	}

	index := levelIndex(levels)
	defaultParam := r.defaultCategoryParam(bindings)
	buckets := make(map[string][]string)

	for _, id := range categories {
		found := index[id]
		switch len(found) {
		case 0:
			res.Defaulted = append(res.Defaulted, id)
			buckets[defaultParam] = append(buckets[defaultParam], id)
		case 1:
			buckets[found[0]] = append(buckets[found[0]], id)
		default:
			if res.Ambiguous == nil {
				res.Ambiguous = make(map[string][]string)
			}
			res.Ambiguous[id] = found
			buckets[found[0]] = append(buckets[found[0]], id)
		}
	}

	names := make([]string, 0, len(buckets))
	for name := range buckets {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool { return levelLess(names[i], names[j]) })
	for _, name := range names {
		// categories was sorted, so each bucket already is.
		res.add(name, buckets[name])
	}

	return res
}

// Defaults returns the bindings used before the server has named any
// dimension: the configured fallbacks, else DefaultBindings.
func (r Resolver) Defaults() Bindings {
	b := make(Bindings, len(Dimensions))
	for _, d := range Dimensions {
		if d == Category {
			b[d] = r.defaultCategoryParam(nil)
			continue
		}
		b[d] = r.paramName(d, nil)
	}
	return b
}

func (r Resolver) paramName(d Dimension, bindings Bindings) string {
	if n := strings.TrimSpace(bindings[d]); n != "" {
		return n
	}
	if n, ok := r.Fallbacks[d]; ok && n != "" {
		return n
	}
	return d.String()
}

func (r Resolver) defaultCategoryParam(bindings Bindings) string {
	if n := strings.TrimSpace(bindings[Category]); n != "" {
		return n
	}
	if r.DefaultCategoryParam != "" {
		return r.DefaultCategoryParam
	}
	return DefaultCategoryParam
}

// levelIndex inverts levels into id -> level names, each list ordered
// lowest level first.
func levelIndex(levels ActiveLevels) map[string][]string {
	index := make(map[string][]string)
	for name, ids := range levels {
		for _, id := range normalizeIDs(ids) {
			index[id] = append(index[id], name)
		}
	}
	for id := range index {
		sort.Slice(index[id], func(i, j int) bool {
			return levelLess(index[id][i], index[id][j])
		})
	}
	return index
}

// levelLess orders parameter names by their trailing level number
// ("category2" < "category10"), falling back to plain string order.
func levelLess(a, b string) bool {
	pa, na, oka := splitLevel(a)
	pb, nb, okb := splitLevel(b)
	if oka && okb && pa == pb && na != nb {
		return na < nb
	}
	if oka != okb && pa == pb {
		return !oka
	}
	return a < b
}

func splitLevel(name string) (prefix string, level int, ok bool) {
	i := len(name)
	for i > 0 && unicode.IsDigit(rune(name[i-1])) {
		i--
	}
	if i == len(name) {
		return name, 0, false
	}
	n, err := strconv.Atoi(name[i:])
	if err != nil {
		return name, 0, false
	}
	return name[:i], n, true
}
