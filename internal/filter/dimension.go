// Package filter resolves a user's filter selection into backend query
// parameters. Parameter names are supplied by the server per response, so
// they are modelled as a typed dimension table rather than string keys.
package filter

import (
	"fmt"
	"sort"
	"strings"
)

// Dimension is one independent filter axis.
type Dimension int

// Filter dimensions.
const (
	Gender Dimension = iota
	Category
	Brand
	Size
	Color
)

// Dimensions lists every dimension in resolution order.
var Dimensions = []Dimension{Gender, Category, Brand, Size, Color}

var dimensionNames = map[Dimension]string{
	Gender:   "gender",
	Category: "category",
	Brand:    "brand",
	Size:     "size",
	Color:    "color",
}

// String returns the lower-case dimension name.
func (d Dimension) String() string {
	if n, ok := dimensionNames[d]; ok {
		return n
	}
	return fmt.Sprintf("dimension(%d)", int(d))
}

// ParseDimension maps a dimension name back to its Dimension.
func ParseDimension(s string) (Dimension, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for d, n := range dimensionNames {
		if n == s {
			return d, nil
		}
	}
	return 0, fmt.Errorf("unknown filter dimension %q", s)
}

// MarshalText lets Dimension be used as a JSON object key.
func (d Dimension) MarshalText() ([]byte, error) {
	if _, ok := dimensionNames[d]; !ok {
		return nil, fmt.Errorf("unknown filter dimension %d", int(d))
	}
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Dimension) UnmarshalText(b []byte) error {
	parsed, err := ParseDimension(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Selection holds the ids picked for each dimension. Each slice is treated
// as a set: order and duplicates are irrelevant.
type Selection struct {
	Gender   []string `json:"gender,omitempty"`
	Category []string `json:"category,omitempty"`
	Brand    []string `json:"brand,omitempty"`
	Size     []string `json:"size,omitempty"`
	Color    []string `json:"color,omitempty"`
}

// IDs returns the de-duplicated, sorted, non-empty ids selected for d.
func (s Selection) IDs(d Dimension) []string {
	var raw []string
	switch d {
	case Gender:
		raw = s.Gender
	case Category:
		raw = s.Category
	case Brand:
		raw = s.Brand
	case Size:
		raw = s.Size
	case Color:
		raw = s.Color
	}
	return normalizeIDs(raw)
}

// Add appends ids to dimension d.
func (s *Selection) Add(d Dimension, ids ...string) {
	switch d {
	case Gender:
		s.Gender = append(s.Gender, ids...)
	case Category:
		s.Category = append(s.Category, ids...)
	case Brand:
		s.Brand = append(s.Brand, ids...)
	case Size:
		s.Size = append(s.Size, ids...)
	case Color:
		s.Color = append(s.Color, ids...)
	}
}

// IsEmpty reports whether nothing is selected in any dimension.
func (s Selection) IsEmpty() bool {
	for _, d := range Dimensions {
		if len(s.IDs(d)) > 0 {
			return false
		}
	}
	return true
}

func normalizeIDs(raw []string) []string {
	if len(raw) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(raw))
	out := make([]string, 0, len(raw))
	for _, id := range raw {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Bindings maps each dimension to the backend parameter name the server
// currently expects for it.
type Bindings map[Dimension]string

// DefaultBindings are used before any server response has been seen.
func DefaultBindings() Bindings {
	return Bindings{
		Gender:   "gender",
		Category: DefaultCategoryParam,
		Brand:    "brand",
		Size:     "size",
		Color:    "color",
	}
}

// BindingsFromServer builds Bindings from the raw name table in a backend
// response. Unknown dimension keys and empty names are dropped.
func BindingsFromServer(raw map[string]string) Bindings {
	b := make(Bindings, len(raw))
	for k, v := range raw {
		d, err := ParseDimension(k)
		if err != nil || strings.TrimSpace(v) == "" {
			continue
		}
		b[d] = v
	}
	return b
}

// Merge returns a copy of b with every binding in newer applied on top.
func (b Bindings) Merge(newer Bindings) Bindings {
	out := make(Bindings, len(b)+len(newer))
	for d, n := range b {
		out[d] = n
	}
	for d, n := range newer {
		out[d] = n
	}
	return out
}

// ActiveLevels maps a backend parameter name to the category ids the server
// echoed as active under it.
type ActiveLevels map[string][]string
