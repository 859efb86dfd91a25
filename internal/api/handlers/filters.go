package handlers

import (
	"fmt"
	"strings"

	"github.com/donaldgifford/storefront-query/internal/filter"
)

// ParseFilters parses CLI --filter flags into a filter.Selection.
// Each flag is dimension=ids with comma-separated ids; repeated
// dimensions accumulate:
//
//	gender=2
//	category=1045,1046
//	brand=7
//	size=M,L
//	color=red
func ParseFilters(filters []string) (filter.Selection, error) {
	var sel filter.Selection

	for _, f := range filters {
		key, value, ok := strings.Cut(f, "=")
		if !ok {
			return sel, fmt.Errorf("invalid filter format %q: expected dimension=ids", f)
		}

		dim, err := filter.ParseDimension(key)
		if err != nil {
			return sel, fmt.Errorf("parsing filter %q: %w", f, err)
		}

		var ids []string
		for _, id := range strings.Split(value, ",") {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		if len(ids) == 0 {
			return sel, fmt.Errorf("filter %q has no ids", f)
		}
		sel.Add(dim, ids...)
	}

	return sel, nil
}
