package paging

import (
	"errors"
	"fmt"
)

// ErrUnknownMode is returned for an unrecognized listing mode.
var ErrUnknownMode = errors.New("unknown listing mode")

// Mode selects the listing backend.
type Mode int

const (
	// ModeCategoryBrowse lists a category from the primary backend.
	ModeCategoryBrowse Mode = iota + 1
	// ModeVisualSearch lists image matches from the visual-search backend.
	ModeVisualSearch
)

func (m Mode) String() string {
	switch m {
	case ModeCategoryBrowse:
		return "category_browse"
	case ModeVisualSearch:
		return "visual_search"
	default:
		return "unknown"
	}
}

// ParseMode parses the String form of a Mode.
func ParseMode(s string) (Mode, error) {
	switch s {
	case "category_browse":
		return ModeCategoryBrowse, nil
	case "visual_search":
		return ModeVisualSearch, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownMode, s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	if m != ModeCategoryBrowse && m != ModeVisualSearch {
		return nil, fmt.Errorf("%w: %d", ErrUnknownMode, int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	v, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
