package collection

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/desertthunder/tcgtrack/internal/models"
	"github.com/desertthunder/tcgtrack/internal/shared"
)

// AllExpansionsLabel is the display name of the [All] selector.
const AllExpansionsLabel = "All"

// Selector picks the visible groups: every group, or the groups of one expansion.
//
// The zero value selects everything.
type Selector struct {
	id  int
	set bool
}

// All selects every group.
var All = Selector{}

// ExpansionSelector selects the groups of one expansion.
func ExpansionSelector(id int) Selector {
	return Selector{id: id, set: true}
}

// IsAll reports whether s selects every group.
func (s Selector) IsAll() bool { return !s.set }

// ExpansionID returns the selected expansion id. ok is false for [All].
func (s Selector) ExpansionID() (id int, ok bool) { return s.id, s.set }

// String returns "all" or the decimal expansion id.
func (s Selector) String() string {
	if !s.set {
		return "all"
	}
	return strconv.Itoa(s.id)
}

// Matches reports whether g is visible under s.
func (s Selector) Matches(g models.CardGroup) bool {
	return !s.set || g.ExpansionID == s.id
}

// ParseSelector converts a loosely typed filter value into a [Selector].
//
// Accepted: "all" (any case) or "", integer kinds, integral floats, [json.Number] and numeric strings.
// Everything else returns an error wrapping [shared.ErrInvalidFilter].
func ParseSelector(v any) (Selector, error) {
	switch x := v.(type) {
	case Selector:
		return x, nil
	case nil:
		return All, nil
	case string:
		return parseSelectorString(x)
	case json.Number:
		return parseSelectorString(x.String())
	case int:
		return fromInt64(int64(x))
	case int8:
		return ExpansionSelector(int(x)), nil
	case int16:
		return ExpansionSelector(int(x)), nil
	case int32:
		return ExpansionSelector(int(x)), nil
	case int64:
		return fromInt64(x)
	case uint:
		return fromUint64(uint64(x))
	case uint8:
		return ExpansionSelector(int(x)), nil
	case uint16:
		return ExpansionSelector(int(x)), nil
	case uint32:
		return fromUint64(uint64(x))
	case uint64:
		return fromUint64(x)
	case float32:
		return fromFloat(float64(x))
	case float64:
		return fromFloat(x)
	default:
		return All, fmt.Errorf("%w: unsupported filter value %v (%T)", shared.ErrInvalidFilter, v, v)
	}
}

func parseSelectorString(s string) (Selector, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.EqualFold(s, "all") {
		return All, nil
	}
	if id, err := strconv.ParseInt(s, 10, 64); err == nil {
		return fromInt64(id)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fromFloat(f)
	}
	return All, fmt.Errorf("%w: %q is not an expansion id", shared.ErrInvalidFilter, s)
}

// maxExpansionID bounds ids of every numeric kind. Floats stop being exact above it.
const maxExpansionID = 1 << 53

func fromInt64(n int64) (Selector, error) {
	if n > maxExpansionID || n < -maxExpansionID || int64(int(n)) != n {
		return All, fmt.Errorf("%w: expansion id %d out of range", shared.ErrInvalidFilter, n)
	}
	return ExpansionSelector(int(n)), nil
}

func fromUint64(n uint64) (Selector, error) {
	if n > maxExpansionID {
		return All, fmt.Errorf("%w: expansion id %d out of range", shared.ErrInvalidFilter, n)
	}
	return fromInt64(int64(n))
}

func fromFloat(f float64) (Selector, error) {
	if math.IsInf(f, 0) || math.IsNaN(f) || f != math.Trunc(f) {
		return All, fmt.Errorf("%w: %v is not an integral expansion id", shared.ErrInvalidFilter, f)
	}
	if math.Abs(f) > maxExpansionID {
		return All, fmt.Errorf("%w: expansion id %v out of range", shared.ErrInvalidFilter, f)
	}
	return fromInt64(int64(f))
}

// Filter returns the groups visible under sel, in order. The result never aliases groups.
func Filter(groups []models.CardGroup, sel Selector) []models.CardGroup {
	out := make([]models.CardGroup, 0, len(groups))
	for _, g := range groups {
		if sel.Matches(g) {
			out = append(out, g.Clone())
		}
	}
	return out
}

// FilterName returns the display name for sel.
//
// For an expansion it prefers the first matching group's expansion name, then the
// matching summary's name, and is "" when neither is known.
func FilterName(groups []models.CardGroup, summaries []models.ExpansionSummary, sel Selector) string {
	id, ok := sel.ExpansionID()
	if !ok {
		return AllExpansionsLabel
	}
	for _, g := range groups {
		if g.ExpansionID == id && g.ExpansionName != "" {
			return g.ExpansionName
		}
	}
	for _, s := range summaries {
		if s.ID == id {
			return s.Name
		}
	}
	return ""
}
