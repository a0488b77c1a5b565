package wizard

import (
	"strings"
)

// DataCategory is the UI-side category value.
type DataCategory string

const (
	CategoryEmail  DataCategory = "Email"
	CategoryClaims DataCategory = "Claims"
	CategoryOther  DataCategory = "Other"
)

var categoryOrder = [...]DataCategory{CategoryEmail, CategoryClaims, CategoryOther}

// DefaultCategories is the fallback list shown when the backend gives nothing
// usable.
func DefaultCategories() []DataCategory {
	return []DataCategory{CategoryEmail, CategoryClaims, CategoryOther}
}

// CategoryFromToken maps a backend token to its UI value. Unrecognized tokens
// become Other and cannot be recovered.
func CategoryFromToken(token string) DataCategory {
	switch strings.ToLower(strings.TrimSpace(token)) {
	case "email":
		return CategoryEmail
	case "claim", "claims":
		return CategoryClaims
	default:
		return CategoryOther
	}
}

// Token maps a UI value back to the token the backend filters on.
func (c DataCategory) Token() string {
	switch c {
	case CategoryEmail:
		return "email"
	case CategoryClaims:
		return "claim"
	default:
		return "other"
	}
}

func (c DataCategory) bit() CategorySet {
	switch c {
	case CategoryEmail:
		return 1 << 0
	case CategoryClaims:
		return 1 << 1
	case CategoryOther:
		return 1 << 2
	default:
		return 0
	}
}

// CategoryCount is one entry of a keyed categories response.
type CategoryCount struct {
	Token string
	Count int
}

// CategoryPayload is the categories response in whichever shape the backend
// chose: a plain name list, or an ordered name->count object.
type CategoryPayload struct {
	Names  []string
	Counts []CategoryCount
}

// IsKeyed reports whether the payload came as a name->count object.
func (p CategoryPayload) IsKeyed() bool {
	return p.Names == nil && p.Counts != nil
}

// NormalizeCategories converts either payload shape to the ordered UI list.
// Duplicates produced by the lossy mapping keep their first position; counts
// of tokens that collapse to the same value are summed. An empty result falls
// back to DefaultCategories with no counts.
func NormalizeCategories(p CategoryPayload) ([]DataCategory, map[DataCategory]int) {
	var (
		out    []DataCategory
		seen   CategorySet
		counts map[DataCategory]int
	)
	add := func(c DataCategory) {
		if seen.Has(c) {
			return
		}
		seen = seen.Toggle(c)
		out = append(out, c)
	}
	if p.IsKeyed() {
		counts = make(map[DataCategory]int, len(p.Counts))
		for _, cc := range p.Counts {
			c := CategoryFromToken(cc.Token)
			add(c)
			counts[c] += cc.Count
		}
	} else {
		for _, name := range p.Names {
			add(CategoryFromToken(name))
		}
	}
	if len(out) == 0 {
		return DefaultCategories(), nil
	}
	return out, counts
}

// Tokens maps UI values to backend tokens, preserving order.
func Tokens(cats []DataCategory) []string {
	out := make([]string, 0, len(cats))
	for _, c := range cats {
		out = append(out, c.Token())
	}
	return out
}

// CategorySet is a set of DataCategory values. It is a value type, so a
// Model holding one can be copied freely.
type CategorySet uint8

const knownCategories CategorySet = 1<<len(categoryOrder) - 1

// NewCategorySet builds a set from the given values.
func NewCategorySet(cats ...DataCategory) CategorySet {
	var s CategorySet
	for _, c := range cats {
		s |= c.bit()
	}
	return s
}

// Has reports membership.
func (s CategorySet) Has(c DataCategory) bool {
	b := c.bit()
	return b != 0 && s&b != 0
}

// Toggle returns s with c added when absent or removed when present.
func (s CategorySet) Toggle(c DataCategory) CategorySet {
	return s ^ c.bit()
}

// Empty reports whether nothing is selected.
func (s CategorySet) Empty() bool { return s == 0 }

// Len returns the number of members.
func (s CategorySet) Len() int {
	n := 0
	for _, c := range categoryOrder {
		if s.Has(c) {
			n++
		}
	}
	return n
}

// Slice returns the members in canonical order (Email, Claims, Other).
func (s CategorySet) Slice() []DataCategory {
	out := make([]DataCategory, 0, len(categoryOrder))
	for _, c := range categoryOrder {
		if s.Has(c) {
			out = append(out, c)
		}
	}
	return out
}

// Valid reports whether s contains only known categories.
func (s CategorySet) Valid() bool {
	return s&^knownCategories == 0
}
