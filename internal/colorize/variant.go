package colorize

import (
	"strings"
)

// Variant selects one of the supported model configurations.
type Variant string

const (
	// VariantArtistic favours detail and vibrancy over temporal stability.
	VariantArtistic Variant = "artistic"
	// VariantStable favours conservative, anatomically consistent colour.
	VariantStable Variant = "stable"
	// VariantVideo is the video model, exposed through its single-frame filter.
	VariantVideo Variant = "video"
)

// DefaultVariant is used when no architecture is configured.
const DefaultVariant = VariantArtistic

// Variants lists the supported variants; the first one is the default.
func Variants() []Variant {
	return []Variant{VariantArtistic, VariantStable, VariantVideo}
}

// ParseVariant accepts a variant name in any letter case ("Artistic",
// "stable", ...). An empty string yields DefaultVariant.
func ParseVariant(s string) (Variant, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultVariant, nil
	}
	v := Variant(strings.ToLower(s))
	if !v.Valid() {
		return "", &ConfigurationError{Variant: s, Err: errUnknownVariant}
	}
	return v, nil
}

// Valid reports whether v is one of the supported variants.
func (v Variant) Valid() bool {
	switch v {
	case VariantArtistic, VariantStable, VariantVideo:
		return true
	}
	return false
}

// DisplayName is the capitalized form used in setup option listings.
func (v Variant) DisplayName() string {
	if v == "" {
		return ""
	}
	return strings.ToUpper(string(v[:1])) + string(v[1:])
}

func (v Variant) String() string { return string(v) }
