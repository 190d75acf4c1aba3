// Package state owns the raw configurator input store and its normalization.
// Everything downstream (resolver, aggregation) works on canonical keys
// produced here; nothing in this package validates, it only normalizes.
package state

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// deaccent strips combining marks so classification is accent-insensitive
// ("Onmyōji" and "Onmyoji" are the same class).
var deaccent = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var dimPattern = regexp.MustCompile(`^\s*(\d+)\s*[x×]\s*(\d+)\s*$`)

// Canonical trims a display label, removes one trailing parenthesized
// suffix (used elsewhere to annotate disabled options, e.g.
// "Ozutsu (asset mismatch)" -> "Ozutsu") and strips diacritics.
func Canonical(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasSuffix(s, ")") {
		if i := strings.LastIndex(s, " ("); i > 0 {
			s = strings.TrimSpace(s[:i])
		}
	}
	out, _, err := transform.String(deaccent, s)
	if err != nil {
		return s
	}
	return out
}

// Key folds a label into a stable lookup key: canonicalized, lower-cased,
// inner whitespace collapsed.
func Key(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(Canonical(s))), " ")
}

// ParseDim parses a dimension label of the form "<digits> x <digits>"
// (ASCII x or U+00D7). Non-matching labels mean "no dimension selected".
func ParseDim(label string) (w, l int, ok bool) {
	m := dimPattern.FindStringSubmatch(Canonical(label))
	if m == nil {
		return 0, 0, false
	}
	if _, err := fmt.Sscanf(m[1], "%d", &w); err != nil {
		return 0, 0, false
	}
	if _, err := fmt.Sscanf(m[2], "%d", &l); err != nil {
		return 0, 0, false
	}
	return w, l, true
}

// DimKey is the normalized "WxL" lookup key for the hull table.
func DimKey(w, l int) string {
	return fmt.Sprintf("%dx%d", w, l)
}

// NormalizedState is the snapshot the resolver derives from. It is rebuilt
// on every recompute and never persisted.
type NormalizedState struct {
	AssetName        string `json:"asset_name"`
	HullSizeCategory string `json:"hull_size_category"`
	DimLabel         string `json:"dim_label"`
	DimValue         string `json:"dim_value"` // normalized "WxL", empty when no dimension
	DimW             int    `json:"dim_w"`
	DimL             int    `json:"dim_l"`
	DimOK            bool   `json:"dim_ok"`

	DetachmentMode    string `json:"detachment_mode"`
	DetachmentUserSet bool   `json:"detachment_user_set"`

	SelectedMunitions []string `json:"selected_munitions"`
}

// Form is the raw mutable input store, replacing the live form controls the
// original tool read from. The correction loop is the only writer besides
// the transport that seeds it.
type Form struct {
	AssetName  string `json:"asset_name"`
	HullSize   string `json:"hull_size"`
	DimLabel   string `json:"dim_label"`
	Detachment string `json:"detachment"`
	// DetachmentUserSet distinguishes an explicit pick from a default.
	DetachmentUserSet bool     `json:"detachment_user_set"`
	Munitions         []string `json:"munitions"`
}

// Read extracts the normalized snapshot of the current raw input.
func (f *Form) Read() NormalizedState {
	st := NormalizedState{
		AssetName:         Canonical(f.AssetName),
		HullSizeCategory:  Canonical(f.HullSize),
		DimLabel:          strings.TrimSpace(f.DimLabel),
		DetachmentMode:    Canonical(f.Detachment),
		DetachmentUserSet: f.DetachmentUserSet,
	}
	if w, l, ok := ParseDim(f.DimLabel); ok {
		st.DimW, st.DimL, st.DimOK = w, l, true
		st.DimValue = DimKey(w, l)
	}
	for _, m := range f.Munitions {
		c := Canonical(m)
		if c == "" {
			continue
		}
		st.SelectedMunitions = append(st.SelectedMunitions, c)
	}
	return st
}

// SetMunitions replaces the checked set, dropping empties.
func (f *Form) SetMunitions(names []string) {
	f.Munitions = f.Munitions[:0]
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		f.Munitions = append(f.Munitions, n)
	}
}
