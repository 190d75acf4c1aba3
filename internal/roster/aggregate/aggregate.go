// Package aggregate derives roster-wide totals from assigned unit records:
// normalize, group by identity key, apply caps and canonical class mapping,
// then sum. Pure and order-independent; a corrupt record degrades its own
// contribution, never the whole roster.
package aggregate

import (
	"sort"
	"strings"

	"shoshin/internal/roster/catalogs"
	"shoshin/internal/roster/state"
)

// Unit kinds as persisted upstream.
const (
	KindCharacter = "character"
	KindSupport   = "support"
)

type UnitStats struct {
	Ini int `json:"ini,omitempty"`
	Ldr int `json:"ldr,omitempty"`
}

// UnitRecord mirrors the upstream persistence shape, including its legacy
// field aliases (cls/class/supportType, name/title, points/cost, flat or
// nested ini/ldr). The accessors below resolve the aliases.
type UnitRecord struct {
	Kind        string `json:"kind"`
	Cls         string `json:"cls,omitempty"`
	Class       string `json:"class,omitempty"`
	SupportType string `json:"supportType,omitempty"`
	RefID       string `json:"refId,omitempty"`
	Name        string `json:"name,omitempty"`
	Title       string `json:"title,omitempty"`
	Img         string `json:"img,omitempty"`
	Qty         int    `json:"qty,omitempty"`
	Points      int    `json:"points,omitempty"`
	Cost        int    `json:"cost,omitempty"`
	Ini         int    `json:"ini,omitempty"`
	Ldr         int    `json:"ldr,omitempty"`

	Stats *UnitStats `json:"stats,omitempty"`
}

func (u UnitRecord) ClassName() string {
	if u.Cls != "" {
		return u.Cls
	}
	if u.Class != "" {
		return u.Class
	}
	return u.SupportType
}

func (u UnitRecord) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Title
}

func (u UnitRecord) PointsValue() int {
	if u.Points != 0 {
		return u.Points
	}
	return u.Cost
}

func (u UnitRecord) Initiative() int {
	if u.Ini != 0 {
		return u.Ini
	}
	if u.Stats != nil {
		return u.Stats.Ini
	}
	return 0
}

func (u UnitRecord) Leadership() int {
	if u.Ldr != 0 {
		return u.Ldr
	}
	if u.Stats != nil {
		return u.Stats.Ldr
	}
	return 0
}

// Key is the grouping identity. The scheme must match whatever persisted the
// records upstream; it is a compatibility contract, not an internal choice.
func (u UnitRecord) Key() string {
	return strings.Join([]string{u.Kind, u.ClassName(), u.RefID, u.DisplayName(), u.Img}, "|")
}

// Counts is the eight-bucket breakdown: six character classes plus the two
// support categories.
type Counts struct {
	Daimyo    int `json:"daimyo"`
	Samurai   int `json:"samurai"`
	Ashigaru  int `json:"ashigaru"`
	Sohei     int `json:"sohei"`
	Ninja     int `json:"ninja"`
	Onmyoji   int `json:"onmyoji"`
	Artillery int `json:"artillery"`
	Ships     int `json:"ships"`
}

type RosterTotals struct {
	Points     int    `json:"points"`
	UnitCount  int    `json:"unit_count"`
	Initiative int    `json:"initiative"`
	Honor      int    `json:"honor"`
	Counts     Counts `json:"counts"`
}

type Engine struct {
	cats *catalogs.Catalogs
}

func New(cats *catalogs.Catalogs) *Engine {
	return &Engine{cats: cats}
}

// Group merges records sharing an identity key, summing quantities (missing
// or invalid quantities count as 1). First-seen order and fields win.
func Group(units []UnitRecord) []UnitRecord {
	out := make([]UnitRecord, 0, len(units))
	index := map[string]int{}
	for _, u := range units {
		q := u.Qty
		if q < 1 {
			q = 1
		}
		key := u.Key()
		if i, ok := index[key]; ok {
			out[i].Qty += q
			continue
		}
		u.Qty = q
		index[key] = len(out)
		out = append(out, u)
	}
	return out
}

// Aggregate computes roster totals. Input may be raw or pre-grouped; it is
// always grouped defensively first (skipping that step was a real bug class
// in the ancestor of this tool).
func (e *Engine) Aggregate(units []UnitRecord) RosterTotals {
	var t RosterTotals
	for _, u := range Group(units) {
		q := u.Qty
		if q < 1 {
			q = 1
		}

		classKey := state.Key(u.ClassName())
		bucket, isClass := e.cats.Classes.CanonicalClass(classKey)

		// Game rule: a clan has at most one Daimyo. Enforced here even when
		// upstream data disagrees.
		if isClass && bucket == "Daimyo" {
			q = 1
		}

		t.Points += u.PointsValue() * q
		t.UnitCount += q
		t.Initiative += u.Initiative() * q
		t.Honor += u.Leadership() * q

		switch u.Kind {
		case KindCharacter:
			if isClass {
				e.count(&t.Counts, bucket, q)
			}
		case KindSupport:
			e.count(&t.Counts, e.supportBucket(u), q)
		}
	}

	clampNonNegative(&t.Points)
	clampNonNegative(&t.UnitCount)
	clampNonNegative(&t.Initiative)
	clampNonNegative(&t.Honor)
	return t
}

// supportBucket classifies a support record into Ships or Artillery by
// case-insensitive synonym matching over its name, class, and support type.
// The synonym set tolerates the historical misspelling of the vessel name.
func (e *Engine) supportBucket(u UnitRecord) string {
	candidates := []string{u.DisplayName(), u.Cls, u.Class, u.SupportType}
	for _, c := range candidates {
		if e.cats.Classes.IsShip(state.Key(c)) {
			return "Ships"
		}
	}
	for _, c := range candidates {
		if e.cats.Classes.IsArtillery(state.Key(c)) {
			return "Artillery"
		}
	}
	return "" // uncounted, but still contributes to the sums above
}

func (e *Engine) count(c *Counts, bucket string, q int) {
	switch bucket {
	case "Daimyo":
		c.Daimyo += q
		if c.Daimyo > 1 {
			c.Daimyo = 1
		}
	case "Samurai":
		c.Samurai += q
	case "Ashigaru":
		c.Ashigaru += q
	case "Sohei":
		c.Sohei += q
	case "Ninja":
		c.Ninja += q
	case "Onmyoji":
		c.Onmyoji += q
	case "Artillery":
		c.Artillery += q
	case "Ships":
		c.Ships += q
	}
}

// Bucket returns the counting bucket a record belongs to, or "" when
// uncounted. Exposed for display ordering.
func (e *Engine) Bucket(u UnitRecord) string {
	switch u.Kind {
	case KindCharacter:
		if b, ok := e.cats.Classes.CanonicalClass(state.Key(u.ClassName())); ok {
			return b
		}
	case KindSupport:
		return e.supportBucket(u)
	}
	return ""
}

// SortForDisplay orders records by the display-order table; unrecognized
// buckets sort to the bottom. The sort is stable so within-bucket order is
// preserved.
func (e *Engine) SortForDisplay(units []UnitRecord) {
	sort.SliceStable(units, func(i, j int) bool {
		return e.cats.Classes.OrderIndex(e.Bucket(units[i])) < e.cats.Classes.OrderIndex(e.Bucket(units[j]))
	})
}

func clampNonNegative(v *int) {
	if *v < 0 {
		*v = 0
	}
}
