// Package resolve turns a normalized configurator snapshot into the fully
// derived presentation model, and converges the raw form to a consistent
// state via a bounded correction loop.
package resolve

import (
	"fmt"
	"strconv"

	"shoshin/internal/roster/catalogs"
	"shoshin/internal/roster/state"
)

// Correction defaults. The 1×2 carve-out keeps previously saved artillery
// records round-tripping without the operator re-selecting hull fields.
const (
	defaultHullCategory = "Medium"
	defaultVesselDim    = "1×3"
	artilleryDim        = "1×2"
	artilleryDimKey     = "1x2"
)

// Context carries the only non-state inputs the resolver consults: whether
// this is the first render, and the asset key from the previous derivation
// (for transition detection).
type Context struct {
	IsInit    bool
	PrevAsset string
}

type Resolver struct {
	cats *catalogs.Catalogs

	// MaxMunitions locks further munition checkboxes once reached; 0 means
	// no cap.
	MaxMunitions int
}

func New(cats *catalogs.Catalogs) *Resolver {
	return &Resolver{cats: cats}
}

// Derive computes the model for one snapshot. It is pure: identical inputs
// yield identical models, and it never mutates the snapshot.
func (r *Resolver) Derive(st state.NormalizedState, ctx Context) DerivedModel {
	assetKey := state.Key(st.AssetName)
	def, known := r.cats.Assets.ByKey(assetKey)
	assetChanged := ctx.PrevAsset != "" && ctx.PrevAsset != assetKey

	selected := map[string]bool{}
	for _, m := range st.SelectedMunitions {
		selected[state.Key(m)] = true
	}

	m := DerivedModel{
		Fields:    map[string]FieldState{},
		Dropdowns: map[string]map[string]OptionState{},
		PanelStats: map[string]string{
			"attack": Unset, "movement": Unset, "toughness": Unset, "operators": Unset,
		},
		WeaponStats: WeaponStats{Damage: Unset, Critical: Unset, Distance: Unset},
		Tables:      TableFilters{AssetKey: assetKey, SelectedMunitions: selected},
		Hidden:      map[string]string{},
	}
	m.Fields[FieldAsset] = FieldState{Visible: true}
	r.buildDropdowns(&m)

	switch {
	case !known:
		r.deriveNone(&m)
	case def.Kind == catalogs.KindVessel:
		r.deriveVessel(&m, st, def, selected)
	default:
		r.deriveArtillery(&m, st, def, selected)
	}

	m.Hidden["asset_cost"] = strconv.Itoa(m.TotalCost)
	m.Patch = r.patchDecision(st, def, known, ctx.IsInit, assetChanged)
	return m
}

// buildDropdowns seeds every dropdown with its full option list, all visible
// and enabled, plus an untagged placeholder. Branch code then restricts.
func (r *Resolver) buildDropdowns(m *DerivedModel) {
	hullSize := map[string]OptionState{"": {BaseText: "— Hull Size —", Visible: true}}
	for _, cat := range r.cats.Hulls.Categories() {
		hullSize[cat] = OptionState{BaseText: cat, Visible: true}
	}
	m.Dropdowns[FieldHullSize] = hullSize

	hullDim := map[string]OptionState{"": {BaseText: "— Dimension —", Visible: true}}
	for _, key := range r.cats.Hulls.Order {
		d, _ := r.cats.Hulls.Dim(key)
		hullDim[key] = OptionState{BaseText: d.Label(), Visible: true}
	}
	m.Dropdowns[FieldHullDim] = hullDim

	det := map[string]OptionState{"": {BaseText: "— Detachment —", Visible: true}}
	for _, name := range r.cats.Detachments.Order {
		det[state.Key(name)] = OptionState{BaseText: name, Visible: true}
	}
	m.Dropdowns[FieldDetachment] = det

	mun := map[string]OptionState{}
	for _, name := range r.cats.Munitions.Order {
		mun[state.Key(name)] = OptionState{BaseText: name, Visible: true}
	}
	m.Dropdowns[FieldMunitions] = mun
}

// disableOptions tags every non-placeholder option of a dropdown.
func disableOptions(opts map[string]OptionState, visible bool, reason string) {
	for key, o := range opts {
		if key == "" {
			continue // placeholders are exempt from reason tagging
		}
		o.Visible = visible
		o.Disabled = true
		o.Reasons = append(o.Reasons, reason)
		opts[key] = o
	}
}

func (r *Resolver) deriveNone(m *DerivedModel) {
	for _, f := range []string{FieldHullSize, FieldHullDim, FieldDetachment, FieldMunitions} {
		m.Fields[f] = FieldState{Visible: false, Disabled: true, Reasons: []string{ReasonAssetMismatch}}
	}
	for _, d := range []string{FieldHullSize, FieldHullDim, FieldDetachment, FieldMunitions} {
		disableOptions(m.Dropdowns[d], false, ReasonRequiresAsset)
	}
	m.Summary = "Select an asset type to begin."
	m.TotalCost = 0
}

func (r *Resolver) deriveVessel(m *DerivedModel, st state.NormalizedState, def catalogs.AssetDef, selected map[string]bool) {
	m.Fields[FieldHullSize] = FieldState{Visible: true}
	m.Fields[FieldHullDim] = FieldState{Visible: true}
	m.Fields[FieldDetachment] = FieldState{Visible: true, Disabled: true, Reasons: []string{ReasonAssetMismatch}}
	m.Fields[FieldMunitions] = FieldState{Visible: true, Disabled: true, Reasons: []string{ReasonAssetMismatch}}

	disableOptions(m.Dropdowns[FieldDetachment], true, ReasonAssetMismatch)
	disableOptions(m.Dropdowns[FieldMunitions], true, ReasonAssetMismatch)

	// Dimension options: until a hull size is chosen everything is disabled
	// pending that choice; afterwards only dimensions whose width maps to the
	// chosen category stay visible.
	dims := m.Dropdowns[FieldHullDim]
	for key, o := range dims {
		if key == "" {
			continue
		}
		d, ok := r.cats.Hulls.Dim(key)
		if !ok {
			continue
		}
		switch {
		case st.HullSizeCategory == "":
			o.Disabled = true
			o.Reasons = append(o.Reasons, ReasonRequiresHull)
		case d.Category != st.HullSizeCategory:
			o.Visible = false
		}
		dims[key] = o
	}

	var hull *HullStats
	if st.DimOK {
		if d, ok := r.cats.Hulls.Dim(st.DimValue); ok {
			hull = &HullStats{
				Width:     d.Width,
				Length:    d.Length,
				Bases:     d.Bases,
				Category:  d.Category,
				Toughness: d.Toughness,
				Movement:  r.cats.Hulls.Movement(d.Category),
				Operators: r.cats.Hulls.Operators(d.Category),
				Cost:      d.Cost,
			}
		}
	}
	m.HullStats = hull

	base := 0
	if hull != nil {
		base = hull.Cost
		m.PanelStats["movement"] = strconv.Itoa(hull.Movement)
		m.PanelStats["toughness"] = strconv.Itoa(hull.Toughness)
		m.PanelStats["operators"] = strconv.Itoa(hull.Operators)
		m.Hidden["hull_category"] = hull.Category
		m.Hidden["hull_key"] = st.DimValue
	}
	m.TotalCost = base + r.munitionCost(selected)

	if hull != nil {
		m.Summary = fmt.Sprintf("%s — %s hull (%d×%d), %d bases, %d pts",
			def.Name, hull.Category, hull.Width, hull.Length, hull.Bases, m.TotalCost)
	} else {
		m.Summary = fmt.Sprintf("%s — choose a hull size and dimension", def.Name)
	}

	m.Modifiers = def.Modifiers
	m.TrainingReq = def.Training
	m.EquipItems = def.Equipment
}

func (r *Resolver) deriveArtillery(m *DerivedModel, st state.NormalizedState, def catalogs.AssetDef, selected map[string]bool) {
	m.Fields[FieldHullSize] = FieldState{Visible: true, Disabled: true, Reasons: []string{ReasonAssetMismatch}}
	m.Fields[FieldHullDim] = FieldState{Visible: true, Disabled: true, Reasons: []string{ReasonAssetMismatch}}
	m.Fields[FieldDetachment] = FieldState{Visible: true}
	m.Fields[FieldMunitions] = FieldState{Visible: true}

	disableOptions(m.Dropdowns[FieldHullSize], true, ReasonAssetMismatch)
	disableOptions(m.Dropdowns[FieldHullDim], true, ReasonAssetMismatch)

	// Carve-out: the 1×2 dimension stays live regardless of hull state so
	// saved artillery records round-trip cleanly. Not a bug.
	if o, ok := m.Dropdowns[FieldHullDim][artilleryDimKey]; ok {
		o.Visible = true
		o.Disabled = false
		o.Reasons = nil
		m.Dropdowns[FieldHullDim][artilleryDimKey] = o
	}

	// Munition cap: once reached, unchecked options lock.
	if r.MaxMunitions > 0 && len(selected) >= r.MaxMunitions {
		mun := m.Dropdowns[FieldMunitions]
		for key, o := range mun {
			if selected[key] {
				continue
			}
			o.Disabled = true
			o.Reasons = append(o.Reasons, ReasonLocked)
			mun[key] = o
		}
	}

	// Weapon stats: one munition shows verbatim; several collapse to
	// "Variable" instead of concatenating.
	switch len(st.SelectedMunitions) {
	case 0:
		// leave Unset
	case 1:
		if d, ok := r.cats.Munitions.ByKey(state.Key(st.SelectedMunitions[0])); ok {
			m.WeaponStats = WeaponStats{Damage: d.Damage, Critical: d.Critical, Distance: d.Distance}
		}
	default:
		m.WeaponStats = WeaponStats{Damage: "Variable", Critical: "Variable", Distance: "Variable"}
	}

	// Attack/movement: detachment override applies only on an explicit user
	// choice; otherwise the first mode is the baseline.
	mode, haveMode := catalogs.DetachmentMode{}, false
	if st.DetachmentUserSet {
		mode, haveMode = r.cats.Detachments.ByKey(state.Key(st.DetachmentMode))
	}
	if !haveMode && len(r.cats.Detachments.Order) > 0 {
		mode, haveMode = r.cats.Detachments.ByKey(state.Key(r.cats.Detachments.Order[0]))
	}
	if haveMode {
		m.PanelStats["attack"] = strconv.Itoa(mode.Attack)
		m.PanelStats["movement"] = strconv.Itoa(mode.Movement)
	}

	m.TotalCost = def.BaseCost + r.munitionCost(selected)

	switch n := len(st.SelectedMunitions); n {
	case 0:
		m.Summary = fmt.Sprintf("%s — no munitions, %d pts", def.Name, m.TotalCost)
	case 1:
		m.Summary = fmt.Sprintf("%s — 1 munition, %d pts", def.Name, m.TotalCost)
	default:
		m.Summary = fmt.Sprintf("%s — %d munitions, %d pts", def.Name, n, m.TotalCost)
	}

	m.Modifiers = def.Modifiers
	m.TrainingReq = def.Training
	m.EquipItems = def.Equipment
}

// munitionCost sums the catalog cost of the selected set; unknown selections
// contribute nothing rather than failing the derivation.
func (r *Resolver) munitionCost(selected map[string]bool) int {
	total := 0
	for key := range selected {
		if d, ok := r.cats.Munitions.ByKey(key); ok {
			total += d.Cost
		}
	}
	return total
}

func (r *Resolver) patchDecision(st state.NormalizedState, def catalogs.AssetDef, known, isInit, assetChanged bool) Patch {
	var p Patch
	if assetChanged {
		p.ResetDependents = true
		p.ForceDetachmentPlaceholder = true
	}
	if !known {
		return p
	}
	switch def.Kind {
	case catalogs.KindVessel:
		if (isInit || assetChanged) && st.HullSizeCategory == "" {
			p.DefaultHullMedium = true
		}
		if st.HullSizeCategory == defaultHullCategory && !st.DimOK {
			p.AutoSelectDim1x3 = true
		}
	case catalogs.KindArtillery:
		if isInit || assetChanged {
			p.ArtilleryDefaults = true
		}
	}
	return p
}
