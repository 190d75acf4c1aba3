package resolve

import (
	"reflect"
	"testing"

	"shoshin/internal/roster/catalogs"
	"shoshin/internal/roster/state"
)

func newResolver(t *testing.T) *Resolver {
	t.Helper()
	cats, err := catalogs.Default()
	if err != nil {
		t.Fatalf("catalogs: %v", err)
	}
	return New(cats)
}

func TestDerive_VesselStats(t *testing.T) {
	r := newResolver(t)
	f := state.Form{AssetName: "Mokuzo Hansen", HullSize: "Medium", DimLabel: "2×4"}
	m := r.Derive(f.Read(), Context{})

	want := &HullStats{Width: 2, Length: 4, Bases: 8, Category: "Large",
		Toughness: 6, Movement: 6, Operators: 2, Cost: 12}
	if !reflect.DeepEqual(m.HullStats, want) {
		t.Fatalf("hull stats = %+v, want %+v", m.HullStats, want)
	}
	if m.TotalCost != 12 {
		t.Fatalf("total cost = %d, want 12", m.TotalCost)
	}
	if m.PanelStats["movement"] != "6" || m.PanelStats["toughness"] != "6" ||
		m.PanelStats["operators"] != "2" || m.PanelStats["attack"] != Unset {
		t.Fatalf("panel stats = %v", m.PanelStats)
	}
	if m.Hidden["hull_category"] != "Large" || m.Hidden["hull_key"] != "2x4" || m.Hidden["asset_cost"] != "12" {
		t.Fatalf("hidden = %v", m.Hidden)
	}

	// Hull fields live, artillery fields tagged.
	if m.Fields[FieldHullSize].Disabled || m.Fields[FieldHullDim].Disabled {
		t.Fatalf("hull fields should be enabled")
	}
	det := m.Fields[FieldDetachment]
	if !det.Disabled || PrimaryReason(det.Reasons) != ReasonAssetMismatch {
		t.Fatalf("detachment field = %+v", det)
	}
}

func TestDerive_VesselUnknownDimension(t *testing.T) {
	r := newResolver(t)
	f := state.Form{AssetName: "Mokuzo Hansen", HullSize: "Large", DimLabel: "7×9"}
	m := r.Derive(f.Read(), Context{})

	if m.HullStats != nil {
		t.Fatalf("unexpected hull stats: %+v", m.HullStats)
	}
	if m.TotalCost != 0 {
		t.Fatalf("total cost = %d, want 0", m.TotalCost)
	}
	if m.PanelStats["toughness"] != Unset {
		t.Fatalf("toughness = %q", m.PanelStats["toughness"])
	}
}

func TestDerive_VesselDimensionOptions(t *testing.T) {
	r := newResolver(t)

	// No hull size: every non-placeholder dimension disabled, pending choice.
	f := state.Form{AssetName: "Mokuzo Hansen"}
	m := r.Derive(f.Read(), Context{})
	dims := m.Dropdowns[FieldHullDim]
	for key, o := range dims {
		if key == "" {
			if o.Disabled || len(o.Reasons) != 0 {
				t.Fatalf("placeholder tagged: %+v", o)
			}
			continue
		}
		if !o.Disabled || PrimaryReason(o.Reasons) != ReasonRequiresHull {
			t.Fatalf("dim %s = %+v", key, o)
		}
	}
	if got := dims["2x4"].Label(); got != "2×4 (select a hull size)" {
		t.Fatalf("label = %q", got)
	}

	// Large hull: only width-2 dimensions stay visible.
	f.HullSize = "Large"
	m = r.Derive(f.Read(), Context{})
	dims = m.Dropdowns[FieldHullDim]
	if !dims["2x4"].Visible || dims["2x4"].Disabled {
		t.Fatalf("2x4 = %+v", dims["2x4"])
	}
	if !dims["2x3"].Visible {
		t.Fatalf("2x3 should be visible")
	}
	if dims["1x3"].Visible || dims["5x8"].Visible {
		t.Fatalf("mismatched widths should be hidden")
	}
}

func TestDerive_ArtilleryWeaponStats(t *testing.T) {
	r := newResolver(t)

	f := state.Form{AssetName: "Ozutsu"}
	m := r.Derive(f.Read(), Context{})
	if m.WeaponStats != (WeaponStats{Damage: Unset, Critical: Unset, Distance: Unset}) {
		t.Fatalf("zero munitions: %+v", m.WeaponStats)
	}
	if m.TotalCost != 8 {
		t.Fatalf("base cost = %d, want 8", m.TotalCost)
	}

	f.Munitions = []string{"Tetsuho"}
	m = r.Derive(f.Read(), Context{})
	if m.WeaponStats != (WeaponStats{Damage: "2", Critical: "9+", Distance: "24\""}) {
		t.Fatalf("one munition: %+v", m.WeaponStats)
	}
	if m.TotalCost != 13 {
		t.Fatalf("cost = %d, want 13", m.TotalCost)
	}

	// Two munitions collapse to Variable instead of concatenating.
	f.Munitions = []string{"Tetsuho", "Bo-Hiya"}
	m = r.Derive(f.Read(), Context{})
	if m.WeaponStats != (WeaponStats{Damage: "Variable", Critical: "Variable", Distance: "Variable"}) {
		t.Fatalf("two munitions: %+v", m.WeaponStats)
	}
	if m.TotalCost != 18 {
		t.Fatalf("cost = %d, want 18", m.TotalCost)
	}
}

func TestDerive_ArtilleryFieldsAndCarveOut(t *testing.T) {
	r := newResolver(t)
	f := state.Form{AssetName: "Ozutsu"}
	m := r.Derive(f.Read(), Context{})

	if m.Fields[FieldDetachment].Disabled || m.Fields[FieldMunitions].Disabled {
		t.Fatalf("artillery fields should be enabled")
	}
	hs := m.Fields[FieldHullSize]
	if !hs.Disabled || PrimaryReason(hs.Reasons) != ReasonAssetMismatch {
		t.Fatalf("hull size field = %+v", hs)
	}

	dims := m.Dropdowns[FieldHullDim]
	if !dims["1x2"].Visible || dims["1x2"].Disabled || len(dims["1x2"].Reasons) != 0 {
		t.Fatalf("1x2 carve-out broken: %+v", dims["1x2"])
	}
	if !dims["2x4"].Disabled || PrimaryReason(dims["2x4"].Reasons) != ReasonAssetMismatch {
		t.Fatalf("2x4 = %+v", dims["2x4"])
	}
}

func TestDerive_DetachmentOverride(t *testing.T) {
	r := newResolver(t)

	// Defaulted (not user-set): baseline stats, even with a stored value.
	f := state.Form{AssetName: "Ozutsu", Detachment: "Two Units"}
	m := r.Derive(f.Read(), Context{})
	if m.PanelStats["attack"] != "1" || m.PanelStats["movement"] != "2" {
		t.Fatalf("baseline = %v", m.PanelStats)
	}

	f.DetachmentUserSet = true
	m = r.Derive(f.Read(), Context{})
	if m.PanelStats["attack"] != "2" || m.PanelStats["movement"] != "4" {
		t.Fatalf("override = %v", m.PanelStats)
	}
}

func TestDerive_MunitionCap(t *testing.T) {
	r := newResolver(t)
	r.MaxMunitions = 2

	f := state.Form{AssetName: "Ozutsu", Munitions: []string{"Tetsuho", "Bo-Hiya"}}
	m := r.Derive(f.Read(), Context{})

	mun := m.Dropdowns[FieldMunitions]
	if !mun["kusudama"].Disabled || PrimaryReason(mun["kusudama"].Reasons) != ReasonLocked {
		t.Fatalf("kusudama = %+v", mun["kusudama"])
	}
	if mun["tetsuho"].Disabled {
		t.Fatalf("selected munition should stay enabled")
	}
}

func TestDerive_NoAsset(t *testing.T) {
	r := newResolver(t)

	for _, name := range []string{"", "Teppo Squad"} {
		f := state.Form{AssetName: name}
		m := r.Derive(f.Read(), Context{})

		for _, field := range []string{FieldHullSize, FieldHullDim, FieldDetachment, FieldMunitions} {
			fs := m.Fields[field]
			if fs.Visible || !fs.Disabled || PrimaryReason(fs.Reasons) != ReasonAssetMismatch {
				t.Fatalf("asset %q field %s = %+v", name, field, fs)
			}
		}
		if m.TotalCost != 0 {
			t.Fatalf("total cost = %d", m.TotalCost)
		}
		if m.Summary != "Select an asset type to begin." {
			t.Fatalf("summary = %q", m.Summary)
		}
		if o := m.Dropdowns[FieldMunitions]["tetsuho"]; !o.Disabled || PrimaryReason(o.Reasons) != ReasonRequiresAsset {
			t.Fatalf("munition option = %+v", o)
		}
	}
}

func TestDerive_Idempotent(t *testing.T) {
	r := newResolver(t)
	forms := []state.Form{
		{AssetName: "Mokuzo Hansen", HullSize: "Medium", DimLabel: "1×3"},
		{AssetName: "Ozutsu", Munitions: []string{"Tetsuho"}},
		{},
	}
	for _, f := range forms {
		ctx := Context{IsInit: false}
		a := r.Derive(f.Read(), ctx)
		b := r.Derive(f.Read(), ctx)
		if !reflect.DeepEqual(a, b) {
			t.Fatalf("derivation not idempotent for %+v", f)
		}
	}
}

func TestDerive_CostMonotonic(t *testing.T) {
	r := newResolver(t)
	f := state.Form{AssetName: "Ozutsu"}
	prev := r.Derive(f.Read(), Context{}).TotalCost
	for _, mun := range []string{"Kusudama", "Tetsuho", "Bo-Hiya", "Taihou Shot"} {
		f.Munitions = append(f.Munitions, mun)
		cost := r.Derive(f.Read(), Context{}).TotalCost
		if cost < prev {
			t.Fatalf("cost decreased: %d -> %d after adding %s", prev, cost, mun)
		}
		prev = cost
	}
}

func TestReasonHelpers(t *testing.T) {
	if got := PrimaryReason([]string{ReasonLocked, ReasonAssetMismatch}); got != ReasonAssetMismatch {
		t.Fatalf("precedence: got %q", got)
	}
	if got := PrimaryReason([]string{"mystery"}); got != "mystery" {
		t.Fatalf("fallback: got %q", got)
	}
	if got := Suffix("mystery"); got != "(unavailable)" {
		t.Fatalf("unknown reason suffix = %q", got)
	}
	if got := Suffix(ReasonRequiresHullDim); got != "(select a dimension)" {
		t.Fatalf("suffix = %q", got)
	}
	if PrimaryReason(nil) != "" {
		t.Fatalf("empty reasons")
	}
}

func TestPatchDecision(t *testing.T) {
	r := newResolver(t)

	// First render of a vessel with no hull size.
	f := state.Form{AssetName: "Mokuzo Hansen"}
	m := r.Derive(f.Read(), Context{IsInit: true})
	if !m.Patch.DefaultHullMedium || m.Patch.AutoSelectDim1x3 {
		t.Fatalf("patch = %+v", m.Patch)
	}

	// Medium hull, no dimension: auto-select regardless of init.
	f.HullSize = "Medium"
	m = r.Derive(f.Read(), Context{})
	if !m.Patch.AutoSelectDim1x3 || m.Patch.DefaultHullMedium {
		t.Fatalf("patch = %+v", m.Patch)
	}

	// Asset transition: reset dependents, force detachment placeholder.
	f = state.Form{AssetName: "Mokuzo Hansen", HullSize: "Medium", DimLabel: "1×3"}
	m = r.Derive(f.Read(), Context{PrevAsset: "ozutsu"})
	if !m.Patch.ResetDependents || !m.Patch.ForceDetachmentPlaceholder {
		t.Fatalf("patch = %+v", m.Patch)
	}

	// First render of artillery: fixed defaults for round-tripping.
	f = state.Form{AssetName: "Ozutsu"}
	m = r.Derive(f.Read(), Context{IsInit: true})
	if !m.Patch.ArtilleryDefaults {
		t.Fatalf("patch = %+v", m.Patch)
	}

	// Settled states carry no patch.
	f = state.Form{AssetName: "Ozutsu", HullSize: "Medium", DimLabel: "1×2"}
	m = r.Derive(f.Read(), Context{PrevAsset: "ozutsu"})
	if !m.Patch.Empty() {
		t.Fatalf("patch = %+v", m.Patch)
	}
}
