package resolve

import (
	"shoshin/internal/roster/state"
)

// MaxPasses bounds the correction loop. If the third pass still wants a
// mutation the model from that pass is used as-is; a rare slightly stale
// final frame is accepted over any chance of an unbounded loop.
const MaxPasses = 3

// Memory is the single-slot carry-over the loop owns: the asset key from the
// previous derivation, used only to detect an asset-type transition. The
// resolver itself stays pure.
type Memory struct {
	prev string
}

func (m *Memory) Prev() string { return m.prev }

// NewMemory seeds the cell, for callers that carry the previous asset
// themselves (stateless transports).
func NewMemory(prevAsset string) *Memory {
	return &Memory{prev: state.Key(prevAsset)}
}

// Converge derives, applies the flagged patch to the form, and re-derives
// only when the patch actually mutated something, up to MaxPasses total
// passes. isInit is forced false after the first pass so default-selection
// patches apply at most once per session per asset type.
func (r *Resolver) Converge(form *state.Form, mem *Memory, isInit bool) DerivedModel {
	var model DerivedModel
	init := isInit
	for pass := 1; pass <= MaxPasses; pass++ {
		st := form.Read()
		model = r.Derive(st, Context{IsInit: init, PrevAsset: mem.prev})
		mem.prev = state.Key(st.AssetName)
		init = false

		if model.Patch.Empty() {
			break
		}
		if !applyPatch(form, model.Patch) {
			break // fixed point: the patch would change nothing
		}
	}
	return model
}

// applyPatch performs the corrective mutation and reports whether any raw
// value actually changed.
func applyPatch(f *state.Form, p Patch) bool {
	changed := false

	if p.ResetDependents && len(f.Munitions) > 0 {
		f.Munitions = nil
		changed = true
	}
	if p.ForceDetachmentPlaceholder && (f.Detachment != "" || f.DetachmentUserSet) {
		f.Detachment = ""
		f.DetachmentUserSet = false
		changed = true
	}
	if p.DefaultHullMedium && state.Canonical(f.HullSize) != defaultHullCategory {
		f.HullSize = defaultHullCategory
		changed = true
	}
	if p.AutoSelectDim1x3 && !dimEquals(f.DimLabel, 1, 3) {
		f.DimLabel = defaultVesselDim
		changed = true
	}
	if p.ArtilleryDefaults {
		if state.Canonical(f.HullSize) != defaultHullCategory {
			f.HullSize = defaultHullCategory
			changed = true
		}
		if !dimEquals(f.DimLabel, 1, 2) {
			f.DimLabel = artilleryDim
			changed = true
		}
	}
	return changed
}

func dimEquals(label string, w, l int) bool {
	pw, pl, ok := state.ParseDim(label)
	return ok && pw == w && pl == l
}
