package resolve

import "shoshin/internal/roster/state"

// Unset is the display fallback for any stat that cannot be computed.
const Unset = "--"

// Logical field names the presentation adapter binds to.
const (
	FieldAsset      = "asset"
	FieldHullSize   = "hull_size"
	FieldHullDim    = "hull_dim"
	FieldDetachment = "detachment"
	FieldMunitions  = "munitions"
)

// Disable reason codes, highest precedence first.
const (
	ReasonAssetMismatch   = "asset_mismatch"
	ReasonRequiresAsset   = "requires_asset"
	ReasonRequiresHull    = "requires_hull_size"
	ReasonRequiresHullDim = "requires_hull_dimension"
	ReasonLocked          = "locked"
)

var reasonPriority = []string{
	ReasonAssetMismatch,
	ReasonRequiresAsset,
	ReasonRequiresHull,
	ReasonRequiresHullDim,
	ReasonLocked,
}

var reasonSuffix = map[string]string{
	ReasonAssetMismatch:   "(asset mismatch)",
	ReasonRequiresAsset:   "(select an asset)",
	ReasonRequiresHull:    "(select a hull size)",
	ReasonRequiresHullDim: "(select a dimension)",
	ReasonLocked:          "(locked)",
}

// PrimaryReason picks the reason to display when several apply: first match
// in the fixed priority order, else the first tagged reason.
func PrimaryReason(reasons []string) string {
	if len(reasons) == 0 {
		return ""
	}
	for _, p := range reasonPriority {
		for _, r := range reasons {
			if r == p {
				return p
			}
		}
	}
	return reasons[0]
}

// Suffix renders a reason code as a display suffix. Unknown codes still get
// the generic suffix; an unavailable option is never left unexplained.
func Suffix(reason string) string {
	if s, ok := reasonSuffix[reason]; ok {
		return s
	}
	return "(unavailable)"
}

type FieldState struct {
	Visible  bool     `json:"visible"`
	Disabled bool     `json:"disabled"`
	Reasons  []string `json:"reasons,omitempty"`
}

type OptionState struct {
	BaseText string   `json:"base_text"`
	Visible  bool     `json:"visible"`
	Disabled bool     `json:"disabled"`
	Reasons  []string `json:"reasons,omitempty"`
}

// Label is the option text with the disable-reason suffix applied.
func (o OptionState) Label() string {
	if !o.Disabled || len(o.Reasons) == 0 {
		return o.BaseText
	}
	return o.BaseText + " " + Suffix(PrimaryReason(o.Reasons))
}

type HullStats struct {
	Width     int    `json:"width"`
	Length    int    `json:"length"`
	Bases     int    `json:"bases"`
	Category  string `json:"category"`
	Toughness int    `json:"toughness"`
	Movement  int    `json:"movement"`
	Operators int    `json:"operators"`
	Cost      int    `json:"cost"`
}

type WeaponStats struct {
	Damage   string `json:"damage"`
	Critical string `json:"critical"`
	Distance string `json:"distance"`
}

// TableFilters carries the row predicates for the stat tables. The sets are
// exported so transports can serialize them; the methods are what the
// presentation adapter actually calls.
type TableFilters struct {
	AssetKey          string          `json:"asset_key"`
	SelectedMunitions map[string]bool `json:"selected_munitions"`
}

// MunitionRow reports whether a munition stat row should be shown.
func (t TableFilters) MunitionRow(name string) bool {
	return t.SelectedMunitions[state.Key(name)]
}

// AssetRow reports whether a row keyed by asset name matches the selection.
func (t TableFilters) AssetRow(name string) bool {
	return t.AssetKey != "" && state.Key(name) == t.AssetKey
}

// Patch is the correction intent computed by the resolver. It describes the
// mutation the raw form needs; applying it is the correction loop's job.
type Patch struct {
	ResetDependents            bool `json:"reset_dependents,omitempty"`
	ForceDetachmentPlaceholder bool `json:"force_detachment_placeholder,omitempty"`
	DefaultHullMedium          bool `json:"default_hull_medium,omitempty"`
	AutoSelectDim1x3           bool `json:"auto_select_dim_1x3,omitempty"`
	ArtilleryDefaults          bool `json:"artillery_defaults,omitempty"`
}

func (p Patch) Empty() bool {
	return p == Patch{}
}

// DerivedModel is the single source of truth the presentation adapter
// consumes. It is a deterministic function of the normalized state and the
// derivation context.
type DerivedModel struct {
	Fields    map[string]FieldState            `json:"fields"`
	Dropdowns map[string]map[string]OptionState `json:"dropdowns"`

	HullStats   *HullStats        `json:"hull_stats,omitempty"`
	Summary     string            `json:"summary"`
	PanelStats  map[string]string `json:"panel_stats"`
	WeaponStats WeaponStats       `json:"weapon_stats"`
	TotalCost   int               `json:"total_cost"`

	Modifiers   []string `json:"modifiers,omitempty"`
	TrainingReq []string `json:"training_req,omitempty"`
	EquipItems  []string `json:"equip_items,omitempty"`

	Tables TableFilters      `json:"tables"`
	Hidden map[string]string `json:"hidden"`
	Patch  Patch             `json:"patch"`
}
