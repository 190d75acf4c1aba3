package protocol

import (
	"shoshin/internal/roster/aggregate"
	"shoshin/internal/roster/catalogs"
	"shoshin/internal/roster/resolve"
	"shoshin/internal/roster/state"
)

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ClientName      string `json:"client_name,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string           `json:"type"`
	ProtocolVersion string           `json:"protocol_version"`
	SessionID       string           `json:"session_id"`
	Catalogs        catalogs.Digests `json:"catalogs"`
}

// StatePayload mirrors the raw configurator form.
type StatePayload struct {
	AssetName         string   `json:"asset_name"`
	HullSize          string   `json:"hull_size,omitempty"`
	DimLabel          string   `json:"dim_label,omitempty"`
	Detachment        string   `json:"detachment,omitempty"`
	DetachmentUserSet bool     `json:"detachment_user_set,omitempty"`
	Munitions         []string `json:"munitions,omitempty"`
}

func (p StatePayload) Form() state.Form {
	return state.Form{
		AssetName:         p.AssetName,
		HullSize:          p.HullSize,
		DimLabel:          p.DimLabel,
		Detachment:        p.Detachment,
		DetachmentUserSet: p.DetachmentUserSet,
		Munitions:         p.Munitions,
	}
}

func PayloadFromForm(f state.Form) StatePayload {
	return StatePayload{
		AssetName:         f.AssetName,
		HullSize:          f.HullSize,
		DimLabel:          f.DimLabel,
		Detachment:        f.Detachment,
		DetachmentUserSet: f.DetachmentUserSet,
		Munitions:         f.Munitions,
	}
}

// DERIVE (client -> server): run the configurator resolver over the given
// raw state. PrevAsset lets stateless HTTP callers carry the transition
// memory themselves; WS sessions keep it server-side.
type DeriveMsg struct {
	Type            string       `json:"type"`
	ProtocolVersion string       `json:"protocol_version"`
	ReqID           string       `json:"req_id,omitempty"`
	Init            bool         `json:"init,omitempty"`
	PrevAsset       string       `json:"prev_asset,omitempty"`
	State           StatePayload `json:"state"`
}

// MODEL (server -> client): the derived model plus the corrected raw state
// the correction loop converged to (for form write-back).
type ModelMsg struct {
	Type            string               `json:"type"`
	ProtocolVersion string               `json:"protocol_version"`
	ReqID           string               `json:"req_id,omitempty"`
	State           StatePayload         `json:"state"`
	Model           resolve.DerivedModel `json:"model"`
}

// AGGREGATE (client -> server)
type AggregateMsg struct {
	Type            string                 `json:"type"`
	ProtocolVersion string                 `json:"protocol_version"`
	ReqID           string                 `json:"req_id,omitempty"`
	RosterID        string                 `json:"roster_id,omitempty"`
	RosterName      string                 `json:"roster_name,omitempty"`
	Persist         bool                   `json:"persist,omitempty"`
	Units           []aggregate.UnitRecord `json:"units"`
}

// TOTALS (server -> client)
type TotalsMsg struct {
	Type            string                 `json:"type"`
	ProtocolVersion string                 `json:"protocol_version"`
	ReqID           string                 `json:"req_id,omitempty"`
	RosterID        string                 `json:"roster_id,omitempty"`
	Totals          aggregate.RosterTotals `json:"totals"`
}

// ERROR (server -> client)
type ErrorMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	ReqID           string `json:"req_id,omitempty"`
	Code            string `json:"code"`
	Message         string `json:"message,omitempty"`
}

func NewError(reqID, code, msg string) ErrorMsg {
	return ErrorMsg{
		Type:            TypeError,
		ProtocolVersion: Version,
		ReqID:           reqID,
		Code:            code,
		Message:         msg,
	}
}
