package protocol

import (
	"encoding/json"
	"testing"
)

func TestDecodeBase(t *testing.T) {
	m, err := DecodeBase([]byte(`{"type":"DERIVE","protocol_version":"1.0","state":{"asset_name":"x"}}`))
	if err != nil {
		t.Fatalf("DecodeBase: %v", err)
	}
	if m.Type != TypeDerive || m.ProtocolVersion != Version {
		t.Fatalf("base = %+v", m)
	}

	if _, err := DecodeBase([]byte(`not json`)); err == nil {
		t.Fatalf("malformed message accepted")
	}
}

func TestStatePayloadRoundTrip(t *testing.T) {
	p := StatePayload{
		AssetName:         "Ozutsu",
		HullSize:          "Medium",
		DimLabel:          "1×2",
		Detachment:        "Two Units",
		DetachmentUserSet: true,
		Munitions:         []string{"Tetsuho"},
	}
	if got := PayloadFromForm(p.Form()); got.AssetName != p.AssetName ||
		got.Detachment != p.Detachment || !got.DetachmentUserSet ||
		len(got.Munitions) != 1 {
		t.Fatalf("round trip = %+v", got)
	}
}

func TestNewError(t *testing.T) {
	e := NewError("r1", ErrBadRequest, "bad state")
	if e.Type != TypeError || e.ProtocolVersion != Version || e.Code != ErrBadRequest {
		t.Fatalf("error = %+v", e)
	}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back ErrorMsg
	if err := json.Unmarshal(b, &back); err != nil || back != e {
		t.Fatalf("unmarshal: %+v err=%v", back, err)
	}
}

func TestIsKnownCode(t *testing.T) {
	for _, code := range []string{ErrProtoBadRequest, ErrBadRequest, ErrRosterNotFound, ErrTooLarge, ErrInternal, ""} {
		if !IsKnownCode(code) {
			t.Errorf("IsKnownCode(%q) = false", code)
		}
	}
	if IsKnownCode("E_NOPE") {
		t.Errorf("unknown code reported as known")
	}
}
