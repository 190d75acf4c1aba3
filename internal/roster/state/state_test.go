package state

import "testing"

func TestCanonical(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"  Ozutsu  ", "Ozutsu"},
		{"Ozutsu (asset mismatch)", "Ozutsu"},
		{"Mokuzo Hansen (select a hull size)", "Mokuzo Hansen"},
		{"Onmyōji", "Onmyoji"},
		{"Sōhei", "Sohei"},
		{"(lonely)", "(lonely)"}, // leading paren is not a suffix
		{"", ""},
	}
	for _, c := range cases {
		if got := Canonical(c.in); got != c.want {
			t.Errorf("Canonical(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestKey(t *testing.T) {
	if got := Key("  Mokuzo   Hansen (locked) "); got != "mokuzo hansen" {
		t.Fatalf("Key: got %q", got)
	}
	if Key("Onmyōji") != Key("onmyoji") {
		t.Fatalf("Key should be accent-insensitive")
	}
}

func TestParseDim(t *testing.T) {
	cases := []struct {
		in    string
		w, l  int
		valid bool
	}{
		{"2×4", 2, 4, true},
		{"2x4", 2, 4, true},
		{" 1 x 3 ", 1, 3, true},
		{"5×8", 5, 8, true},
		{"— Dimension —", 0, 0, false},
		{"2by4", 0, 0, false},
		{"", 0, 0, false},
	}
	for _, c := range cases {
		w, l, ok := ParseDim(c.in)
		if ok != c.valid || w != c.w || l != c.l {
			t.Errorf("ParseDim(%q) = (%d,%d,%v), want (%d,%d,%v)", c.in, w, l, ok, c.w, c.l, c.valid)
		}
	}
}

func TestFormRead(t *testing.T) {
	f := Form{
		AssetName:         "Mokuzo Hansen (asset mismatch)",
		HullSize:          " Medium ",
		DimLabel:          "2×4",
		Detachment:        "Single Unit",
		DetachmentUserSet: true,
		Munitions:         []string{"Tetsuho", "", "Bo-Hiya"},
	}
	st := f.Read()

	if st.AssetName != "Mokuzo Hansen" {
		t.Fatalf("AssetName = %q", st.AssetName)
	}
	if st.HullSizeCategory != "Medium" {
		t.Fatalf("HullSizeCategory = %q", st.HullSizeCategory)
	}
	if !st.DimOK || st.DimW != 2 || st.DimL != 4 || st.DimValue != "2x4" {
		t.Fatalf("dim = %+v", st)
	}
	if !st.DetachmentUserSet || st.DetachmentMode != "Single Unit" {
		t.Fatalf("detachment = %q userSet=%v", st.DetachmentMode, st.DetachmentUserSet)
	}
	if len(st.SelectedMunitions) != 2 {
		t.Fatalf("munitions = %v", st.SelectedMunitions)
	}

	// No dimension selected: non-matching label.
	f.DimLabel = "choose"
	st = f.Read()
	if st.DimOK || st.DimValue != "" {
		t.Fatalf("expected no dimension, got %+v", st)
	}
}
