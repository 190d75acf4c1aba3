package indexdb

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"shoshin/internal/roster/aggregate"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "rosters.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPutGetRoster(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	row := RosterRow{
		Name: "Takeda Clan",
		Units: []aggregate.UnitRecord{
			{Kind: aggregate.KindCharacter, Cls: "Daimyo", Name: "Lord", Points: 10, Qty: 1},
			{Kind: aggregate.KindSupport, SupportType: "Ozutsu", Points: 8, Qty: 2},
		},
		Totals: aggregate.RosterTotals{
			Points: 26, UnitCount: 3, Initiative: 5, Honor: 4,
			Counts: aggregate.Counts{Daimyo: 1, Artillery: 2},
		},
	}

	id, err := s.PutRoster(ctx, row)
	if err != nil {
		t.Fatalf("PutRoster: %v", err)
	}
	if id == "" {
		t.Fatalf("empty id returned")
	}

	got, err := s.GetRoster(ctx, id)
	if err != nil {
		t.Fatalf("GetRoster: %v", err)
	}
	if got.Name != row.Name || !reflect.DeepEqual(got.Units, row.Units) {
		t.Fatalf("row = %+v", got)
	}
	if !reflect.DeepEqual(got.Totals, row.Totals) {
		t.Fatalf("totals = %+v, want %+v", got.Totals, row.Totals)
	}
	if got.UpdatedAt.IsZero() {
		t.Fatalf("updated_at not set")
	}
}

func TestPutRoster_Upsert(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	id, err := s.PutRoster(ctx, RosterRow{Name: "v1"})
	if err != nil {
		t.Fatalf("put v1: %v", err)
	}
	if _, err := s.PutRoster(ctx, RosterRow{ID: id, Name: "v2",
		Totals: aggregate.RosterTotals{Points: 5, UnitCount: 1}}); err != nil {
		t.Fatalf("put v2: %v", err)
	}

	got, err := s.GetRoster(ctx, id)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "v2" || got.Totals.Points != 5 {
		t.Fatalf("row = %+v", got)
	}

	rows, err := s.ListRosters(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
}

func TestListRosters_Order(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	old := time.Now().UTC().Add(-time.Hour)
	if _, err := s.PutRoster(ctx, RosterRow{Name: "older", UpdatedAt: old}); err != nil {
		t.Fatalf("put older: %v", err)
	}
	if _, err := s.PutRoster(ctx, RosterRow{Name: "newer"}); err != nil {
		t.Fatalf("put newer: %v", err)
	}

	rows, err := s.ListRosters(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(rows) != 2 || rows[0].Name != "newer" || rows[1].Name != "older" {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestGetRoster_NotFound(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetRoster(context.Background(), "nope"); err != ErrNotFound {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
