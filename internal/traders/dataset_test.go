package traders

import (
	"context"
	"errors"
	"testing"

	"github.com/oddsradar/oddsradar/internal/domain"
)

func TestListSortsByMetric(t *testing.T) {
	d := NewDirectory()
	ctx := context.Background()

	byValue := d.List(ctx, "total_value", 0, 10)
	if byValue[0].ID != "st_004" {
		t.Errorf("top by total_value = %s, want st_004", byValue[0].ID)
	}

	byPnL := d.List(ctx, "pnl", 0, 10)
	if byPnL[0].ID != "st_004" || byPnL[len(byPnL)-1].ID != "st_003" {
		t.Errorf("pnl order wrong: first %s, last %s", byPnL[0].ID, byPnL[len(byPnL)-1].ID)
	}

	byWinRate := d.List(ctx, "win_rate", 0, 10)
	if byWinRate[0].ID != "st_004" {
		t.Errorf("top by win_rate = %s, want st_004", byWinRate[0].ID)
	}

	// Unknown metric falls back to total_value.
	fallback := d.List(ctx, "bogus", 0, 10)
	if fallback[0].ID != "st_004" {
		t.Errorf("fallback sort top = %s", fallback[0].ID)
	}
}

func TestListSkipAndLimit(t *testing.T) {
	d := NewDirectory()
	ctx := context.Background()

	page := d.List(ctx, "total_value", 1, 2)
	if len(page) != 2 {
		t.Fatalf("page size = %d, want 2", len(page))
	}
	if page[0].ID != "st_001" {
		t.Errorf("second ranked = %s, want st_001", page[0].ID)
	}

	if got := d.List(ctx, "total_value", 100, 10); len(got) != 0 {
		t.Errorf("skip past end returned %d traders", len(got))
	}
}

func TestGet(t *testing.T) {
	d := NewDirectory()
	ctx := context.Background()

	tr, err := d.Get(ctx, "st_002")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if tr.Address != "0x2b591e99afe9f32eaa6214f7b7629768c40eeb39" {
		t.Errorf("address = %s", tr.Address)
	}
	if len(tr.Positions) != 1 {
		t.Errorf("positions = %d, want 1", len(tr.Positions))
	}

	if _, err := d.Get(ctx, "st_999"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("missing trader: got %v, want ErrNotFound", err)
	}
}

func TestStats(t *testing.T) {
	d := NewDirectory()

	stats := d.Stats(context.Background())
	if stats.TotalTraders != 5 {
		t.Errorf("total traders = %d, want 5", stats.TotalTraders)
	}
	if stats.TotalValue != 9230000 {
		t.Errorf("total value = %v, want 9230000", stats.TotalValue)
	}
	if stats.TotalPnL != 1475000 {
		t.Errorf("total pnl = %v, want 1475000", stats.TotalPnL)
	}
	if stats.TopPerformer != "st_004" {
		t.Errorf("top performer = %s, want st_004", stats.TopPerformer)
	}
	if stats.UpdatedAt == "" {
		t.Error("updated_at empty")
	}
}

func TestHoldersOf(t *testing.T) {
	d := NewDirectory()

	holders := d.HoldersOf(context.Background(), "kalshi_fed_rate")
	if len(holders) != 1 || holders[0].ID != "st_001" {
		t.Fatalf("holders = %v", holders)
	}
	if holders[0].Positions[0].Side != "no" {
		t.Errorf("held side = %s, want no", holders[0].Positions[0].Side)
	}

	if got := d.HoldersOf(context.Background(), "poly_unknown"); len(got) != 0 {
		t.Errorf("unknown market has %d holders", len(got))
	}
}
