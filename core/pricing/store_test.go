package pricing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 0, 0, 0, 0, time.UTC)
}

func TestAppendAssignsSeqAndID(t *testing.T) {
	s := NewStore()
	vid := uuid.New()

	first := s.Append(Observation{VariantID: vid, PriceCents: 100, EffectiveDate: day(1)})
	second := s.Append(Observation{VariantID: vid, PriceCents: 200, EffectiveDate: day(2)})

	if first.Seq == 0 || second.Seq <= first.Seq {
		t.Errorf("sequence not monotonic: %d then %d", first.Seq, second.Seq)
	}
	if first.ID == uuid.Nil {
		t.Error("store should assign an id when none given")
	}
	if s.Count(vid) != 2 {
		t.Errorf("Count = %d, want 2", s.Count(vid))
	}
}

func TestLatestPicksNewestDate(t *testing.T) {
	s := NewStore()
	vid := uuid.New()

	s.Append(Observation{VariantID: vid, PriceCents: 100, EffectiveDate: day(5)})
	s.Append(Observation{VariantID: vid, PriceCents: 300, EffectiveDate: day(10)})
	s.Append(Observation{VariantID: vid, PriceCents: 200, EffectiveDate: day(7)})

	obs, ok := s.Latest(vid)
	if !ok || obs.PriceCents != 300 {
		t.Errorf("Latest = %+v, want price 300", obs)
	}
}

func TestLatestTieBrokenByInsertion(t *testing.T) {
	s := NewStore()
	vid := uuid.New()

	s.Append(Observation{VariantID: vid, PriceCents: 100, EffectiveDate: day(5)})
	s.Append(Observation{VariantID: vid, PriceCents: 150, EffectiveDate: day(5)})

	obs, ok := s.Latest(vid)
	if !ok || obs.PriceCents != 150 {
		t.Errorf("same-date tie should go to latest insertion, got %+v", obs)
	}
}

func TestLatestEmpty(t *testing.T) {
	s := NewStore()
	if _, ok := s.Latest(uuid.New()); ok {
		t.Error("Latest on empty variant should report false")
	}
}

func TestLatestBefore(t *testing.T) {
	s := NewStore()
	vid := uuid.New()

	s.Append(Observation{VariantID: vid, PriceCents: 100, EffectiveDate: day(1)})
	s.Append(Observation{VariantID: vid, PriceCents: 200, EffectiveDate: day(10)})
	s.Append(Observation{VariantID: vid, PriceCents: 300, EffectiveDate: day(20)})

	obs, ok := s.LatestBefore(vid, day(15))
	if !ok || obs.PriceCents != 200 {
		t.Errorf("LatestBefore(day 15) = %+v, want price 200", obs)
	}

	// cutoff is exclusive
	obs, ok = s.LatestBefore(vid, day(10))
	if !ok || obs.PriceCents != 100 {
		t.Errorf("LatestBefore(day 10) = %+v, want price 100", obs)
	}

	if _, ok := s.LatestBefore(vid, day(1)); ok {
		t.Error("no observation strictly before the first date")
	}
}

func TestAverageCentsSince(t *testing.T) {
	s := NewStore()
	vid := uuid.New()

	s.Append(Observation{VariantID: vid, PriceCents: 100, EffectiveDate: day(1)})
	s.Append(Observation{VariantID: vid, PriceCents: 200, EffectiveDate: day(10)})
	s.Append(Observation{VariantID: vid, PriceCents: 350, EffectiveDate: day(20)})

	avg, ok := s.AverageCentsSince(vid, day(10))
	if !ok || !avg.Equal(decimal.NewFromInt(275)) {
		t.Errorf("AverageCentsSince = %s, want 275", avg)
	}

	// cutoff is inclusive, so all three count
	avg, ok = s.AverageCentsSince(vid, day(1))
	if !ok || !avg.Round(2).Equal(decimal.RequireFromString("216.67")) {
		t.Errorf("AverageCentsSince(all) = %s, want 216.67", avg.Round(2))
	}

	if _, ok := s.AverageCentsSince(vid, day(25)); ok {
		t.Error("empty window should report false")
	}
}

func TestHistoryNewestFirst(t *testing.T) {
	s := NewStore()
	vid := uuid.New()

	s.Append(Observation{VariantID: vid, PriceCents: 100, EffectiveDate: day(1), Source: SourceInvoice})
	s.Append(Observation{VariantID: vid, PriceCents: 300, EffectiveDate: day(20), Source: SourceManual})
	s.Append(Observation{VariantID: vid, PriceCents: 200, EffectiveDate: day(10), Source: SourceCatalog})

	hist := s.History(vid)
	if len(hist) != 3 {
		t.Fatalf("History len = %d, want 3", len(hist))
	}
	want := []int64{300, 200, 100}
	for i, w := range want {
		if hist[i].PriceCents != w {
			t.Errorf("History[%d].PriceCents = %d, want %d", i, hist[i].PriceCents, w)
		}
	}
}
