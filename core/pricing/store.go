// Package pricing provides the price observation store and best-price
// selection across distributor offers.
//
// Observations are append-only: every priced purchase event (invoice line,
// catalog quote, manual entry) is recorded and never mutated. Per-base-unit
// prices are always derived from the pack price and the variant's conversion
// factor, never stored as truth.
package pricing

import (
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Source indicates where a price observation came from
type Source string

const (
	// SourceInvoice is a confirmed invoice line
	SourceInvoice Source = "invoice"

	// SourceCatalog is a distributor catalog listing
	SourceCatalog Source = "catalog"

	// SourceManual is a manually entered price
	SourceManual Source = "manual"

	// SourceQuote is a quoted but not invoiced price
	SourceQuote Source = "quote"
)

// Observation is one immutable priced purchase event for a SKU variant
type Observation struct {
	ID            uuid.UUID
	VariantID     uuid.UUID
	PriceCents    int64
	EffectiveDate time.Time
	Source        Source
	SourceRef     string

	// Seq is the insertion order, assigned by the store. It breaks ties
	// between observations sharing an effective date: latest insertion wins.
	Seq uint64
}

// Store is the in-memory book over the append-only observation log
type Store struct {
	byVariant map[uuid.UUID][]*Observation
	nextSeq   uint64
}

// NewStore creates an empty observation store
func NewStore() *Store {
	return &Store{byVariant: make(map[uuid.UUID][]*Observation)}
}

// Append records an observation. The store assigns the sequence number;
// the entry is immutable afterwards.
func (s *Store) Append(obs Observation) Observation {
	s.nextSeq++
	obs.Seq = s.nextSeq
	if obs.ID == uuid.Nil {
		obs.ID = uuid.New()
	}
	stored := obs
	s.byVariant[obs.VariantID] = append(s.byVariant[obs.VariantID], &stored)
	return stored
}

// Latest returns the current observation for a variant: the entry with the
// most recent effective date, ties broken by latest insertion.
func (s *Store) Latest(variantID uuid.UUID) (Observation, bool) {
	entries := s.byVariant[variantID]
	if len(entries) == 0 {
		return Observation{}, false
	}
	best := entries[0]
	for _, e := range entries[1:] {
		if e.EffectiveDate.After(best.EffectiveDate) ||
			(e.EffectiveDate.Equal(best.EffectiveDate) && e.Seq > best.Seq) {
			best = e
		}
	}
	return *best, true
}

// LatestBefore returns the most recent observation strictly before a cutoff
func (s *Store) LatestBefore(variantID uuid.UUID, cutoff time.Time) (Observation, bool) {
	var best *Observation
	for _, e := range s.byVariant[variantID] {
		if !e.EffectiveDate.Before(cutoff) {
			continue
		}
		if best == nil || e.EffectiveDate.After(best.EffectiveDate) ||
			(e.EffectiveDate.Equal(best.EffectiveDate) && e.Seq > best.Seq) {
			best = e
		}
	}
	if best == nil {
		return Observation{}, false
	}
	return *best, true
}

// AverageCentsSince returns the mean pack price over observations on or after
// the cutoff. Returns false when the window holds no observations.
func (s *Store) AverageCentsSince(variantID uuid.UUID, cutoff time.Time) (decimal.Decimal, bool) {
	var sum decimal.Decimal
	var n int64
	for _, e := range s.byVariant[variantID] {
		if e.EffectiveDate.Before(cutoff) {
			continue
		}
		sum = sum.Add(decimal.NewFromInt(e.PriceCents))
		n++
	}
	if n == 0 {
		return decimal.Zero, false
	}
	return sum.Div(decimal.NewFromInt(n)), true
}

// History returns a variant's observations newest-first
func (s *Store) History(variantID uuid.UUID) []Observation {
	entries := s.byVariant[variantID]
	out := make([]Observation, 0, len(entries))
	for _, e := range entries {
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EffectiveDate.Equal(out[j].EffectiveDate) {
			return out[i].EffectiveDate.After(out[j].EffectiveDate)
		}
		return out[i].Seq > out[j].Seq
	})
	return out
}

// Count returns the number of observations for a variant
func (s *Store) Count(variantID uuid.UUID) int {
	return len(s.byVariant[variantID])
}
