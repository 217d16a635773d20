// Copyright 2026 fanjia1024

package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecoforge/internal/domain"
)

func finding(d domain.Domain, footprint float64, recs ...domain.Recommendation) domain.DomainFinding {
	return domain.DomainFinding{
		Domain:     d,
		Footprint:  domain.CO2e{Value: footprint, Unit: "kg"},
		Candidates: recs,
		Provenance: domain.ProvenanceMock,
		ProducedAt: time.Now(),
	}
}

func TestSynthesizeResolvesConflictsKeepingHigherImpact(t *testing.T) {
	f := finding(domain.DomainTransport, 2000,
		domain.Recommendation{Text: "Switch to train", EstReductionKg: 1600, DifficultyRank: 3, CostRank: 1, ExclusionKey: "commute_mode"},
		domain.Recommendation{Text: "Buy an EV", EstReductionKg: 1500, DifficultyRank: 4, CostRank: 5, ExclusionKey: "commute_mode"},
	)
	cand := NewSynthesizer().Synthesize([]domain.DomainFinding{f})

	var active, dropped []domain.PlanItem
	for _, it := range cand.Items {
		if it.Status == domain.ItemDropped {
			dropped = append(dropped, it)
		} else {
			active = append(active, it)
		}
	}
	require.Len(t, active, 1)
	require.Len(t, dropped, 1)
	assert.Equal(t, "Switch to train", active[0].Recommendation.Text)
	assert.Zero(t, dropped[0].Priority)

	require.Len(t, cand.Synergies, 1)
	assert.Equal(t, domain.SynergyConflicting, cand.Synergies[0].Kind)
}

func TestSynthesizeSolarEVSynergy(t *testing.T) {
	home := finding(domain.DomainHome, 1600,
		domain.Recommendation{Text: "Install rooftop solar panels", EstReductionKg: 1000, DifficultyRank: 4, CostRank: 5},
	)
	transport := finding(domain.DomainTransport, 2000,
		domain.Recommendation{Text: "Replace your car with an electric vehicle", EstReductionKg: 1500, DifficultyRank: 4, CostRank: 5},
	)
	cand := NewSynthesizer().Synthesize([]domain.DomainFinding{home, transport})

	require.Len(t, cand.Synergies, 1)
	rec := cand.Synergies[0]
	assert.Equal(t, domain.SynergyReinforcing, rec.Kind)
	assert.InDelta(t, 1.5, rec.Multiplier, 1e-9)
	assert.ElementsMatch(t, []domain.Domain{domain.DomainHome, domain.DomainTransport}, rec.Domains)

	for _, it := range cand.Items {
		switch it.Recommendation.Text {
		case "Install rooftop solar panels":
			assert.InDelta(t, 1500, it.AdjustedKg, 1e-9)
		case "Replace your car with an electric vehicle":
			assert.InDelta(t, 2250, it.AdjustedKg, 1e-9)
		}
	}
}

func TestSynthesizeNoSynergyWithoutPairedDomains(t *testing.T) {
	transport := finding(domain.DomainTransport, 2000,
		domain.Recommendation{Text: "Switch to train", EstReductionKg: 1600, DifficultyRank: 3, CostRank: 1},
	)
	diet := finding(domain.DomainDiet, 4000,
		domain.Recommendation{Text: "Eat less beef", EstReductionKg: 2000, DifficultyRank: 3, CostRank: 1},
	)
	cand := NewSynthesizer().Synthesize([]domain.DomainFinding{transport, diet})
	for _, s := range cand.Synergies {
		assert.NotEqual(t, domain.SynergyReinforcing, s.Kind)
	}
}

func TestSynthesizeDeterministic(t *testing.T) {
	findings := []domain.DomainFinding{
		finding(domain.DomainDiet, 4000,
			domain.Recommendation{Text: "Eat less beef", EstReductionKg: 2000, DifficultyRank: 3, CostRank: 1},
			domain.Recommendation{Text: "One plant-based day", EstReductionKg: 700, DifficultyRank: 1, CostRank: 1},
		),
		finding(domain.DomainShopping, 600,
			domain.Recommendation{Text: "Buy second-hand", EstReductionKg: 300, DifficultyRank: 2, CostRank: 1},
		),
	}
	a := NewSynthesizer().Synthesize(findings)
	b := NewSynthesizer().Synthesize(findings)
	require.Len(t, b.Items, len(a.Items))
	for i := range a.Items {
		assert.Equal(t, a.Items[i].Recommendation.Text, b.Items[i].Recommendation.Text)
		assert.Equal(t, a.Items[i].Priority, b.Items[i].Priority)
		assert.InDelta(t, a.Items[i].AdjustedKg, b.Items[i].AdjustedKg, 1e-9)
	}
}

func TestSynthesizeDegradedFindingContributesNothing(t *testing.T) {
	degraded := domain.DegradedFinding(domain.DomainHome, "expert timed out", time.Now())
	transport := finding(domain.DomainTransport, 2000,
		domain.Recommendation{Text: "Switch to train", EstReductionKg: 1600, DifficultyRank: 3, CostRank: 1},
	)
	cand := NewSynthesizer().Synthesize([]domain.DomainFinding{degraded, transport})
	require.Len(t, cand.Items, 1)
	assert.Equal(t, domain.DomainTransport, cand.Items[0].Domain)
}
