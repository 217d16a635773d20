// Copyright 2026 fanjia1024

package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecoforge/internal/domain"
)

func TestEvaluateScoreBoundsAndRationale(t *testing.T) {
	findings := []domain.DomainFinding{
		finding(domain.DomainTransport, 2000,
			domain.Recommendation{Text: "Switch to train", EstReductionKg: 1600, DifficultyRank: 3, CostRank: 1}),
	}
	cand := NewSynthesizer().Synthesize(findings)
	plan := NewEvaluator().Evaluate("run-1", "session-1", findings, cand)

	assert.InDelta(t, 80, plan.EcoScore, 1e-9) // 1600/2000
	assert.Greater(t, plan.EcoScore, 0.0)
	assert.Less(t, plan.EcoScore, 100.0)
	assert.Equal(t, domain.ProvenanceMock, plan.Provenance)
	assert.InDelta(t, 2000, plan.BaselineKg, 1e-9)
	assert.InDelta(t, 1600, plan.ReductionKg, 1e-9)
	assert.NotEmpty(t, plan.Rationale)
}

func TestEvaluateScoreCappedAt100(t *testing.T) {
	findings := []domain.DomainFinding{
		finding(domain.DomainHome, 100,
			domain.Recommendation{Text: "Go off-grid", EstReductionKg: 500, DifficultyRank: 5, CostRank: 5}),
	}
	cand := NewSynthesizer().Synthesize(findings)
	plan := NewEvaluator().Evaluate("run-1", "s", findings, cand)
	assert.InDelta(t, 100, plan.EcoScore, 1e-9)
}

func TestEvaluateZeroBaseline(t *testing.T) {
	findings := []domain.DomainFinding{
		domain.DegradedFinding(domain.DomainHome, "timed out", time.Now()),
	}
	cand := NewSynthesizer().Synthesize(findings)
	plan := NewEvaluator().Evaluate("run-1", "s", findings, cand)
	assert.Zero(t, plan.EcoScore)
	assert.Contains(t, plan.Rationale, "degraded")
}

// EcoScore 单调性：任一 finding 的减排量增加，其余不变，分数不降
func TestEvaluateMonotonicInReduction(t *testing.T) {
	base := func(reduction float64) float64 {
		findings := []domain.DomainFinding{
			finding(domain.DomainTransport, 3000,
				domain.Recommendation{Text: "Switch to train", EstReductionKg: reduction, DifficultyRank: 3, CostRank: 1}),
			finding(domain.DomainDiet, 4000,
				domain.Recommendation{Text: "Eat less beef", EstReductionKg: 2000, DifficultyRank: 3, CostRank: 1}),
		}
		cand := NewSynthesizer().Synthesize(findings)
		return NewEvaluator().Evaluate("run", "s", findings, cand).EcoScore
	}

	prev := base(100)
	for _, r := range []float64{200, 500, 1000, 1500, 2500, 5000, 8000} {
		score := base(r)
		require.GreaterOrEqual(t, score, prev, "reduction %.0f", r)
		prev = score
	}
}

func TestEvaluateDownrankedCountsHalf(t *testing.T) {
	cand := domain.ActionPlanCandidate{Items: []domain.PlanItem{
		{Recommendation: domain.Recommendation{Text: "a"}, AdjustedKg: 1000, Status: domain.ItemActive},
		{Recommendation: domain.Recommendation{Text: "b"}, AdjustedKg: 400, Status: domain.ItemDownranked},
		{Recommendation: domain.Recommendation{Text: "c"}, AdjustedKg: 9999, Status: domain.ItemDropped},
	}}
	findings := []domain.DomainFinding{finding(domain.DomainHome, 2400)}
	plan := NewEvaluator().Evaluate("run", "s", findings, cand)
	assert.InDelta(t, 1200, plan.ReductionKg, 1e-9) // 1000 + 400/2
	assert.InDelta(t, 50, plan.EcoScore, 1e-9)
}
