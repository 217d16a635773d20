// Copyright 2026 fanjia1024
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package engine

import (
	"context"
	"fmt"
	"time"

	"ecoforge/internal/domain"
	"ecoforge/internal/tooladapter"
)

// 每餐肉类的典型分量（kg），启发式估算用
const mealPortionKg = 0.25

// 非肉类饮食的年度基线（kg CO2e）：主食、蔬果、乳制品的粗略合计
const dietBaseKg = 800.0

// DietExpert 饮食结构分析
type DietExpert struct{}

func (e *DietExpert) Domain() domain.Domain { return domain.DomainDiet }

func (e *DietExpert) Analyze(ctx context.Context, in ExpertInput) (domain.DomainFinding, error) {
	text := in.Description.Text
	var assumptions []string
	prov := domain.ProvenanceReal

	if mentions(text, "vegan") {
		vegFactor := in.Tools.Fetch(ctx, tooladapter.KindCarbonFactor,
			map[string]any{"category": "food", "activity": "vegetables"})
		prov = prov.Merge(vegFactor.Provenance)
		footprint := 600.0
		assumptions = append(assumptions, "vegan diet, used a 600 kg/year plant-based baseline")
		return domain.DomainFinding{
			Domain:    domain.DomainDiet,
			Footprint: domain.CO2e{Value: footprint, Unit: "kg"},
			Candidates: []domain.Recommendation{{
				Text:           "Prefer seasonal and locally grown produce",
				EstReductionKg: footprint * 0.1,
				DifficultyRank: 1,
				CostRank:       1,
			}},
			Provenance:  prov,
			Assumptions: assumptions,
			ProducedAt:  time.Now(),
		}, nil
	}

	meat := "beef"
	switch {
	case mentions(text, "beef"):
		meat = "beef"
	case mentions(text, "pork"):
		meat = "pork"
	case mentions(text, "chicken"):
		meat = "chicken"
	case mentions(text, "fish"):
		meat = "fish"
	case mentions(text, "lamb"):
		meat = "lamb"
	default:
		assumptions = append(assumptions, "meat type not stated, assumed beef")
	}

	servingsPerWeek := 4
	if n, ok := extractTimes(text); ok {
		servingsPerWeek = n
		assumptions = append(assumptions, assumption("interpreted %d times as weekly meat meals", n))
	} else if mentions(text, "vegetarian") {
		servingsPerWeek = 0
	} else {
		assumptions = append(assumptions, "meat frequency not stated, assumed 4 meals per week")
	}

	meatFactor := in.Tools.Fetch(ctx, tooladapter.KindCarbonFactor,
		map[string]any{"category": "food", "activity": meat})
	chickenFactor := in.Tools.Fetch(ctx, tooladapter.KindCarbonFactor,
		map[string]any{"category": "food", "activity": "chicken"})
	prov = prov.Merge(meatFactor.Provenance).Merge(chickenFactor.Provenance)

	annualMeatKg := float64(servingsPerWeek) * 52 * mealPortionKg
	footprint := dietBaseKg + annualMeatKg*meatFactor.Number

	var candidates []domain.Recommendation
	if servingsPerWeek > 2 {
		candidates = append(candidates, domain.Recommendation{
			Text:           fmt.Sprintf("Reduce %s meals to two per week", meat),
			EstReductionKg: float64(servingsPerWeek-2) * 52 * mealPortionKg * meatFactor.Number,
			DifficultyRank: 3,
			CostRank:       1,
			ExclusionKey:   "meat_intake",
		})
	}
	if servingsPerWeek > 0 && meatFactor.Number > chickenFactor.Number {
		candidates = append(candidates, domain.Recommendation{
			Text:           fmt.Sprintf("Swap %s for chicken in most meals", meat),
			EstReductionKg: annualMeatKg * (meatFactor.Number - chickenFactor.Number) * 0.8,
			DifficultyRank: 2,
			CostRank:       1,
			ExclusionKey:   "meat_intake",
		})
	}
	if servingsPerWeek > 0 {
		candidates = append(candidates, domain.Recommendation{
			Text:           "Adopt one fully plant-based day per week",
			EstReductionKg: 52 * mealPortionKg * meatFactor.Number,
			DifficultyRank: 1,
			CostRank:       1,
		})
	} else {
		candidates = append(candidates, domain.Recommendation{
			Text:           "Replace part of your dairy with plant-based alternatives",
			EstReductionKg: dietBaseKg * 0.15,
			DifficultyRank: 2,
			CostRank:       1,
		})
	}

	return domain.DomainFinding{
		Domain:      domain.DomainDiet,
		Footprint:   domain.CO2e{Value: footprint, Unit: "kg"},
		Candidates:  candidates,
		Provenance:  prov,
		Assumptions: assumptions,
		ProducedAt:  time.Now(),
	}, nil
}
