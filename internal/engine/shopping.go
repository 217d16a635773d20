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
	"strings"
	"time"

	"ecoforge/internal/domain"
	"ecoforge/internal/tooladapter"
)

// ShoppingExpert 消费习惯分析
type ShoppingExpert struct{}

func (e *ShoppingExpert) Domain() domain.Domain { return domain.DomainShopping }

func (e *ShoppingExpert) Analyze(ctx context.Context, in ExpertInput) (domain.DomainFinding, error) {
	text := in.Description.Text
	var assumptions []string
	prov := domain.ProvenanceReal

	clothingFactor := in.Tools.Fetch(ctx, tooladapter.KindCarbonFactor,
		map[string]any{"category": "product", "activity": "clothing"})
	electronicsFactor := in.Tools.Fetch(ctx, tooladapter.KindCarbonFactor,
		map[string]any{"category": "product", "activity": "electronics"})
	prov = prov.Merge(clothingFactor.Provenance).Merge(electronicsFactor.Provenance)

	// 年新衣数量：高频消费线索 → 36 件，默认 18 件
	clothingPerYear := 18.0
	heavy := mentions(text, "lots", "often", "weekly", "fashion") ||
		(mentions(text, "shopping", "buy", "buying") && mentions(text, "love", "always"))
	if heavy {
		clothingPerYear = 36
		assumptions = append(assumptions, "frequent shopping mentioned, assumed 36 new garments per year")
	} else {
		assumptions = append(assumptions, "purchase volume not stated, assumed 18 new garments per year")
	}

	electronicsPerYear := 1.0
	if mentions(text, "electronics", "gadget", "gadgets", "phone", "laptop") {
		electronicsPerYear = 3
		assumptions = append(assumptions, "gadget interest mentioned, assumed 3 electronics purchases per year")
	}

	clothingKg := clothingPerYear * clothingFactor.Number
	electronicsKg := electronicsPerYear * electronicsFactor.Number
	footprint := clothingKg + electronicsKg

	// 二手渠道的本地可得性检索；无真实 provider 时合成结果不进入假设说明
	availability := in.Tools.Fetch(ctx, tooladapter.KindSearch,
		map[string]any{"query": "second-hand clothing stores and repair services local availability"})
	prov = prov.Merge(availability.Provenance)
	secondHandDifficulty := 2
	if availability.Provenance == domain.ProvenanceReal && availability.Text != "" {
		assumptions = append(assumptions, "local second-hand availability: "+availability.Text)
		lowerAvail := strings.ToLower(availability.Text)
		if strings.Contains(lowerAvail, "limited") || strings.Contains(lowerAvail, "no second-hand") {
			secondHandDifficulty = 3
		}
	} else {
		assumptions = append(assumptions, "local second-hand availability not verified, assumed accessible")
	}

	candidates := []domain.Recommendation{
		{
			Text:           "Buy second-hand clothing instead of new",
			EstReductionKg: clothingKg * 0.6,
			DifficultyRank: secondHandDifficulty,
			CostRank:       1,
			ExclusionKey:   "clothing_source",
		},
		{
			Text:           "Halve the number of new garments you buy",
			EstReductionKg: clothingKg * 0.5,
			DifficultyRank: 3,
			CostRank:       1,
			ExclusionKey:   "clothing_source",
		},
		{
			Text:           "Keep electronics one extra year before upgrading",
			EstReductionKg: electronicsKg * 0.33,
			DifficultyRank: 2,
			CostRank:       1,
		},
		{
			Text:           "Bundle online orders into fewer deliveries",
			EstReductionKg: 30,
			DifficultyRank: 1,
			CostRank:       1,
		},
	}

	return domain.DomainFinding{
		Domain:      domain.DomainShopping,
		Footprint:   domain.CO2e{Value: footprint, Unit: "kg"},
		Candidates:  candidates,
		Provenance:  prov,
		Assumptions: assumptions,
		ProducedAt:  time.Now(),
	}, nil
}
