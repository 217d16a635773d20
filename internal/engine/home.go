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

// 国家提示词 → 电网区域代码
var countryHints = map[string]string{
	"japan": "JP", "tokyo": "JP",
	"america": "US", "usa": "US",
	"uk": "GB", "britain": "GB", "london": "GB",
	"germany": "DE", "berlin": "DE",
	"france": "FR", "paris": "FR",
}

// HomeExpert 居住能耗分析
type HomeExpert struct{}

func (e *HomeExpert) Domain() domain.Domain { return domain.DomainHome }

func (e *HomeExpert) Analyze(ctx context.Context, in ExpertInput) (domain.DomainFinding, error) {
	text := in.Description.Text
	var assumptions []string
	prov := domain.ProvenanceReal

	gridParams := map[string]any{}
	lower := strings.ToLower(text)
	for hint, code := range countryHints {
		if strings.Contains(lower, hint) {
			gridParams["country"] = code
			break
		}
	}
	if _, ok := gridParams["country"]; !ok {
		assumptions = append(assumptions, "location not stated, assumed US grid intensity")
	}

	intensity := in.Tools.Fetch(ctx, tooladapter.KindGridIntensity, gridParams)
	weather := in.Tools.Fetch(ctx, tooladapter.KindWeather, gridParams)
	prov = prov.Merge(intensity.Provenance).Merge(weather.Provenance)

	isHouse := mentions(text, "house")
	monthlyKWh := 350.0
	if v, _, ok := extractQuantity(text, "kwh"); ok {
		monthlyKWh = v
		assumptions = append(assumptions, assumption("interpreted %.0f kWh as monthly electricity use", v))
	} else if isHouse {
		monthlyKWh = 500
		assumptions = append(assumptions, "electricity use not stated, assumed 500 kWh/month for a house")
	} else if mentions(text, "apartment", "flat") {
		monthlyKWh = 250
		assumptions = append(assumptions, "electricity use not stated, assumed 250 kWh/month for an apartment")
	} else {
		assumptions = append(assumptions, "electricity use not stated, assumed 350 kWh/month")
	}

	footprint := monthlyKWh * 12 * intensity.Number

	// 供暖占比按气候粗调：年均温低于 10°C 的地区供暖支出权重更高
	heatingShare := 0.05
	if weather.Number > 0 && weather.Number < 10 {
		heatingShare = 0.12
		assumptions = append(assumptions, "cold climate, heating weighted higher in savings estimates")
	}

	var candidates []domain.Recommendation
	if isHouse || mentions(text, "solar") {
		candidates = append(candidates, domain.Recommendation{
			Text:           "Install rooftop solar panels",
			EstReductionKg: footprint * 0.6,
			DifficultyRank: 4,
			CostRank:       5,
			ExclusionKey:   "power_source",
		})
	}
	candidates = append(candidates,
		domain.Recommendation{
			Text:           "Switch to a certified renewable electricity plan",
			EstReductionKg: footprint * 0.5,
			DifficultyRank: 1,
			CostRank:       2,
			ExclusionKey:   "power_source",
		},
		domain.Recommendation{
			Text:           "Cut standby power and move to LED lighting",
			EstReductionKg: footprint * 0.08,
			DifficultyRank: 1,
			CostRank:       1,
		},
		domain.Recommendation{
			Text:           "Lower the thermostat by one degree in winter",
			EstReductionKg: footprint * heatingShare,
			DifficultyRank: 1,
			CostRank:       1,
		},
	)

	return domain.DomainFinding{
		Domain:      domain.DomainHome,
		Footprint:   domain.CO2e{Value: footprint, Unit: "kg"},
		Candidates:  candidates,
		Provenance:  prov,
		Assumptions: assumptions,
		ProducedAt:  time.Now(),
	}, nil
}
