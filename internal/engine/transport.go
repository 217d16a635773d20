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
	"time"

	"ecoforge/internal/domain"
	"ecoforge/internal/tooladapter"
)

const milesToKm = 1.60934

// TransportExpert 通勤与出行分析
type TransportExpert struct{}

func (e *TransportExpert) Domain() domain.Domain { return domain.DomainTransport }

func (e *TransportExpert) Analyze(ctx context.Context, in ExpertInput) (domain.DomainFinding, error) {
	text := in.Description.Text
	var assumptions []string
	prov := domain.ProvenanceReal

	drives := mentions(text, "drive", "drives", "driving", "drove", "car", "cars", "suv", "commute", "commuting", "vehicle") &&
		!negated(text, "drive")
	flies := mentions(text, "fly", "flying", "flight", "flights", "plane") &&
		!negated(text, "fly") && !negated(text, "flights") && !negated(text, "flying")

	mode := "car_gasoline"
	switch {
	case mentions(text, "electric") && drives:
		mode = "car_electric"
	case mentions(text, "diesel"):
		mode = "car_diesel"
	case mentions(text, "suv"):
		mode = "suv_gasoline"
	case mentions(text, "motorcycle"):
		mode = "motorcycle"
	}
	if mode == "car_gasoline" && drives {
		assumptions = append(assumptions, "assumed a gasoline car, fuel type not stated")
	}

	dailyKm := 0.0
	if drives {
		if v, unit, ok := extractQuantity(text, "miles", "mile", "mi"); ok {
			dailyKm = v * milesToKm
			assumptions = append(assumptions, assumption("interpreted %.0f %s as daily driving distance", v, unit))
		} else if v, _, ok := extractQuantity(text, "km", "kilometers", "kilometres"); ok {
			dailyKm = v
			assumptions = append(assumptions, assumption("interpreted %.0f km as daily driving distance", v))
		} else {
			dailyKm = 30
			assumptions = append(assumptions, "no distance stated, assumed 30 km of driving per day")
		}
	}

	var footprint float64
	var candidates []domain.Recommendation

	if drives {
		carFactor := in.Tools.Fetch(ctx, tooladapter.KindCarbonFactor,
			map[string]any{"category": "transport", "activity": mode})
		trainFactor := in.Tools.Fetch(ctx, tooladapter.KindCarbonFactor,
			map[string]any{"category": "transport", "activity": "train"})
		evFactor := in.Tools.Fetch(ctx, tooladapter.KindCarbonFactor,
			map[string]any{"category": "transport", "activity": "car_electric"})
		prov = prov.Merge(carFactor.Provenance).Merge(trainFactor.Provenance).Merge(evFactor.Provenance)

		annualKm := dailyKm * 365
		driveKg := annualKm * carFactor.Number
		footprint += driveKg

		if trainFactor.Number < carFactor.Number {
			candidates = append(candidates, domain.Recommendation{
				Text:           "Switch your regular commute to train",
				EstReductionKg: annualKm * (carFactor.Number - trainFactor.Number),
				DifficultyRank: 3,
				CostRank:       1,
				ExclusionKey:   "commute_mode",
			})
		}
		if mode != "car_electric" && evFactor.Number < carFactor.Number {
			candidates = append(candidates, domain.Recommendation{
				Text:           "Replace your car with an electric vehicle",
				EstReductionKg: annualKm * (carFactor.Number - evFactor.Number),
				DifficultyRank: 4,
				CostRank:       5,
				ExclusionKey:   "commute_mode",
			})
		}
		candidates = append(candidates, domain.Recommendation{
			Text:           "Carpool two days a week",
			EstReductionKg: driveKg * 2.0 / 7.0 / 2.0,
			DifficultyRank: 2,
			CostRank:       1,
			ExclusionKey:   "commute_mode",
		})
	}

	if flies {
		planeFactor := in.Tools.Fetch(ctx, tooladapter.KindCarbonFactor,
			map[string]any{"category": "transport", "activity": "plane_domestic"})
		prov = prov.Merge(planeFactor.Provenance)
		const assumedFlights, assumedKmPerFlight = 4.0, 1000.0
		flightKg := assumedFlights * assumedKmPerFlight * planeFactor.Number
		footprint += flightKg
		assumptions = append(assumptions, "assumed 4 domestic flights of ~1000 km per year")
		candidates = append(candidates, domain.Recommendation{
			Text:           "Replace short-haul flights with train trips",
			EstReductionKg: flightKg * 0.8,
			DifficultyRank: 3,
			CostRank:       2,
			ExclusionKey:   "flight_habit",
		})
	}

	if !drives && !flies {
		// 已经主要靠公共交通或骑行；给一个小基线和轻量建议
		busFactor := in.Tools.Fetch(ctx, tooladapter.KindCarbonFactor,
			map[string]any{"category": "transport", "activity": "bus"})
		prov = prov.Merge(busFactor.Provenance)
		footprint = 10 * 365 * busFactor.Number
		assumptions = append(assumptions, "no car or flights stated, assumed 10 km of public transit per day")
		candidates = append(candidates, domain.Recommendation{
			Text:           "Cycle trips under 5 km instead of taking the bus",
			EstReductionKg: footprint * 0.3,
			DifficultyRank: 2,
			CostRank:       1,
		})
	}

	return domain.DomainFinding{
		Domain:      domain.DomainTransport,
		Footprint:   domain.CO2e{Value: footprint, Unit: "kg"},
		Candidates:  candidates,
		Provenance:  prov,
		Assumptions: assumptions,
		ProducedAt:  time.Now(),
	}, nil
}
