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
	"fmt"
	"strings"
	"time"

	"ecoforge/internal/domain"
)

// downrankedWeight 降权项按半值计入总减排量
const downrankedWeight = 0.5

// Evaluator 计算 EcoScore 并产出最终 ActionPlan。
//
// EcoScore = 100 × 总减排量 / 基线足迹，截断到 [0, 100]。
// 对减排量单调：任一建议的减排量增加，分数不会下降；
// 消除全部足迹得 100，无可行建议得 0。
type Evaluator struct{}

func NewEvaluator() *Evaluator {
	return &Evaluator{}
}

// Evaluate 写出终版计划；每 run 调用一次
func (e *Evaluator) Evaluate(
	runID, sessionID string,
	findings []domain.DomainFinding,
	final domain.ActionPlanCandidate,
) *domain.ActionPlan {
	baseline := 0.0
	prov := domain.ProvenanceReal
	var degradedDomains []string
	for _, f := range findings {
		baseline += f.Footprint.Kg()
		prov = prov.Merge(f.Provenance)
		if f.Degraded {
			degradedDomains = append(degradedDomains, string(f.Domain))
		}
	}

	reduction := 0.0
	activeCount := 0
	for _, it := range final.Items {
		switch it.Status {
		case domain.ItemActive:
			reduction += it.AdjustedKg
			activeCount++
		case domain.ItemDownranked:
			reduction += it.AdjustedKg * downrankedWeight
		}
	}

	score := 0.0
	if baseline > 0 {
		score = 100 * reduction / baseline
		if score > 100 {
			score = 100
		}
		if score < 0 {
			score = 0
		}
	}

	return &domain.ActionPlan{
		RunID:       runID,
		SessionID:   sessionID,
		Final:       final,
		EcoScore:    score,
		Rationale:   rationale(findings, final, baseline, reduction, activeCount, degradedDomains),
		BaselineKg:  baseline,
		ReductionKg: reduction,
		Provenance:  prov,
		CreatedAt:   time.Now(),
	}
}

func rationale(
	findings []domain.DomainFinding,
	final domain.ActionPlanCandidate,
	baseline, reduction float64,
	activeCount int,
	degradedDomains []string,
) string {
	var domains []string
	mock := false
	for _, f := range findings {
		domains = append(domains, string(f.Domain))
		if f.Provenance == domain.ProvenanceMock {
			mock = true
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Analyzed %s with an estimated baseline of %.0f kg CO2e/year. ",
		strings.Join(domains, ", "), baseline)
	fmt.Fprintf(&b, "%d recommendations cover an estimated %.0f kg CO2e/year of reductions.",
		activeCount, reduction)
	if n := len(final.Synergies); n > 0 {
		fmt.Fprintf(&b, " %d cross-domain interactions were applied.", n)
	}
	if len(degradedDomains) > 0 {
		fmt.Fprintf(&b, " Analysis for %s was degraded and contributes no reductions.",
			strings.Join(degradedDomains, ", "))
	}
	if mock {
		b.WriteString(" Some estimates rely on synthetic fallback data and declared assumptions.")
	}
	return b.String()
}
