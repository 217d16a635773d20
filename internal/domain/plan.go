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

package domain

import "time"

// SynergyKind 跨领域交互类型
type SynergyKind string

const (
	SynergyReinforcing SynergyKind = "reinforcing"
	SynergyConflicting SynergyKind = "conflicting"
)

// SynergyRecord 跨领域协同/冲突记录；由 Synthesizer 产出，不可变
type SynergyRecord struct {
	Domains     []Domain    `json:"domains"`
	Kind        SynergyKind `json:"kind"`
	Description string      `json:"description"`
	// Multiplier reinforcing 时对相关建议组合减排量的放大系数（如 1.3）
	Multiplier float64 `json:"multiplier,omitempty"`
	// AdjustedKg 调整后的组合减排量（kg CO2e/年）
	AdjustedKg float64 `json:"adjusted_kg,omitempty"`
}

// PlanItemStatus 计划条目状态（refinement 过程中变化）
type PlanItemStatus string

const (
	ItemActive     PlanItemStatus = "active"
	ItemDownranked PlanItemStatus = "downranked"
	ItemDropped    PlanItemStatus = "dropped"
)

// PlanItem 带优先级的计划条目
type PlanItem struct {
	Domain         Domain         `json:"domain"`
	Recommendation Recommendation `json:"recommendation"`
	// AdjustedKg synergy 调整后的减排量；无调整时等于 EstReductionKg
	AdjustedKg float64        `json:"adjusted_kg"`
	Priority   int            `json:"priority"` // 1 为最高
	Status     PlanItemStatus `json:"status"`
	Provenance Provenance     `json:"provenance"`
}

// ActionPlanCandidate 一次 refinement pass 的产物；每 pass 生成新的不可变版本
type ActionPlanCandidate struct {
	Version   int             `json:"version"` // 0 为 Synthesizer 初版，之后每 pass +1
	Items     []PlanItem      `json:"items"`
	Synergies []SynergyRecord `json:"synergies,omitempty"`
	CreatedAt time.Time       `json:"created_at"`
}

// Clone 深拷贝（refinement 以上一版本为唯一输入，不回写历史版本）
func (c ActionPlanCandidate) Clone() ActionPlanCandidate {
	out := ActionPlanCandidate{Version: c.Version, CreatedAt: c.CreatedAt}
	if len(c.Items) > 0 {
		out.Items = make([]PlanItem, len(c.Items))
		copy(out.Items, c.Items)
	}
	if len(c.Synergies) > 0 {
		out.Synergies = make([]SynergyRecord, len(c.Synergies))
		copy(out.Synergies, c.Synergies)
	}
	return out
}

// ActionPlan 最终产物：终版候选 + EcoScore + 评分说明；由 Evaluator 写入一次
type ActionPlan struct {
	RunID     string              `json:"run_id"`
	SessionID string              `json:"session_id"`
	Final     ActionPlanCandidate `json:"final"`
	EcoScore  float64             `json:"eco_score"` // 0–100
	Rationale string              `json:"rationale"`
	// BaselineKg / ReductionKg 评分输入，便于外部展示
	BaselineKg  float64    `json:"baseline_kg"`
	ReductionKg float64    `json:"reduction_kg"`
	Provenance  Provenance `json:"provenance"`
	CreatedAt   time.Time  `json:"created_at"`
}
