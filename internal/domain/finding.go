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

// Domain 生活领域标签（封闭集合）
type Domain string

const (
	DomainHome      Domain = "home"
	DomainTransport Domain = "transport"
	DomainDiet      Domain = "diet"
	DomainShopping  Domain = "shopping"
)

// AllDomains 返回全部四个领域（Supervisor 无法推断时的默认选择）
func AllDomains() []Domain {
	return []Domain{DomainHome, DomainTransport, DomainDiet, DomainShopping}
}

// Valid 判断是否为已知领域
func (d Domain) Valid() bool {
	switch d {
	case DomainHome, DomainTransport, DomainDiet, DomainShopping:
		return true
	}
	return false
}

// Provenance 数据来源标记：real=真实 provider，mock=合成回退
type Provenance string

const (
	ProvenanceReal Provenance = "real"
	ProvenanceMock Provenance = "mock"
)

// Merge 二者任一为 mock 则结果为 mock（provenance 沿 pipeline 传播时取保守值）
func (p Provenance) Merge(other Provenance) Provenance {
	if p == ProvenanceMock || other == ProvenanceMock {
		return ProvenanceMock
	}
	return ProvenanceReal
}

// CO2e 带单位的二氧化碳当量
type CO2e struct {
	Value float64 `json:"value"`
	Unit  string  `json:"unit"` // kg | t
}

// Kg 统一换算为 kg
func (c CO2e) Kg() float64 {
	if c.Unit == "t" {
		return c.Value * 1000
	}
	return c.Value
}

// Recommendation 单条减排建议候选
type Recommendation struct {
	Text           string  `json:"text"`
	EstReductionKg float64 `json:"est_reduction_kg"` // 年减排量估计（kg CO2e）
	DifficultyRank int     `json:"difficulty_rank"`  // 1=容易 … 5=很难
	CostRank       int     `json:"cost_rank"`        // 1=低成本 … 5=高成本
	// ExclusionKey 相同 key 的建议互斥（如 transport 领域的出行方式替换）
	ExclusionKey string `json:"exclusion_key,omitempty"`
}

// DomainFinding 单领域分析结果；每 run 每领域恰好一份，产出后不可变
type DomainFinding struct {
	Domain      Domain           `json:"domain"`
	Footprint   CO2e             `json:"footprint"` // 该领域年碳足迹估计
	Candidates  []Recommendation `json:"candidates"`
	Provenance  Provenance       `json:"provenance"`
	Assumptions []string         `json:"assumptions,omitempty"` // mock 数据下的启发式假设说明
	Degraded    bool             `json:"degraded,omitempty"`    // 专家超时/失败时的替代结果
	Note        string           `json:"note,omitempty"`        // 降级原因等说明
	ProducedAt  time.Time        `json:"produced_at"`
}

// DegradedFinding 构造降级 finding：零影响、mock provenance、附错误说明
func DegradedFinding(d Domain, note string, at time.Time) DomainFinding {
	return DomainFinding{
		Domain:     d,
		Footprint:  CO2e{Value: 0, Unit: "kg"},
		Provenance: ProvenanceMock,
		Degraded:   true,
		Note:       note,
		ProducedAt: at,
	}
}
