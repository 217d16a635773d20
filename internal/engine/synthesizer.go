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
	"sort"
	"strings"
	"time"

	"ecoforge/internal/domain"
)

// 跨领域强化系数：两项建议同时采纳时组合减排量的放大倍数
const (
	synergySolarEV        = 1.5 // 家庭光伏 + 电动车：自发电充电
	synergyDietShopping   = 1.3 // 饮食 + 消费：包装与食品浪费重叠
	synergyTransportShops = 1.4 // 出行 + 消费：少开车与少收快递重叠
)

// Synthesizer 合并领域 findings，检测跨领域协同与冲突，产出初版候选计划（Version 0）。
// 整个过程确定性：相同输入必然产生相同输出。
type Synthesizer struct{}

func NewSynthesizer() *Synthesizer {
	return &Synthesizer{}
}

// Synthesize 产出初版 ActionPlanCandidate。
// 冲突（相同 ExclusionKey 的互斥建议）只保留影响最大的一条；
// 强化对按固定顺序施加系数。SynergyRecord 只引用本次 findings 中出现的领域。
func (s *Synthesizer) Synthesize(findings []domain.DomainFinding) domain.ActionPlanCandidate {
	var items []domain.PlanItem
	for _, f := range findings {
		for _, rec := range f.Candidates {
			items = append(items, domain.PlanItem{
				Domain:         f.Domain,
				Recommendation: rec,
				AdjustedKg:     rec.EstReductionKg,
				Status:         domain.ItemActive,
				Provenance:     f.Provenance,
			})
		}
	}

	synergies := resolveConflicts(items)
	synergies = append(synergies, applySynergies(items)...)

	// 初版即采用精炼排序，无约束时 Refiner 一个 pass 即可确认不动点
	sortRefined(items)
	assignPriorities(items)

	return domain.ActionPlanCandidate{
		Version:   0,
		Items:     items,
		Synergies: synergies,
		CreatedAt: time.Now(),
	}
}

// resolveConflicts 相同 ExclusionKey 的建议互斥：保留 EstReductionKg 最大的一条
// （并列时取建议文本字典序靠前者），其余标记 dropped
func resolveConflicts(items []domain.PlanItem) []domain.SynergyRecord {
	groups := make(map[string][]int)
	var keys []string
	for i, it := range items {
		key := it.Recommendation.ExclusionKey
		if key == "" {
			continue
		}
		if _, seen := groups[key]; !seen {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], i)
	}
	sort.Strings(keys)

	var records []domain.SynergyRecord
	for _, key := range keys {
		idxs := groups[key]
		if len(idxs) < 2 {
			continue
		}
		best := idxs[0]
		for _, i := range idxs[1:] {
			if items[i].Recommendation.EstReductionKg > items[best].Recommendation.EstReductionKg ||
				(items[i].Recommendation.EstReductionKg == items[best].Recommendation.EstReductionKg &&
					items[i].Recommendation.Text < items[best].Recommendation.Text) {
				best = i
			}
		}
		domainSet := map[domain.Domain]struct{}{}
		for _, i := range idxs {
			domainSet[items[i].Domain] = struct{}{}
			if i != best {
				items[i].Status = domain.ItemDropped
			}
		}
		records = append(records, domain.SynergyRecord{
			Domains: sortedDomains(domainSet),
			Kind:    domain.SynergyConflicting,
			Description: fmt.Sprintf("mutually exclusive options for %s, kept %q",
				key, items[best].Recommendation.Text),
			AdjustedKg: items[best].Recommendation.EstReductionKg,
		})
	}
	return records
}

// applySynergies 固定顺序检测强化对，对参与项的 AdjustedKg 施加系数
func applySynergies(items []domain.PlanItem) []domain.SynergyRecord {
	var records []domain.SynergyRecord

	// 光伏 + 电动车
	solar := findActive(items, domain.DomainHome, "solar")
	ev := findActive(items, domain.DomainTransport, "electric vehicle")
	if solar >= 0 && ev >= 0 {
		records = append(records, boost(items, solar, ev, synergySolarEV,
			"rooftop solar can charge the electric vehicle, compounding both savings"))
	}

	// 饮食 + 消费
	diet := topActive(items, domain.DomainDiet)
	shop := topActive(items, domain.DomainShopping)
	if diet >= 0 && shop >= 0 {
		records = append(records, boost(items, diet, shop, synergyDietShopping,
			"lower-impact diet and reduced consumption overlap on packaging and food waste"))
	}

	// 出行 + 消费
	transport := topActive(items, domain.DomainTransport)
	shop = topActive(items, domain.DomainShopping)
	if transport >= 0 && shop >= 0 {
		records = append(records, boost(items, transport, shop, synergyTransportShops,
			"fewer shopping trips reinforce the reduced-driving habit"))
	}
	return records
}

func boost(items []domain.PlanItem, a, b int, multiplier float64, desc string) domain.SynergyRecord {
	items[a].AdjustedKg *= multiplier
	items[b].AdjustedKg *= multiplier
	return domain.SynergyRecord{
		Domains:     []domain.Domain{items[a].Domain, items[b].Domain},
		Kind:        domain.SynergyReinforcing,
		Description: desc,
		Multiplier:  multiplier,
		AdjustedKg:  items[a].AdjustedKg + items[b].AdjustedKg,
	}
}

// findActive 指定领域中建议文本含关键词的首个 active 项
func findActive(items []domain.PlanItem, d domain.Domain, keyword string) int {
	for i, it := range items {
		if it.Domain == d && it.Status == domain.ItemActive &&
			strings.Contains(strings.ToLower(it.Recommendation.Text), keyword) {
			return i
		}
	}
	return -1
}

// topActive 指定领域中 AdjustedKg 最大的 active 项（并列取文本字典序靠前者）
func topActive(items []domain.PlanItem, d domain.Domain) int {
	best := -1
	for i, it := range items {
		if it.Domain != d || it.Status != domain.ItemActive {
			continue
		}
		if best < 0 || it.AdjustedKg > items[best].AdjustedKg ||
			(it.AdjustedKg == items[best].AdjustedKg && it.Recommendation.Text < items[best].Recommendation.Text) {
			best = i
		}
	}
	return best
}

// assignPriorities active/downranked 项按序获得 1..n 的优先级，dropped 为 0
func assignPriorities(items []domain.PlanItem) {
	p := 1
	for i := range items {
		if items[i].Status == domain.ItemDropped {
			items[i].Priority = 0
			continue
		}
		items[i].Priority = p
		p++
	}
}

func sortedDomains(set map[domain.Domain]struct{}) []domain.Domain {
	var out []domain.Domain
	for _, d := range domain.AllDomains() {
		if _, ok := set[d]; ok {
			out = append(out, d)
		}
	}
	return out
}
