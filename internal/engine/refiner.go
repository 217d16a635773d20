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
	"sort"
	"strings"
	"time"

	"ecoforge/internal/domain"
	"ecoforge/internal/observability"
	"ecoforge/internal/tooladapter"
)

// 电网强度超过该值（kg CO2e/kWh）时电动车建议降权：充电排放吃掉大半收益
const dirtyGridThreshold = 0.5

// Refiner 有界迭代精炼：每 pass 以上一版本为唯一输入产出新的不可变版本，
// 到达不动点或 maxPasses 时终止，绝不无限循环。
type Refiner struct {
	maxPasses int
	tools     *tooladapter.Adapter
	emitter   *observability.Emitter
}

// NewRefiner 创建 Refiner；maxPasses <= 0 时取默认值 3
func NewRefiner(maxPasses int, tools *tooladapter.Adapter, emitter *observability.Emitter) *Refiner {
	if maxPasses <= 0 {
		maxPasses = 3
	}
	return &Refiner{maxPasses: maxPasses, tools: tools, emitter: emitter}
}

// Refine 对初版候选执行精炼循环。返回终版、全部版本历史（含初版）与实际 pass 数。
// 每个 pass 之间是取消检查点；取消时返回 ctx.Err()，已产出的版本历史一并返回。
func (r *Refiner) Refine(
	ctx context.Context,
	initial domain.ActionPlanCandidate,
	cons domain.Constraints,
) (domain.ActionPlanCandidate, []domain.ActionPlanCandidate, int, error) {
	history := []domain.ActionPlanCandidate{initial}
	current := initial

	// 电网强度在整个循环中读取一次，保证各 pass 对同一事实收敛
	gridOK := true
	if r.tools != nil {
		intensity := r.tools.Fetch(ctx, tooladapter.KindGridIntensity, nil)
		gridOK = intensity.Number <= dirtyGridThreshold
	}

	passes := 0
	for passes < r.maxPasses {
		if err := ctx.Err(); err != nil {
			return current, history, passes, err
		}
		start := time.Now()
		next := r.pass(current, cons, gridOK)
		passes++

		changed := !stable(current, next)
		outcome := "converged"
		if changed {
			outcome = "changed"
		}
		r.emitter.Emit(observability.Event{
			Component: "refiner",
			Operation: "pass",
			Duration:  time.Since(start),
			Outcome:   outcome,
			Attrs:     map[string]any{"pass": passes, "version": next.Version},
		})

		if !changed {
			// 不动点：当前版本已稳定，不追加等价版本
			return current, history, passes, nil
		}
		current = next
		history = append(history, next)
	}
	return current, history, passes, nil
}

// pass 单次精炼：约束检查 + 可行性降权 + 重排序
func (r *Refiner) pass(prev domain.ActionPlanCandidate, cons domain.Constraints, gridOK bool) domain.ActionPlanCandidate {
	next := prev.Clone()
	next.Version = prev.Version + 1
	next.CreatedAt = time.Now()

	for i := range next.Items {
		it := &next.Items[i]
		if it.Status == domain.ItemDropped {
			continue
		}
		rec := it.Recommendation
		switch {
		case cons.CostCeiling > 0 && rec.CostRank > cons.CostCeiling:
			it.Status = domain.ItemDropped
		case cons.ChangeTolerance > 0 && rec.DifficultyRank > cons.ChangeTolerance:
			it.Status = domain.ItemDownranked
		case !gridOK && strings.Contains(strings.ToLower(rec.Text), "electric vehicle"):
			it.Status = domain.ItemDownranked
		default:
			it.Status = domain.ItemActive
		}
	}

	sortRefined(next.Items)
	assignPriorities(next.Items)
	return next
}

// sortRefined 精炼排序：active 在前、downranked 居中、dropped 沉底；
// 组内按 impact/difficulty 降序，并列取更低 cost，再并列按建议文本字典序
func sortRefined(items []domain.PlanItem) {
	rank := func(st domain.PlanItemStatus) int {
		switch st {
		case domain.ItemActive:
			return 0
		case domain.ItemDownranked:
			return 1
		default:
			return 2
		}
	}
	score := func(it domain.PlanItem) float64 {
		d := it.Recommendation.DifficultyRank
		if d < 1 {
			d = 1
		}
		return it.AdjustedKg / float64(d)
	}
	sort.SliceStable(items, func(i, j int) bool {
		if ri, rj := rank(items[i].Status), rank(items[j].Status); ri != rj {
			return ri < rj
		}
		if si, sj := score(items[i]), score(items[j]); si != sj {
			return si > sj
		}
		if ci, cj := items[i].Recommendation.CostRank, items[j].Recommendation.CostRank; ci != cj {
			return ci < cj
		}
		return items[i].Recommendation.Text < items[j].Recommendation.Text
	})
}

// stable 两版本在条目顺序、状态与优先级上完全一致（版本号与时间戳不计）
func stable(a, b domain.ActionPlanCandidate) bool {
	if len(a.Items) != len(b.Items) {
		return false
	}
	for i := range a.Items {
		if a.Items[i].Recommendation.Text != b.Items[i].Recommendation.Text ||
			a.Items[i].Status != b.Items[i].Status ||
			a.Items[i].Priority != b.Items[i].Priority {
			return false
		}
	}
	return true
}
