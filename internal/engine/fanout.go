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
	"sync"
	"time"

	"ecoforge/internal/domain"
	"ecoforge/internal/observability"
)

// dispatchExperts 并发执行选中领域的专家，显式屏障等全部结束后才返回（不做部分 fan-in）。
// 单个专家超时或失败替换为降级 finding，run 继续。
// 返回的 findings 数量恒等于请求的领域数，顺序与 domains 一致。
func dispatchExperts(
	ctx context.Context,
	experts map[domain.Domain]Expert,
	domains []domain.Domain,
	in ExpertInput,
	timeout time.Duration,
	emitter *observability.Emitter,
) []domain.DomainFinding {
	findings := make([]domain.DomainFinding, len(domains))
	var wg sync.WaitGroup
	for i, d := range domains {
		wg.Add(1)
		go func(i int, d domain.Domain) {
			defer wg.Done()
			findings[i] = runExpert(ctx, experts[d], d, in, timeout, emitter)
		}(i, d)
	}
	wg.Wait()
	return findings
}

// runExpert 带超时执行单个专家；panic、error、超时都转为降级 finding
func runExpert(
	ctx context.Context,
	ex Expert,
	d domain.Domain,
	in ExpertInput,
	timeout time.Duration,
	emitter *observability.Emitter,
) domain.DomainFinding {
	start := time.Now()
	if ex == nil {
		return degraded(d, "no expert registered", start, "error", emitter)
	}

	expertCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type result struct {
		finding domain.DomainFinding
		err     error
	}
	ch := make(chan result, 1)
	go func() {
		defer func() {
			if r := recover(); r != nil {
				ch <- result{err: fmt.Errorf("expert panic: %v", r)}
			}
		}()
		f, err := ex.Analyze(expertCtx, in)
		ch <- result{finding: f, err: err}
	}()

	select {
	case res := <-ch:
		if res.err != nil {
			return degraded(d, res.err.Error(), start, "degraded", emitter)
		}
		emitter.Emit(observability.Event{
			Component:  "expert",
			Operation:  string(d),
			Duration:   time.Since(start),
			Outcome:    "ok",
			Provenance: string(res.finding.Provenance),
			Attrs:      map[string]any{"domain": string(d)},
		})
		return res.finding
	case <-expertCtx.Done():
		return degraded(d, "expert timed out", start, "timeout", emitter)
	}
}

func degraded(d domain.Domain, note string, start time.Time, outcome string, emitter *observability.Emitter) domain.DomainFinding {
	emitter.Emit(observability.Event{
		Component:  "expert",
		Operation:  string(d),
		Duration:   time.Since(start),
		Outcome:    outcome,
		Provenance: string(domain.ProvenanceMock),
		Attrs:      map[string]any{"domain": string(d), "note": note},
	})
	return domain.DegradedFinding(d, note, time.Now())
}
