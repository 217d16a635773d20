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

package tooladapter

import (
	"context"
	"fmt"
	"sort"
	"time"

	"ecoforge/internal/domain"
	"ecoforge/internal/observability"
	"ecoforge/pkg/tracing"
)

// Kind 数据请求类型（封闭集合）
type Kind string

const (
	KindCarbonFactor  Kind = "carbon_factor"
	KindSearch        Kind = "search"
	KindWeather       Kind = "weather"
	KindGridIntensity Kind = "grid_intensity"
)

// Value 一次 fetch 的结果；调用方无论 provenance 为何都可继续执行
type Value struct {
	Kind       Kind              `json:"kind"`
	Number     float64           `json:"number,omitempty"` // 数值结果（排放因子、强度等）
	Unit       string            `json:"unit,omitempty"`
	Text       string            `json:"text,omitempty"` // 文本结果（search 摘要等）
	Detail     map[string]any    `json:"detail,omitempty"`
	Provenance domain.Provenance `json:"provenance"`
	Latency    time.Duration     `json:"latency"`
}

// Provider 单类数据源的上游实现（HTTP client 等）
type Provider interface {
	// Fetch 成功返回真实值；任何失败返回 error，由 Adapter 转为 mock 回退
	Fetch(ctx context.Context, params map[string]any) (Value, error)
}

// Adapter 外部数据统一入口：真实 provider + 确定性 mock 回退
// provider 缺失、超时或出错一律降级为 mock，绝不向调用方返回 error
type Adapter struct {
	providers map[Kind]Provider
	mock      *MockSource
	cache     CacheStore
	cacheTTL  time.Duration
	limiters  *rateLimiters
	timeout   time.Duration
	emitter   *observability.Emitter
}

// Option Adapter 可选配置
type Option func(*Adapter)

// WithProvider 注册某 kind 的真实 provider
func WithProvider(kind Kind, p Provider) Option {
	return func(a *Adapter) { a.providers[kind] = p }
}

// WithCache 启用响应缓存
func WithCache(store CacheStore, ttl time.Duration) Option {
	return func(a *Adapter) {
		a.cache = store
		a.cacheTTL = ttl
	}
}

// WithRateLimit 设置某 kind 的限流
func WithRateLimit(kind Kind, qps float64, burst int) Option {
	return func(a *Adapter) { a.limiters.set(string(kind), qps, burst) }
}

// WithTimeout 设置单次 provider 调用超时
func WithTimeout(d time.Duration) Option {
	return func(a *Adapter) {
		if d > 0 {
			a.timeout = d
		}
	}
}

// NewAdapter 创建 Adapter；emitter 可为 nil
func NewAdapter(emitter *observability.Emitter, opts ...Option) *Adapter {
	a := &Adapter{
		providers: make(map[Kind]Provider),
		mock:      NewMockSource(),
		limiters:  newRateLimiters(),
		timeout:   3 * time.Second,
		emitter:   emitter,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Fetch 获取数据；永不返回 error。provider 不可用时返回带 mock provenance 的合成值
func (a *Adapter) Fetch(ctx context.Context, kind Kind, params map[string]any) Value {
	start := time.Now()
	ctx, span := tracing.StartToolSpan(ctx, string(kind))
	defer span.End()

	if a.cache != nil {
		var cached Value
		if err := a.cache.Get(ctx, cacheKey(kind, params), &cached); err == nil {
			cached.Latency = time.Since(start)
			a.emit(kind, cached.Latency, "ok", cached.Provenance, true)
			return cached
		}
	}

	provider, ok := a.providers[kind]
	if !ok {
		return a.fallback(ctx, kind, params, start, "unconfigured")
	}
	if err := a.limiters.wait(ctx, string(kind)); err != nil {
		return a.fallback(ctx, kind, params, start, "rate_limited")
	}

	callCtx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()
	v, err := provider.Fetch(callCtx, params)
	if err != nil {
		return a.fallback(ctx, kind, params, start, "provider_error")
	}

	v.Kind = kind
	v.Provenance = domain.ProvenanceReal
	v.Latency = time.Since(start)
	if a.cache != nil {
		_ = a.cache.Set(ctx, cacheKey(kind, params), v, a.cacheTTL)
	}
	a.emit(kind, v.Latency, "ok", v.Provenance, false)
	return v
}

func (a *Adapter) fallback(ctx context.Context, kind Kind, params map[string]any, start time.Time, reason string) Value {
	v := a.mock.Value(kind, params)
	v.Latency = time.Since(start)
	a.emit(kind, v.Latency, reason, v.Provenance, false)
	return v
}

func (a *Adapter) emit(kind Kind, latency time.Duration, outcome string, prov domain.Provenance, cached bool) {
	a.emitter.Emit(observability.Event{
		Component:  "tool_adapter",
		Operation:  "fetch",
		Duration:   latency,
		Outcome:    outcome,
		Provenance: string(prov),
		Attrs:      map[string]any{"kind": string(kind), "cached": cached},
	})
}

// cacheKey 参数序规范化后的缓存 key
func cacheKey(kind Kind, params map[string]any) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	key := "tool:" + string(kind)
	for _, k := range keys {
		key += fmt.Sprintf(":%s=%v", k, params[k])
	}
	return key
}
