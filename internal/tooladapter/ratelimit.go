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
	"sync"

	"golang.org/x/time/rate"
)

// rateLimiters 按 kind 维度的限流器集合；未配置的 kind 不限流
type rateLimiters struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
}

func newRateLimiters() *rateLimiters {
	return &rateLimiters{limiters: make(map[string]*rate.Limiter)}
}

func (r *rateLimiters) set(key string, qps float64, burst int) {
	if qps <= 0 {
		return
	}
	if burst <= 0 {
		burst = 1
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.limiters[key] = rate.NewLimiter(rate.Limit(qps), burst)
}

// wait 阻塞到允许执行或 ctx 取消
func (r *rateLimiters) wait(ctx context.Context, key string) error {
	r.mu.RLock()
	l := r.limiters[key]
	r.mu.RUnlock()
	if l == nil {
		return nil
	}
	return l.Wait(ctx)
}
