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

	"ecoforge/internal/observability"
	"ecoforge/pkg/config"
	"ecoforge/pkg/secrets"
)

// NewAdapterFromConfig 按配置装配 Adapter：解析各 provider 的 API key（配置直给或 secrets 查询）、
// 缓存与限流。key 缺失的 provider 不注册，对应 kind 自动走 mock 回退
func NewAdapterFromConfig(ctx context.Context, cfg config.ToolsConfig, secretStore secrets.Store, emitter *observability.Emitter) (*Adapter, error) {
	opts := []Option{WithTimeout(cfg.TimeoutDuration())}

	cacheStore, err := NewCache(cfg.Cache)
	if err != nil {
		return nil, err
	}
	if cacheStore != nil {
		opts = append(opts, WithCache(cacheStore, cfg.Cache.TTLDuration()))
	}

	for name, pc := range cfg.Providers {
		kind := Kind(name)
		apiKey := resolveKey(ctx, pc, secretStore)
		var p Provider
		switch kind {
		case KindCarbonFactor:
			if apiKey != "" {
				p = NewClimatiqProvider(apiKey, pc.BaseURL)
			}
		case KindSearch:
			if apiKey != "" {
				p = NewTavilyProvider(apiKey, pc.BaseURL)
			}
		case KindWeather:
			p = NewOpenMeteoProvider(pc.BaseURL)
		case KindGridIntensity:
			if apiKey != "" {
				p = NewGridIntensityProvider(apiKey, pc.BaseURL)
			}
		default:
			continue
		}
		if p != nil {
			opts = append(opts, WithProvider(kind, p))
		}
		if pc.QPS > 0 {
			opts = append(opts, WithRateLimit(kind, pc.QPS, pc.Burst))
		}
	}

	return NewAdapter(emitter, opts...), nil
}

func resolveKey(ctx context.Context, pc config.ProviderConfig, store secrets.Store) string {
	if pc.APIKey != "" {
		return pc.APIKey
	}
	if pc.SecretKey != "" && store != nil {
		if v, err := store.Get(ctx, pc.SecretKey); err == nil {
			return v
		}
	}
	return ""
}
