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
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// GridIntensityProvider 电网碳强度 provider（Electricity Maps 兼容 API）
type GridIntensityProvider struct {
	apiKey string
	client *resty.Client
}

// NewGridIntensityProvider 创建 grid_intensity provider
func NewGridIntensityProvider(apiKey, baseURL string) *GridIntensityProvider {
	if baseURL == "" {
		baseURL = "https://api.electricitymap.org"
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second)
	return &GridIntensityProvider{apiKey: apiKey, client: client}
}

type gridIntensityResponse struct {
	Zone            string  `json:"zone"`
	CarbonIntensity float64 `json:"carbonIntensity"` // gCO2e/kWh
	UpdatedAt       string  `json:"updatedAt"`
}

// Fetch 实现 Provider；params: country（zone 代码）。
// 未指定时回退到 US zone，与 mock 表的默认口径一致。
func (p *GridIntensityProvider) Fetch(ctx context.Context, params map[string]any) (Value, error) {
	if p.apiKey == "" {
		return Value{}, fmt.Errorf("grid-intensity: api key not configured")
	}
	zone := strings.ToUpper(stringParam(params, "country", "US"))

	var out gridIntensityResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetHeader("auth-token", p.apiKey).
		SetQueryParam("zone", zone).
		SetResult(&out).
		Get("/v3/carbon-intensity/latest")
	if err != nil {
		return Value{}, fmt.Errorf("grid-intensity: request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return Value{}, fmt.Errorf("grid-intensity: status %d", resp.StatusCode())
	}

	// 统一为 kgCO2e/kWh，与 mock 表口径一致
	return Value{
		Number: out.CarbonIntensity / 1000,
		Unit:   "kgCO2e/kWh",
		Detail: map[string]any{"zone": out.Zone, "updated_at": out.UpdatedAt},
	}, nil
}
