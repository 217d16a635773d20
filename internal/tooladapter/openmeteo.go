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

// OpenMeteoProvider 天气 provider（供暖/制冷负荷估算输入；无需 API key）
type OpenMeteoProvider struct {
	client *resty.Client
}

// NewOpenMeteoProvider 创建 weather provider
func NewOpenMeteoProvider(baseURL string) *OpenMeteoProvider {
	if baseURL == "" {
		baseURL = "https://api.open-meteo.com"
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second)
	return &OpenMeteoProvider{client: client}
}

type openMeteoResponse struct {
	Current struct {
		Temperature float64 `json:"temperature_2m"`
	} `json:"current"`
}

// countryCoords 国家代码 → 代表坐标（首都）；引擎只携带国家一级的位置信息
var countryCoords = map[string][2]float64{
	"JP": {35.6762, 139.6503},
	"US": {38.9072, -77.0369},
	"GB": {51.5074, -0.1278},
	"DE": {52.5200, 13.4050},
	"FR": {48.8566, 2.3522},
}

// Fetch 实现 Provider；params: latitude/longitude，或 country（按首都坐标折算）。
// 两者都没有时回退到 US 坐标，与电网强度的默认口径一致。
func (p *OpenMeteoProvider) Fetch(ctx context.Context, params map[string]any) (Value, error) {
	lat, lok := floatParam(params, "latitude")
	lon, gok := floatParam(params, "longitude")
	if !lok || !gok {
		country := strings.ToUpper(stringParam(params, "country", "US"))
		coords, ok := countryCoords[country]
		if !ok {
			coords = countryCoords["US"]
		}
		lat, lon = coords[0], coords[1]
	}

	var out openMeteoResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"latitude":  fmt.Sprintf("%.4f", lat),
			"longitude": fmt.Sprintf("%.4f", lon),
			"current":   "temperature_2m",
		}).
		SetResult(&out).
		Get("/v1/forecast")
	if err != nil {
		return Value{}, fmt.Errorf("open-meteo: request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return Value{}, fmt.Errorf("open-meteo: status %d", resp.StatusCode())
	}

	return Value{
		Number: out.Current.Temperature,
		Unit:   "celsius",
		Detail: map[string]any{"latitude": lat, "longitude": lon},
	}, nil
}

func floatParam(params map[string]any, key string) (float64, bool) {
	if params == nil {
		return 0, false
	}
	switch v := params[key].(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	}
	return 0, false
}
