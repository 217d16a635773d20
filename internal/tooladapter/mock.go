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
	"fmt"
	"strings"

	"ecoforge/internal/domain"
)

// 电网排放因子（kg CO2e / kWh），按国家代码
var gridFactors = map[string]float64{
	"JP": 0.518,
	"US": 0.386,
	"GB": 0.254,
	"DE": 0.338,
	"FR": 0.085,
}

const gridFactorDefault = 0.4 // 全球平均

// 交通排放因子（kg CO2e / km）
var transportFactors = map[string]float64{
	"car_gasoline":        0.18,
	"car_diesel":          0.16,
	"car_electric":        0.05,
	"suv_gasoline":        0.25,
	"luxury_car":          0.35,
	"motorcycle":          0.15,
	"bus":                 0.08,
	"train":               0.04,
	"plane_domestic":      0.25,
	"plane_international": 0.20,
}

const transportFactorDefault = 0.18

// 食品排放因子（kg CO2e / kg）
var foodFactors = map[string]float64{
	"beef":       60.0,
	"lamb":       24.0,
	"cheese":     21.0,
	"pork":       7.2,
	"chicken":    6.9,
	"fish":       6.1,
	"eggs":       4.2,
	"milk":       3.2,
	"rice":       2.7,
	"wheat":      1.4,
	"vegetables": 0.4,
	"fruits":     0.3,
	"legumes":    0.7,
	"nuts":       0.3,
}

const foodFactorDefault = 2.0

// 商品生命周期排放（kg CO2e / 件）
var productFactors = map[string]float64{
	"clothing":    25.0,
	"electronics": 300.0,
	"furniture":   90.0,
	"books":       1.0,
	"appliances":  350.0,
}

const productFactorDefault = 15.0

// MockSource 确定性合成数据源：provider 不可用时的回退；
// 同样的输入永远产生同样的输出，便于测试强制全 mock 路径
type MockSource struct{}

// NewMockSource 创建 MockSource
func NewMockSource() *MockSource {
	return &MockSource{}
}

// Value 按 kind 与参数合成一个带 mock provenance 的值
func (m *MockSource) Value(kind Kind, params map[string]any) Value {
	v := Value{Kind: kind, Provenance: domain.ProvenanceMock, Detail: map[string]any{"synthetic": true}}
	switch kind {
	case KindCarbonFactor:
		v.Number, v.Unit = m.carbonFactor(params)
	case KindGridIntensity:
		country := strings.ToUpper(stringParam(params, "country", "US"))
		f, ok := gridFactors[country]
		if !ok {
			f = gridFactorDefault
		}
		v.Number, v.Unit = f, "kgCO2e/kWh"
		v.Detail["country"] = country
	case KindWeather:
		// 固定温带气候画像：供暖/制冷估算的保守默认
		v.Number, v.Unit = 12.0, "celsius_avg"
		v.Detail["heating_degree_days"] = 2800
	case KindSearch:
		q := stringParam(params, "query", "")
		v.Text = fmt.Sprintf("synthetic search result for %q: no live provider configured", q)
	}
	return v
}

func (m *MockSource) carbonFactor(params map[string]any) (float64, string) {
	category := stringParam(params, "category", "")
	activity := strings.ToLower(stringParam(params, "activity", ""))
	switch category {
	case "transport":
		if f, ok := transportFactors[activity]; ok {
			return f, "kgCO2e/km"
		}
		return transportFactorDefault, "kgCO2e/km"
	case "food":
		if f, ok := foodFactors[activity]; ok {
			return f, "kgCO2e/kg"
		}
		return foodFactorDefault, "kgCO2e/kg"
	case "product":
		if f, ok := productFactors[activity]; ok {
			return f, "kgCO2e/item"
		}
		return productFactorDefault, "kgCO2e/item"
	case "electricity":
		country := strings.ToUpper(stringParam(params, "country", "US"))
		if f, ok := gridFactors[country]; ok {
			return f, "kgCO2e/kWh"
		}
		return gridFactorDefault, "kgCO2e/kWh"
	}
	return foodFactorDefault, "kgCO2e"
}

func stringParam(params map[string]any, key, def string) string {
	if params == nil {
		return def
	}
	if s, ok := params[key].(string); ok && s != "" {
		return s
	}
	return def
}
