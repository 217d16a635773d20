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

// ClimatiqProvider 碳排放因子 provider（Climatiq 兼容 API）
type ClimatiqProvider struct {
	apiKey  string
	baseURL string
	client  *resty.Client
}

// NewClimatiqProvider 创建 carbon_factor provider；apiKey 为空时由 Adapter 走 mock
func NewClimatiqProvider(apiKey, baseURL string) *ClimatiqProvider {
	if baseURL == "" {
		baseURL = "https://api.climatiq.io"
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetHeader("Content-Type", "application/json")
	return &ClimatiqProvider{apiKey: apiKey, baseURL: baseURL, client: client}
}

type climatiqEstimateRequest struct {
	EmissionFactor climatiqSelector `json:"emission_factor"`
	Parameters     map[string]any   `json:"parameters"`
}

type climatiqSelector struct {
	ActivityID  string `json:"activity_id"`
	DataVersion string `json:"data_version"`
}

// climatiqActivity 一个引擎词汇到 Climatiq 选择器的映射：activity_id + 单位活动量参数
type climatiqActivity struct {
	id     string
	params map[string]any
}

func perKm(id string) climatiqActivity {
	return climatiqActivity{id: id, params: map[string]any{"distance": 1, "distance_unit": "km"}}
}

func perKg(id string) climatiqActivity {
	return climatiqActivity{id: id, params: map[string]any{"weight": 1, "weight_unit": "kg"}}
}

// climatiqActivities 引擎侧 category/activity 词汇 → Climatiq activity_id。
// 交通按每 km、食品按每 kg、商品按单件典型支出折算，与 mock 表口径一致。
var climatiqActivities = map[string]climatiqActivity{
	"transport/car_gasoline":        perKm("passenger_vehicle-vehicle_type_car-fuel_source_petrol-engine_size_na-vehicle_age_na-vehicle_weight_na"),
	"transport/car_diesel":          perKm("passenger_vehicle-vehicle_type_car-fuel_source_diesel-engine_size_na-vehicle_age_na-vehicle_weight_na"),
	"transport/car_electric":        perKm("passenger_vehicle-vehicle_type_car-fuel_source_bev-engine_size_na-vehicle_age_na-vehicle_weight_na"),
	"transport/suv_gasoline":        perKm("passenger_vehicle-vehicle_type_suv-fuel_source_petrol-engine_size_na-vehicle_age_na-vehicle_weight_na"),
	"transport/luxury_car":          perKm("passenger_vehicle-vehicle_type_luxury_car-fuel_source_petrol-engine_size_na-vehicle_age_na-vehicle_weight_na"),
	"transport/motorcycle":          perKm("passenger_vehicle-vehicle_type_motorcycle-fuel_source_petrol-engine_size_na-vehicle_age_na-vehicle_weight_na"),
	"transport/bus":                 perKm("passenger_vehicle-vehicle_type_bus-fuel_source_na-distance_na-engine_size_na"),
	"transport/train":               perKm("passenger_train-route_type_commuter_rail-fuel_source_na"),
	"transport/plane_domestic":      perKm("passenger_flight-route_type_domestic-aircraft_type_na-distance_na-class_na-rf_included"),
	"transport/plane_international": perKm("passenger_flight-route_type_international-aircraft_type_na-distance_na-class_na-rf_included"),

	"food/beef":       perKg("consumer_goods-type_meat_products_beef"),
	"food/lamb":       perKg("consumer_goods-type_meat_products_lamb"),
	"food/pork":       perKg("consumer_goods-type_meat_products_pork"),
	"food/chicken":    perKg("consumer_goods-type_meat_products_poultry"),
	"food/fish":       perKg("consumer_goods-type_fish_products"),
	"food/cheese":     perKg("consumer_goods-type_dairy_products_cheese"),
	"food/eggs":       perKg("consumer_goods-type_eggs"),
	"food/milk":       perKg("consumer_goods-type_dairy_products_milk"),
	"food/rice":       perKg("consumer_goods-type_rice"),
	"food/wheat":      perKg("consumer_goods-type_grain_products"),
	"food/vegetables": perKg("consumer_goods-type_vegetables"),
	"food/fruits":     perKg("consumer_goods-type_fruits"),
	"food/legumes":    perKg("consumer_goods-type_legumes"),
	"food/nuts":       perKg("consumer_goods-type_nuts"),

	"product/clothing": {
		id:     "consumer_goods-type_clothing",
		params: map[string]any{"money": 50, "money_unit": "usd"},
	},
	"product/electronics": {
		id:     "electronics-type_electronics_nec",
		params: map[string]any{"money": 600, "money_unit": "usd"},
	},
	"product/furniture": {
		id:     "consumer_goods-type_furniture",
		params: map[string]any{"money": 300, "money_unit": "usd"},
	},
	"product/books": {
		id:     "paper_products-type_printed_products",
		params: map[string]any{"money": 15, "money_unit": "usd"},
	},
	"product/appliances": {
		id:     "consumer_goods-type_household_appliances",
		params: map[string]any{"money": 700, "money_unit": "usd"},
	},
}

type climatiqEstimateResponse struct {
	CO2e           float64 `json:"co2e"`
	CO2eUnit       string  `json:"co2e_unit"`
	EmissionFactor struct {
		ActivityID string `json:"activity_id"`
		Source     string `json:"source"`
		Region     string `json:"region"`
	} `json:"emission_factor"`
}

// Fetch 实现 Provider。接受显式 activity_id，或引擎侧的 category/activity 词汇
// （经 climatiqActivities 翻译）；两者都没有才算参数错误。
func (p *ClimatiqProvider) Fetch(ctx context.Context, params map[string]any) (Value, error) {
	if p.apiKey == "" {
		return Value{}, fmt.Errorf("climatiq: api key not configured")
	}
	activityID := stringParam(params, "activity_id", "")
	unitParams, _ := params["parameters"].(map[string]any)
	if activityID == "" {
		category := stringParam(params, "category", "")
		activity := strings.ToLower(stringParam(params, "activity", ""))
		act, ok := climatiqActivities[category+"/"+activity]
		if !ok {
			return Value{}, fmt.Errorf("climatiq: no activity mapping for %s/%s", category, activity)
		}
		activityID = act.id
		if unitParams == nil {
			unitParams = act.params
		}
	}
	if unitParams == nil {
		unitParams = map[string]any{"energy": 1, "energy_unit": "kWh"}
	}

	var out climatiqEstimateResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(p.apiKey).
		SetBody(climatiqEstimateRequest{
			EmissionFactor: climatiqSelector{ActivityID: activityID, DataVersion: "^21"},
			Parameters:     unitParams,
		}).
		SetResult(&out).
		Post("/data/v1/estimate")
	if err != nil {
		return Value{}, fmt.Errorf("climatiq: request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return Value{}, fmt.Errorf("climatiq: status %d: %s", resp.StatusCode(), resp.String())
	}

	return Value{
		Number: out.CO2e,
		Unit:   "kgCO2e",
		Detail: map[string]any{
			"activity_id": out.EmissionFactor.ActivityID,
			"source":      out.EmissionFactor.Source,
			"region":      out.EmissionFactor.Region,
		},
	}, nil
}
