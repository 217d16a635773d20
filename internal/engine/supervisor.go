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
	"strings"
	"unicode"

	"ecoforge/internal/domain"
)

// domainKeywords 领域触发词；按整词匹配，避免子串误判（如 heating 不应命中 eat）
var domainKeywords = map[domain.Domain][]string{
	domain.DomainHome: {
		"home", "house", "apartment", "flat", "heating", "cooling", "electricity",
		"energy", "solar", "thermostat", "appliance", "appliances", "insulation",
		"aircon", "kwh",
	},
	domain.DomainTransport: {
		"drive", "drives", "driving", "drove", "car", "cars", "commute", "commuting",
		"fly", "flying", "flight", "flights", "plane", "train", "bus", "subway",
		"bike", "biking", "cycle", "cycling", "motorcycle", "suv", "miles", "km",
		"kilometers", "gasoline", "diesel", "vehicle",
	},
	domain.DomainDiet: {
		"eat", "eats", "eating", "meat", "beef", "pork", "chicken", "fish", "dairy",
		"cheese", "milk", "vegetarian", "vegan", "food", "diet", "meal", "meals",
	},
	domain.DomainShopping: {
		"buy", "buys", "buying", "shop", "shopping", "clothes", "clothing",
		"fashion", "electronics", "gadget", "gadgets", "purchase", "purchases",
		"delivery", "deliveries", "packaging", "online",
	},
}

// Supervisor 解析输入并决定哪些领域专家参与本次 run
type Supervisor struct{}

func NewSupervisor() *Supervisor {
	return &Supervisor{}
}

// SelectDomains 从生活描述推断相关领域。至少返回一个领域；
// 一个都推断不出时保守地返回全部四个。返回顺序固定为 home/transport/diet/shopping。
func (s *Supervisor) SelectDomains(desc domain.LifestyleDescription) []domain.Domain {
	words := tokenize(desc.Text)
	var selected []domain.Domain
	for _, d := range domain.AllDomains() {
		for _, kw := range domainKeywords[d] {
			if _, ok := words[kw]; ok {
				selected = append(selected, d)
				break
			}
		}
	}
	if len(selected) == 0 {
		return domain.AllDomains()
	}
	return selected
}

// tokenize 小写整词集合
func tokenize(text string) map[string]struct{} {
	fields := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	out := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		out[f] = struct{}{}
	}
	return out
}
