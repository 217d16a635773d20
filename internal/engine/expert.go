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
	"regexp"
	"strconv"
	"strings"

	"ecoforge/internal/domain"
	"ecoforge/internal/tooladapter"
)

// ExpertInput 专家分析的输入；PriorSummary 仅用于个性化措辞，不参与计算
type ExpertInput struct {
	Description  domain.LifestyleDescription
	PriorSummary string
	Tools        *tooladapter.Adapter
}

// Expert 单领域分析器。Analyze 必须总能产出结果：
// 工具数据全为 mock 时退回启发式估计并在 Assumptions 中声明。
// 专家之间相互独立，不读取彼此的中间输出。
type Expert interface {
	Domain() domain.Domain
	Analyze(ctx context.Context, in ExpertInput) (domain.DomainFinding, error)
}

// DefaultExperts 全部四个领域专家
func DefaultExperts() map[domain.Domain]Expert {
	return map[domain.Domain]Expert{
		domain.DomainHome:      &HomeExpert{},
		domain.DomainTransport: &TransportExpert{},
		domain.DomainDiet:      &DietExpert{},
		domain.DomainShopping:  &ShoppingExpert{},
	}
}

var quantityRe = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(miles|mile|mi|kilometers|kilometres|km|kwh)`)

// extractQuantity 匹配 "20 miles" / "300 kwh" 这类数量表达，返回数值与单位
func extractQuantity(text string, units ...string) (float64, string, bool) {
	for _, m := range quantityRe.FindAllStringSubmatch(strings.ToLower(text), -1) {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		for _, u := range units {
			if m[2] == u {
				return v, m[2], true
			}
		}
	}
	return 0, "", false
}

var timesRe = regexp.MustCompile(`(\d+)\s*(?:times|meals|servings)`)

// extractTimes 匹配 "5 times a week" 这类频率表达
func extractTimes(text string) (int, bool) {
	m := timesRe.FindStringSubmatch(strings.ToLower(text))
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

// mentions 文本是否含任一整词
func mentions(text string, kws ...string) bool {
	words := tokenize(text)
	for _, kw := range kws {
		if _, ok := words[kw]; ok {
			return true
		}
	}
	return false
}

// negated 判断动作是否被否定（"never fly"、"don't drive"、"no flights"）
func negated(text, action string) bool {
	lower := strings.ToLower(text)
	for _, neg := range []string{"never ", "don't ", "do not ", "no ", "rarely "} {
		if strings.Contains(lower, neg+action) {
			return true
		}
	}
	return false
}

func assumption(format string, args ...any) string {
	return fmt.Sprintf(format, args...)
}
