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

package domain

import "strings"

// LifestyleDescription 用户自由文本生活描述；提交后不可变
type LifestyleDescription struct {
	SessionID string `json:"session_id"`
	Text      string `json:"text"`
}

// Empty 文本为空或全空白
func (l LifestyleDescription) Empty() bool {
	return strings.TrimSpace(l.Text) == ""
}

// Constraints 用户声明的可行性约束（Refiner 使用）
type Constraints struct {
	// CostCeiling 可接受的最高 cost rank（1-5）；0 表示不限
	CostCeiling int `json:"cost_ceiling,omitempty"`
	// ChangeTolerance 可接受的最高 difficulty rank（1-5）；0 表示不限
	ChangeTolerance int `json:"change_tolerance,omitempty"`
}

// Unconstrained 无任何约束
func (c Constraints) Unconstrained() bool {
	return c.CostCeiling <= 0 && c.ChangeTolerance <= 0
}
