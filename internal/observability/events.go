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

package observability

import (
	"time"

	"ecoforge/pkg/log"
	"ecoforge/pkg/metrics"
)

// Event 结构化观测事件；由外部 collector 消费，pipeline 逻辑不读取
type Event struct {
	Component  string         `json:"component"` // tool_adapter | supervisor | expert | synthesizer | refiner | evaluator | memory
	Operation  string         `json:"operation"`
	Duration   time.Duration  `json:"duration"`
	Outcome    string         `json:"outcome"`              // ok | degraded | timeout | skipped | error
	Provenance string         `json:"provenance,omitempty"` // real | mock（数据类事件）
	Attrs      map[string]any `json:"attrs,omitempty"`
}

// Emitter 事件出口：写结构化日志并更新 Prometheus 指标
type Emitter struct {
	logger *log.Logger
}

// NewEmitter 创建 Emitter；logger 为 nil 时事件仅计入指标
func NewEmitter(logger *log.Logger) *Emitter {
	return &Emitter{logger: logger}
}

// Emit 发出一条事件
func (e *Emitter) Emit(ev Event) {
	if e == nil {
		return
	}
	e.record(ev)
	if e.logger == nil {
		return
	}
	args := []any{
		"component", ev.Component,
		"operation", ev.Operation,
		"duration_ms", ev.Duration.Milliseconds(),
		"outcome", ev.Outcome,
	}
	if ev.Provenance != "" {
		args = append(args, "provenance", ev.Provenance)
	}
	for k, v := range ev.Attrs {
		args = append(args, k, v)
	}
	if ev.Outcome == "error" || ev.Outcome == "timeout" {
		e.logger.Warn("event", args...)
		return
	}
	e.logger.Info("event", args...)
}

func (e *Emitter) record(ev Event) {
	switch ev.Component {
	case "tool_adapter":
		kind, _ := ev.Attrs["kind"].(string)
		if kind == "" {
			kind = ev.Operation
		}
		metrics.ToolDuration.WithLabelValues(kind).Observe(ev.Duration.Seconds())
		if ev.Provenance != "" {
			metrics.ToolProvenanceTotal.WithLabelValues(kind, ev.Provenance).Inc()
		}
	case "expert":
		if ev.Outcome == "timeout" || ev.Outcome == "degraded" {
			if d, ok := ev.Attrs["domain"].(string); ok {
				metrics.ExpertTimeoutTotal.WithLabelValues(d).Inc()
			}
		}
	case "memory":
		if ev.Operation == "compact" {
			metrics.CompactionTotal.WithLabelValues(ev.Outcome).Inc()
		}
	}
	switch ev.Component {
	case "supervisor", "experts", "synthesizer", "refiner", "evaluator":
		metrics.StageDuration.WithLabelValues(ev.Component).Observe(ev.Duration.Seconds())
	}
}
