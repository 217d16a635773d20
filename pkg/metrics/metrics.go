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

package metrics

import (
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// 全局 Registry，供 API 注册与暴露
var DefaultRegistry = prometheus.NewRegistry()

func init() {
	DefaultRegistry.MustRegister(
		RunDuration, RunTotal,
		StageDuration,
		ToolDuration, ToolProvenanceTotal,
		ExpertTimeoutTotal,
		CompactionTotal,
	)
}

// RunDuration 完整分析 run 的耗时（秒）
var RunDuration = prometheus.NewHistogram(
	prometheus.HistogramOpts{
		Name:    "ecoforge_run_duration_seconds",
		Help:    "完整分析 run 的耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
)

// RunTotal run 总数（按状态）
var RunTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ecoforge_run_total",
		Help: "run 总数（按状态）",
	},
	[]string{"status"}, // completed | rejected | failed | cancelled
)

// StageDuration 各 pipeline 阶段耗时（秒）
var StageDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "ecoforge_stage_duration_seconds",
		Help:    "pipeline 阶段耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"stage"}, // supervisor | experts | synthesizer | refiner | evaluator
)

// ToolDuration 外部数据调用耗时（秒）
var ToolDuration = prometheus.NewHistogramVec(
	prometheus.HistogramOpts{
		Name:    "ecoforge_tool_duration_seconds",
		Help:    "外部数据调用耗时（秒）",
		Buckets: prometheus.DefBuckets,
	},
	[]string{"kind"}, // carbon_factor | search | weather | grid_intensity
)

// ToolProvenanceTotal 数据调用总数（按 kind 与 provenance）
var ToolProvenanceTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ecoforge_tool_provenance_total",
		Help: "数据调用总数（按 kind 与 provenance）",
	},
	[]string{"kind", "provenance"}, // provenance: real | mock
)

// ExpertTimeoutTotal 领域专家超时/失败次数（按 domain）
var ExpertTimeoutTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ecoforge_expert_degraded_total",
		Help: "领域专家超时或失败而被降级的次数",
	},
	[]string{"domain"},
)

// CompactionTotal compaction 次数（按结果）
var CompactionTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "ecoforge_memory_compaction_total",
		Help: "会话记忆 compaction 次数（按结果）",
	},
	[]string{"outcome"}, // ok | skipped
)

// WritePrometheus 将 Prometheus 文本格式写入 w（供 Hertz 等复用）
func WritePrometheus(w io.Writer) error {
	metrics, err := DefaultRegistry.Gather()
	if err != nil {
		return err
	}
	enc := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, mf := range metrics {
		if err := enc.Encode(mf); err != nil {
			return err
		}
	}
	return nil
}
