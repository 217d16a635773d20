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

package api

import (
	"bytes"
	"context"
	stderrors "errors"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/protocol/consts"

	"ecoforge/internal/domain"
	"ecoforge/internal/engine"
	"ecoforge/pkg/errors"
	"ecoforge/pkg/log"
	"ecoforge/pkg/metrics"
)

// Handler HTTP 入口；只做编解码与错误映射，业务全部在 Runner
type Handler struct {
	runner *engine.Runner
	logger *log.Logger
}

func NewHandler(runner *engine.Runner, logger *log.Logger) *Handler {
	return &Handler{runner: runner, logger: logger}
}

type analyzeRequest struct {
	SessionID   string `json:"session_id"`
	Text        string `json:"text"`
	Constraints struct {
		CostCeiling     int `json:"cost_ceiling"`
		ChangeTolerance int `json:"change_tolerance"`
	} `json:"constraints"`
}

// Analyze POST /api/v1/analyze
func (h *Handler) Analyze(c context.Context, ctx *app.RequestContext) {
	var req analyzeRequest
	if err := ctx.BindAndValidate(&req); err != nil {
		ctx.JSON(consts.StatusBadRequest, map[string]any{"error": err.Error()})
		return
	}

	plan, err := h.runner.Analyze(c,
		domain.LifestyleDescription{SessionID: req.SessionID, Text: req.Text},
		domain.Constraints{
			CostCeiling:     req.Constraints.CostCeiling,
			ChangeTolerance: req.Constraints.ChangeTolerance,
		})
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, plan)
}

// SessionPlan GET /api/v1/sessions/:id/plan
func (h *Handler) SessionPlan(c context.Context, ctx *app.RequestContext) {
	plan, err := h.runner.LastPlan(c, ctx.Param("id"))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, plan)
}

// SessionStats GET /api/v1/sessions/:id/stats
func (h *Handler) SessionStats(c context.Context, ctx *app.RequestContext) {
	stats, err := h.runner.SessionStats(c, ctx.Param("id"))
	if err != nil {
		h.writeError(ctx, err)
		return
	}
	ctx.JSON(consts.StatusOK, stats)
}

// Health GET /health
func (h *Handler) Health(_ context.Context, ctx *app.RequestContext) {
	ctx.JSON(consts.StatusOK, map[string]string{"status": "ok"})
}

// Metrics GET /metrics（Prometheus 文本格式）
func (h *Handler) Metrics(_ context.Context, ctx *app.RequestContext) {
	var buf bytes.Buffer
	if err := metrics.WritePrometheus(&buf); err != nil {
		ctx.JSON(consts.StatusInternalServerError, map[string]any{"error": err.Error()})
		return
	}
	ctx.Data(consts.StatusOK, "text/plain; version=0.0.4; charset=utf-8", buf.Bytes())
}

func (h *Handler) writeError(ctx *app.RequestContext, err error) {
	status := consts.StatusInternalServerError
	switch {
	case stderrors.Is(err, errors.ErrInvalidInput):
		status = consts.StatusBadRequest
	case stderrors.Is(err, errors.ErrSessionNotFound):
		status = consts.StatusNotFound
	case stderrors.Is(err, context.Canceled), stderrors.Is(err, context.DeadlineExceeded):
		status = consts.StatusRequestTimeout
	}
	if h.logger != nil && status == consts.StatusInternalServerError {
		h.logger.Error("request failed", "error", err)
	}
	ctx.JSON(status, map[string]any{"error": err.Error()})
}
