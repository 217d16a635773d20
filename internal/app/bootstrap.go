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

package app

import (
	"context"
	"fmt"

	"ecoforge/internal/engine"
	"ecoforge/internal/memory"
	"ecoforge/internal/observability"
	"ecoforge/internal/tooladapter"
	"ecoforge/pkg/config"
	"ecoforge/pkg/log"
	"ecoforge/pkg/secrets"
)

// Bootstrap 统一初始化：供 api 与 cli 复用，避免在 cmd 内装配业务组件
type Bootstrap struct {
	Config  *config.Config
	Logger  *log.Logger
	Emitter *observability.Emitter
	Tools   *tooladapter.Adapter
	Memory  *memory.Manager
	Runner  *engine.Runner
}

// NewBootstrap 根据配置创建 Bootstrap（日志/secrets/工具/记忆/流水线）
func NewBootstrap(ctx context.Context, cfg *config.Config) (*Bootstrap, error) {
	if cfg == nil {
		cfg = &config.Config{}
	}
	logger, err := log.NewLogger(&log.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		File:   cfg.Log.File,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化日志failed: %w", err)
	}
	emitter := observability.NewEmitter(logger)

	secretStore, err := secrets.NewStore(secrets.Config{
		Provider: cfg.Secrets.Provider,
		Config:   cfg.Secrets.Config,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化 secret store failed: %w", err)
	}

	tools, err := tooladapter.NewAdapterFromConfig(ctx, cfg.Tools, secretStore, emitter)
	if err != nil {
		return nil, fmt.Errorf("初始化 tool adapter failed: %w", err)
	}

	store, err := memory.NewStore(ctx, cfg.Memory)
	if err != nil {
		return nil, fmt.Errorf("初始化记忆存储failed: %w", err)
	}
	summarizer, err := memory.NewSummarizer(ctx, cfg.Summarizer)
	if err != nil {
		return nil, fmt.Errorf("初始化 summarizer failed: %w", err)
	}
	mem := memory.NewManager(memory.ManagerOptions{
		Store:            store,
		Summarizer:       summarizer,
		Logger:           logger,
		Emitter:          emitter,
		CompactThreshold: cfg.Memory.CompactThreshold,
		KeepRecent:       cfg.Memory.KeepRecent,
	})

	runner := engine.NewRunner(engine.RunnerOptions{
		Memory:        mem,
		Tools:         tools,
		Logger:        logger,
		Emitter:       emitter,
		ExpertTimeout: cfg.Engine.ExpertTimeoutDuration(),
		MaxPasses:     cfg.Engine.MaxRefinePasses,
	})

	return &Bootstrap{
		Config:  cfg,
		Logger:  logger,
		Emitter: emitter,
		Tools:   tools,
		Memory:  mem,
		Runner:  runner,
	}, nil
}

// Close 释放持久化连接等资源
func (b *Bootstrap) Close() error {
	if b.Memory != nil {
		return b.Memory.Close()
	}
	return nil
}
