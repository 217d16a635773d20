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

package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"ecoforge/pkg/config"
	"ecoforge/pkg/errors"
)

// Summarizer 把一段旧 turn 压缩为一条摘要文本。失败时 compaction 跳过本轮，日志保持不变。
type Summarizer interface {
	Summarize(ctx context.Context, prevSummary string, turns []Turn) (string, error)
}

// NewSummarizer 根据配置创建 Summarizer；provider 为空或 none 时使用确定性的 DigestSummarizer。
func NewSummarizer(ctx context.Context, cfg config.SummarizerConfig) (Summarizer, error) {
	switch cfg.Provider {
	case "", "none":
		return DigestSummarizer{}, nil
	case "openai":
		if cfg.APIKey == "" {
			return nil, errors.Wrap(errors.ErrInvalidInput, "openai summarizer requires api_key")
		}
		cm, err := openai.NewChatModel(ctx, &openai.ChatModelConfig{
			Model:   cfg.Model,
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
		})
		if err != nil {
			return nil, fmt.Errorf("创建 OpenAI ChatModel failed: %w", err)
		}
		return &ChatSummarizer{cm: cm}, nil
	default:
		return nil, errors.Wrapf(errors.ErrInvalidInput, "unknown summarizer provider %q", cfg.Provider)
	}
}

const summarizePrompt = `你是一个碳足迹分析助手的记忆压缩器。
把下面的会话片段压缩成一段简短摘要，保留：用户的生活方式事实（住房、通勤、饮食、消费）、
已给出的建议与其减排量、用户表达过的约束（预算、改变意愿）。丢弃寒暄与重复内容。
只输出摘要正文。`

// ChatSummarizer 基于 ChatModel 的摘要实现
type ChatSummarizer struct {
	cm model.BaseChatModel
}

func (s *ChatSummarizer) Summarize(ctx context.Context, prevSummary string, turns []Turn) (string, error) {
	var b strings.Builder
	if prevSummary != "" {
		b.WriteString("已有摘要：\n")
		b.WriteString(prevSummary)
		b.WriteString("\n\n新增片段：\n")
	}
	for _, t := range turns {
		fmt.Fprintf(&b, "[%s] %s\n", t.Role, t.Content)
	}
	msg, err := s.cm.Generate(ctx, []*schema.Message{
		schema.SystemMessage(summarizePrompt),
		schema.UserMessage(b.String()),
	})
	if err != nil {
		return "", err
	}
	out := strings.TrimSpace(msg.Content)
	if out == "" {
		return "", errors.Wrap(errors.ErrInvalidInput, "summarizer returned empty content")
	}
	return out, nil
}

// DigestSummarizer 无 LLM 时的确定性降级：截断拼接，保证 compaction 仍然可用。
type DigestSummarizer struct{}

const digestTurnLimit = 120 // 每条 turn 保留的最大 rune 数

func (DigestSummarizer) Summarize(_ context.Context, prevSummary string, turns []Turn) (string, error) {
	var parts []string
	if prevSummary != "" {
		parts = append(parts, prevSummary)
	}
	for _, t := range turns {
		content := t.Content
		if r := []rune(content); len(r) > digestTurnLimit {
			content = string(r[:digestTurnLimit]) + "…"
		}
		parts = append(parts, fmt.Sprintf("[%s] %s", t.Role, content))
	}
	return strings.Join(parts, " / "), nil
}
