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

// TavilyProvider 搜索 provider（本地可行性、补贴政策等事实检索）
type TavilyProvider struct {
	apiKey string
	client *resty.Client
}

// NewTavilyProvider 创建 search provider
func NewTavilyProvider(apiKey, baseURL string) *TavilyProvider {
	if baseURL == "" {
		baseURL = "https://api.tavily.com"
	}
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30*time.Second).
		SetHeader("Content-Type", "application/json")
	return &TavilyProvider{apiKey: apiKey, client: client}
}

type tavilySearchRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth"`
	IncludeAnswer bool   `json:"include_answer"`
	MaxResults    int    `json:"max_results"`
}

type tavilySearchResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float64 `json:"score"`
	} `json:"results"`
}

// Fetch 实现 Provider
func (p *TavilyProvider) Fetch(ctx context.Context, params map[string]any) (Value, error) {
	if p.apiKey == "" {
		return Value{}, fmt.Errorf("tavily: api key not configured")
	}
	query := stringParam(params, "query", "")
	if query == "" {
		return Value{}, fmt.Errorf("tavily: query is required")
	}

	var out tavilySearchResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(tavilySearchRequest{
			APIKey:        p.apiKey,
			Query:         query,
			SearchDepth:   "basic",
			IncludeAnswer: true,
			MaxResults:    3,
		}).
		SetResult(&out).
		Post("/search")
	if err != nil {
		return Value{}, fmt.Errorf("tavily: request failed: %w", err)
	}
	if resp.StatusCode() != 200 {
		return Value{}, fmt.Errorf("tavily: status %d: %s", resp.StatusCode(), resp.String())
	}

	text := out.Answer
	if text == "" {
		var snippets []string
		for _, r := range out.Results {
			snippets = append(snippets, r.Content)
		}
		text = strings.Join(snippets, "\n")
	}
	return Value{
		Text:   text,
		Detail: map[string]any{"result_count": len(out.Results)},
	}, nil
}
