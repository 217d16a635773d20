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

package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 应用配置结构体
type Config struct {
	API        APIConfig        `mapstructure:"api"`
	Engine     EngineConfig     `mapstructure:"engine"`
	Memory     MemoryConfig     `mapstructure:"memory"`
	Tools      ToolsConfig      `mapstructure:"tools"`
	Summarizer SummarizerConfig `mapstructure:"summarizer"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
	Log        LogConfig        `mapstructure:"log"`
	Monitoring MonitoringConfig `mapstructure:"monitoring"`
}

// APIConfig API 服务配置
type APIConfig struct {
	Port    int        `mapstructure:"port"`
	Host    string     `mapstructure:"host"`
	Timeout string     `mapstructure:"timeout"`
	CORS    CORSConfig `mapstructure:"cors"`
}

// CORSConfig CORS 配置
type CORSConfig struct {
	Enable       bool     `mapstructure:"enable"`
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// EngineConfig 分析流水线配置
type EngineConfig struct {
	// ExpertTimeout 单个领域专家的执行超时，如 "5s"；超时后以降级 finding 代替
	ExpertTimeout string `mapstructure:"expert_timeout"`
	// MaxRefinePasses Refiner 最大迭代次数，<=0 使用默认 3
	MaxRefinePasses int `mapstructure:"max_refine_passes"`
}

// ExpertTimeoutDuration 解析 ExpertTimeout，非法或空返回默认 5s
func (c EngineConfig) ExpertTimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(c.ExpertTimeout); err == nil && d > 0 {
		return d
	}
	return 5 * time.Second
}

// MemoryConfig 会话记忆存储配置
type MemoryConfig struct {
	Store string `mapstructure:"store"` // memory | postgres
	DSN   string `mapstructure:"dsn"`   // Postgres 连接串，store=postgres 时必填
	// CompactThreshold 原始日志总长度（rune 数）超过该值时触发 compaction，<=0 使用默认 4000
	CompactThreshold int `mapstructure:"compact_threshold"`
	// KeepRecent compaction 时保留最近 K 条原始 turn，<=0 使用默认 4
	KeepRecent int `mapstructure:"keep_recent"`
}

// ToolsConfig 外部数据源配置（Tool Adapter）
type ToolsConfig struct {
	// Timeout 单次 provider 调用超时，如 "3s"
	Timeout   string                    `mapstructure:"timeout"`
	Cache     CacheConfig               `mapstructure:"cache"`
	Providers map[string]ProviderConfig `mapstructure:"providers"` // key: carbon_factor | search | weather | grid_intensity
}

// TimeoutDuration 解析 Timeout，非法或空返回默认 3s
func (c ToolsConfig) TimeoutDuration() time.Duration {
	if d, err := time.ParseDuration(c.Timeout); err == nil && d > 0 {
		return d
	}
	return 3 * time.Second
}

// ProviderConfig 单个数据 provider 配置；APIKey 为空时按 secrets 中 key 名解析，仍为空则走 mock
type ProviderConfig struct {
	BaseURL   string  `mapstructure:"base_url"`
	APIKey    string  `mapstructure:"api_key"`
	SecretKey string  `mapstructure:"secret_key"` // pkg/secrets 中的 key 名
	QPS       float64 `mapstructure:"qps"`        // 限流，<=0 不限
	Burst     int     `mapstructure:"burst"`
}

// CacheConfig provider 响应缓存配置
type CacheConfig struct {
	Type string `mapstructure:"type"` // memory | redis | none
	Addr string `mapstructure:"addr"` // redis 地址
	DB   int    `mapstructure:"db"`
	TTL  string `mapstructure:"ttl"` // 如 "10m"
}

// TTLDuration 解析 TTL，非法或空返回默认 10m
func (c CacheConfig) TTLDuration() time.Duration {
	if d, err := time.ParseDuration(c.TTL); err == nil && d > 0 {
		return d
	}
	return 10 * time.Minute
}

// SummarizerConfig compaction 摘要调用配置（OpenAI 兼容 ChatModel）
type SummarizerConfig struct {
	Provider string `mapstructure:"provider"` // openai | none；空或 none 时使用确定性 fallback
	Model    string `mapstructure:"model"`
	APIKey   string `mapstructure:"api_key"`
	BaseURL  string `mapstructure:"base_url"`
}

// SecretsConfig secret store 配置
type SecretsConfig struct {
	Provider string            `mapstructure:"provider"` // vault | env | memory
	Config   map[string]string `mapstructure:"config"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// MonitoringConfig 监控与追踪配置
type MonitoringConfig struct {
	OTelEnabled  bool   `mapstructure:"otel_enabled"`
	OTelEndpoint string `mapstructure:"otel_endpoint"`
	ServiceName  string `mapstructure:"service_name"`
}

// Load 从文件与环境变量加载配置；path 为空时查找 ./configs/config.yaml
func Load(path string) (*Config, error) {
	v := viper.New()
	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./configs")
		v.AddConfigPath(".")
	}
	v.SetEnvPrefix("ECOFORGE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		// 配置文件缺失时允许仅用默认值 + 环境变量启动
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("api.port", 8080)
	v.SetDefault("api.host", "0.0.0.0")
	v.SetDefault("engine.expert_timeout", "5s")
	v.SetDefault("engine.max_refine_passes", 3)
	v.SetDefault("memory.store", "memory")
	v.SetDefault("memory.compact_threshold", 4000)
	v.SetDefault("memory.keep_recent", 4)
	v.SetDefault("tools.timeout", "3s")
	v.SetDefault("tools.cache.type", "memory")
	v.SetDefault("tools.cache.ttl", "10m")
	v.SetDefault("summarizer.provider", "none")
	v.SetDefault("secrets.provider", "env")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("monitoring.service_name", "ecoforge")
}
