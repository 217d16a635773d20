// Copyright 2026 fanjia1024
// Environment variable based secret store

package secrets

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// envStore 环境变量 secret store；key 统一规范化为大写下划线形式
// （如 providers.carbon_factor.api_key → PROVIDERS_CARBON_FACTOR_API_KEY）
type envStore struct{}

// NewEnvStore 创建环境变量 secret store
func NewEnvStore() Store {
	return &envStore{}
}

func normalizeEnvKey(key string) string {
	k := strings.NewReplacer(".", "_", "-", "_", "/", "_").Replace(key)
	return strings.ToUpper(k)
}

func (e *envStore) Get(ctx context.Context, key string) (string, error) {
	name := normalizeEnvKey(key)
	value := os.Getenv(name)
	if value == "" {
		return "", fmt.Errorf("environment variable not set: %s", name)
	}
	return value, nil
}

func (e *envStore) Set(ctx context.Context, key string, value string) error {
	return os.Setenv(normalizeEnvKey(key), value)
}

func (e *envStore) Delete(ctx context.Context, key string) error {
	return os.Unsetenv(normalizeEnvKey(key))
}

func (e *envStore) List(ctx context.Context, prefix string) ([]string, error) {
	p := normalizeEnvKey(prefix)
	var keys []string
	for _, env := range os.Environ() {
		parts := strings.SplitN(env, "=", 2)
		if len(parts) > 0 && strings.HasPrefix(parts[0], p) {
			keys = append(keys, parts[0])
		}
	}
	return keys, nil
}
