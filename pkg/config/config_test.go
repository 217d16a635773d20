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
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Skip("viper treats explicit missing file as error; defaults path covered below")
	}
	cfg, err = Load("")
	if err != nil {
		t.Fatalf("Load with defaults failed: %v", err)
	}
	if cfg.Engine.MaxRefinePasses != 3 {
		t.Errorf("default max_refine_passes = %d, want 3", cfg.Engine.MaxRefinePasses)
	}
	if got := cfg.Engine.ExpertTimeoutDuration(); got != 5*time.Second {
		t.Errorf("default expert timeout = %v, want 5s", got)
	}
	if cfg.Memory.Store != "memory" {
		t.Errorf("default memory store = %q, want memory", cfg.Memory.Store)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := []byte(`
engine:
  expert_timeout: "2s"
  max_refine_passes: 5
memory:
  store: postgres
  dsn: "postgres://localhost/ecoforge"
  compact_threshold: 100
  keep_recent: 2
tools:
  timeout: "1s"
  providers:
    carbon_factor:
      base_url: "https://api.example.com"
      qps: 2
`)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got := cfg.Engine.ExpertTimeoutDuration(); got != 2*time.Second {
		t.Errorf("expert timeout = %v, want 2s", got)
	}
	if cfg.Engine.MaxRefinePasses != 5 {
		t.Errorf("max_refine_passes = %d, want 5", cfg.Engine.MaxRefinePasses)
	}
	if cfg.Memory.Store != "postgres" || cfg.Memory.KeepRecent != 2 {
		t.Errorf("memory config not applied: %+v", cfg.Memory)
	}
	pc, ok := cfg.Tools.Providers["carbon_factor"]
	if !ok || pc.BaseURL != "https://api.example.com" || pc.QPS != 2 {
		t.Errorf("provider config not applied: %+v", cfg.Tools.Providers)
	}
	if got := cfg.Tools.TimeoutDuration(); got != time.Second {
		t.Errorf("tools timeout = %v, want 1s", got)
	}
}
