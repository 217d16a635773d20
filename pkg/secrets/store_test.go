package secrets

import (
	"context"
	"testing"
)

func TestNewStore(t *testing.T) {
	tests := []struct {
		name     string
		provider string
	}{
		{name: "memory", provider: "memory"},
		{name: "env", provider: "env"},
		{name: "unknown falls back to env", provider: "unknown"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store, err := NewStore(Config{Provider: tc.provider})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if store == nil {
				t.Fatalf("store should not be nil")
			}
		})
	}
}

func TestMemoryAndEnvStoreBasicContract(t *testing.T) {
	ctx := context.Background()
	stores := []Store{NewMemoryStore(), NewEnvStore()}

	for _, s := range stores {
		if err := s.Set(ctx, "secret_test_key", "value"); err != nil {
			t.Fatalf("set secret failed: %v", err)
		}
		got, err := s.Get(ctx, "secret_test_key")
		if err != nil {
			t.Fatalf("get secret failed: %v", err)
		}
		if got != "value" {
			t.Fatalf("get secret = %q, want value", got)
		}
		if err := s.Delete(ctx, "secret_test_key"); err != nil {
			t.Fatalf("delete secret failed: %v", err)
		}
		if _, err = s.Get(ctx, "secret_test_key"); err == nil {
			t.Fatalf("expected error after delete")
		}
	}
}

func TestMemoryStoreSeed(t *testing.T) {
	s := NewMemoryStoreWith(map[string]string{"providers.search.api_key": "tvly-test"})
	got, err := s.Get(context.Background(), "providers.search.api_key")
	if err != nil || got != "tvly-test" {
		t.Fatalf("seeded secret = %q, %v", got, err)
	}
}

func TestEnvKeyNormalization(t *testing.T) {
	s := NewEnvStore()
	ctx := context.Background()
	if err := s.Set(ctx, "providers.carbon-factor.api_key", "k"); err != nil {
		t.Fatal(err)
	}
	defer s.Delete(ctx, "providers.carbon-factor.api_key")
	got, err := s.Get(ctx, "PROVIDERS_CARBON_FACTOR_API_KEY")
	if err != nil || got != "k" {
		t.Fatalf("normalized lookup = %q, %v", got, err)
	}
}
