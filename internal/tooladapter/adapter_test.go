// Copyright 2026 fanjia1024
// Tests for the external data adapter

package tooladapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ecoforge/internal/domain"
)

type stubProvider struct {
	value Value
	err   error
	delay time.Duration
	calls int
}

func (s *stubProvider) Fetch(ctx context.Context, params map[string]any) (Value, error) {
	s.calls++
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return Value{}, ctx.Err()
		}
	}
	if s.err != nil {
		return Value{}, s.err
	}
	return s.value, nil
}

func TestFetchRealProvenance(t *testing.T) {
	p := &stubProvider{value: Value{Number: 0.42, Unit: "kgCO2e/kWh"}}
	a := NewAdapter(nil, WithProvider(KindGridIntensity, p))

	v := a.Fetch(context.Background(), KindGridIntensity, map[string]any{"country": "DE"})
	assert.Equal(t, domain.ProvenanceReal, v.Provenance)
	assert.Equal(t, 0.42, v.Number)
	assert.Equal(t, KindGridIntensity, v.Kind)
}

func TestFetchUnconfiguredFallsBackToMock(t *testing.T) {
	a := NewAdapter(nil)
	v := a.Fetch(context.Background(), KindGridIntensity, map[string]any{"country": "FR"})
	assert.Equal(t, domain.ProvenanceMock, v.Provenance)
	assert.Equal(t, 0.085, v.Number)
}

func TestFetchProviderErrorFallsBackToMock(t *testing.T) {
	p := &stubProvider{err: fmt.Errorf("upstream down")}
	a := NewAdapter(nil, WithProvider(KindCarbonFactor, p))

	v := a.Fetch(context.Background(), KindCarbonFactor, map[string]any{
		"category": "food", "activity": "beef",
	})
	assert.Equal(t, domain.ProvenanceMock, v.Provenance)
	assert.Equal(t, 60.0, v.Number)
	assert.Equal(t, 1, p.calls)
}

func TestFetchTimeoutFallsBackToMock(t *testing.T) {
	p := &stubProvider{delay: 200 * time.Millisecond, value: Value{Number: 1}}
	a := NewAdapter(nil,
		WithProvider(KindWeather, p),
		WithTimeout(20*time.Millisecond),
	)

	start := time.Now()
	v := a.Fetch(context.Background(), KindWeather, nil)
	assert.Equal(t, domain.ProvenanceMock, v.Provenance)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}

func TestFetchNeverPanicsOrErrors(t *testing.T) {
	a := NewAdapter(nil)
	for _, kind := range []Kind{KindCarbonFactor, KindSearch, KindWeather, KindGridIntensity} {
		v := a.Fetch(context.Background(), kind, nil)
		assert.Equal(t, domain.ProvenanceMock, v.Provenance, "kind %s", kind)
	}
}

func TestFetchUsesCache(t *testing.T) {
	p := &stubProvider{value: Value{Number: 3.3}}
	a := NewAdapter(nil,
		WithProvider(KindCarbonFactor, p),
		WithCache(NewMemoryCache(), time.Minute),
	)

	params := map[string]any{"category": "transport", "activity": "bus"}
	first := a.Fetch(context.Background(), KindCarbonFactor, params)
	second := a.Fetch(context.Background(), KindCarbonFactor, params)

	assert.Equal(t, 1, p.calls, "second fetch should hit the cache")
	assert.Equal(t, first.Number, second.Number)
	assert.Equal(t, domain.ProvenanceReal, second.Provenance)
}

func TestClimatiqProviderParsesEstimate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/data/v1/estimate", r.URL.Path)
		require.Contains(t, r.Header.Get("Authorization"), "Bearer test-key")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"co2e": 0.518, "co2e_unit": "kg", "emission_factor": {"activity_id": "electricity-supply_grid", "source": "test", "region": "JP"}}`)
	}))
	defer srv.Close()

	p := NewClimatiqProvider("test-key", srv.URL)
	v, err := p.Fetch(context.Background(), map[string]any{"activity_id": "electricity-supply_grid"})
	require.NoError(t, err)
	assert.Equal(t, 0.518, v.Number)
	assert.Equal(t, "JP", v.Detail["region"])
}

func TestClimatiqProviderTranslatesCategoryActivity(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		var req climatiqEstimateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.NotEmpty(t, req.EmissionFactor.ActivityID)
		assert.NotEmpty(t, req.Parameters)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"co2e": 0.18, "co2e_unit": "kg", "emission_factor": {"activity_id": "x", "source": "test", "region": "GLOBAL"}}`)
	}))
	defer srv.Close()

	p := NewClimatiqProvider("test-key", srv.URL)
	v, err := p.Fetch(context.Background(), map[string]any{
		"category": "transport", "activity": "car_gasoline",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, hits)
	assert.Equal(t, 0.18, v.Number)

	_, err = p.Fetch(context.Background(), map[string]any{
		"category": "transport", "activity": "hoverboard",
	})
	assert.Error(t, err, "unmapped activities must fall back to mock via the adapter")
}

// 引擎各阶段实际发出的参数形态必须打到已配置的 provider，而不是悄悄降级
func TestConfiguredProvidersServeEngineShapedCalls(t *testing.T) {
	var carbonHits, gridHits, weatherHits int
	carbonSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		carbonHits++
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"co2e": 60, "co2e_unit": "kg", "emission_factor": {"activity_id": "x", "source": "t", "region": "GLOBAL"}}`)
	}))
	defer carbonSrv.Close()
	gridSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gridHits++
		assert.Equal(t, "US", r.URL.Query().Get("zone"), "no country given, zone should default")
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"zone": "US", "carbonIntensity": 386, "updatedAt": "2026-01-01T00:00:00Z"}`)
	}))
	defer gridSrv.Close()
	weatherSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		weatherHits++
		assert.NotEmpty(t, r.URL.Query().Get("latitude"))
		assert.NotEmpty(t, r.URL.Query().Get("longitude"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"current": {"temperature_2m": 14.5}}`)
	}))
	defer weatherSrv.Close()

	a := NewAdapter(nil,
		WithProvider(KindCarbonFactor, NewClimatiqProvider("key", carbonSrv.URL)),
		WithProvider(KindGridIntensity, NewGridIntensityProvider("key", gridSrv.URL)),
		WithProvider(KindWeather, NewOpenMeteoProvider(weatherSrv.URL)),
	)
	ctx := context.Background()

	// 专家侧：category/activity 词汇
	v := a.Fetch(ctx, KindCarbonFactor, map[string]any{"category": "food", "activity": "beef"})
	assert.Equal(t, domain.ProvenanceReal, v.Provenance)
	assert.Equal(t, 60.0, v.Number)

	// Refiner 侧：无参数的电网强度读取
	v = a.Fetch(ctx, KindGridIntensity, nil)
	assert.Equal(t, domain.ProvenanceReal, v.Provenance)
	assert.InDelta(t, 0.386, v.Number, 1e-9)

	// Home 专家侧：国家一级的位置信息
	v = a.Fetch(ctx, KindWeather, map[string]any{"country": "JP"})
	assert.Equal(t, domain.ProvenanceReal, v.Provenance)
	assert.Equal(t, 14.5, v.Number)
	v = a.Fetch(ctx, KindWeather, map[string]any{})
	assert.Equal(t, domain.ProvenanceReal, v.Provenance)

	assert.Equal(t, 1, carbonHits)
	assert.Equal(t, 1, gridHits)
	assert.Equal(t, 2, weatherHits)
}

func TestTavilyProviderParsesAnswer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/search", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"answer": "heat pumps qualify for local subsidy", "results": [{"title": "t", "url": "u", "content": "c", "score": 0.9}]}`)
	}))
	defer srv.Close()

	p := NewTavilyProvider("tvly-key", srv.URL)
	v, err := p.Fetch(context.Background(), map[string]any{"query": "heat pump subsidy"})
	require.NoError(t, err)
	assert.Equal(t, "heat pumps qualify for local subsidy", v.Text)
	assert.Equal(t, 1, v.Detail["result_count"])
}

func TestGridIntensityProviderConvertsUnits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "DE", r.URL.Query().Get("zone"))
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"zone": "DE", "carbonIntensity": 338, "updatedAt": "2026-01-01T00:00:00Z"}`)
	}))
	defer srv.Close()

	p := NewGridIntensityProvider("key", srv.URL)
	v, err := p.Fetch(context.Background(), map[string]any{"country": "de"})
	require.NoError(t, err)
	assert.InDelta(t, 0.338, v.Number, 1e-9)
	assert.Equal(t, "kgCO2e/kWh", v.Unit)
}
