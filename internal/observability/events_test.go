package observability

import (
	"testing"
	"time"

	"ecoforge/pkg/log"
)

func TestEmitNilSafe(t *testing.T) {
	var e *Emitter
	// 不应 panic
	e.Emit(Event{Component: "tool_adapter", Operation: "fetch"})
}

func TestEmitWithoutLogger(t *testing.T) {
	e := NewEmitter(nil)
	e.Emit(Event{
		Component:  "tool_adapter",
		Operation:  "fetch",
		Duration:   10 * time.Millisecond,
		Outcome:    "ok",
		Provenance: "mock",
		Attrs:      map[string]any{"kind": "carbon_factor"},
	})
}

func TestEmitStageAndExpertEvents(t *testing.T) {
	logger, err := log.NewLogger(nil)
	if err != nil {
		t.Fatal(err)
	}
	e := NewEmitter(logger)
	e.Emit(Event{Component: "refiner", Operation: "pass", Duration: time.Millisecond, Outcome: "ok"})
	e.Emit(Event{
		Component: "expert",
		Operation: "analyze",
		Outcome:   "timeout",
		Attrs:     map[string]any{"domain": "transport"},
	})
	e.Emit(Event{Component: "memory", Operation: "compact", Outcome: "skipped"})
}
