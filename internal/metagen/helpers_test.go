package metagen

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/google/uuid"

	"github.com/kitaplan/kitaplan-backend/internal/domain"
	"github.com/kitaplan/kitaplan-backend/internal/gateway"
	"github.com/kitaplan/kitaplan-backend/internal/platform/logger"
)

func testLogger(tb testing.TB) *logger.Logger {
	tb.Helper()
	log, err := logger.New("test")
	if err != nil {
		tb.Fatalf("init logger: %v", err)
	}
	return log
}

func testRefContext() *RefContext {
	return &RefContext{
		Refs: []*domain.CurriculumReference{
			{Code: "1.2", Text: "Expresses needs verbally"},
			{Code: "4.15", Text: "Recognizes quantities up to ten"},
			{Code: "5.1", Text: "Moves confidently in open space"},
		},
		Modules: []*domain.EducationalModule{
			{Name: "language", Description: "Speech and early literacy"},
			{Name: "mathematics", Description: "Quantities, shapes and patterns"},
			{Name: "motor skills", Description: "Gross and fine motor development"},
		},
	}
}

// captureEmitter records every event for assertions.
type captureEmitter struct {
	mu     sync.Mutex
	events []Event
}

func (e *captureEmitter) Emit(ev Event) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, ev)
}

func (e *captureEmitter) named(name EventName) []Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []Event
	for _, ev := range e.events {
		if ev.Name == name {
			out = append(out, ev)
		}
	}
	return out
}

// fakeRefRepo and fakeModuleRepo stand in for the storage collaborator.
type fakeRefRepo struct {
	rows []*domain.CurriculumReference
	err  error
}

func (r *fakeRefRepo) ListAll(ctx context.Context) ([]*domain.CurriculumReference, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.rows, nil
}

type fakeModuleRepo struct {
	rows []*domain.EducationalModule
	err  error
}

func (r *fakeModuleRepo) ListAll(ctx context.Context) ([]*domain.EducationalModule, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.rows, nil
}

// scriptGenerator returns its scripted candidates/errors in order, repeating
// the last step when exhausted.
type scriptGenerator struct {
	steps []func() (Candidate, error)
	calls int32
}

func (g *scriptGenerator) Generate(ctx context.Context, requestID uuid.UUID, in GenerateInput) (Candidate, error) {
	n := int(atomic.AddInt32(&g.calls, 1)) - 1
	if n >= len(g.steps) {
		n = len(g.steps) - 1
	}
	return g.steps[n]()
}

// fakeGateway scripts the gateway collaborator and counts upstream calls.
type fakeGateway struct {
	completeFn func(ctx context.Context, req gateway.ChatRequest) (gateway.ChatCompletion, error)
	pricingFn  func(ctx context.Context) ([]gateway.ModelPrice, error)

	completeCalls int32
	pricingCalls  int32
}

func (g *fakeGateway) CompleteChat(ctx context.Context, req gateway.ChatRequest) (gateway.ChatCompletion, error) {
	atomic.AddInt32(&g.completeCalls, 1)
	return g.completeFn(ctx, req)
}

func (g *fakeGateway) ListModelPricing(ctx context.Context) ([]gateway.ModelPrice, error) {
	atomic.AddInt32(&g.pricingCalls, 1)
	return g.pricingFn(ctx)
}

func validCandidate() Candidate {
	return Candidate{
		Raw: RawOutput{
			Reasoning:      "counting game touches early math",
			Modules:        []string{"mathematics"},
			CurriculumRefs: []string{"4.15"},
			Objectives:     []string{"Children count objects up to ten."},
		},
	}
}

func insufficientCandidate() Candidate {
	return Candidate{
		Raw: RawOutput{
			Reasoning:      "no usable codes",
			Modules:        []string{"mathematics"},
			CurriculumRefs: []string{"9.99"},
			Objectives:     []string{"Children count objects up to ten."},
		},
	}
}
