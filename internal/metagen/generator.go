package metagen

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/kitaplan/kitaplan-backend/internal/config"
	"github.com/kitaplan/kitaplan-backend/internal/gateway"
	"github.com/kitaplan/kitaplan-backend/internal/platform/logger"
)

// Generator produces one raw metadata candidate per call. The real and mock
// implementations are selected once at startup and injected into the
// pipeline; callers cannot distinguish them structurally.
type Generator interface {
	Generate(ctx context.Context, requestID uuid.UUID, in GenerateInput) (Candidate, error)
}

type llmGenerator struct {
	gw      gateway.Gateway
	pricing *PricingCache
	cfg     config.GenerationConfig
	emit    Emitter
	log     *logger.Logger
}

func NewLLMGenerator(gw gateway.Gateway, pricing *PricingCache, cfg config.GenerationConfig, emit Emitter, baseLog *logger.Logger) Generator {
	return &llmGenerator{
		gw:      gw,
		pricing: pricing,
		cfg:     cfg,
		emit:    emit,
		log:     baseLog.With("component", "llm_generator"),
	}
}

func (g *llmGenerator) Generate(ctx context.Context, requestID uuid.UUID, in GenerateInput) (Candidate, error) {
	// Resolve pricing first: if the cost cannot be computed, the call is
	// not made.
	entry, err := g.pricing.PriceFor(ctx, g.cfg.Model)
	if err != nil {
		return Candidate{}, err
	}

	comp, err := g.gw.CompleteChat(ctx, gateway.ChatRequest{
		Model:       g.cfg.Model,
		Messages:    in.Prompt.Messages(),
		Temperature: g.cfg.Temperature,
		MaxTokens:   g.cfg.MaxOutputTokens,
		Timeout:     g.cfg.RequestTimeout.Duration,
	})
	if err != nil {
		return Candidate{}, classifyGatewayError(err)
	}

	raw, err := parseRawOutput(comp.Text)
	if err != nil {
		return Candidate{}, newError(KindMalformedResponse, err)
	}

	usage := &UsageRecord{
		Model:        g.cfg.Model,
		InputTokens:  comp.InputTokens,
		OutputTokens: comp.OutputTokens,
		Cost:         float64(comp.InputTokens)*entry.InputPrice + float64(comp.OutputTokens)*entry.OutputPrice,
	}
	g.emit.Emit(newEvent(requestID, StageGenerating, EventUsageRecorded, map[string]any{
		"model":         usage.Model,
		"input_tokens":  usage.InputTokens,
		"output_tokens": usage.OutputTokens,
		"cost":          usage.Cost,
	}))

	return Candidate{Raw: raw, Usage: usage}, nil
}

// classifyGatewayError separates caller cancellation and deadline expiry
// from genuine gateway faults.
func classifyGatewayError(err error) *Error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return newError(KindTimeout, err)
	case errors.Is(err, context.Canceled):
		return newError(KindCanceled, err)
	}
	return newError(KindUpstreamError, err)
}

func parseRawOutput(text string) (RawOutput, error) {
	var raw RawOutput
	if err := json.Unmarshal([]byte(sanitizeJSONText(text)), &raw); err != nil {
		return RawOutput{}, err
	}
	return raw, nil
}

func sanitizeJSONText(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}

	// Strip leading ```lang and trailing ```
	firstNL := strings.IndexByte(s, '\n')
	if firstNL == -1 {
		return strings.TrimSpace(strings.Trim(s, "`"))
	}
	s = s[firstNL+1:]

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}
	return strings.TrimSpace(s)
}
