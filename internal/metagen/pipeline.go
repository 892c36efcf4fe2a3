package metagen

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/kitaplan/kitaplan-backend/internal/platform/logger"
)

type Stage string

const (
	StageLoading    Stage = "loading"
	StagePrompting  Stage = "prompting"
	StageGenerating Stage = "generating"
	StageValidating Stage = "validating"
	StageSucceeded  Stage = "succeeded"
	StageFailed     Stage = "failed"
)

// Pipeline drives one request through
//
//	loading -> prompting -> generating -> validating -> succeeded|failed
//
// with a bounded validating -> generating retry cycle. Only a semantically
// insufficient response re-enters generation; transport, parsing, pricing
// and storage failures are terminal.
type Pipeline struct {
	loader    *Loader
	builder   *Builder
	gen       Generator
	validator Validator
	emit      Emitter

	// maxRetries is the number of extra generation attempts after an
	// insufficient response. Total attempts = 1 + maxRetries.
	maxRetries int

	log *logger.Logger
}

func NewPipeline(loader *Loader, builder *Builder, gen Generator, validator Validator, emit Emitter, maxRetries int, baseLog *logger.Logger) *Pipeline {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Pipeline{
		loader:     loader,
		builder:    builder,
		gen:        gen,
		validator:  validator,
		emit:       emit,
		maxRetries: maxRetries,
		log:        baseLog.With("component", "pipeline"),
	}
}

// runState is the per-request state machine record. Attempts is an explicit
// counter, not recursion depth.
type runState struct {
	id        uuid.UUID
	stage     Stage
	attempts  int
	startedAt time.Time
}

// Run executes one generation request to a terminal state. It returns the
// validated result or a *Error carrying kind, stage and consumed attempts.
func (p *Pipeline) Run(ctx context.Context, req Request) (*Result, error) {
	if !req.Valid() {
		return nil, ErrEmptyActivity
	}

	st := &runState{id: uuid.New(), stage: StageLoading, startedAt: time.Now()}

	p.emit.Emit(newEvent(st.id, st.stage, EventLoadStarted, nil))
	rc, err := p.loader.Load(ctx)
	if err != nil {
		return nil, p.fail(st, newError(KindDataUnavailable, err))
	}
	p.emit.Emit(newEvent(st.id, st.stage, EventLoadFinished, map[string]any{
		"curriculum_refs": len(rc.Refs),
		"modules":         len(rc.Modules),
	}))

	st.stage = StagePrompting
	prompt, err := p.builder.Build(req, rc)
	if err != nil {
		return nil, p.fail(st, newError(KindPromptFailed, err))
	}
	p.emit.Emit(newEvent(st.id, st.stage, EventPromptBuilt, map[string]any{
		"prompt_bytes": prompt.Len(),
	}))

	known := rc.KnownCodes()
	in := GenerateInput{Prompt: prompt, Refs: rc}

	for {
		st.stage = StageGenerating
		st.attempts++
		p.emit.Emit(newEvent(st.id, st.stage, EventGenerationStarted, map[string]any{
			"attempt": st.attempts,
		}))

		cand, err := p.gen.Generate(ctx, st.id, in)
		if err != nil {
			return nil, p.fail(st, err)
		}

		st.stage = StageValidating
		res, err := p.validator.Validate(st.id, cand.Raw, known)
		if err != nil {
			if KindOf(err) == KindInsufficientContent && st.attempts <= p.maxRetries {
				p.emit.Emit(newEvent(st.id, st.stage, EventAttemptFailed, map[string]any{
					"attempt": st.attempts,
					"error":   err.Error(),
				}))
				continue
			}
			return nil, p.fail(st, err)
		}

		res.Usage = cand.Usage
		res.Attempts = st.attempts
		st.stage = StageSucceeded
		p.emit.Emit(newEvent(st.id, st.stage, EventRunFinished, map[string]any{
			"attempts":    st.attempts,
			"duration_ms": time.Since(st.startedAt).Milliseconds(),
		}))
		return res, nil
	}
}

// fail stamps stage and attempt count onto the typed error and reports the
// terminal state.
func (p *Pipeline) fail(st *runState, err error) error {
	failedAt := st.stage
	st.stage = StageFailed

	e, ok := err.(*Error)
	if !ok {
		switch {
		case errors.Is(err, context.DeadlineExceeded):
			e = &Error{Kind: KindTimeout, Err: err}
		case errors.Is(err, context.Canceled):
			e = &Error{Kind: KindCanceled, Err: err}
		default:
			e = &Error{Kind: KindUpstreamError, Err: err}
		}
	}
	if e.Stage == "" {
		e.Stage = failedAt
	}
	e.Attempts = st.attempts

	p.emit.Emit(newEvent(st.id, st.stage, EventRunFinished, map[string]any{
		"kind":        string(e.Kind),
		"failed_at":   string(failedAt),
		"attempts":    st.attempts,
		"duration_ms": time.Since(st.startedAt).Milliseconds(),
		"error":       e.Error(),
	}))
	return e
}
