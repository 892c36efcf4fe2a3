package metagen

import (
	"github.com/google/uuid"
)

// Validator decides whether a raw candidate becomes a Result. Strategies
// must not mutate the candidate.
type Validator interface {
	Validate(requestID uuid.UUID, raw RawOutput, known map[string]bool) (*Result, error)
}

// lenientValidator keeps partially valid output: unknown curriculum codes
// are dropped and reported as warnings, one diagnostic each. The default
// policy.
type lenientValidator struct {
	emit Emitter
}

func NewLenientValidator(emit Emitter) Validator {
	return &lenientValidator{emit: emit}
}

func (v *lenientValidator) Validate(requestID uuid.UUID, raw RawOutput, known map[string]bool) (*Result, error) {
	kept := make([]string, 0, len(raw.CurriculumRefs))
	var dropped []string
	for _, code := range raw.CurriculumRefs {
		if known[code] {
			kept = append(kept, code)
			continue
		}
		dropped = append(dropped, code)
		v.emit.Emit(newEvent(requestID, StageValidating, EventValidationWarning, map[string]any{
			"dropped_code": code,
		}))
	}

	if err := checkContent(raw, kept); err != nil {
		return nil, err
	}

	return &Result{
		Reasoning:      raw.Reasoning,
		Modules:        append([]string(nil), raw.Modules...),
		CurriculumRefs: kept,
		Objectives:     append([]string(nil), raw.Objectives...),
		Warnings:       dropped,
	}, nil
}

// strictValidator rejects the whole response as soon as any proposed code is
// unknown. Recognized but not active by default.
type strictValidator struct {
	emit Emitter
}

func NewStrictValidator(emit Emitter) Validator {
	return &strictValidator{emit: emit}
}

func (v *strictValidator) Validate(requestID uuid.UUID, raw RawOutput, known map[string]bool) (*Result, error) {
	for _, code := range raw.CurriculumRefs {
		if !known[code] {
			v.emit.Emit(newEvent(requestID, StageValidating, EventValidationWarning, map[string]any{
				"dropped_code": code,
			}))
			return nil, errorf(KindInsufficientContent, "unknown curriculum code %q", code)
		}
	}

	if err := checkContent(raw, raw.CurriculumRefs); err != nil {
		return nil, err
	}

	return &Result{
		Reasoning:      raw.Reasoning,
		Modules:        append([]string(nil), raw.Modules...),
		CurriculumRefs: append([]string(nil), raw.CurriculumRefs...),
		Objectives:     append([]string(nil), raw.Objectives...),
	}, nil
}

func checkContent(raw RawOutput, codes []string) error {
	if len(codes) == 0 {
		return errorf(KindInsufficientContent, "no valid curriculum codes")
	}
	if len(raw.Modules) == 0 {
		return errorf(KindInsufficientContent, "no modules")
	}
	if len(raw.Objectives) == 0 {
		return errorf(KindInsufficientContent, "no objectives")
	}
	return nil
}
