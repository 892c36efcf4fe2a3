package metagen

import (
	"time"

	"github.com/google/uuid"

	"github.com/kitaplan/kitaplan-backend/internal/platform/logger"
)

type EventName string

const (
	EventLoadStarted       EventName = "load_started"
	EventLoadFinished      EventName = "load_finished"
	EventPromptBuilt       EventName = "prompt_built"
	EventGenerationStarted EventName = "generation_started"
	EventUsageRecorded     EventName = "usage_recorded"
	EventValidationWarning EventName = "validation_warning"
	EventAttemptFailed     EventName = "attempt_failed"
	EventRunFinished       EventName = "run_finished"
)

// Event is a structured observation emitted by pipeline stages. Rendering
// (console narration, colors, metrics) is the consumer's concern.
type Event struct {
	RequestID uuid.UUID
	Stage     Stage
	Name      EventName
	At        time.Time
	Fields    map[string]any
}

type Emitter interface {
	Emit(ev Event)
}

type NopEmitter struct{}

func (NopEmitter) Emit(Event) {}

type multiEmitter []Emitter

// NewMultiEmitter fans every event out to each emitter in order.
func NewMultiEmitter(emitters ...Emitter) Emitter {
	return multiEmitter(emitters)
}

func (m multiEmitter) Emit(ev Event) {
	for _, e := range m {
		e.Emit(ev)
	}
}

type logEmitter struct {
	log *logger.Logger
}

func NewLogEmitter(baseLog *logger.Logger) Emitter {
	return &logEmitter{log: baseLog.With("component", "metagen")}
}

func (e *logEmitter) Emit(ev Event) {
	kvs := make([]interface{}, 0, 2*len(ev.Fields)+4)
	kvs = append(kvs, "request_id", ev.RequestID.String(), "stage", string(ev.Stage))
	for k, v := range ev.Fields {
		kvs = append(kvs, k, v)
	}
	switch ev.Name {
	case EventValidationWarning, EventAttemptFailed:
		e.log.Warn(string(ev.Name), kvs...)
	default:
		e.log.Info(string(ev.Name), kvs...)
	}
}

func newEvent(id uuid.UUID, stage Stage, name EventName, fields map[string]any) Event {
	return Event{
		RequestID: id,
		Stage:     stage,
		Name:      name,
		At:        time.Now().UTC(),
		Fields:    fields,
	}
}
