// Package pipeline provides the high-level orchestration for candidate
// analysis: fetch, extract, aggregate, detect, recommend.
package pipeline

import (
	"sync"
	"time"
)

// Stage identifies one step of the per-request state machine. Stages advance
// in a fixed sequence; Failed is reachable only from Fetching, because every
// downstream stage is total over already-fetched data.
type Stage string

const (
	StagePending      Stage = "pending"
	StageFetching     Stage = "fetching"
	StageExtracting   Stage = "extracting"
	StageAggregating  Stage = "aggregating"
	StageDetecting    Stage = "detecting"
	StageRecommending Stage = "recommending"
	StageComplete     Stage = "complete"
	StageFailed       Stage = "failed"
)

// StageEvent is one stage transition, emitted to the caller's observer as
// the pipeline advances. Callers use these to drive progress displays; they
// carry no wall-clock cadence of their own.
type StageEvent struct {
	Stage   Stage     `json:"stage"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// EventFunc observes stage transitions for one request. A nil EventFunc is
// valid and means the caller does not subscribe.
type EventFunc func(StageEvent)

// emit invokes the observer when one is subscribed.
func emit(onEvent EventFunc, stage Stage, message string) {
	if onEvent != nil {
		onEvent(StageEvent{Stage: stage, Message: message, At: time.Now()})
	}
}

// eventRelay forwards stage events from a computation to a single
// subscriber until that subscriber detaches. Detachment is synchronized
// with delivery: once detach returns, the subscriber's callback will not
// be invoked again, even if the computation keeps running in the
// background.
type eventRelay struct {
	mu       sync.Mutex
	detached bool
	fn       EventFunc
}

func newEventRelay(fn EventFunc) *eventRelay {
	return &eventRelay{fn: fn}
}

func (r *eventRelay) emit(event StageEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.detached || r.fn == nil {
		return
	}
	r.fn(event)
}

func (r *eventRelay) detach() {
	r.mu.Lock()
	r.detached = true
	r.mu.Unlock()
}
