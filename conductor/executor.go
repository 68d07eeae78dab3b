package conductor

import (
	"fmt"
	"sync"
	"time"

	"github.com/r3e-labs/musicalconductor/pkg/conductorerr"
	"github.com/r3e-labs/musicalconductor/pkg/logger"
)

// ExecutionResult is what Executor.Run returns once a sequence has
// reached a terminal state.
type ExecutionResult struct {
	Completed bool
	Cancelled bool
	Failed    bool
	Err       error
	Runtime   time.Duration
	Payload   map[string]any
}

// Executor drives exactly one sequence's movements and beats at a time.
// The orchestrator's drain loop never calls Run concurrently with itself,
// which is what gives the runtime its cooperative single-flight
// semantics in Go terms: there is one goroutine walking beats, and a beat
// handler's own blocking work blocks only that goroutine, never the
// EventBus or the admission path, both of which are independently
// synchronized.
type Executor struct {
	bus   *EventBus
	clock Clock
	log   *logger.Logger

	mu        sync.Mutex
	cancelled map[string]bool
}

// NewExecutor creates an Executor publishing lifecycle events on bus.
func NewExecutor(bus *EventBus, clock Clock, log *logger.Logger) *Executor {
	if clock == nil {
		clock = SystemClock
	}
	if log == nil {
		log = logger.Noop()
	}
	return &Executor{bus: bus, clock: clock, log: log, cancelled: make(map[string]bool)}
}

// RequestCancellation marks instanceID for cooperative cancellation. The
// currently running beat, if any, is allowed to settle; the sequence is
// aborted immediately afterward, before its next beat starts.
func (e *Executor) RequestCancellation(instanceID string) {
	e.mu.Lock()
	e.cancelled[instanceID] = true
	e.mu.Unlock()
}

func (e *Executor) consumeCancellation(instanceID string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.cancelled[instanceID] {
		delete(e.cancelled, instanceID)
		return true
	}
	return false
}

func (e *Executor) clearCancellation(instanceID string) {
	e.mu.Lock()
	delete(e.cancelled, instanceID)
	e.mu.Unlock()
}

// Run plays req against seq using handlers, publishing lifecycle events
// on the bus as it goes, and returns once the sequence has completed,
// failed, or been cancelled.
func (e *Executor) Run(req *SequenceRequest, seq *Sequence, handlers HandlerTable) ExecutionResult {
	start := e.clock.Now()
	e.clearCancellation(req.InstanceID)

	e.bus.Emit(TopicSequenceStarted, SequenceStartedEvent{
		SequenceName: seq.Name,
		RequestID:    req.RequestID,
		InstanceID:   req.InstanceID,
	})

	payload := cloneMap(req.Data)

	for mi, movement := range seq.Movements {
		e.bus.Emit(TopicMovementStarted, MovementStartedEvent{
			SequenceName:  seq.Name,
			RequestID:     req.RequestID,
			MovementIndex: mi,
			MovementName:  movement.Name,
		})

		for bi, beat := range movement.Beats {
			// IMMEDIATE and AFTER_BEAT both fire as soon as the previous
			// beat has settled, which in this sequential walk is always
			// true by construction; only DELAYED adds an explicit wait.
			if beat.Timing.Kind == TimingDelayed && beat.Timing.DelayMs > 0 {
				e.clock.Sleep(time.Duration(beat.Timing.DelayMs) * time.Millisecond)
			}

			e.bus.Emit(TopicBeatStarted, BeatStartedEvent{
				SequenceName:  seq.Name,
				RequestID:     req.RequestID,
				MovementIndex: mi,
				BeatIndex:     bi,
				Event:         beat.Event,
			})

			mergeUnder(payload, beat.Data)

			ec := &ExecutionContext{
				Request:       req,
				SequenceName:  seq.Name,
				InstanceID:    req.InstanceID,
				ResourceID:    req.ResourceID,
				SymphonyName:  req.SymphonyName,
				Priority:      req.Priority,
				MovementIndex: mi,
				MovementName:  movement.Name,
				BeatIndex:     bi,
				Event:         beat.Event,
			}

			var result map[string]any
			var err error
			if handler, ok := handlers[beat.Event]; ok {
				result, err = invokeHandler(handler, ec, payload)
			}

			if err != nil {
				e.bus.Emit(TopicBeatFailed, BeatFailedEvent{
					SequenceName:  seq.Name,
					RequestID:     req.RequestID,
					MovementIndex: mi,
					BeatIndex:     bi,
					Event:         beat.Event,
					ErrorHandling: beat.ErrorHandling.normalized(),
					Err:           err,
				})

				switch beat.ErrorHandling.normalized() {
				case ErrorContinue:
					recordBeatError(payload, beat.Event, err)
					if e.consumeCancellation(req.InstanceID) {
						e.bus.Emit(TopicSequenceCancelled, SequenceCancelledEvent{
							SequenceName: seq.Name,
							RequestID:    req.RequestID,
							Reason:       "preempted",
						})
						return ExecutionResult{Cancelled: true, Runtime: e.clock.Now().Sub(start), Payload: payload}
					}
					continue
				default: // ErrorStop, ErrorAbortSequence
					wrapped := conductorerr.HandlerError(beat.Event, err)
					e.bus.Emit(TopicSequenceFailed, SequenceFailedEvent{
						SequenceName:    seq.Name,
						RequestID:       req.RequestID,
						Reason:          string(beat.ErrorHandling.normalized()),
						Err:             wrapped,
						ControlledAbort: beat.ErrorHandling.normalized() == ErrorAbortSequence,
					})
					return ExecutionResult{Failed: true, Err: wrapped, Runtime: e.clock.Now().Sub(start), Payload: payload}
				}
			}

			if result != nil {
				mergeInto(payload, result)
			}
			e.bus.Emit(TopicBeatCompleted, BeatCompletedEvent{
				SequenceName:  seq.Name,
				RequestID:     req.RequestID,
				MovementIndex: mi,
				BeatIndex:     bi,
				Event:         beat.Event,
				Result:        result,
			})
			e.bus.Emit(beat.Event, BeatEvent{Context: ec, Result: result})

			if e.consumeCancellation(req.InstanceID) {
				e.bus.Emit(TopicSequenceCancelled, SequenceCancelledEvent{
					SequenceName: seq.Name,
					RequestID:    req.RequestID,
					Reason:       "preempted",
				})
				return ExecutionResult{Cancelled: true, Runtime: e.clock.Now().Sub(start), Payload: payload}
			}
		}
	}

	runtime := e.clock.Now().Sub(start)
	e.bus.Emit(TopicSequenceCompleted, SequenceCompletedEvent{
		SequenceName: seq.Name,
		RequestID:    req.RequestID,
		RuntimeMs:    runtime.Milliseconds(),
		Payload:      payload,
	})
	return ExecutionResult{Completed: true, Runtime: runtime, Payload: payload}
}

// invokeHandler shields the drain goroutine from a panicking handler:
// plugins supply handler bodies, so a panic there is folded into the
// beat's normal error path and absorbed by its error policy.
func invokeHandler(h HandlerFunc, ec *ExecutionContext, payload map[string]any) (result map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return h(ec, payload)
}

func cloneMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func mergeInto(dst, src map[string]any) {
	for k, v := range src {
		dst[k] = v
	}
}

// mergeUnder copies only the keys of src that dst does not already
// carry: a beat's static data never shadows values accumulated at
// runtime.
func mergeUnder(dst, src map[string]any) {
	for k, v := range src {
		if _, ok := dst[k]; !ok {
			dst[k] = v
		}
	}
}

// recordBeatError appends a continue-policy beat failure to the
// payload's "_errors" list, so later beats and the terminal event can
// observe what was skipped over.
func recordBeatError(payload map[string]any, event string, err error) {
	errs, _ := payload["_errors"].([]map[string]any)
	payload["_errors"] = append(errs, map[string]any{"event": event, "error": err.Error()})
}
