package conductor

import (
	"context"
	"strings"
	"sync"

	"github.com/r3e-labs/musicalconductor/pkg/conductorerr"
	"github.com/r3e-labs/musicalconductor/pkg/logger"
	"golang.org/x/time/rate"
)

// Orchestrator runs the admission pipeline for every Play() call and
// drains the ExecutionQueue on its own goroutine. It is the only writer
// of the queue and the dedup window; SequenceRegistry, ResourceDelegator
// and StatisticsManager are each safe for concurrent use on their own,
// so the orchestrator itself only needs to serialize the drain loop
// against its own re-entry, which the wake channel already does.
type Orchestrator struct {
	registry  *SequenceRegistry
	validator *SequenceValidator
	util      *SequenceUtilities
	delegator *ResourceDelegator
	queue     *ExecutionQueue
	stats     *StatisticsManager
	bus       *EventBus
	executor  *Executor
	clock     Clock
	log       *logger.Logger
	limiter   *rate.Limiter

	wake chan struct{}

	stopOnce sync.Once
	cancel   context.CancelFunc
	done     chan struct{}
}

// OrchestratorConfig bundles the collaborators an Orchestrator wires
// together; all fields are required except Limiter.
type OrchestratorConfig struct {
	Registry  *SequenceRegistry
	Validator *SequenceValidator
	Util      *SequenceUtilities
	Delegator *ResourceDelegator
	Queue     *ExecutionQueue
	Stats     *StatisticsManager
	Bus       *EventBus
	Executor  *Executor
	Clock     Clock
	Log       *logger.Logger
	Limiter   *rate.Limiter
}

// NewOrchestrator creates an Orchestrator and starts its drain loop.
func NewOrchestrator(cfg OrchestratorConfig) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		registry:  cfg.Registry,
		validator: cfg.Validator,
		util:      cfg.Util,
		delegator: cfg.Delegator,
		queue:     cfg.Queue,
		stats:     cfg.Stats,
		bus:       cfg.Bus,
		executor:  cfg.Executor,
		clock:     cfg.Clock,
		log:       cfg.Log,
		limiter:   cfg.Limiter,
		wake:      make(chan struct{}, 1),
		cancel:    cancel,
		done:      make(chan struct{}),
	}
	go o.drainLoop(ctx)
	return o
}

// Close stops the drain loop. Queued requests are left in the queue;
// in-flight executions are allowed to finish.
func (o *Orchestrator) Close() {
	o.stopOnce.Do(func() {
		o.cancel()
		<-o.done
	})
}

// Play runs the nine-step admission pipeline for a request and, if
// admitted, enqueues it for execution.
func (o *Orchestrator) Play(name string, data map[string]any, priority Priority) (SequenceStartResult, error) {
	if !priority.valid() {
		priority = PriorityNormal
	}
	if o.limiter != nil {
		_ = o.limiter.Wait(context.Background())
	}

	requestID := NewRequestID()

	// Step 1: resolve the sequence. Its Sequence value is not carried on
	// the SequenceRequest: the drain loop re-resolves by name so a
	// sequence unregistered between admission and drain surfaces as
	// MISSING_AT_DRAIN rather than silently running stale data.
	if !o.registry.Has(name) {
		err := conductorerr.SequenceNotFound(name)
		o.bus.Emit(TopicSequenceFailed, SequenceFailedEvent{SequenceName: name, RequestID: requestID, Reason: "not-found", Err: err})
		return SequenceStartResult{RequestID: requestID, Accepted: false, Reason: "not-found"}, err
	}

	// Steps 2-3: deduplicate, recording the hash atomically with the
	// check so a second overlapping Play() for the same request never
	// races ahead of the first one's record.
	dedup := o.validator.DeduplicateSequenceRequest(name, data, priority)
	if dedup.IsDuplicate {
		o.stats.RecordDuplicate()
		o.bus.Emit(TopicSequenceCancelled, SequenceCancelledEvent{SequenceName: name, RequestID: requestID, Reason: "duplicate-request"})
		return SequenceStartResult{RequestID: requestID, Accepted: false, IsDuplicate: true, Reason: "duplicate-request"}, nil
	}

	// Step 4: derive symphony/resource/instance identity.
	symphonyName := o.util.ExtractSymphonyName(name)
	resourceID := o.util.ExtractResourceID(name, data)
	instanceID := o.util.CreateInstanceID(name, resourceID)

	// Step 5: resource conflict arbitration.
	conflict := o.delegator.CheckConflict(resourceID, instanceID, priority, symphonyName)
	switch conflict.Resolution {
	case ResolutionReject:
		o.stats.RecordRejected()
		err := conductorerr.ResourceRejected(resourceID, conflict.Reason)
		o.bus.Emit(TopicSequenceFailed, SequenceFailedEvent{SequenceName: name, RequestID: requestID, Reason: "resource-rejected", Err: err})
		return SequenceStartResult{RequestID: requestID, Accepted: false, Reason: "resource-rejected"}, err
	case ResolutionAllow, ResolutionOverride:
		if conflict.Resolution == ResolutionOverride && conflict.IncumbentInstance != "" {
			o.log.WithFields(map[string]any{"resource": resourceID, "incumbent": conflict.IncumbentInstance}).Info("overriding resource incumbent")
			o.executor.RequestCancellation(conflict.IncumbentInstance)
		}
		o.delegator.Acquire(resourceID, instanceID, priority, symphonyName, o.clock.Now())
	case ResolutionQueue:
		// ownership transfers when this request reaches the head of the
		// queue, not now.
	}

	// Steps 6-7: build the request and enqueue it.
	req := &SequenceRequest{
		RequestID:      requestID,
		SequenceName:   name,
		Data:           data,
		Priority:       priority,
		QueuedAt:       o.clock.Now(),
		InstanceID:     instanceID,
		SymphonyName:   symphonyName,
		ResourceID:     resourceID,
		SequenceHash:   dedup.Hash,
		ConflictResult: conflict,
	}
	o.stats.RecordQueued()
	o.queue.Enqueue(req)

	// Step 8: announce admission.
	o.bus.Emit(TopicSequenceQueued, SequenceQueuedEvent{
		SequenceName: name,
		RequestID:    requestID,
		Priority:     priority,
		QueueLength:  o.queue.Size(),
	})

	o.kickDrain()

	// Step 9: return synchronously; execution itself is asynchronous.
	return SequenceStartResult{RequestID: requestID, Accepted: true}, nil
}

func (o *Orchestrator) kickDrain() {
	select {
	case o.wake <- struct{}{}:
	default:
	}
}

func (o *Orchestrator) drainLoop(ctx context.Context) {
	defer close(o.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-o.wake:
		}
		o.drainAll(ctx)
	}
}

func (o *Orchestrator) drainAll(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		req, ok := o.queue.Dequeue()
		if !ok {
			return
		}

		seq, ok := o.registry.Get(req.SequenceName)
		if !ok {
			o.log.WithField("sequence", req.SequenceName).Warn("sequence unregistered between admission and drain")
			o.delegator.Release(req.ResourceID, req.InstanceID)
			err := conductorerr.MissingAtDrain(req.SequenceName)
			o.bus.Emit(TopicSequenceFailed, SequenceFailedEvent{SequenceName: req.SequenceName, RequestID: req.RequestID, Reason: "missing-at-drain", Err: err})
			o.stats.RecordError()
			continue
		}
		handlers, _ := o.registry.GetHandlers(req.SequenceName)

		if req.ConflictResult.Resolution == ResolutionQueue {
			o.delegator.Acquire(req.ResourceID, req.InstanceID, req.Priority, req.SymphonyName, o.clock.Now())
		}

		waitTime := o.clock.Now().Sub(req.QueuedAt)
		o.stats.UpdateQueueWaitTime(waitTime)
		o.stats.RecordStarted()

		result := o.executor.Run(req, seq, handlers)
		o.delegator.Release(req.ResourceID, req.InstanceID)

		switch {
		case result.Completed:
			o.stats.RecordCompleted(result.Runtime)
		case result.Cancelled:
			o.stats.RecordCancelled()
		case result.Failed:
			o.stats.RecordError()
		}
	}
}

// trimDomain returns name unchanged if it already carries a "domain."
// prefix and otherwise joins it as "<domain>.<name>"; the facade uses it
// to qualify a bare symphony name.
func trimDomain(domain, name string) string {
	if strings.Contains(name, ".") {
		return name
	}
	return domain + "." + name
}
