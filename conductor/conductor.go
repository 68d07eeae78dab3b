package conductor

import (
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/r3e-labs/musicalconductor/pkg/logger"
)

// Conductor is the public facade: everything outside this package talks
// to the runtime through it, the same way the ambient stack's own
// engine-type facade hides registry/lifecycle/bus/health behind a short
// method set.
type Conductor struct {
	registry     *SequenceRegistry
	validator    *SequenceValidator
	util         *SequenceUtilities
	dedup        *DuplicationDetector
	delegator    *ResourceDelegator
	queue        *ExecutionQueue
	stats        *StatisticsManager
	bus          *EventBus
	executor     *Executor
	orchestrator *Orchestrator

	cronRunner *cron.Cron
	closeOnce  sync.Once
}

// New assembles a Conductor from the given Options.
func New(opts ...Option) *Conductor {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	util := NewSequenceUtilities()
	dedup := NewDuplicationDetector(cfg.dedupWindow, cfg.clock)
	validator := NewSequenceValidator(dedup, util)
	registry := NewSequenceRegistry(validator)
	delegator := NewResourceDelegator()
	queue := NewExecutionQueue()
	stats := NewStatisticsManager()
	bus := NewEventBus(cfg.log)
	executor := NewExecutor(bus, cfg.clock, cfg.log)

	orchestrator := NewOrchestrator(OrchestratorConfig{
		Registry:  registry,
		Validator: validator,
		Util:      util,
		Delegator: delegator,
		Queue:     queue,
		Stats:     stats,
		Bus:       bus,
		Executor:  executor,
		Clock:     cfg.clock,
		Log:       cfg.log,
		Limiter:   cfg.limiter,
	})

	c := &Conductor{
		registry:     registry,
		validator:    validator,
		util:         util,
		dedup:        dedup,
		delegator:    delegator,
		queue:        queue,
		stats:        stats,
		bus:          bus,
		executor:     executor,
		orchestrator: orchestrator,
	}

	if cfg.heartbeatSpec != "" {
		c.startHeartbeat(cfg.heartbeatSpec, cfg.log)
	}

	return c
}

// startHeartbeat schedules a periodic log line summarizing current
// statistics, driven by the given cron expression.
func (c *Conductor) startHeartbeat(spec string, log *logger.Logger) {
	runner := cron.New()
	_, err := runner.AddFunc(spec, func() {
		snap := c.stats.Snapshot()
		log.WithFields(map[string]any{
			"queued":     snap.Counters.Queued,
			"started":    snap.Counters.Started,
			"completed":  snap.Counters.Completed,
			"errored":    snap.Counters.Errored,
			"cancelled":  snap.Counters.Cancelled,
			"duplicates": snap.Counters.Duplicates,
		}).Info("conductor statistics heartbeat")
	})
	if err != nil {
		return
	}
	runner.Start()
	c.cronRunner = runner
}

// Play resolves name against domain (joining "<domain>.<name>" unless
// name already carries a domain prefix), then runs it through the
// admission pipeline. The returned result is available synchronously;
// the sequence itself, if admitted, executes asynchronously on the
// conductor's drain goroutine.
func (c *Conductor) Play(domain, name string, data map[string]any, priority Priority) (SequenceStartResult, error) {
	fullName := trimDomain(domain, name)
	return c.orchestrator.Play(fullName, data, priority)
}

// Subscribe registers listener against topic (or a "prefix*" wildcard)
// on the conductor's event bus.
func (c *Conductor) Subscribe(topic string, listener Listener) Unsubscribe {
	return c.bus.Subscribe(topic, listener)
}

// RegisterPlugin validates and stores seq and its handler table.
func (c *Conductor) RegisterPlugin(seq *Sequence, handlers HandlerTable) (RegisterResult, error) {
	if err := c.registry.Register(seq, handlers); err != nil {
		return RegisterResult{Name: seq.Name, Registered: false}, err
	}
	return RegisterResult{Name: seq.Name, Registered: true}, nil
}

// UnregisterPlugin removes a previously registered sequence.
func (c *Conductor) UnregisterPlugin(name string) {
	c.registry.Unregister(name)
}

// GetStatistics returns a snapshot of current admission/outcome counters
// and wait/run-time percentiles.
func (c *Conductor) GetStatistics() StatsSnapshot {
	return c.stats.Snapshot()
}

// GetQueueSnapshot returns the currently queued requests in dequeue
// order (HIGH band first).
func (c *Conductor) GetQueueSnapshot() []*SequenceRequest {
	return c.queue.Snapshot()
}

// GetRegisteredSequences returns every registered sequence name.
func (c *Conductor) GetRegisteredSequences() []string {
	return c.registry.GetNames()
}

// SetResourceStrict toggles strict mode for a resource: once strict and
// busy, conflicting requests are rejected instead of queued.
func (c *Conductor) SetResourceStrict(resourceID string, strict bool) {
	c.delegator.SetStrict(resourceID, strict)
}

// Close stops the drain goroutine and any statistics heartbeat. Queued
// requests are left queued; an in-flight execution is allowed to finish.
func (c *Conductor) Close() {
	c.closeOnce.Do(func() {
		if c.cronRunner != nil {
			c.cronRunner.Stop()
		}
		c.orchestrator.Close()
	})
}
