// Package conductor is the MusicalConductor orchestration runtime: it turns
// named sequence-play requests into strictly serialized, resource-aware
// executions of declarative "sequences" (ordered movements of ordered
// beats), with a process-wide event bus as the only side channel to the
// outside world.
//
// The package is structured the way the ambient stack's own facade engine
// is structured: small single-responsibility files composed by one facade
// type.
//
//   - EventBus: topic pub/sub with wildcard suffix matching.
//   - SequenceRegistry: name -> sequence / handler-table storage.
//   - SequenceValidator: structural validation + request deduplication.
//   - DuplicationDetector: canonical-hash sliding dedup window.
//   - SequenceUtilities: name parsing, instance-id/hash construction.
//   - ResourceDelegator: resource ownership and conflict arbitration.
//   - ExecutionQueue: HIGH/NORMAL+CHAINED priority FIFO.
//   - StatisticsManager: counters and wait/run-time distributions.
//   - SequenceExecutor: drives one sequence's movements/beats.
//   - Orchestrator: admission pipeline and queue drainer.
//   - Conductor: the public facade (Play/Subscribe/RegisterPlugin/...).
package conductor
