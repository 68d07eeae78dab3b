package conductor

import (
	"fmt"

	"github.com/r3e-labs/musicalconductor/pkg/conductorerr"
)

// SequenceValidator validates sequences at registration time and
// deduplicates play requests at admission time.
type SequenceValidator struct {
	dedup *DuplicationDetector
	util  *SequenceUtilities
}

// NewSequenceValidator creates a validator backed by dedup and util.
func NewSequenceValidator(dedup *DuplicationDetector, util *SequenceUtilities) *SequenceValidator {
	return &SequenceValidator{dedup: dedup, util: util}
}

// ValidateSequence checks the structural invariants a Sequence must hold
// before it can be registered: a name, at least one movement, at least
// one beat per movement, beat numbers (when set) matching their 1-based
// positions, a non-empty event name per beat that does not collide with
// a reserved bus prefix, and a recognized error-handling policy.
func (v *SequenceValidator) ValidateSequence(seq *Sequence) error {
	if seq == nil {
		return conductorerr.ValidationFailed("sequence is nil")
	}
	if seq.Name == "" {
		return conductorerr.ValidationFailed("sequence name is required")
	}
	if seq.Tempo < 0 {
		return conductorerr.ValidationFailed(fmt.Sprintf("sequence %q tempo must be positive, got %d", seq.Name, seq.Tempo))
	}
	if len(seq.Movements) == 0 {
		return conductorerr.ValidationFailed(fmt.Sprintf("sequence %q has no movements", seq.Name))
	}
	for mi, m := range seq.Movements {
		if len(m.Beats) == 0 {
			return conductorerr.ValidationFailed(fmt.Sprintf("sequence %q movement %d (%s) has no beats", seq.Name, mi, m.Name))
		}
		for bi, b := range m.Beats {
			if b.Number != 0 && b.Number != bi+1 {
				return conductorerr.ValidationFailed(fmt.Sprintf("sequence %q movement %d beat numbered %d is at position %d", seq.Name, mi, b.Number, bi+1))
			}
			if b.Event == "" {
				return conductorerr.ValidationFailed(fmt.Sprintf("sequence %q movement %d beat %d has no event name", seq.Name, mi, bi))
			}
			if isReservedTopic(b.Event) {
				return conductorerr.ValidationFailed(fmt.Sprintf("sequence %q beat event %q collides with a reserved bus prefix", seq.Name, b.Event))
			}
			switch b.ErrorHandling.normalized() {
			case ErrorStop, ErrorContinue, ErrorAbortSequence:
			default:
				return conductorerr.ValidationFailed(fmt.Sprintf("sequence %q beat event %q has unknown error policy %q", seq.Name, b.Event, b.ErrorHandling))
			}
			switch b.Timing.Kind {
			case "", TimingImmediate, TimingAfterBeat, TimingDelayed:
			default:
				return conductorerr.ValidationFailed(fmt.Sprintf("sequence %q beat event %q has unknown timing kind %q", seq.Name, b.Event, b.Timing.Kind))
			}
		}
	}
	return nil
}

// DedupOutcome is the result of DeduplicateSequenceRequest.
type DedupOutcome struct {
	IsDuplicate bool
	Reason      string
	Hash        string
}

// DeduplicateSequenceRequest computes the canonical hash for (name, data,
// priority) and atomically checks it against, then records it in, the
// dedup window. The check-and-record is one operation: splitting it into
// a separate check step followed later by a separate record step would
// reopen the exact race StrictMode-style double plays are meant to close.
func (v *SequenceValidator) DeduplicateSequenceRequest(name string, data map[string]any, priority Priority) DedupOutcome {
	hash := v.util.CanonicalHash(name, data, priority)
	if v.dedup.CheckAndRecord(hash) {
		return DedupOutcome{IsDuplicate: true, Reason: "identical request within dedup window", Hash: hash}
	}
	return DedupOutcome{Hash: hash}
}
