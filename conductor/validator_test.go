package conductor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestValidator() (*SequenceValidator, *DuplicationDetector) {
	util := NewSequenceUtilities()
	dedup := NewDuplicationDetector(time.Second, newFakeClock())
	return NewSequenceValidator(dedup, util), dedup
}

func TestSequenceValidator_ValidateSequence_RequiresName(t *testing.T) {
	v, _ := newTestValidator()
	err := v.ValidateSequence(&Sequence{Movements: []Movement{{Beats: []Beat{{Event: "x"}}}}})
	require.Error(t, err)
}

func TestSequenceValidator_ValidateSequence_RequiresMovements(t *testing.T) {
	v, _ := newTestValidator()
	err := v.ValidateSequence(&Sequence{Name: "x"})
	require.Error(t, err)
}

func TestSequenceValidator_ValidateSequence_RequiresBeats(t *testing.T) {
	v, _ := newTestValidator()
	err := v.ValidateSequence(&Sequence{Name: "x", Movements: []Movement{{Name: "m1"}}})
	require.Error(t, err)
}

func TestSequenceValidator_ValidateSequence_RejectsUnknownErrorPolicy(t *testing.T) {
	v, _ := newTestValidator()
	err := v.ValidateSequence(&Sequence{
		Name: "x",
		Movements: []Movement{
			{Name: "m1", Beats: []Beat{{Event: "demo:beat", ErrorHandling: "explode"}}},
		},
	})
	require.Error(t, err)
}

func TestSequenceValidator_ValidateSequence_RejectsNegativeTempo(t *testing.T) {
	v, _ := newTestValidator()
	err := v.ValidateSequence(&Sequence{
		Name:  "x",
		Tempo: -1,
		Movements: []Movement{
			{Name: "m1", Beats: []Beat{{Event: "demo:beat"}}},
		},
	})
	require.Error(t, err)
}

func TestSequenceValidator_ValidateSequence_RejectsMisnumberedBeat(t *testing.T) {
	v, _ := newTestValidator()
	err := v.ValidateSequence(&Sequence{
		Name: "x",
		Movements: []Movement{
			{Name: "m1", Beats: []Beat{
				{Number: 1, Event: "demo:a"},
				{Number: 3, Event: "demo:b"},
			}},
		},
	})
	require.Error(t, err)
}

func TestSequenceValidator_ValidateSequence_AcceptsContiguousBeatNumbers(t *testing.T) {
	v, _ := newTestValidator()
	err := v.ValidateSequence(&Sequence{
		Name:  "x",
		Tempo: 90,
		Movements: []Movement{
			{Name: "m1", Beats: []Beat{
				{Number: 1, Event: "demo:a"},
				{Number: 2, Event: "demo:b"},
			}},
		},
	})
	assert.NoError(t, err)
}

func TestSequenceValidator_ValidateSequence_AcceptsWellFormedSequence(t *testing.T) {
	v, _ := newTestValidator()
	err := v.ValidateSequence(&Sequence{
		Name: "x",
		Movements: []Movement{
			{Name: "m1", Beats: []Beat{{Event: "demo:beat", Timing: Immediate(), ErrorHandling: ErrorStop}}},
		},
	})
	assert.NoError(t, err)
}

func TestSequenceValidator_DeduplicateSequenceRequest(t *testing.T) {
	v, _ := newTestValidator()

	first := v.DeduplicateSequenceRequest("demo.greet", map[string]any{"a": 1}, PriorityNormal)
	assert.False(t, first.IsDuplicate)

	second := v.DeduplicateSequenceRequest("demo.greet", map[string]any{"a": 1}, PriorityNormal)
	assert.True(t, second.IsDuplicate)
	assert.Equal(t, first.Hash, second.Hash)
}
