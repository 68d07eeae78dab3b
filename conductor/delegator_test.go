package conductor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestResourceDelegator_AllowsWhenFree(t *testing.T) {
	d := NewResourceDelegator()

	result := d.CheckConflict("res-1", "inst-1", PriorityNormal, "demo")

	assert.Equal(t, ResolutionAllow, result.Resolution)
}

func TestResourceDelegator_AllowsSameInstance(t *testing.T) {
	d := NewResourceDelegator()
	d.Acquire("res-1", "inst-1", PriorityNormal, "demo", time.Now())

	result := d.CheckConflict("res-1", "inst-1", PriorityNormal, "demo")

	assert.Equal(t, ResolutionAllow, result.Resolution)
}

func TestResourceDelegator_HighPriorityOverridesIncumbent(t *testing.T) {
	d := NewResourceDelegator()
	d.Acquire("res-1", "inst-1", PriorityNormal, "demo", time.Now())

	result := d.CheckConflict("res-1", "inst-2", PriorityHigh, "demo")

	assert.Equal(t, ResolutionOverride, result.Resolution)
	assert.Equal(t, "inst-1", result.IncumbentInstance)
}

func TestResourceDelegator_HighNeverOverridesHigh(t *testing.T) {
	d := NewResourceDelegator()
	d.Acquire("res-1", "inst-1", PriorityHigh, "demo", time.Now())

	result := d.CheckConflict("res-1", "inst-2", PriorityHigh, "demo")

	assert.Equal(t, ResolutionQueue, result.Resolution)
}

func TestResourceDelegator_ChainedWaitsForOwnSymphony(t *testing.T) {
	d := NewResourceDelegator()
	d.Acquire("res-1", "inst-1", PriorityNormal, "demo", time.Now())

	result := d.CheckConflict("res-1", "inst-2", PriorityChained, "demo")

	assert.Equal(t, ResolutionQueue, result.Resolution)
}

func TestResourceDelegator_StrictModeRejectsInsteadOfQueueing(t *testing.T) {
	d := NewResourceDelegator()
	d.Acquire("res-1", "inst-1", PriorityNormal, "demo", time.Now())
	d.SetStrict("res-1", true)

	result := d.CheckConflict("res-1", "inst-2", PriorityNormal, "demo")

	assert.Equal(t, ResolutionReject, result.Resolution)
}

func TestResourceDelegator_ReleaseOnlyClearsCurrentOwner(t *testing.T) {
	d := NewResourceDelegator()
	d.Acquire("res-1", "inst-1", PriorityNormal, "demo", time.Now())
	d.Acquire("res-1", "inst-2", PriorityHigh, "demo", time.Now())

	d.Release("res-1", "inst-1") // stale release from the preempted instance

	owner, ok := d.Owner("res-1")
	assert.True(t, ok)
	assert.Equal(t, "inst-2", owner)
}
