package conductor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSequenceUtilities_ExtractSymphonyName(t *testing.T) {
	u := NewSequenceUtilities()

	assert.Equal(t, "demo", u.ExtractSymphonyName("demo.greet"))
	assert.Equal(t, "bare", u.ExtractSymphonyName("bare"))
}

func TestSequenceUtilities_ExtractResourceID(t *testing.T) {
	u := NewSequenceUtilities()

	assert.Equal(t, "demo", u.ExtractResourceID("demo.greet", nil))
	assert.Equal(t, "custom-resource", u.ExtractResourceID("demo.greet", map[string]any{"resourceId": "custom-resource"}))
}

func TestSequenceUtilities_ExtractResourceID_ElementIDWins(t *testing.T) {
	u := NewSequenceUtilities()

	data := map[string]any{"elementId": "elem-7", "resourceId": "coarser"}
	assert.Equal(t, "elem-7", u.ExtractResourceID("demo.greet", data))
}

func TestSequenceUtilities_CreateInstanceID_IsUnique(t *testing.T) {
	u := NewSequenceUtilities()

	a := u.CreateInstanceID("demo.greet", "demo")
	b := u.CreateInstanceID("demo.greet", "demo")

	assert.NotEqual(t, a, b)
}

func TestSequenceUtilities_CanonicalHash_IsOrderIndependent(t *testing.T) {
	u := NewSequenceUtilities()

	data1 := map[string]any{"a": 1, "b": 2}
	data2 := map[string]any{"b": 2, "a": 1}

	assert.Equal(t, u.CanonicalHash("demo.greet", data1, PriorityNormal), u.CanonicalHash("demo.greet", data2, PriorityNormal))
}

func TestSequenceUtilities_CanonicalHash_IgnoresUnderscoreKeys(t *testing.T) {
	u := NewSequenceUtilities()

	withMeta := map[string]any{"a": 1, "_timestamp": 12345}
	withoutMeta := map[string]any{"a": 1}

	assert.Equal(t, u.CanonicalHash("demo.greet", withMeta, PriorityNormal), u.CanonicalHash("demo.greet", withoutMeta, PriorityNormal))
}

func TestSequenceUtilities_CanonicalHash_DistinguishesPriority(t *testing.T) {
	u := NewSequenceUtilities()
	data := map[string]any{"a": 1}

	assert.NotEqual(t, u.CanonicalHash("demo.greet", data, PriorityNormal), u.CanonicalHash("demo.greet", data, PriorityHigh))
}
