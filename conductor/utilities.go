package conductor

import (
	"fmt"
	"hash/fnv"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
)

// SequenceUtilities holds the pure name/hash/id helpers shared by the
// validator, the orchestrator and the executor. Instance-id generation
// needs a process-wide monotonic counter, which is the only state this
// type carries.
type SequenceUtilities struct {
	counter uint64
}

// NewSequenceUtilities creates a SequenceUtilities.
func NewSequenceUtilities() *SequenceUtilities {
	return &SequenceUtilities{}
}

// ExtractSymphonyName returns the portion of a fully-qualified sequence
// name before its last '.', or the whole name if it carries no domain
// prefix.
func (u *SequenceUtilities) ExtractSymphonyName(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[:i]
	}
	return name
}

// ExtractResourceID determines which resource a request contends for,
// narrowest scope first: an "elementId" entry in data wins, then an
// explicit "resourceId", and otherwise the symphony name itself is the
// resource, so unrelated sequences never collide.
func (u *SequenceUtilities) ExtractResourceID(name string, data map[string]any) string {
	for _, key := range []string{"elementId", "resourceId"} {
		if v, ok := data[key]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return u.ExtractSymphonyName(name)
}

// CreateInstanceID mints a unique identifier for one admitted play()
// call, distinct from the RequestID: several instances of the same
// sequence can be queued at once and need to be told apart by the
// ResourceDelegator independently of request bookkeeping.
func (u *SequenceUtilities) CreateInstanceID(name, resourceID string) string {
	n := atomic.AddUint64(&u.counter, 1)
	return fmt.Sprintf("%s:%s:%d", name, resourceID, n)
}

// CanonicalHash produces a deterministic FNV-1a hash over (name, data,
// priority), used as the dedup-window key. Map keys are sorted and any
// key starting with "_" is excluded, so caller-attached bookkeeping
// fields (e.g. "_timestamp") never defeat deduplication of otherwise
// identical requests.
func (u *SequenceUtilities) CanonicalHash(name string, data map[string]any, priority Priority) string {
	var b strings.Builder
	b.WriteString(name)
	b.WriteByte('|')
	b.WriteString(string(priority))
	b.WriteByte('|')
	canonicalizeInto(&b, data)

	h := fnv.New64a()
	_, _ = h.Write([]byte(b.String()))
	return strconv.FormatUint(h.Sum64(), 16)
}

func canonicalizeInto(b *strings.Builder, v any) {
	switch val := v.(type) {
	case nil:
		b.WriteString("null")
	case map[string]any:
		keys := make([]string, 0, len(val))
		for k := range val {
			if strings.HasPrefix(k, "_") {
				continue
			}
			keys = append(keys, k)
		}
		sort.Strings(keys)
		b.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				b.WriteByte(',')
			}
			b.WriteString(k)
			b.WriteByte(':')
			canonicalizeInto(b, val[k])
		}
		b.WriteByte('}')
	case []any:
		b.WriteByte('[')
		for i, e := range val {
			if i > 0 {
				b.WriteByte(',')
			}
			canonicalizeInto(b, e)
		}
		b.WriteByte(']')
	case string:
		b.WriteByte('"')
		b.WriteString(val)
		b.WriteByte('"')
	default:
		fmt.Fprintf(b, "%v", val)
	}
}

// NewRequestID mints a fresh external request identifier.
func NewRequestID() string {
	return uuid.NewString()
}
