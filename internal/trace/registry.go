package trace

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
)

// Slot is the dense index identifying a recording thread.
type Slot int32

// NoSlot is returned for handles that never got a slot.
const NoSlot Slot = -1

// DefaultMaxSlots bounds the number of recording threads per process.
const DefaultMaxSlots = 256

// ErrSlotsExhausted is returned once more threads registered than allowed.
var ErrSlotsExhausted = errors.New("trace slots exhausted")

// Registry hands out slots. Slots are never released.
type Registry struct {
	next      atomic.Int32
	max       int32
	keys      sync.Map // key -> *keyedSlot
	exhausted sync.Once
	log       *zap.Logger
}

type keyedSlot struct {
	once sync.Once
	slot Slot
	err  error
}

// NewRegistry creates a Registry with room for max slots.
func NewRegistry(max int, log *zap.Logger) *Registry {
	if max <= 0 {
		max = DefaultMaxSlots
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Registry{max: int32(max), log: log}
}

// Max returns the slot limit.
func (r *Registry) Max() int { return int(r.max) }

// Len returns the number of slots handed out.
func (r *Registry) Len() int {
	n := r.next.Load()
	if n > r.max {
		n = r.max
	}
	return int(n)
}

// Acquire allocates the next slot.
func (r *Registry) Acquire() (Slot, error) {
	n := r.next.Add(1)
	if n > r.max {
		// Keep the counter from wrapping under sustained overflow.
		r.next.Store(r.max + 1)
		r.exhausted.Do(func() {
			r.log.Error("trace slot limit reached, further threads are not traced",
				zap.Int32("max_slots", r.max))
		})
		return NoSlot, fmt.Errorf("%w: limit %d", ErrSlotsExhausted, r.max)
	}
	return Slot(n - 1), nil
}

// SlotFor returns the slot bound to key, allocating one on first use.
func (r *Registry) SlotFor(key any) (Slot, error) {
	v, ok := r.keys.Load(key)
	if !ok {
		v, _ = r.keys.LoadOrStore(key, &keyedSlot{})
	}
	ks := v.(*keyedSlot)
	ks.once.Do(func() {
		ks.slot, ks.err = r.Acquire()
	})
	return ks.slot, ks.err
}
