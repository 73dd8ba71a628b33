package trace

import "errors"

// Thread is the recording handle of one engine goroutine. A handle must
// only be used by the goroutine that owns it.
type Thread struct {
	tr   *Tracer // nil when tracing is off for this handle
	key  any     // nil for handles made by NewThread
	slot Slot
	log  *EventLog
	meta *MetadataStream

	// dropped counts records made before binding once the tracer closed.
	dropped uint64
}

// nopThread is handed out by disabled tracers.
var nopThread = &Thread{slot: NoSlot}

// bind assigns the slot and opens the event log. On slot exhaustion the
// handle turns into a no-op. A closed tracer hands out no slots.
func (t *Thread) bind() bool {
	if t.tr.closed.Load() {
		return false
	}
	var (
		slot Slot
		err  error
	)
	if t.key != nil {
		slot, err = t.tr.reg.SlotFor(t.key)
	} else {
		slot, err = t.tr.reg.Acquire()
	}
	if err != nil {
		t.tr = nil
		return false
	}
	t.slot = slot
	t.log = openEventLog(t.tr.act.Prefix, slot, t.tr.arenaSize, t.tr.log)
	t.tr.threads[slot].Store(t)
	return true
}

func (t *Thread) record(kind Kind, ids IDs) {
	if t == nil || t.tr == nil {
		return
	}
	if t.log == nil && !t.bind() {
		if t.tr != nil {
			t.dropped++
		}
		return
	}
	if ids.HasIter() {
		kind = kind.WithIter()
	}
	ev := Event{Time: t.tr.clock.Elapsed(), Kind: kind, IDs: ids}
	t.log.append(&ev)
}

// RecordSchedulerBegin records the scheduler starting to process a node.
func (t *Thread) RecordSchedulerBegin(ids IDs) { t.record(KindSchedulerBegin, ids) }

// RecordSchedulerEnd records the scheduler finishing with a node.
func (t *Thread) RecordSchedulerEnd(ids IDs) { t.record(KindSchedulerEnd, ids) }

// RecordComputeBegin records a node's kernel starting.
func (t *Thread) RecordComputeBegin(ids IDs) { t.record(KindComputeBegin, ids) }

// RecordComputeEnd records a node's kernel finishing.
func (t *Thread) RecordComputeEnd(ids IDs) { t.record(KindComputeEnd, ids) }

// Enabled reports whether the handle records anything.
func (t *Thread) Enabled() bool {
	return t != nil && t.tr != nil
}

// Slot returns the handle's slot, assigning it if needed. Disabled handles
// return NoSlot.
func (t *Thread) Slot() Slot {
	if t == nil {
		return NoSlot
	}
	if t.tr != nil && t.log == nil {
		t.bind()
	}
	return t.slot
}

// Meta returns the handle's metadata stream, opening it on first use.
// Disabled handles get a stream that discards everything.
func (t *Thread) Meta() *MetadataStream {
	if t == nil || t.tr == nil {
		return nopMeta
	}
	if t.meta != nil {
		return t.meta
	}
	if t.log == nil && !t.bind() {
		return nopMeta
	}
	t.meta = openMetadataStream(t.tr.act.Prefix, t.slot, t.tr.log)
	return t.meta
}

// Stats returns the counters of the handle's event log. A handle that
// never bound reports only the records it dropped after the tracer closed.
func (t *Thread) Stats() Stats {
	if t == nil {
		return Stats{Slot: NoSlot}
	}
	if t.log == nil {
		return Stats{Slot: NoSlot, Dropped: t.dropped}
	}
	return t.log.Stats()
}

// Close flushes the handle's event log and metadata stream. Events
// recorded afterwards are dropped. Calls after the first return nil.
func (t *Thread) Close() error {
	if t == nil || t.log == nil {
		return nil
	}
	err := t.log.flush()
	if t.meta != nil {
		err = errors.Join(err, t.meta.close())
	}
	return err
}
