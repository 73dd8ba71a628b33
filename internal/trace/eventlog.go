package trace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
)

// DefaultArenaSize is the per-thread record buffer size.
const DefaultArenaSize = 4 << 20

// Stats summarizes one slot's event log.
type Stats struct {
	Slot     Slot
	Events   uint64
	Bytes    int
	Dropped  uint64 // lost to a full arena or recorded after close
	Rejected uint64 // not encodable
}

// EventLog buffers one thread's records in memory and writes them out once.
// Only the owning thread may call append; flush runs after it stopped.
type EventLog struct {
	slot     Slot
	path     string
	enc      Encoder
	tmp      *os.File
	events   uint64
	dropped  uint64
	rejected uint64
	flushed  bool
	log      *zap.Logger
}

func tracePath(prefix string, slot Slot) string {
	return fmt.Sprintf("%s.trace.%d", prefix, slot)
}

func metaPath(prefix string, slot Slot) string {
	return fmt.Sprintf("%s.meta.%d", prefix, slot)
}

// openEventLog allocates the arena and creates the temporary output file.
// A failed open only degrades output; the returned log is always usable.
func openEventLog(prefix string, slot Slot, arenaSize int, log *zap.Logger) *EventLog {
	if arenaSize <= 0 {
		arenaSize = DefaultArenaSize
	}
	l := &EventLog{
		slot: slot,
		path: tracePath(prefix, slot),
		enc:  NewEncoder(make([]byte, arenaSize)),
		log:  log.With(zap.Int32("slot", int32(slot))),
	}
	f, err := os.CreateTemp(filepath.Dir(l.path), filepath.Base(l.path)+".tmp-*")
	if err != nil {
		l.log.Warn("trace file open failed, output is best effort",
			zap.String("path", l.path), zap.Error(err))
	} else {
		l.tmp = f
	}
	return l
}

// append encodes one record. Records that no longer fit are dropped.
func (l *EventLog) append(ev *Event) {
	if l.flushed {
		l.dropped++
		return
	}
	err := l.enc.Put(ev)
	switch {
	case err == nil:
		l.events++
	case errors.Is(err, ErrArenaFull):
		l.dropped++
		if l.dropped == 1 {
			l.log.Warn("trace arena full, dropping further events",
				zap.Int("arena_size", l.enc.Cap()), zap.Uint64("events", l.events))
		}
	default:
		l.rejected++
		if l.rejected == 1 {
			l.log.Error("trace record rejected", zap.Error(err))
		}
	}
}

// Stats returns counters for this log.
func (l *EventLog) Stats() Stats {
	return Stats{
		Slot:     l.slot,
		Events:   l.events,
		Bytes:    l.enc.Len(),
		Dropped:  l.dropped,
		Rejected: l.rejected,
	}
}

// flush writes the buffered records to the trace file. Only the first call
// has an effect.
func (l *EventLog) flush() error {
	if l.flushed {
		return nil
	}
	l.flushed = true
	data := l.enc.Bytes()

	if l.tmp == nil {
		// The early open failed; try the final path directly.
		if err := os.WriteFile(l.path, data, 0o644); err != nil {
			l.log.Error("trace flush failed", zap.String("path", l.path), zap.Error(err))
			return fmt.Errorf("write %s: %w", l.path, err)
		}
		return nil
	}

	f := l.tmp
	l.tmp = nil
	_, werr := f.Write(data)
	_ = f.Chmod(0o644)
	cerr := f.Close()
	if err := errors.Join(werr, cerr); err != nil {
		_ = os.Remove(f.Name())
		l.log.Error("trace flush failed", zap.String("path", l.path), zap.Error(err))
		return fmt.Errorf("write %s: %w", l.path, err)
	}
	if err := os.Rename(f.Name(), l.path); err != nil {
		_ = os.Remove(f.Name())
		l.log.Error("trace flush failed", zap.String("path", l.path), zap.Error(err))
		return fmt.Errorf("rename %s: %w", l.path, err)
	}
	l.log.Debug("trace flushed", zap.String("path", l.path),
		zap.Uint64("events", l.events), zap.Uint64("dropped", l.dropped))
	return nil
}
