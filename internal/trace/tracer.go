package trace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Config holds tracer configuration.
type Config struct {
	Prefix    string      // output path prefix; empty disables tracing
	MaxSlots  int         // maximum recording threads (default 256)
	ArenaSize int         // per-thread record buffer in bytes (default 4 MiB)
	Clock     Clock       // nil uses the monotonic clock anchored at New
	Logger    *zap.Logger // diagnostics; nil discards
}

// Activation is the immutable on/off state of a tracer.
type Activation struct {
	Prefix string
	Start  time.Time
}

// Enabled reports whether tracing is on.
func (a Activation) Enabled() bool { return a.Prefix != "" }

// Tracer owns the per-thread event logs of one traced run.
type Tracer struct {
	act       Activation
	clock     Clock
	arenaSize int
	log       *zap.Logger
	reg       *Registry
	handles   sync.Map // key -> *Thread
	threads   []atomic.Pointer[Thread]
	closed    atomic.Bool
}

// Disabled is a tracer that records nothing.
var Disabled = &Tracer{log: zap.NewNop()}

// New creates a Tracer. With an empty prefix the returned tracer is
// disabled and creates no files.
func New(cfg Config) *Tracer {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	if cfg.Prefix == "" {
		log.Debug("trace prefix not set, tracing disabled")
		return &Tracer{log: log}
	}
	if cfg.MaxSlots <= 0 {
		cfg.MaxSlots = DefaultMaxSlots
	}
	if cfg.ArenaSize <= 0 {
		cfg.ArenaSize = DefaultArenaSize
	}
	start := time.Now()
	clock := cfg.Clock
	if clock == nil {
		clock = NewClock(start)
	}
	if err := checkPrefix(cfg.Prefix); err != nil {
		log.Warn("trace prefix looks malformed, output may be incomplete",
			zap.String("prefix", cfg.Prefix), zap.Error(err))
	}
	log.Info("tracing enabled", zap.String("prefix", cfg.Prefix),
		zap.Int("max_slots", cfg.MaxSlots), zap.Int("arena_size", cfg.ArenaSize))
	return &Tracer{
		act:       Activation{Prefix: cfg.Prefix, Start: start},
		clock:     clock,
		arenaSize: cfg.ArenaSize,
		log:       log,
		reg:       NewRegistry(cfg.MaxSlots, log),
		threads:   make([]atomic.Pointer[Thread], cfg.MaxSlots),
	}
}

func checkPrefix(prefix string) error {
	if strings.HasSuffix(prefix, string(filepath.Separator)) || filepath.Base(prefix) == "." {
		return errors.New("prefix has no file name component")
	}
	dir := filepath.Dir(prefix)
	fi, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}
	return nil
}

// Enabled returns true if tracing is active.
func (t *Tracer) Enabled() bool {
	return t != nil && t.act.Enabled()
}

// Activation returns the tracer's activation state.
func (t *Tracer) Activation() Activation {
	if t == nil {
		return Activation{}
	}
	return t.act
}

// Thread returns the handle cached for key, creating it on first use.
// The slot is assigned when the handle records its first event.
func (t *Tracer) Thread(key any) *Thread {
	if !t.Enabled() {
		return nopThread
	}
	if v, ok := t.handles.Load(key); ok {
		return v.(*Thread)
	}
	v, _ := t.handles.LoadOrStore(key, &Thread{tr: t, key: key, slot: NoSlot})
	return v.(*Thread)
}

// NewThread returns a fresh handle for a goroutine that records events.
// The slot is assigned when the handle records its first event.
func (t *Tracer) NewThread() *Thread {
	if !t.Enabled() {
		return nopThread
	}
	return &Thread{tr: t, slot: NoSlot}
}

// Stats returns per-slot counters ordered by slot. Recording goroutines
// must have stopped.
func (t *Tracer) Stats() []Stats {
	if !t.Enabled() {
		return nil
	}
	n := t.reg.Len()
	out := make([]Stats, 0, n)
	for i := 0; i < n; i++ {
		if th := t.threads[i].Load(); th != nil {
			out = append(out, th.log.Stats())
		}
	}
	return out
}

// Close flushes every thread's event log and metadata stream. Recording
// goroutines must have stopped. Calls after the first return nil.
func (t *Tracer) Close() error {
	if !t.Enabled() || !t.closed.CompareAndSwap(false, true) {
		return nil
	}
	var errs []error
	n := t.reg.Len()
	for i := 0; i < n; i++ {
		if th := t.threads[i].Load(); th != nil {
			if err := th.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	err := errors.Join(errs...)
	if err != nil {
		t.log.Error("trace teardown incomplete", zap.Error(err))
	} else {
		t.log.Info("trace flushed", zap.Int("threads", n))
	}
	return err
}
