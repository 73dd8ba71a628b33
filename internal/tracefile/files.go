package tracefile

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sort"
	"strconv"
	"strings"
	"sync"

	"fortio.org/safecast"
	"golang.org/x/exp/mmap"
	"golang.org/x/sync/errgroup"

	"flowtrace/internal/trace"
)

// File is a memory-mapped trace file.
type File struct {
	*mmap.ReaderAt
	Path string
}

// Open maps the trace file at path read-only.
func Open(path string) (*File, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open trace: %w", err)
	}
	return &File{ReaderAt: r, Path: path}, nil
}

// Events decodes every record of the file.
func (f *File) Events() ([]trace.Event, error) {
	evs, err := ReadEvents(f)
	if err != nil {
		return evs, fmt.Errorf("%s: %w", f.Path, err)
	}
	return evs, nil
}

// Ref locates the trace file of one slot.
type Ref struct {
	Slot trace.Slot
	Path string
}

// MetaPath returns the companion metadata file of the slot.
func (r Ref) MetaPath() string {
	return strings.TrimSuffix(r.Path, ".trace."+strconv.Itoa(int(r.Slot))) + ".meta." + strconv.Itoa(int(r.Slot))
}

// Files lists the trace files written under prefix, ordered by slot.
// Temporary files of unfinished flushes are skipped.
func Files(prefix string) ([]Ref, error) {
	base := prefix + ".trace."
	matches, err := filepath.Glob(escapeGlob(base) + "*")
	if err != nil {
		return nil, err
	}
	var refs []Ref
	for _, m := range matches {
		n, err := strconv.ParseInt(strings.TrimPrefix(m, base), 10, 64)
		if err != nil {
			continue
		}
		slot, err := safecast.Conv[int32](n)
		if err != nil || slot < 0 {
			continue
		}
		refs = append(refs, Ref{Slot: trace.Slot(slot), Path: m})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Slot < refs[j].Slot })
	return refs, nil
}

// ParseRef recognizes a path naming one slot's trace file.
func ParseRef(path string) (Ref, bool) {
	i := strings.LastIndex(path, ".trace.")
	if i < 0 {
		return Ref{}, false
	}
	n, err := strconv.ParseInt(path[i+len(".trace."):], 10, 32)
	if err != nil || n < 0 {
		return Ref{}, false
	}
	return Ref{Slot: trace.Slot(n), Path: path}, true
}

// ReadAll decodes every slot's trace file under prefix concurrently.
func ReadAll(ctx context.Context, prefix string) (map[trace.Slot][]trace.Event, error) {
	refs, err := Files(prefix)
	if err != nil {
		return nil, err
	}
	var (
		mu  sync.Mutex
		out = make(map[trace.Slot][]trace.Event, len(refs))
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(runtime.GOMAXPROCS(0))
	for _, ref := range refs {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := Open(ref.Path)
			if err != nil {
				return err
			}
			defer f.Close()
			evs, err := f.Events()
			if err != nil {
				return err
			}
			mu.Lock()
			out[ref.Slot] = evs
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func escapeGlob(s string) string {
	r := strings.NewReplacer(`*`, `\*`, `?`, `\?`, `[`, `\[`, `\`, `\\`)
	return r.Replace(s)
}
