package tracefile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vmihailenco/msgpack/v5"

	"flowtrace/internal/trace"
)

// writeRun records events on the given number of threads and flushes them.
func writeRun(t *testing.T, threads int, perThread int) string {
	t.Helper()
	prefix := filepath.Join(t.TempDir(), "run")
	tr := trace.New(trace.Config{Prefix: prefix})
	for i := 0; i < threads; i++ {
		th := tr.NewThread()
		for j := 0; j < perThread; j++ {
			ids := trace.IDs{Task: int8(i), Step: int32(j), Node: int32(j * 10)}
			if j%2 == 1 {
				ids.Frame, ids.Iter = uint64(j), int64(j/2)
			}
			th.RecordComputeBegin(ids)
		}
	}
	require.NoError(t, tr.Close())
	return prefix
}

func TestFilesOrderedBySlot(t *testing.T) {
	prefix := writeRun(t, 12, 1)
	// Leftover temp file from an interrupted flush.
	require.NoError(t, os.WriteFile(prefix+".trace.3.tmp-123", []byte("x"), 0o644))

	refs, err := Files(prefix)
	require.NoError(t, err)
	require.Len(t, refs, 12)
	for i, ref := range refs {
		assert.Equal(t, trace.Slot(i), ref.Slot)
		assert.Equal(t, prefix+".meta."+strings.TrimPrefix(ref.Path, prefix+".trace."), ref.MetaPath())
	}
}

func TestOpenAndReadEvents(t *testing.T) {
	prefix := writeRun(t, 1, 5)
	f, err := Open(prefix + ".trace.0")
	require.NoError(t, err)
	defer f.Close()

	evs, err := f.Events()
	require.NoError(t, err)
	require.Len(t, evs, 5)
	for j, ev := range evs {
		assert.Equal(t, int32(j), ev.Step)
		assert.Equal(t, j%2 == 1, ev.Kind.HasIter(), "event %d", j)
	}
	assert.Equal(t, uint64(3), evs[3].Frame)
}

func TestReaderTruncated(t *testing.T) {
	enc := trace.NewEncoder(make([]byte, 2*trace.LongRecordSize))
	require.NoError(t, enc.Put(&trace.Event{Kind: trace.KindSchedulerBegin}))
	require.NoError(t, enc.Put(&trace.Event{Kind: trace.KindSchedulerEndIter, IDs: trace.IDs{Iter: 1}}))
	data := enc.Bytes()[:enc.Len()-4]

	r := NewReader(bytes.NewReader(data))
	_, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, int64(trace.ShortRecordSize), r.Offset())
	_, err = r.Next()
	require.True(t, errors.Is(err, trace.ErrTruncated), "err = %v", err)

	evs, err := Decode(data)
	assert.Len(t, evs, 1)
	assert.ErrorIs(t, err, trace.ErrTruncated)
}

func TestReaderEOF(t *testing.T) {
	r := NewReader(bytes.NewReader(nil))
	_, err := r.Next()
	assert.Equal(t, io.EOF, err)
}

func TestReadAll(t *testing.T) {
	prefix := writeRun(t, 4, 3)
	all, err := ReadAll(context.Background(), prefix)
	require.NoError(t, err)
	require.Len(t, all, 4)
	for slot, evs := range all {
		require.Len(t, evs, 3)
		for _, ev := range evs {
			assert.Equal(t, int8(slot), ev.Task)
		}
	}
}

func TestParseRef(t *testing.T) {
	ref, ok := ParseRef("/tmp/run.trace.17")
	require.True(t, ok)
	assert.Equal(t, trace.Slot(17), ref.Slot)
	assert.Equal(t, "/tmp/run.meta.17", ref.MetaPath())

	for _, bad := range []string{"/tmp/run.meta.1", "/tmp/run.trace.x", "/tmp/run.trace.1.tmp-9"} {
		_, ok := ParseRef(bad)
		assert.False(t, ok, bad)
	}
}

func TestEncoderFormats(t *testing.T) {
	ev := trace.Event{Time: 12.5, Kind: trace.KindComputeEndIter, IDs: trace.IDs{Task: 1, Step: 2, Partition: 3, Node: 4, Frame: 7, Iter: 2}}

	var text bytes.Buffer
	require.NoError(t, NewEncoder(&text, FormatText, false).Encode(2, ev))
	assert.Equal(t, "[  2]         12.500us ← compute-end-iter task=1 step=2 part=3 node=4 frame=7 iter=2\n", text.String())

	var js bytes.Buffer
	require.NoError(t, NewEncoder(&js, FormatNDJSON, false).Encode(2, ev))
	var rec Record
	require.NoError(t, json.Unmarshal(js.Bytes(), &rec))
	assert.Equal(t, NewRecord(2, ev), rec)

	var mp bytes.Buffer
	require.NoError(t, NewEncoder(&mp, FormatMsgpack, false).Encode(2, ev))
	var back Record
	require.NoError(t, msgpack.Unmarshal(mp.Bytes(), &back))
	assert.Equal(t, "compute-end-iter", back.Kind)
	assert.Equal(t, uint64(7), back.Frame)
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"text": FormatText, "NDJSON": FormatNDJSON, "msgpack": FormatMsgpack} {
		got, err := ParseFormat(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}
