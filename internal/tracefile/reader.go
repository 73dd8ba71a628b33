package tracefile

import (
	"fmt"
	"io"

	"flowtrace/internal/trace"
)

// Source is a trace file's contents.
type Source interface {
	io.ReaderAt

	// Len returns the size of the trace in bytes.
	Len() int
}

// Reader decodes records from a Source in file order.
type Reader struct {
	src Source
	off int64
	buf [trace.LongRecordSize]byte
}

// NewReader returns a Reader positioned at the first record.
func NewReader(src Source) *Reader {
	return &Reader{src: src}
}

// Offset returns the byte offset of the next record.
func (r *Reader) Offset() int64 { return r.off }

// Next decodes the next record. It returns io.EOF after the last record
// and an error wrapping trace.ErrTruncated if the file ends mid-record.
func (r *Reader) Next() (trace.Event, error) {
	remaining := int64(r.src.Len()) - r.off
	if remaining <= 0 {
		return trace.Event{}, io.EOF
	}
	n := int64(len(r.buf))
	if remaining < n {
		n = remaining
	}
	got, err := r.src.ReadAt(r.buf[:n], r.off)
	if int64(got) < n {
		if err == nil {
			err = io.ErrUnexpectedEOF
		}
		return trace.Event{}, fmt.Errorf("read at %d: %w", r.off, err)
	}
	ev, size, err := trace.DecodeRecord(r.buf[:n])
	if err != nil {
		return trace.Event{}, fmt.Errorf("record at offset %d: %w", r.off, err)
	}
	r.off += int64(size)
	return ev, nil
}

// Decode decodes every record in data.
func Decode(data []byte) ([]trace.Event, error) {
	var out []trace.Event
	off := 0
	for off < len(data) {
		ev, n, err := trace.DecodeRecord(data[off:])
		if err != nil {
			return out, fmt.Errorf("record at offset %d: %w", off, err)
		}
		out = append(out, ev)
		off += n
	}
	return out, nil
}

// ReadEvents decodes every record of src.
func ReadEvents(src Source) ([]trace.Event, error) {
	r := NewReader(src)
	var out []trace.Event
	for {
		ev, err := r.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, ev)
	}
}
