package trace

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
)

// Record layout, little-endian, no padding:
//
//	short: [time:f64][kind:i8][task:i8][step:i32][partition:i8][node:i32]
//	long:  short + [frame:u64][iter:i64]
const (
	ShortRecordSize = 8 + 1 + 1 + 4 + 1 + 4
	LongRecordSize  = ShortRecordSize + 8 + 8
)

var (
	// ErrArenaFull is returned when a record does not fit the remaining buffer.
	ErrArenaFull = errors.New("trace arena full")
	// ErrTruncated is returned when input ends inside a record.
	ErrTruncated = errors.New("truncated trace record")
	// ErrUnknownKind is returned for a record tag outside the defined kinds.
	ErrUnknownKind = errors.New("unknown trace record kind")
)

var order = binary.LittleEndian

// Encoder appends records to a fixed byte slice and tracks the cursor.
// It never grows buf.
type Encoder struct {
	buf []byte
	off int
}

// NewEncoder returns an Encoder writing into buf[0:len(buf)].
func NewEncoder(buf []byte) Encoder {
	return Encoder{buf: buf}
}

// Len returns the number of bytes written so far.
func (e *Encoder) Len() int { return e.off }

// Cap returns the buffer capacity.
func (e *Encoder) Cap() int { return len(e.buf) }

// Bytes returns the written prefix of the buffer.
func (e *Encoder) Bytes() []byte { return e.buf[:e.off] }

// Put encodes ev at the cursor. When the record does not fit, nothing is
// written and ErrArenaFull is returned.
func (e *Encoder) Put(ev *Event) error {
	n := ev.Kind.Size()
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrUnknownKind, ev.Kind)
	}
	if len(e.buf)-e.off < n {
		return ErrArenaFull
	}
	b := e.buf[e.off : e.off+n]
	order.PutUint64(b[0:], math.Float64bits(ev.Time))
	b[8] = byte(ev.Kind)
	b[9] = byte(ev.Task)
	order.PutUint32(b[10:], uint32(ev.Step))
	b[14] = byte(ev.Partition)
	order.PutUint32(b[15:], uint32(ev.Node))
	if n == LongRecordSize {
		order.PutUint64(b[19:], ev.Frame)
		order.PutUint64(b[27:], uint64(ev.Iter))
	}
	e.off += n
	return nil
}

// DecodeRecord decodes the record at the start of b and returns it with
// its encoded size.
func DecodeRecord(b []byte) (Event, int, error) {
	if len(b) < ShortRecordSize {
		return Event{}, 0, ErrTruncated
	}
	kind := Kind(b[8])
	n := kind.Size()
	if n == 0 {
		return Event{}, 0, fmt.Errorf("%w: %d", ErrUnknownKind, b[8])
	}
	if len(b) < n {
		return Event{}, 0, ErrTruncated
	}
	ev := Event{
		Time: math.Float64frombits(order.Uint64(b[0:])),
		Kind: kind,
		IDs: IDs{
			Task:      int8(b[9]),
			Step:      int32(order.Uint32(b[10:])),
			Partition: int8(b[14]),
			Node:      int32(order.Uint32(b[15:])),
		},
	}
	if n == LongRecordSize {
		ev.Frame = order.Uint64(b[19:])
		ev.Iter = int64(order.Uint64(b[27:]))
	}
	return ev, n, nil
}
