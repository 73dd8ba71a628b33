package trace

// Kind is the record tag stored in every trace record.
type Kind uint8

const (
	// KindSchedulerBegin marks the scheduler picking up a node.
	KindSchedulerBegin Kind = iota + 1
	// KindSchedulerEnd marks the scheduler releasing a node.
	KindSchedulerEnd
	// KindComputeBegin marks the start of a node's kernel.
	KindComputeBegin
	// KindComputeEnd marks the end of a node's kernel.
	KindComputeEnd
	KindSchedulerBeginIter // KindSchedulerBegin inside a loop frame
	KindSchedulerEndIter   // KindSchedulerEnd inside a loop frame
	KindComputeBeginIter   // KindComputeBegin inside a loop frame
	KindComputeEndIter     // KindComputeEnd inside a loop frame
)

// iterOffset separates the plain kinds from their iteration-bearing twins.
const iterOffset = KindSchedulerBeginIter - KindSchedulerBegin

// Valid reports whether k is one of the eight defined tags.
func (k Kind) Valid() bool {
	return k >= KindSchedulerBegin && k <= KindComputeEndIter
}

// HasIter reports whether records of this kind use the long shape.
func (k Kind) HasIter() bool {
	return k >= KindSchedulerBeginIter && k <= KindComputeEndIter
}

// WithIter returns the iteration-bearing variant of a plain kind.
func (k Kind) WithIter() Kind {
	if k.HasIter() || !k.Valid() {
		return k
	}
	return k + iterOffset
}

// Base strips the iteration context from k.
func (k Kind) Base() Kind {
	if k.HasIter() {
		return k - iterOffset
	}
	return k
}

// Size returns the encoded record size for k, or 0 for invalid tags.
func (k Kind) Size() int {
	switch {
	case k.HasIter():
		return LongRecordSize
	case k.Valid():
		return ShortRecordSize
	default:
		return 0
	}
}

// String returns the string representation of Kind.
func (k Kind) String() string {
	switch k {
	case KindSchedulerBegin:
		return "scheduler-begin"
	case KindSchedulerEnd:
		return "scheduler-end"
	case KindComputeBegin:
		return "compute-begin"
	case KindComputeEnd:
		return "compute-end"
	case KindSchedulerBeginIter:
		return "scheduler-begin-iter"
	case KindSchedulerEndIter:
		return "scheduler-end-iter"
	case KindComputeBeginIter:
		return "compute-begin-iter"
	case KindComputeEndIter:
		return "compute-end-iter"
	default:
		return "unknown"
	}
}

// IDs carries the engine-supplied identifiers of one event.
// Frame and Iter are zero outside of loop frames.
type IDs struct {
	Task      int8
	Step      int32
	Partition int8
	Node      int32
	Frame     uint64
	Iter      int64
}

// HasIter reports whether ids carry iteration context.
func (ids IDs) HasIter() bool {
	return ids.Frame != 0 || ids.Iter != 0
}

// Event represents a single trace record.
type Event struct {
	Time float64 // microseconds since activation
	Kind Kind
	IDs
}
