// Package trace records lifecycle events of a dataflow engine's worker
// goroutines into per-thread memory arenas and writes each arena to disk
// once, at teardown.
//
// # Usage
//
// Enable tracing by setting an output prefix:
//
//	FLOWTRACE_PATH=/tmp/run flowtrace record
//
// Each recording goroutine takes its own handle and records through it:
//
//	tr := trace.New(cfg)
//	defer tr.Close()
//
//	th := tr.NewThread()
//	th.RecordSchedulerBegin(trace.IDs{Task: 1, Node: 5})
//	sp := th.BeginCompute(trace.IDs{Task: 1, Node: 5, Frame: 7, Iter: 2})
//	sp.End()
//
// A disabled tracer hands out no-op handles; every call returns after one
// branch.
//
// # Files
//
// Slot N writes <prefix>.trace.N, the records back to back with no header,
// and <prefix>.meta.N, tab-separated naming lines. Trace files appear only
// after Close; a process that dies first loses its buffered records.
//
// # Records
//
// Little-endian, fixed width:
//
//	short (19 bytes): time f64 | kind i8 | task i8 | step i32 | partition i8 | node i32
//	long  (35 bytes): short | frame u64 | iter i64
//
// Kinds 1-4 are scheduler-begin, scheduler-end, compute-begin and
// compute-end; 5-8 are the same with iteration context and use the long
// shape. Time is microseconds since the tracer was created.
//
// # Limits
//
// At most MaxSlots handles ever record; later ones are silently disabled
// after one error log. A handle whose arena fills up drops the remaining
// events and logs one warning.
package trace
