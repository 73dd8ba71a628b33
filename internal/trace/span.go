package trace

// Span pairs a begin record with its matching end record.
//
//	sp := th.BeginCompute(ids)
//	defer sp.End()
type Span struct {
	th   *Thread
	kind Kind // begin kind, without iteration context
	ids  IDs
}

// BeginScheduler records a scheduler-begin event and returns its span.
func (t *Thread) BeginScheduler(ids IDs) Span {
	t.record(KindSchedulerBegin, ids)
	return Span{th: t, kind: KindSchedulerBegin, ids: ids}
}

// BeginCompute records a compute-begin event and returns its span.
func (t *Thread) BeginCompute(ids IDs) Span {
	t.record(KindComputeBegin, ids)
	return Span{th: t, kind: KindComputeBegin, ids: ids}
}

// End records the end event matching the span's begin event.
// The zero Span does nothing.
func (s Span) End() {
	switch s.kind {
	case KindSchedulerBegin:
		s.th.record(KindSchedulerEnd, s.ids)
	case KindComputeBegin:
		s.th.record(KindComputeEnd, s.ids)
	}
}
