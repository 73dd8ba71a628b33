package trace

import (
	"bufio"
	"io"
	"os"
	"strconv"

	"go.uber.org/zap"
)

const metaBufferSize = 8192

// NodeRef names an input edge of a node.
type NodeRef struct {
	Node   int32
	Name   string
	Device string
}

// MetadataStream is a thread's text side channel for naming information.
// Lines are tab separated; string fields are Go-quoted.
type MetadataStream struct {
	path string
	f    *os.File
	w    *bufio.Writer
	err  error
	log  *zap.Logger
	line []byte
}

// nopMeta discards everything.
var nopMeta = &MetadataStream{err: io.ErrClosedPipe}

func openMetadataStream(prefix string, slot Slot, log *zap.Logger) *MetadataStream {
	m := &MetadataStream{path: metaPath(prefix, slot), log: log.With(zap.Int32("slot", int32(slot)))}
	f, err := os.Create(m.path)
	if err != nil {
		m.fail(err)
		return m
	}
	m.f = f
	m.w = bufio.NewWriterSize(f, metaBufferSize)
	return m
}

func (m *MetadataStream) fail(err error) {
	if m.err != nil {
		return
	}
	m.err = err
	m.log.Warn("trace metadata disabled", zap.String("path", m.path), zap.Error(err))
}

// Write implements io.Writer. Errors are logged once and swallowed.
func (m *MetadataStream) Write(p []byte) (int, error) {
	if m.err != nil {
		return len(p), nil
	}
	if _, err := m.w.Write(p); err != nil {
		m.fail(err)
	}
	return len(p), nil
}

// NameTask records a description for a task id.
func (m *MetadataStream) NameTask(task int8, desc string) {
	if m.err != nil {
		return
	}
	b := m.begin("task", int64(task))
	b = quoted(b, desc)
	m.end(b)
}

// NameNode records the name, op type and device of a node.
func (m *MetadataStream) NameNode(node int32, name, op, device string) {
	if m.err != nil {
		return
	}
	b := m.begin("node", int64(node))
	b = quoted(b, name)
	b = quoted(b, op)
	b = quoted(b, device)
	m.end(b)
}

// NodeInputs records the input edges of a node.
func (m *MetadataStream) NodeInputs(node int32, inputs []NodeRef) {
	if m.err != nil {
		return
	}
	b := m.begin("inputs", int64(node))
	for _, in := range inputs {
		b = append(b, '\t')
		b = strconv.AppendInt(b, int64(in.Node), 10)
		b = append(b, ':')
		b = strconv.AppendQuote(b, in.Name)
		b = append(b, ':')
		b = strconv.AppendQuote(b, in.Device)
	}
	m.end(b)
}

// SendRecvKey records the rendezvous key of a send or recv node.
func (m *MetadataStream) SendRecvKey(node int32, key string) {
	if m.err != nil {
		return
	}
	b := m.begin("sendrecv", int64(node))
	b = quoted(b, key)
	m.end(b)
}

// NameRun records the target nodes of an executor run.
func (m *MetadataStream) NameRun(run uint64, targets []string) {
	if m.err != nil {
		return
	}
	b := append(m.line[:0], "run\t"...)
	b = strconv.AppendUint(b, run, 10)
	for _, t := range targets {
		b = quoted(b, t)
	}
	m.end(b)
}

// Flush pushes buffered lines to the file.
func (m *MetadataStream) Flush() error {
	if m.w == nil {
		return nil
	}
	if err := m.w.Flush(); err != nil {
		m.fail(err)
		return err
	}
	return nil
}

func (m *MetadataStream) close() error {
	if m.f == nil {
		return nil
	}
	ferr := m.Flush()
	cerr := m.f.Close()
	m.f = nil
	m.w = nil
	if m.err == nil {
		m.err = os.ErrClosed
	}
	if ferr != nil {
		return ferr
	}
	return cerr
}

func (m *MetadataStream) begin(tag string, id int64) []byte {
	b := append(m.line[:0], tag...)
	b = append(b, '\t')
	return strconv.AppendInt(b, id, 10)
}

func (m *MetadataStream) end(b []byte) {
	b = append(b, '\n')
	m.line = b
	_, _ = m.Write(b)
}

func quoted(b []byte, s string) []byte {
	b = append(b, '\t')
	return strconv.AppendQuote(b, s)
}
