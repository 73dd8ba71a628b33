package tracefile

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/vmihailenco/msgpack/v5"

	"flowtrace/internal/trace"
)

// Format represents the output format for decoded events.
type Format uint8

const (
	FormatText    Format = iota // human-readable text
	FormatNDJSON                // newline-delimited JSON
	FormatMsgpack               // one msgpack map per event
)

// String returns the string representation of Format.
func (f Format) String() string {
	switch f {
	case FormatText:
		return "text"
	case FormatNDJSON:
		return "ndjson"
	case FormatMsgpack:
		return "msgpack"
	default:
		return "unknown"
	}
}

// ParseFormat converts a string to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "text", "":
		return FormatText, nil
	case "ndjson", "json":
		return FormatNDJSON, nil
	case "msgpack", "mp":
		return FormatMsgpack, nil
	default:
		return FormatText, fmt.Errorf("invalid dump format: %q (expected: text|ndjson|msgpack)", s)
	}
}

// Record is the exported shape of one decoded event.
type Record struct {
	Slot      int32   `json:"slot" msgpack:"slot"`
	Time      float64 `json:"time_us" msgpack:"time_us"`
	Kind      string  `json:"kind" msgpack:"kind"`
	Task      int8    `json:"task" msgpack:"task"`
	Step      int32   `json:"step" msgpack:"step"`
	Partition int8    `json:"partition" msgpack:"partition"`
	Node      int32   `json:"node" msgpack:"node"`
	Frame     uint64  `json:"frame,omitempty" msgpack:"frame,omitempty"`
	Iter      int64   `json:"iter,omitempty" msgpack:"iter,omitempty"`
}

// NewRecord converts a decoded event of slot into a Record.
func NewRecord(slot trace.Slot, ev trace.Event) Record {
	return Record{
		Slot:      int32(slot),
		Time:      ev.Time,
		Kind:      ev.Kind.String(),
		Task:      ev.Task,
		Step:      ev.Step,
		Partition: ev.Partition,
		Node:      ev.Node,
		Frame:     ev.Frame,
		Iter:      ev.Iter,
	}
}

var (
	beginColor = color.New(color.FgGreen)
	endColor   = color.New(color.FgYellow)
)

// Encoder writes decoded events to w in one format.
type Encoder struct {
	w      io.Writer
	format Format
	colors bool
	mp     *msgpack.Encoder
}

// NewEncoder creates an Encoder. colors only affects FormatText.
func NewEncoder(w io.Writer, format Format, colors bool) *Encoder {
	e := &Encoder{w: w, format: format, colors: colors}
	if format == FormatMsgpack {
		e.mp = msgpack.NewEncoder(w)
	}
	return e
}

// Encode writes one event.
func (e *Encoder) Encode(slot trace.Slot, ev trace.Event) error {
	switch e.format {
	case FormatNDJSON:
		data, err := json.Marshal(NewRecord(slot, ev))
		if err != nil {
			return err
		}
		data = append(data, '\n')
		_, err = e.w.Write(data)
		return err
	case FormatMsgpack:
		return e.mp.Encode(NewRecord(slot, ev))
	default:
		_, err := io.WriteString(e.w, e.formatText(slot, ev))
		return err
	}
}

// formatText formats an event as human-readable text.
// Format: [slot] time → kind task/step/partition/node [frame#iter]
func (e *Encoder) formatText(slot trace.Slot, ev trace.Event) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%3d] %14.3fus ", slot, ev.Time))

	kind := ev.Kind.String()
	switch ev.Kind.Base() {
	case trace.KindSchedulerBegin, trace.KindComputeBegin:
		sb.WriteString("\u2192 ") // →
		if e.colors {
			kind = beginColor.Sprint(kind)
		}
	default:
		sb.WriteString("\u2190 ") // ←
		if e.colors {
			kind = endColor.Sprint(kind)
		}
	}
	sb.WriteString(kind)

	sb.WriteString(" task=")
	sb.WriteString(strconv.Itoa(int(ev.Task)))
	sb.WriteString(" step=")
	sb.WriteString(strconv.Itoa(int(ev.Step)))
	sb.WriteString(" part=")
	sb.WriteString(strconv.Itoa(int(ev.Partition)))
	sb.WriteString(" node=")
	sb.WriteString(strconv.Itoa(int(ev.Node)))

	if ev.Kind.HasIter() {
		sb.WriteString(" frame=")
		sb.WriteString(strconv.FormatUint(ev.Frame, 10))
		sb.WriteString(" iter=")
		sb.WriteString(strconv.FormatInt(ev.Iter, 10))
	}

	sb.WriteString("\n")
	return sb.String()
}
