package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"flowtrace/internal/tracefile"
	"flowtrace/internal/version"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestRecordThenDump(t *testing.T) {
	t.Setenv("FLOWTRACE_PATH", "")
	prefix := filepath.Join(t.TempDir(), "run")
	wl := filepath.Join(t.TempDir(), "wl.toml")
	if err := os.WriteFile(wl, []byte("[workload]\nthreads = 2\nsteps = 1\nnodes = 3\nloop_nodes = 1\niterations = 1\n"), 0o600); err != nil {
		t.Fatalf("write workload: %v", err)
	}

	out, err := execute(t, "record", "--prefix", prefix, "--workload", wl, "--log-level", "error", "--timings")
	if err != nil {
		t.Fatalf("record: %v\n%s", err, out)
	}
	if !strings.Contains(out, "slot 0") || !strings.Contains(out, "slot 1") || !strings.Contains(out, "timings:") {
		t.Fatalf("record summary missing slots:\n%s", out)
	}
	refs, err := tracefile.Files(prefix)
	if err != nil || len(refs) != 2 {
		t.Fatalf("Files = %v, %v", refs, err)
	}

	out, err = execute(t, "dump", "--format", "ndjson", "--color", "off", prefix)
	if err != nil {
		t.Fatalf("dump: %v\n%s", err, out)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 2*3*4 {
		t.Fatalf("dump printed %d lines, want %d", len(lines), 2*3*4)
	}
	var rec tracefile.Record
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("unmarshal %q: %v", lines[0], err)
	}
	if rec.Kind != "scheduler-begin-iter" || rec.Frame != 1 || rec.Iter != 1 {
		t.Fatalf("first record = %+v", rec)
	}

	out, err = execute(t, "dump", "--format", "text", "--color", "off", "--meta", prefix+".trace.1")
	if err != nil {
		t.Fatalf("dump file: %v\n%s", err, out)
	}
	if !strings.Contains(out, "# "+prefix+".meta.1") || !strings.Contains(out, "compute-begin") {
		t.Fatalf("text dump:\n%s", out)
	}
}

func TestDumpMissingPrefix(t *testing.T) {
	_, err := execute(t, "dump", "--format", "text", "--color", "off", "--meta=false", filepath.Join(t.TempDir(), "none"))
	if err == nil {
		t.Fatalf("expected error for prefix without trace files")
	}
}

func TestUseColor(t *testing.T) {
	var buf bytes.Buffer
	if on, _ := useColor("auto", &buf); on {
		t.Fatalf("auto must be off for non-terminal writers")
	}
	if on, _ := useColor("on", &buf); !on {
		t.Fatalf("on must force colours")
	}
	if _, err := useColor("rainbow", &buf); err == nil {
		t.Fatalf("expected error for bad mode")
	}
}

func TestVersionJSON(t *testing.T) {
	out, err := execute(t, "version", "--format", "json")
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if strings.ContainsRune(out, 0x1b) {
		t.Fatalf("json output carries escape codes: %q", out)
	}
	var p versionPayload
	if err := json.Unmarshal([]byte(out), &p); err != nil {
		t.Fatalf("unmarshal %q: %v", out, err)
	}
	if p.Tool != "flowtrace" || p.TraceFormat != 1 || p.Version != version.Version {
		t.Fatalf("payload = %+v", p)
	}
}
