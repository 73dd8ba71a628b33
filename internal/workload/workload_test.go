package workload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"flowtrace/internal/trace"
	"flowtrace/internal/tracefile"
)

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "workload.toml")
	data := `# test workload
[workload]
threads = 3
nodes = 5
loop_nodes = 1
`
	require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Threads)
	assert.Equal(t, 5, cfg.Nodes)
	assert.Equal(t, 1, cfg.LoopNodes)
	assert.Equal(t, Default().Steps, cfg.Steps)
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"no section":  "threads = 2\n",
		"unknown key": "[workload]\nthreadz = 2\n",
		"too many":    "[workload]\nthreads = 200\n",
		"bad loop":    "[workload]\nnodes = 2\nloop_nodes = 3\n",
	}
	for name, data := range cases {
		path := filepath.Join(t.TempDir(), "w.toml")
		require.NoError(t, os.WriteFile(path, []byte(data), 0o600))
		_, err := Load(path)
		assert.Error(t, err, name)
	}
	path := filepath.Join(t.TempDir(), "w.toml")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o600))
	_, err := Load(path)
	assert.True(t, errors.Is(err, ErrWorkloadSectionMissing))
}

func TestValidateRanges(t *testing.T) {
	cfg := Default()
	cfg.Partitions = 129
	assert.Error(t, cfg.Validate())
	cfg = Default()
	cfg.Threads = 128
	assert.NoError(t, cfg.Validate())
	cfg.Threads = 129
	assert.Error(t, cfg.Validate())
}

func TestRunWritesOneFilePerWorker(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "run")
	tr := trace.New(trace.Config{Prefix: prefix})
	cfg := Config{Threads: 3, Steps: 2, Nodes: 4, Partitions: 2, LoopNodes: 1, Iterations: 2}
	require.NoError(t, Run(context.Background(), tr, cfg))
	require.NoError(t, tr.Close())

	all, err := tracefile.ReadAll(context.Background(), prefix)
	require.NoError(t, err)
	require.Len(t, all, 3)

	perStep := (cfg.LoopNodes*cfg.Iterations + cfg.Nodes - cfg.LoopNodes) * 4
	tasks := map[int8]bool{}
	for slot, evs := range all {
		require.Len(t, evs, cfg.Steps*perStep, "slot %d", slot)
		task := evs[0].Task
		assert.False(t, tasks[task], "task %d traced twice", task)
		tasks[task] = true
		for i, ev := range evs {
			assert.Equal(t, task, ev.Task)
			assert.Equal(t, ev.Node < int32(cfg.LoopNodes), ev.Kind.HasIter(), "event %d", i)
			if i > 0 {
				assert.GreaterOrEqual(t, ev.Time, evs[i-1].Time)
			}
		}
		want := []trace.Kind{trace.KindSchedulerBeginIter, trace.KindComputeBeginIter, trace.KindComputeEndIter, trace.KindSchedulerEndIter}
		for i, k := range want {
			assert.Equal(t, k, evs[i].Kind)
		}

		meta, err := os.ReadFile(prefix + ".meta." + strconv.Itoa(int(slot)))
		require.NoError(t, err)
		assert.Contains(t, string(meta), "task\t"+strconv.Itoa(int(task)))
		assert.Contains(t, string(meta), "\"LoopBody\"")
	}
}

func TestRunStopsOnCancel(t *testing.T) {
	prefix := filepath.Join(t.TempDir(), "run")
	tr := trace.New(trace.Config{Prefix: prefix})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Run(ctx, tr, Default())
	assert.ErrorIs(t, err, context.Canceled)
	require.NoError(t, tr.Close())
}

func TestRunDisabledTracer(t *testing.T) {
	require.NoError(t, Run(context.Background(), trace.Disabled, Default()))
}
