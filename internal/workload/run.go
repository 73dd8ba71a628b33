// Package workload drives the tracer the way a dataflow executor would:
// worker goroutines repeatedly schedule and compute the nodes of a small
// synthetic graph.
package workload

import (
	"context"
	"fmt"
	"strconv"

	"fortio.org/safecast"
	"golang.org/x/sync/errgroup"

	"flowtrace/internal/trace"
)

// Run executes cfg on one goroutine per thread until every step is done
// or ctx is cancelled. Each worker flushes its own trace on exit.
func Run(ctx context.Context, tr *trace.Tracer, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	g, ctx := errgroup.WithContext(ctx)
	for w := 0; w < cfg.Threads; w++ {
		g.Go(func() error {
			th := tr.NewThread()
			err := runWorker(ctx, th, cfg, w)
			if cerr := th.Close(); err == nil {
				err = cerr
			}
			return err
		})
	}
	return g.Wait()
}

func runWorker(ctx context.Context, th *trace.Thread, cfg Config, worker int) error {
	task, err := safecast.Conv[int8](worker)
	if err != nil {
		return fmt.Errorf("worker %d: %w", worker, err)
	}
	describe(th.Meta(), cfg, task, worker)

	for step := 0; step < cfg.Steps; step++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		for node := 0; node < cfg.Nodes; node++ {
			ids := trace.IDs{
				Task:      task,
				Step:      int32(step),
				Partition: int8(node % cfg.Partitions),
				Node:      int32(node),
			}
			if node < cfg.LoopNodes {
				ids.Frame = uint64(node) + 1
				for it := 1; it <= cfg.Iterations; it++ {
					ids.Iter = int64(it)
					execute(th, ids)
				}
				continue
			}
			execute(th, ids)
		}
	}
	return nil
}

// execute records one scheduled node with its kernel nested inside.
func execute(th *trace.Thread, ids trace.IDs) {
	sched := th.BeginScheduler(ids)
	th.BeginCompute(ids).End()
	sched.End()
}

// describe writes the worker's naming metadata.
func describe(m *trace.MetadataStream, cfg Config, task int8, worker int) {
	device := "/cpu:" + strconv.Itoa(worker)
	m.NameTask(task, "worker "+strconv.Itoa(worker))
	for node := 0; node < cfg.Nodes; node++ {
		op := "Compute"
		if node < cfg.LoopNodes {
			op = "LoopBody"
		}
		id := int32(node)
		m.NameNode(id, "n"+strconv.Itoa(node), op, device)
		if node > 0 {
			m.NodeInputs(id, []trace.NodeRef{{Node: id - 1, Name: "n" + strconv.Itoa(node-1), Device: device}})
		}
	}
	m.NameRun(uint64(worker), []string{"n" + strconv.Itoa(cfg.Nodes-1)})
}
