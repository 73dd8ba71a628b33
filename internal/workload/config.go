package workload

import (
	"errors"
	"fmt"

	"fortio.org/safecast"
	"github.com/BurntSushi/toml"
)

// Config describes the synthetic graph each worker executes.
type Config struct {
	Threads    int `toml:"threads"`    // worker goroutines, one task id each
	Steps      int `toml:"steps"`      // executions of the graph
	Nodes      int `toml:"nodes"`      // nodes per graph
	Partitions int `toml:"partitions"` // partitions nodes are spread over
	LoopNodes  int `toml:"loop_nodes"` // leading nodes that run inside a loop frame
	Iterations int `toml:"iterations"` // loop iterations per loop node
}

// ErrWorkloadSectionMissing indicates that [workload] is missing in a workload file.
var ErrWorkloadSectionMissing = errors.New("missing [workload]")

type workloadFile struct {
	Workload Config `toml:"workload"`
}

// Default returns a small workload.
func Default() Config {
	return Config{
		Threads:    4,
		Steps:      8,
		Nodes:      16,
		Partitions: 2,
		LoopNodes:  2,
		Iterations: 3,
	}
}

// Load parses the [workload] section of a TOML file. Missing keys keep
// their defaults.
func Load(path string) (Config, error) {
	f := workloadFile{Workload: Default()}
	meta, err := toml.DecodeFile(path, &f)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("workload") {
		return Config{}, fmt.Errorf("%s: %w", path, ErrWorkloadSectionMissing)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if err := f.Workload.Validate(); err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return f.Workload, nil
}

// Validate checks that every identifier the workload produces fits its
// record field.
func (c Config) Validate() error {
	if c.Threads < 1 || c.Steps < 1 || c.Nodes < 1 || c.Partitions < 1 {
		return errors.New("threads, steps, nodes and partitions must be positive")
	}
	if c.LoopNodes < 0 || c.LoopNodes > c.Nodes {
		return fmt.Errorf("loop_nodes must be between 0 and nodes (%d)", c.Nodes)
	}
	if c.LoopNodes > 0 && c.Iterations < 1 {
		return errors.New("iterations must be positive when loop_nodes is set")
	}
	if _, err := safecast.Conv[int8](c.Threads - 1); err != nil {
		return fmt.Errorf("threads: task id out of range: %w", err)
	}
	if _, err := safecast.Conv[int8](c.Partitions - 1); err != nil {
		return fmt.Errorf("partitions: partition id out of range: %w", err)
	}
	if _, err := safecast.Conv[int32](c.Steps - 1); err != nil {
		return fmt.Errorf("steps: step id out of range: %w", err)
	}
	if _, err := safecast.Conv[int32](c.Nodes - 1); err != nil {
		return fmt.Errorf("nodes: node id out of range: %w", err)
	}
	return nil
}
