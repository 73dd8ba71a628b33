package trace

import (
	"fmt"
	"sync"

	"github.com/kelseyhightower/envconfig"
	"go.uber.org/zap"
)

// EnvPrefix is the prefix of the tracer's environment variables.
const EnvPrefix = "FLOWTRACE"

// Settings are the environment-provided parts of Config:
// FLOWTRACE_PATH activates tracing, FLOWTRACE_MAX_SLOTS and
// FLOWTRACE_ARENA_SIZE size it.
//
// Fields carry no envconfig name tags; a tagged Path would fall back to $PATH.
type Settings struct {
	Path      string
	MaxSlots  int `split_words:"true" default:"256"`
	ArenaSize int `split_words:"true" default:"4194304"`
}

// LoadSettings reads Settings from the environment.
func LoadSettings() (Settings, error) {
	var s Settings
	if err := envconfig.Process(EnvPrefix, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to load trace settings: %w", err)
	}
	return s, nil
}

// Config converts s into a tracer Config logging to log.
func (s Settings) Config(log *zap.Logger) Config {
	return Config{
		Prefix:    s.Path,
		MaxSlots:  s.MaxSlots,
		ArenaSize: s.ArenaSize,
		Logger:    log,
	}
}

var (
	defaultOnce   sync.Once
	defaultTracer *Tracer
)

// Default returns the process-wide tracer, built from the environment on
// first call. Diagnostics go to zap's global logger. Unparseable settings
// are reported and leave tracing disabled.
func Default() *Tracer {
	defaultOnce.Do(func() {
		log := zap.L().Named("trace")
		s, err := LoadSettings()
		if err != nil {
			log.Warn("tracing disabled", zap.Error(err))
			defaultTracer = New(Config{Logger: log})
			return
		}
		defaultTracer = New(s.Config(log))
	})
	return defaultTracer
}
