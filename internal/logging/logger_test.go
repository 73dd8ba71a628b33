package logging

import (
	"testing"

	"go.uber.org/zap/zapcore"
)

func TestNewRejectsBadLevel(t *testing.T) {
	if _, err := New(Config{Level: "loud"}); err == nil {
		t.Fatalf("expected error for unknown level")
	}
	if NewOrNop(Config{Level: "loud"}) == nil {
		t.Fatalf("NewOrNop must never return nil")
	}
}

func TestNewModes(t *testing.T) {
	for _, cfg := range []Config{DefaultConfig(), {Level: "debug", Development: true}} {
		log, err := New(cfg)
		if err != nil {
			t.Fatalf("New(%+v): %v", cfg, err)
		}
		if !log.Core().Enabled(mustLevel(t, cfg.Level)) {
			t.Fatalf("logger for %+v drops its own level", cfg)
		}
	}
}

func mustLevel(t *testing.T, s string) zapcore.Level {
	t.Helper()
	lv, err := parseLevel(s)
	if err != nil {
		t.Fatalf("parseLevel(%q): %v", s, err)
	}
	return lv
}
