package version

import (
	"strings"
	"testing"

	"github.com/fatih/color"
)

func TestVersionIsPlainSemantic(t *testing.T) {
	if strings.ContainsRune(Version, 0x1b) {
		t.Fatalf("Version carries escape codes: %q", Version)
	}
	if strings.Count(Version, ".") != 2 {
		t.Fatalf("Version = %q, want major.minor.patch", Version)
	}
	if TraceFormat < 1 {
		t.Fatalf("TraceFormat = %d", TraceFormat)
	}
}

func TestColored(t *testing.T) {
	saved := color.NoColor
	t.Cleanup(func() { color.NoColor = saved })

	color.NoColor = false
	got := Colored("1.2.3-rc.1")
	if !strings.ContainsRune(got, 0x1b) {
		t.Fatalf("Colored(...) = %q, want escape codes", got)
	}
	if plain := stripANSI(got); plain != "1.2.3-rc.1" {
		t.Fatalf("stripped = %q", plain)
	}

	color.NoColor = true
	if got := Colored("0.3.0"); got != "0.3.0" {
		t.Fatalf("Colored with colors off = %q", got)
	}
}

func stripANSI(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == 0x1b {
			for i < len(s) && s[i] != 'm' {
				i++
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
