package version

import (
	"strings"

	"github.com/fatih/color"
)

// Build information for the flowtrace CLI, overridable via -ldflags.
var (
	// Version is the semantic version of the CLI.
	Version = "0.3.0"

	// TraceFormat is the record layout revision written by this build.
	TraceFormat = 1

	// GitCommit is an optional git commit hash.
	GitCommit = ""

	// BuildDate is an optional build date in ISO-8601.
	BuildDate = ""
)

var partColors = []*color.Color{
	color.New(color.FgYellow, color.Bold),
	color.New(color.FgGreen, color.Bold),
	color.New(color.FgBlue, color.Bold),
}

// Colored renders v with its major, minor and patch numbers in distinct
// colors. Anything past the patch number keeps the patch color.
func Colored(v string) string {
	parts := strings.SplitN(v, ".", len(partColors))
	for i, p := range parts {
		parts[i] = partColors[i].Sprint(p)
	}
	return strings.Join(parts, ".")
}
