package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"flowtrace/internal/tracefile"
)

var (
	dumpFormat   string
	dumpColor    string
	dumpWithMeta bool
)

func init() {
	dumpCmd.Flags().StringVar(&dumpFormat, "format", "text", "output format (text|ndjson|msgpack)")
	dumpCmd.Flags().StringVar(&dumpColor, "color", "auto", "colorize text output (auto|on|off)")
	dumpCmd.Flags().BoolVar(&dumpWithMeta, "meta", false, "print each slot's metadata file before its events")
}

var dumpCmd = &cobra.Command{
	Use:   "dump <prefix|trace-file>...",
	Short: "Decode trace files",
	Long: `dump decodes <prefix>.trace.N files, or single trace files, and writes
one line per record.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, err := tracefile.ParseFormat(dumpFormat)
		if err != nil {
			return err
		}
		colors, err := useColor(dumpColor, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		if colors {
			color.NoColor = false
		}

		var refs []tracefile.Ref
		for _, arg := range args {
			found, err := resolveRefs(arg)
			if err != nil {
				return err
			}
			refs = append(refs, found...)
		}

		out := bufio.NewWriter(cmd.OutOrStdout())
		defer out.Flush()
		enc := tracefile.NewEncoder(out, format, colors)
		for _, ref := range refs {
			if dumpWithMeta && format == tracefile.FormatText {
				if err := copyMeta(out, ref); err != nil {
					return err
				}
			}
			if err := dumpRef(enc, ref); err != nil {
				return err
			}
		}
		return out.Flush()
	},
}

// resolveRefs expands arg into the trace files it names.
func resolveRefs(arg string) ([]tracefile.Ref, error) {
	if ref, ok := tracefile.ParseRef(arg); ok {
		if _, err := os.Stat(arg); err == nil {
			return []tracefile.Ref{ref}, nil
		}
	}
	refs, err := tracefile.Files(arg)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("no trace files found for %q", arg)
	}
	return refs, nil
}

func dumpRef(enc *tracefile.Encoder, ref tracefile.Ref) error {
	f, err := tracefile.Open(ref.Path)
	if err != nil {
		return err
	}
	defer f.Close()

	r := tracefile.NewReader(f)
	for {
		ev, err := r.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%s: %w", ref.Path, err)
		}
		if err := enc.Encode(ref.Slot, ev); err != nil {
			return err
		}
	}
}

func copyMeta(out io.Writer, ref tracefile.Ref) error {
	f, err := os.Open(ref.MetaPath())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	defer f.Close()
	fmt.Fprintf(out, "# %s\n", ref.MetaPath())
	_, err = io.Copy(out, f)
	return err
}

func useColor(mode string, out io.Writer) (bool, error) {
	switch mode {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto":
		f, ok := out.(*os.File)
		return ok && term.IsTerminal(int(f.Fd())), nil
	default:
		return false, fmt.Errorf("invalid --color value %q (expected: auto|on|off)", mode)
	}
}
