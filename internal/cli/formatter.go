package cli

import (
	"cmp"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/google/uuid"

	"github.com/idelchi/dupfind/internal/dupfind"
)

const (
	// TabSpacing is the number of spaces between tabwriter columns.
	TabSpacing = 2
	// DigestPrefix is the number of digest characters shown in text output.
	DigestPrefix = 16
	// TopExtensions is the number of extensions listed in the file type analysis.
	TopExtensions = 5
)

const (
	highImpact   = 1 << 30
	mediumImpact = 100 << 20
)

// Report is the JSON document written for a scan.
type Report struct {
	ID        string              `json:"id"`
	Program   string              `json:"program"`
	Version   string              `json:"version"`
	Timestamp time.Time           `json:"timestamp"`
	Result    *dupfind.ScanResult `json:"result"`
}

// NewReport wraps a scan result with identifying metadata.
func NewReport(result *dupfind.ScanResult, version string) Report {
	if version == "" {
		version = "dev"
	}

	return Report{
		ID:        uuid.NewString(),
		Program:   "dupfind",
		Version:   version,
		Timestamp: time.Now().UTC(),
		Result:    result,
	}
}

// PrintJSON outputs the report in JSON format.
func PrintJSON(report Report, writer io.Writer) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}

	if _, err := fmt.Fprintln(writer, string(data)); err != nil {
		return err
	}

	return nil
}

// palette holds the colours used by PrintText.
type palette struct {
	heading   *color.Color
	original  *color.Color
	duplicate *color.Color
	warning   *color.Color
}

func newPalette(colorize bool) palette {
	p := palette{
		heading:   color.New(color.Bold, color.FgCyan),
		original:  color.New(color.FgGreen),
		duplicate: color.New(color.FgYellow),
		warning:   color.New(color.FgRed),
	}

	for _, c := range []*color.Color{p.heading, p.original, p.duplicate, p.warning} {
		if colorize {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
	}

	return p
}

// PrintText outputs the scan result in human-readable format.
//
//nolint:forbidigo // This function prints output to the console.
func PrintText(result *dupfind.ScanResult, writer io.Writer, colorize bool) error {
	p := newPalette(colorize)
	w := tabwriter.NewWriter(writer, 0, 4, TabSpacing, ' ', 0)

	fmt.Fprintln(w, p.heading.Sprint("Scan results:"))
	fmt.Fprintf(w, "  Directory:\t%s\n", result.Root)
	fmt.Fprintf(w, "  Files scanned:\t%d (%d filtered)\n", result.FilesScanned, result.FilesFiltered)
	fmt.Fprintf(w, "  Files hashed:\t%d of %d candidates (%s)\n",
		result.FilesHashed, result.Candidates, humanize.IBytes(uint64(result.BytesScanned))) //nolint:gosec // sizes are never negative
	fmt.Fprintf(w, "  Duplicate groups:\t%d\n", len(result.Groups))
	fmt.Fprintf(w, "  Duplicate files:\t%d\n", result.DuplicateFiles)
	fmt.Fprintf(w, "  Wasted space:\t%s (%d bytes)\n",
		humanize.IBytes(uint64(result.WastedBytes)), result.WastedBytes) //nolint:gosec // sizes are never negative
	fmt.Fprintf(w, "  Workers:\t%d\n", result.Workers)
	fmt.Fprintf(w, "  Elapsed:\t%v\n", result.Elapsed)

	if result.Incomplete {
		fmt.Fprintln(w, p.warning.Sprint("  Scan was interrupted; results are partial."))
	}

	if len(result.Groups) == 0 {
		fmt.Fprintln(w, "\nNo duplicates found.")
	} else {
		fmt.Fprintln(w, "\n"+p.heading.Sprint("Duplicate groups (sorted by wasted space):"))

		for i, g := range result.Groups {
			printGroup(w, p, i+1, g)
		}
	}

	if len(result.Errors) > 0 {
		fmt.Fprintln(w, "\n"+p.heading.Sprintf("Errors (%d):", len(result.Errors)))

		for _, e := range result.Errors {
			fmt.Fprintf(w, "  %s\t%s\t%s\n", p.warning.Sprint(e.Kind), e.Path, e.Reason)
		}
	}

	printRecommendations(w, p, result)

	return w.Flush()
}

func printGroup(w io.Writer, p palette, n int, g dupfind.DuplicateGroup) {
	digest := g.Digest.String()

	fmt.Fprintf(w, "  %d) %d x %s, %s wasted, sha256 %s...\n",
		n, len(g.Files),
		humanize.IBytes(uint64(g.Size)),        //nolint:gosec // sizes are never negative
		humanize.IBytes(uint64(g.WastedBytes)), //nolint:gosec // sizes are never negative
		digest[:DigestPrefix])

	for i, f := range g.Files {
		marker := p.duplicate.Sprint("duplicate")
		if i == 0 {
			marker = p.original.Sprint("original ")
		}

		fmt.Fprintf(w, "       %s\t'%s'\t%s\n", marker, f.Path, f.ModTime.Local().Format(time.DateTime))
	}
}

func printRecommendations(w io.Writer, p palette, result *dupfind.ScanResult) {
	fmt.Fprintln(w, "\n"+p.heading.Sprint("Recommendations:"))

	switch {
	case result.WastedBytes == 0:
		fmt.Fprintln(w, "  Nothing to clean up.")

		return
	case result.WastedBytes > highImpact:
		fmt.Fprintf(w, "  High impact: removing duplicates frees %s.\n",
			humanize.IBytes(uint64(result.WastedBytes))) //nolint:gosec // sizes are never negative
	case result.WastedBytes > mediumImpact:
		fmt.Fprintln(w, "  Medium impact: consider cleaning up duplicate files.")
	default:
		fmt.Fprintln(w, "  Low impact: duplicates present but savings are small.")
	}

	fmt.Fprintln(w, "  Review each group before deleting anything; the oldest copy is listed first.")
	fmt.Fprintln(w, "  Hard links keep every path while storing the content once.")

	exts := extensionCounts(result.Groups)
	if len(exts) == 0 {
		return
	}

	fmt.Fprintln(w, "\n"+p.heading.Sprint("Duplicate file types:"))

	for i, e := range exts {
		if i == TopExtensions {
			break
		}

		fmt.Fprintf(w, "  %s:\t%d files\n", e.ext, e.count)
	}
}

type extCount struct {
	ext   string
	count int
}

// extensionCounts counts duplicate group members per lowercase extension, most common first.
func extensionCounts(groups []dupfind.DuplicateGroup) []extCount {
	counts := make(map[string]int)

	for _, g := range groups {
		for _, f := range g.Files {
			ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(f.Path), "."))
			if ext == "" {
				ext = "(no extension)"
			}

			counts[ext]++
		}
	}

	out := make([]extCount, 0, len(counts))
	for ext, n := range counts {
		out = append(out, extCount{ext: ext, count: n})
	}

	slices.SortFunc(out, func(a, b extCount) int {
		if c := cmp.Compare(b.count, a.count); c != 0 {
			return c
		}

		return strings.Compare(a.ext, b.ext)
	})

	return out
}
