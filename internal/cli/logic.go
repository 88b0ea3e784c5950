package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/idelchi/dupfind/internal/dupfind"
)

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)

	return ok && isatty.IsTerminal(f.Fd())
}

func newLogger(w io.Writer, debug bool) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(w)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: !debug, FullTimestamp: debug})
	logger.SetLevel(logrus.WarnLevel)

	if debug {
		logger.SetLevel(logrus.DebugLevel)
	}

	return logger
}

// progressLine renders a progress update as a single status line.
func progressLine(p dupfind.Progress) string {
	switch p.Stage {
	case dupfind.StageWalk:
		return fmt.Sprintf("Scanning… %d files found", p.FilesDiscovered)
	case dupfind.StageGroup:
		return fmt.Sprintf("Grouping… %d files hashed", p.FilesHashed)
	default:
		return fmt.Sprintf("Hashing… %d/%d files, %s",
			p.FilesHashed, p.HashTotal, humanize.IBytes(uint64(p.BytesHashed))) //nolint:gosec // Bytes is always positive
	}
}

func logic(ctx context.Context, s settings, version string, stdout, stderr io.Writer) error {
	enableProgress := s.output != "json" &&
		!s.debug &&
		isTerminal(stderr)

	s.options.Logger = newLogger(stderr, s.debug)

	var progressHook dupfind.ProgressFunc

	if enableProgress {
		// Hide cursor for in-place updates; restore on exit.
		fmt.Fprint(stderr, "\033[?25l")
		defer fmt.Fprint(stderr, "\033[?25h")

		progressHook = func(p dupfind.Progress) {
			fmt.Fprintf(stderr, "\r\033[2K%s\r", progressLine(p))
		}
	}

	result, err := dupfind.Run(ctx, s.options, progressHook)

	// Clear the status line
	if enableProgress {
		fmt.Fprint(stderr, "\r\033[2K\r")
	}

	if err != nil {
		return err
	}

	if result.Incomplete {
		fmt.Fprintln(stderr, "warning: scan interrupted, results are partial")
	}

	var buf bytes.Buffer

	switch s.output {
	case "json":
		err = PrintJSON(NewReport(result, version), &buf)
	case "text":
		err = PrintText(result, &buf, s.outputFile == "" && isTerminal(stdout))
	default:
		err = fmt.Errorf("unknown output format: %s", s.output)
	}

	if err != nil {
		return err
	}

	if s.outputFile == "" {
		_, err = buf.WriteTo(stdout)

		return err
	}

	if err := WriteFileAtomic(afero.NewOsFs(), s.outputFile, buf.Bytes()); err != nil {
		return err
	}

	fmt.Fprintf(stderr, "Results saved to %s\n", s.outputFile)

	return nil
}
