package cli

import (
	"context"
	"os"
	"os/signal"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// CLI represents the command-line interface.
type CLI struct {
	version string
}

// New creates a new CLI instance with the given version.
func New(version string) CLI {
	return CLI{version: version}
}

// Execute runs the CLI with the process arguments. An interrupt cancels the
// scan; the partial result is still reported.
func (c CLI) Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return c.Command().ExecuteContext(ctx)
}

// Command builds the root command.
func (c CLI) Command() *cobra.Command {
	var values flagValues

	cmd := &cobra.Command{
		Use:   "dupfind [flags] [path]",
		Short: "Find duplicate files by content",
		Long: heredoc.Doc(`
			dupfind scans a directory tree and reports groups of files with identical content,
			together with the space that the redundant copies occupy. It only reports; nothing
			is ever deleted.

			Files are first grouped by size. Only files that share their size with another file
			are hashed (SHA-256), so files with a unique size are never read.

			Positional Arguments:
			  path                   Directory to scan. Defaults to current directory if not specified.

			Flags set on the command line override the values of a --config YAML file, whose
			keys match the flag names with underscores (min_size, max_depth, ...).
		`),
		Example: heredoc.Doc(`
			dupfind ~/Documents
			dupfind --min-size 1KB --exclude-empty --output json .
			dupfind -f results.json -o json /path/to/scan
		`),
		Args:          cobra.MaximumNArgs(1),
		Version:       c.version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "."
			if len(args) > 0 {
				path = args[0]
			}

			var file FileConfig

			if values.configFile != "" {
				var err error

				if file, err = LoadFile(values.configFile); err != nil {
					return err
				}
			}

			s, err := resolve(cmd.Flags(), values, file, path)
			if err != nil {
				return err
			}

			return logic(cmd.Context(), s, c.version, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}

	bindFlags(cmd.Flags(), &values)

	return cmd
}

// bindFlags registers the command-line flags onto v.
func bindFlags(flags *pflag.FlagSet, v *flagValues) {
	flags.SortFlags = false

	flags.StringVar(&v.minSize, "min-size", "0", "Minimum file size (e.g., 1KB)")
	flags.StringVar(&v.maxSize, "max-size", "0", "Maximum file size, 0 for no limit (e.g., 1GiB)")
	flags.BoolVarP(&v.includeHidden, "hidden", "H", false, "Include hidden files and directories")
	flags.BoolVarP(&v.excludeEmpty, "exclude-empty", "e", false, "Exclude empty files")
	flags.BoolVarP(&v.followSymlinks, "follow-symlinks", "L", false, "Follow symbolic links")
	flags.IntVarP(&v.maxDepth, "depth", "d", 0, "Maximum traversal depth (0=unlimited)")
	flags.IntVarP(&v.workers, "jobs", "j", 0, "Number of hashing workers (0=number of CPUs)")
	flags.StringSliceVarP(
		&v.extensions,
		"ext",
		"x",
		[]string{},
		"File suffixes to include (e.g., .jpg,.png). Use '!' prefix to exclude (e.g., !.log)",
	)
	flags.StringSliceVar(&v.excludes, "exclude", []string{}, "Regex patterns to exclude")
	flags.StringVarP(&v.output, "output", "o", "text", "Output format: text or json")
	flags.StringVarP(&v.outputFile, "output-file", "f", "", "Write the report to a file instead of stdout")
	flags.StringVarP(&v.configFile, "config", "c", "", "YAML config file")
	flags.BoolVar(&v.debug, "debug", false, "Enable debug output")
}
