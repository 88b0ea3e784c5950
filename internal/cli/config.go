package cli

import (
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"slices"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"

	"github.com/idelchi/dupfind/internal/dupfind"
)

// FileConfig mirrors the command-line flags in a YAML file. Pointer fields
// distinguish "unset" from the zero value.
type FileConfig struct {
	MinSize        string   `yaml:"min_size"`
	MaxSize        string   `yaml:"max_size"`
	IncludeHidden  *bool    `yaml:"include_hidden"`
	ExcludeEmpty   *bool    `yaml:"exclude_empty"`
	FollowSymlinks *bool    `yaml:"follow_symlinks"`
	MaxDepth       *int     `yaml:"max_depth"`
	Workers        *int     `yaml:"workers"`
	Extensions     []string `yaml:"extensions"`
	Excludes       []string `yaml:"excludes"`
	Output         string   `yaml:"output"`
}

// LoadFile reads a YAML config file. Unknown keys are rejected.
func LoadFile(path string) (FileConfig, error) {
	var cfg FileConfig

	f, err := os.Open(path)
	if err != nil {
		return cfg, fmt.Errorf("opening config file: %w", err)
	}
	defer f.Close()

	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parsing config file %q: %w", path, err)
	}

	return cfg, nil
}

// flagValues holds the raw flag values before merging with a config file.
type flagValues struct {
	minSize        string
	maxSize        string
	includeHidden  bool
	excludeEmpty   bool
	followSymlinks bool
	maxDepth       int
	workers        int
	extensions     []string
	excludes       []string
	output         string
	outputFile     string
	configFile     string
	debug          bool
}

// settings is the fully resolved configuration of one invocation.
type settings struct {
	options    dupfind.Options
	output     string
	outputFile string
	debug      bool
}

var allowedOutputs = []string{"text", "json"}

// resolve merges flags and config file. An explicitly set flag wins over the
// file, which wins over the flag default.
func resolve(flags *pflag.FlagSet, v flagValues, file FileConfig, path string) (settings, error) {
	set := flags.Changed

	minSize := pick(set("min-size"), v.minSize, file.MinSize)
	maxSize := pick(set("max-size"), v.maxSize, file.MaxSize)

	s := settings{
		output:     pick(set("output"), v.output, file.Output),
		outputFile: v.outputFile,
		debug:      v.debug,
		options: dupfind.Options{
			Path:           path,
			IncludeHidden:  pickPtr(set("hidden"), v.includeHidden, file.IncludeHidden),
			ExcludeEmpty:   pickPtr(set("exclude-empty"), v.excludeEmpty, file.ExcludeEmpty),
			FollowSymlinks: pickPtr(set("follow-symlinks"), v.followSymlinks, file.FollowSymlinks),
			MaxDepth:       pickPtr(set("depth"), v.maxDepth, file.MaxDepth),
			Workers:        pickPtr(set("jobs"), v.workers, file.Workers),
			Extensions:     pickSlice(set("ext"), v.extensions, file.Extensions),
			Excludes:       pickSlice(set("exclude"), v.excludes, file.Excludes),
		},
	}

	s.output = strings.ToLower(s.output)
	if !slices.Contains(allowedOutputs, s.output) {
		return s, fmt.Errorf("invalid output format %q: must be one of %v", s.output, allowedOutputs)
	}

	var err error

	if s.options.MinSize, err = parseSize(minSize); err != nil {
		return s, fmt.Errorf("invalid min-size: %w", err)
	}

	if s.options.MaxSize, err = parseSize(maxSize); err != nil {
		return s, fmt.Errorf("invalid max-size: %w", err)
	}

	return s, nil
}

// parseSize parses a human-readable size such as "10KB" or "1MiB".
func parseSize(s string) (int64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, nil
	}

	size, err := humanize.ParseBytes(s)
	if err != nil {
		return 0, err
	}

	if size > math.MaxInt64 {
		return 0, fmt.Errorf("%q is too large", s)
	}

	return int64(size), nil
}

func pick(flagSet bool, flagValue, fileValue string) string {
	if flagSet || fileValue == "" {
		return flagValue
	}

	return fileValue
}

func pickPtr[T any](flagSet bool, flagValue T, fileValue *T) T {
	if flagSet || fileValue == nil {
		return flagValue
	}

	return *fileValue
}

func pickSlice(flagSet bool, flagValue, fileValue []string) []string {
	if flagSet || fileValue == nil {
		return flagValue
	}

	return fileValue
}
