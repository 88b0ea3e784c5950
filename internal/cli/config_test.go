package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "dupfind.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

// parseFlags binds the command-line flags to a fresh FlagSet and parses args.
func parseFlags(t *testing.T, args ...string) (*pflag.FlagSet, flagValues) {
	t.Helper()

	var v flagValues

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	bindFlags(flags, &v)
	require.NoError(t, flags.Parse(args))

	return flags, v
}

func TestLoadFile(t *testing.T) {
	path := writeConfig(t, `
min_size: 1KB
max_size: 10MiB
include_hidden: true
max_depth: 3
workers: 2
extensions: [".jpg", ".png"]
excludes: ["node_modules"]
output: json
`)

	cfg, err := LoadFile(path)
	require.NoError(t, err)

	assert.Equal(t, "1KB", cfg.MinSize)
	assert.Equal(t, "10MiB", cfg.MaxSize)
	require.NotNil(t, cfg.IncludeHidden)
	assert.True(t, *cfg.IncludeHidden)
	assert.Nil(t, cfg.ExcludeEmpty)
	require.NotNil(t, cfg.MaxDepth)
	assert.Equal(t, 3, *cfg.MaxDepth)
	require.NotNil(t, cfg.Workers)
	assert.Equal(t, 2, *cfg.Workers)
	assert.Equal(t, []string{".jpg", ".png"}, cfg.Extensions)
	assert.Equal(t, []string{"node_modules"}, cfg.Excludes)
	assert.Equal(t, "json", cfg.Output)
}

func TestLoadFile_Empty(t *testing.T) {
	cfg, err := LoadFile(writeConfig(t, ""))
	require.NoError(t, err)
	assert.Equal(t, FileConfig{}, cfg)
}

func TestLoadFile_RejectsUnknownKeys(t *testing.T) {
	_, err := LoadFile(writeConfig(t, "min_sise: 1KB\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "min_sise")
}

func TestLoadFile_Missing(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.yaml"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolve_Defaults(t *testing.T) {
	flags, v := parseFlags(t)

	s, err := resolve(flags, v, FileConfig{}, "some/dir")
	require.NoError(t, err)

	assert.Equal(t, "text", s.output)
	assert.Equal(t, "some/dir", s.options.Path)
	assert.Zero(t, s.options.MinSize)
	assert.Zero(t, s.options.MaxSize)
	assert.Zero(t, s.options.Workers)
	assert.False(t, s.options.IncludeHidden)
	assert.Empty(t, s.options.Extensions)
}

func TestResolve_FileOverridesDefaults(t *testing.T) {
	hidden := true
	depth := 4

	flags, v := parseFlags(t)
	file := FileConfig{
		MinSize:       "2KiB",
		IncludeHidden: &hidden,
		MaxDepth:      &depth,
		Excludes:      []string{"vendor"},
		Output:        "JSON",
	}

	s, err := resolve(flags, v, file, ".")
	require.NoError(t, err)

	assert.EqualValues(t, 2048, s.options.MinSize)
	assert.True(t, s.options.IncludeHidden)
	assert.Equal(t, 4, s.options.MaxDepth)
	assert.Equal(t, []string{"vendor"}, s.options.Excludes)
	assert.Equal(t, "json", s.output)
}

func TestResolve_FlagsOverrideFile(t *testing.T) {
	hidden := true
	workers := 8

	flags, v := parseFlags(t, "--min-size", "1KB", "--hidden=false", "-j", "2", "-x", ".txt", "-o", "text")
	file := FileConfig{
		MinSize:       "2KiB",
		IncludeHidden: &hidden,
		Workers:       &workers,
		Extensions:    []string{".jpg"},
		Output:        "json",
	}

	s, err := resolve(flags, v, file, ".")
	require.NoError(t, err)

	assert.EqualValues(t, 1000, s.options.MinSize)
	assert.False(t, s.options.IncludeHidden)
	assert.Equal(t, 2, s.options.Workers)
	assert.Equal(t, []string{".txt"}, s.options.Extensions)
	assert.Equal(t, "text", s.output)
}

func TestResolve_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		file FileConfig
		want string
	}{
		{"unknown output", []string{"-o", "yaml"}, FileConfig{}, "invalid output format"},
		{"bad min size", []string{"--min-size", "lots"}, FileConfig{}, "invalid min-size"},
		{"bad max size from file", nil, FileConfig{MaxSize: "-1MB"}, "invalid max-size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			flags, v := parseFlags(t, tt.args...)

			_, err := resolve(flags, v, tt.file, ".")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseSize(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{"", 0, false},
		{"0", 0, false},
		{"512", 512, false},
		{"1KB", 1000, false},
		{"1KiB", 1024, false},
		{"1.5 MiB", 1572864, false},
		{"ten", 0, true},
	}

	for _, tt := range tests {
		got, err := parseSize(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)

			continue
		}

		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}
}
