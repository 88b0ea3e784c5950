package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
)

// WriteFileAtomic writes data to path through a temporary file in the same
// directory that is renamed into place on success.
func WriteFileAtomic(fsys afero.Fs, path string, data []byte) (retErr error) {
	tmp, err := afero.TempFile(fsys, filepath.Dir(path), ".dupfind-report-*.tmp")
	if err != nil {
		return fmt.Errorf("creating report file: %w", err)
	}

	tmpPath := tmp.Name()

	defer func() {
		if retErr != nil {
			_ = tmp.Close()
			_ = fsys.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("writing report file: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("writing report file: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("writing report file: %w", err)
	}

	if err := fsys.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("replacing report file %s: %w", path, err)
	}

	return nil
}
