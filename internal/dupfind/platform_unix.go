//go:build !windows

package dupfind

import (
	"io/fs"
	"os"
	"strings"
	"syscall"
)

// isHidden reports whether a directory entry is hidden (leading dot).
func isHidden(_ string, name string) (bool, error) {
	return strings.HasPrefix(name, "."), nil
}

// dirID identifies a directory by device and inode number.
type dirID struct {
	dev uint64
	ino uint64
}

// identify returns the identity of the directory at path, following symlinks.
func identify(path string) (dirID, error) {
	info, err := os.Stat(path)
	if err != nil {
		return dirID{}, err
	}

	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return dirID{}, &fs.PathError{Op: "identify", Path: path, Err: syscall.ENOTSUP}
	}

	return dirID{dev: uint64(stat.Dev), ino: uint64(stat.Ino)}, nil //nolint:unconvert // field widths vary by platform
}
