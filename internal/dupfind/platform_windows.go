//go:build windows

package dupfind

import (
	"path/filepath"
	"strings"

	"golang.org/x/sys/windows"
)

// isHidden reports whether a directory entry is hidden, either by a leading dot
// or by the FILE_ATTRIBUTE_HIDDEN attribute.
func isHidden(path string, name string) (bool, error) {
	if strings.HasPrefix(name, ".") {
		return true, nil
	}

	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return false, err
	}

	attrs, err := windows.GetFileAttributes(p)
	if err != nil {
		return false, err
	}

	return attrs&windows.FILE_ATTRIBUTE_HIDDEN != 0, nil
}

// dirID identifies a directory by its canonical path; Windows exposes no
// inode through os.FileInfo.
type dirID struct {
	path string
}

// identify returns the identity of the directory at path, following symlinks.
func identify(path string) (dirID, error) {
	resolved, err := filepath.EvalSymlinks(path)
	if err != nil {
		return dirID{}, err
	}

	abs, err := filepath.Abs(resolved)
	if err != nil {
		return dirID{}, err
	}

	return dirID{path: strings.ToLower(abs)}, nil
}
