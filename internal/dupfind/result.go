package dupfind

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hashicorp/go-multierror"
)

// FileRecord describes a regular file discovered during traversal.
type FileRecord struct {
	// Path is the absolute path of the file as reached from the scan root.
	Path string `json:"path"`
	// Size is the size in bytes.
	Size int64 `json:"size"`
	// ModTime is the last modification time.
	ModTime time.Time `json:"modified"`
}

// Digest is a SHA-256 content fingerprint.
type Digest [sha256.Size]byte

// String returns the lowercase hex encoding of the digest.
func (d Digest) String() string {
	return hex.EncodeToString(d[:])
}

// MarshalText encodes the digest as hex.
func (d Digest) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a hex digest.
func (d *Digest) UnmarshalText(text []byte) error {
	if hex.DecodedLen(len(text)) != sha256.Size {
		return fmt.Errorf("digest must be %d hex characters, got %d", 2*sha256.Size, len(text))
	}

	_, err := hex.Decode(d[:], text)

	return err
}

// HashedFile is a FileRecord together with its content digest.
type HashedFile struct {
	FileRecord

	Digest Digest `json:"digest"`
}

// DuplicateGroup is a set of files with identical content.
type DuplicateGroup struct {
	// Digest is the content digest shared by every member.
	Digest Digest `json:"digest"`
	// Size is the size in bytes of each member.
	Size int64 `json:"size"`
	// Files holds the members, oldest first.
	Files []HashedFile `json:"files"`
	// WastedBytes is Size * (len(Files) - 1).
	WastedBytes int64 `json:"wasted_bytes"`
}

// Redundant returns the number of copies beyond the first.
func (g DuplicateGroup) Redundant() int {
	return len(g.Files) - 1
}

// ErrorKind classifies a non-fatal scan error.
type ErrorKind string

const (
	// KindTraversal marks errors raised while walking the tree.
	KindTraversal ErrorKind = "traversal"
	// KindHashing marks errors raised while reading file content.
	KindHashing ErrorKind = "hashing"
)

// ScanError is a non-fatal per-entry failure.
type ScanError struct {
	Path   string    `json:"path"`
	Kind   ErrorKind `json:"kind"`
	Reason string    `json:"reason"`
}

func (e ScanError) Error() string {
	return fmt.Sprintf("%s error at %s: %s", e.Kind, e.Path, e.Reason)
}

// ScanResult is the outcome of a scan.
type ScanResult struct {
	// Root is the absolute scanned directory.
	Root string `json:"root"`
	// FilesScanned is the number of regular files examined, filtered ones included.
	FilesScanned int64 `json:"files_scanned"`
	// FilesFiltered is the number of files excluded by a predicate.
	FilesFiltered int64 `json:"files_filtered"`
	// Candidates is the number of files sharing their size with another file.
	Candidates int64 `json:"candidates"`
	// FilesHashed is the number of candidates hashed successfully.
	FilesHashed int64 `json:"files_hashed"`
	// FilesFailed is the number of candidates that could not be hashed.
	FilesFailed int64 `json:"files_failed"`
	// BytesScanned is the cumulative size of the candidates.
	BytesScanned int64 `json:"bytes_scanned"`
	// Groups holds the duplicate groups, largest waste first.
	Groups []DuplicateGroup `json:"groups"`
	// DuplicateFiles is the number of redundant copies across all groups.
	DuplicateFiles int64 `json:"duplicate_files"`
	// WastedBytes is the space recoverable across all groups.
	WastedBytes int64 `json:"wasted_bytes"`
	// Errors lists every non-fatal error.
	Errors []ScanError `json:"errors"`
	// Workers is the number of hashing workers used.
	Workers int `json:"workers"`
	// Elapsed is the total time taken for the scan. JSON carries it both as a
	// duration string ("elapsed") and in milliseconds ("elapsed_ms").
	Elapsed time.Duration `json:"-"`
	// Incomplete is set when the scan was cancelled before finishing.
	Incomplete bool `json:"incomplete"`
}

// Err folds the non-fatal errors into a single error, or returns nil if there were none.
func (r *ScanResult) Err() error {
	var result *multierror.Error

	for _, e := range r.Errors {
		result = multierror.Append(result, e)
	}

	return result.ErrorOrNil()
}

// scanResultFields has the fields of ScanResult without its JSON methods.
type scanResultFields ScanResult

// MarshalJSON encodes the result with a readable elapsed time.
func (r ScanResult) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		scanResultFields

		Elapsed   string `json:"elapsed"`
		ElapsedMS int64  `json:"elapsed_ms"`
	}{
		scanResultFields: scanResultFields(r),
		Elapsed:          r.Elapsed.String(),
		ElapsedMS:        r.Elapsed.Milliseconds(),
	})
}

// UnmarshalJSON decodes a result written by MarshalJSON.
func (r *ScanResult) UnmarshalJSON(data []byte) error {
	aux := struct {
		*scanResultFields

		Elapsed string `json:"elapsed"`
	}{
		scanResultFields: (*scanResultFields)(r),
	}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	if aux.Elapsed == "" {
		return nil
	}

	elapsed, err := time.ParseDuration(aux.Elapsed)
	if err != nil {
		return fmt.Errorf("parsing elapsed: %w", err)
	}

	r.Elapsed = elapsed

	return nil
}
