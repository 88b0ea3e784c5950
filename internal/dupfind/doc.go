// Package dupfind finds duplicate files by content.
//
// It walks directory trees using fastwalk, buckets the surviving files by
// exact size, hashes only the files whose size is shared with at least one
// other file, and groups the hashed files by SHA-256 digest. The result
// reports every group of identical files together with the space that the
// redundant copies occupy.
package dupfind
