package dupfind

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func hashed(path string, size int64, digest byte, mod time.Time) HashedFile {
	return HashedFile{
		FileRecord: FileRecord{Path: path, Size: size, ModTime: mod},
		Digest:     Digest{digest},
	}
}

func TestGroupDuplicates_DropsSingletonDigests(t *testing.T) {
	now := time.Now()

	groups := GroupDuplicates([]HashedFile{
		hashed("/a", 5, 1, now),
		hashed("/b", 5, 2, now),
		hashed("/c", 5, 1, now),
	})

	require.Len(t, groups, 1)
	assert.Equal(t, Digest{1}, groups[0].Digest)
	assert.Equal(t, []string{"/a", "/c"}, groupPaths(groups[0]))
	assert.EqualValues(t, 5, groups[0].WastedBytes)
	assert.Equal(t, 1, groups[0].Redundant())
}

func TestGroupDuplicates_Ordering(t *testing.T) {
	now := time.Now()

	groups := GroupDuplicates([]HashedFile{
		// 2 x 10 bytes: wasted 10
		hashed("/small/b", 10, 1, now),
		hashed("/small/a", 10, 1, now),
		// 3 x 5 bytes: wasted 10, more members
		hashed("/tri/1", 5, 2, now),
		hashed("/tri/2", 5, 2, now),
		hashed("/tri/3", 5, 2, now),
		// 2 x 10 bytes: wasted 10, same count as /small, later path
		hashed("/zz/1", 10, 3, now),
		hashed("/zz/2", 10, 3, now),
		// 2 x 100 bytes: wasted 100
		hashed("/big/2", 100, 4, now),
		hashed("/big/1", 100, 4, now),
	})

	require.Len(t, groups, 4)
	assert.Equal(t, []string{"/big/1", "/big/2"}, groupPaths(groups[0]))
	assert.Equal(t, []string{"/tri/1", "/tri/2", "/tri/3"}, groupPaths(groups[1]))
	assert.Equal(t, []string{"/small/a", "/small/b"}, groupPaths(groups[2]))
	assert.Equal(t, []string{"/zz/1", "/zz/2"}, groupPaths(groups[3]))
}

func TestGroupDuplicates_MembersOldestFirst(t *testing.T) {
	now := time.Now()

	groups := GroupDuplicates([]HashedFile{
		hashed("/a", 1, 1, now),
		hashed("/b", 1, 1, now.Add(-time.Hour)),
		hashed("/file10", 1, 1, now),
		hashed("/file9", 1, 1, now),
	})

	require.Len(t, groups, 1)
	assert.Equal(t, []string{"/b", "/a", "/file9", "/file10"}, groupPaths(groups[0]))
}

func TestGroupDuplicates_IndependentOfArrivalOrder(t *testing.T) {
	now := time.Now()
	in := []HashedFile{
		hashed("/a", 4, 1, now),
		hashed("/b", 4, 1, now),
		hashed("/c", 8, 2, now),
		hashed("/d", 8, 2, now),
	}
	reversed := []HashedFile{in[3], in[2], in[1], in[0]}

	assert.Equal(t, GroupDuplicates(in), GroupDuplicates(reversed))
}

func TestTotals(t *testing.T) {
	now := time.Now()

	groups := GroupDuplicates([]HashedFile{
		hashed("/a", 4, 1, now),
		hashed("/b", 4, 1, now),
		hashed("/c", 4, 1, now),
		hashed("/d", 10, 2, now),
		hashed("/e", 10, 2, now),
	})

	duplicates, wasted := totals(groups)
	assert.EqualValues(t, 3, duplicates)
	assert.EqualValues(t, 18, wasted)
}
