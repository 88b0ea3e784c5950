package dupfind

import (
	"cmp"
	"slices"
	"strings"

	"github.com/maruel/natural"
)

// GroupDuplicates groups hashed files by digest and keeps the groups with at
// least two members. Arrival order does not matter: members are ordered by
// modification time (oldest first) then natural path order, and groups by
// descending wasted space, descending member count and ascending path of the
// first member.
func GroupDuplicates(files []HashedFile) []DuplicateGroup {
	byDigest := make(map[Digest][]HashedFile, len(files))

	for _, f := range files {
		byDigest[f.Digest] = append(byDigest[f.Digest], f)
	}

	groups := make([]DuplicateGroup, 0, len(byDigest))

	for digest, members := range byDigest {
		if len(members) < 2 {
			continue
		}

		slices.SortFunc(members, compareMembers)

		size := members[0].Size

		groups = append(groups, DuplicateGroup{
			Digest:      digest,
			Size:        size,
			Files:       members,
			WastedBytes: size * int64(len(members)-1),
		})
	}

	slices.SortFunc(groups, compareGroups)

	return groups
}

func compareMembers(a, b HashedFile) int {
	if c := a.ModTime.Compare(b.ModTime); c != 0 {
		return c
	}

	switch {
	case a.Path == b.Path:
		return 0
	case natural.Less(a.Path, b.Path):
		return -1
	default:
		return 1
	}
}

func compareGroups(a, b DuplicateGroup) int {
	if c := cmp.Compare(b.WastedBytes, a.WastedBytes); c != 0 {
		return c
	}

	if c := cmp.Compare(len(b.Files), len(a.Files)); c != 0 {
		return c
	}

	return strings.Compare(a.Files[0].Path, b.Files[0].Path)
}

// totals returns the number of redundant copies and the recoverable bytes.
func totals(groups []DuplicateGroup) (duplicates, wasted int64) {
	for _, g := range groups {
		duplicates += int64(g.Redundant())
		wasted += g.WastedBytes
	}

	return duplicates, wasted
}
