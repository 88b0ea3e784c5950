package dupfind

// SizeBucket holds files sharing one exact byte size, in discovery order.
type SizeBucket struct {
	Size  int64
	Files []FileRecord
}

// BucketBySize partitions records by exact size in a single pass and drops
// every bucket with fewer than two members, since a file with a unique size
// cannot have a duplicate. Buckets are returned in order of first appearance.
func BucketBySize(records []FileRecord) []SizeBucket {
	index := make(map[int64]int, len(records))
	buckets := make([]SizeBucket, 0, len(records))

	for _, r := range records {
		i, ok := index[r.Size]
		if !ok {
			i = len(buckets)
			index[r.Size] = i
			buckets = append(buckets, SizeBucket{Size: r.Size})
		}

		buckets[i].Files = append(buckets[i].Files, r)
	}

	kept := buckets[:0]

	for _, b := range buckets {
		if len(b.Files) >= 2 {
			kept = append(kept, b)
		}
	}

	return kept
}

// candidates flattens buckets into the hashing work list, keeping member order.
func candidates(buckets []SizeBucket) []FileRecord {
	n := 0
	for _, b := range buckets {
		n += len(b.Files)
	}

	out := make([]FileRecord, 0, n)
	for _, b := range buckets {
		out = append(out, b.Files...)
	}

	return out
}
