package progress

// MaxGroups is the number of bars a download is folded into.
const MaxGroups = 10

// Group is a contiguous run of chunks shown as one bar.
type Group struct {
	ID         int
	Start      int // first chunk index
	End        int // one past the last chunk index
	TotalBytes int64

	chunked bool
}

// ChunkCount returns how many chunks the group covers.
func (g Group) ChunkCount() int {
	return g.End - g.Start
}

// Chunked reports whether the plan had to fold several chunks per bar.
// Singleton plans (10 chunks or fewer) return false for every group.
func (g Group) Chunked() bool {
	return g.chunked
}

// Plan partitions chunk sizes into at most MaxGroups contiguous groups.
// With more than MaxGroups chunks every group gets len/MaxGroups chunks and
// the first len%MaxGroups groups take one extra.
func Plan(chunks []int64) []Group {
	n := len(chunks)
	if n == 0 {
		return nil
	}
	if n <= MaxGroups {
		groups := make([]Group, n)
		for i, size := range chunks {
			groups[i] = Group{ID: i, Start: i, End: i + 1, TotalBytes: size}
		}
		return groups
	}

	groupSize := n / MaxGroups
	rem := n % MaxGroups
	groups := make([]Group, MaxGroups)
	k := 0
	for i := range MaxGroups {
		count := groupSize
		if i < rem {
			count++
		}
		g := Group{ID: i, Start: k, chunked: true}
		for range count {
			g.TotalBytes += chunks[k]
			k++
		}
		g.End = k
		groups[i] = g
	}
	return groups
}
