package detection

import "sort"

// SortLeftToRight returns regions ordered by the left edge of their bounding
// box. Regions with the same left edge keep their extraction order, so the
// result is deterministic for a given mask. The input slice is not modified.
func SortLeftToRight(regions []Region) []Region {
	sorted := make([]Region, len(regions))
	copy(sorted, regions)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].X != sorted[j].X {
			return sorted[i].X < sorted[j].X
		}
		return sorted[i].Seq < sorted[j].Seq
	})
	return sorted
}
