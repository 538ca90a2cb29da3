package recognize

import (
	"slices"
	"strings"
)

const (
	baseInDirectory    = 100
	baseNotInDirectory = 50
	penaltyPerFix      = 10
)

// Score rates how likely a result is a real postcode, from 0 to 100. Each
// substituted character costs ten points. The score never decreases as
// distance approaches zero, and a directory hit never scores below a miss
// with the same distance. It is for display; Rank does not use it.
func Score(inDirectory bool, distance int) int {
	base := baseNotInDirectory
	if inDirectory {
		base = baseInDirectory
	}
	return max(0, min(100, base+penaltyPerFix*distance))
}

// Rank sorts results best first: directory hits before misses, then fewer
// repairs, then position in the text, then postcode.
func Rank(results []Recognized) {
	slices.SortStableFunc(results, compareRank)
}

func compareRank(a, b Recognized) int {
	if a.InDirectory != b.InDirectory {
		if a.InDirectory {
			return -1
		}
		return 1
	}
	if a.Distance != b.Distance {
		return b.Distance - a.Distance
	}
	if a.Offset != b.Offset {
		return a.Offset - b.Offset
	}
	return strings.Compare(a.Postcode, b.Postcode)
}
