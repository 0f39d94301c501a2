package membership

import "sort"

// UnrankedTierName is reported when no level matches the balance, including
// the empty-ladder case.
const UnrankedTierName = "unranked"

// Calculate maps a point balance onto the level ladder. It is a pure
// function: levels are read-only and the input slice is not reordered.
//
// The current tier is the highest-order level whose MinPoints does not exceed
// points. Progress toward the next level is linear between the two MinPoints
// thresholds, clamped to [0, 1], and 1.0 at the top of the ladder.
func Calculate(points int, levels []*MemberLevel) Tier {
	if len(levels) == 0 {
		return Tier{Name: UnrankedTierName, Progress: 0}
	}

	sorted := make([]*MemberLevel, len(levels))
	copy(sorted, levels)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Order < sorted[j].Order })

	currentIdx := -1
	for i, lvl := range sorted {
		if lvl.MinPoints <= points {
			currentIdx = i
		}
	}

	// Below the lowest rung: unranked, progressing toward the first level.
	if currentIdx == -1 {
		first := sorted[0]
		threshold := first.MinPoints
		return Tier{
			Name:          UnrankedTierName,
			NextName:      first.Name,
			NextThreshold: &threshold,
			Progress:      clamp(float64(points) / float64(first.MinPoints)),
		}
	}

	current := sorted[currentIdx]
	if currentIdx == len(sorted)-1 {
		return Tier{Name: current.Name, Progress: 1}
	}

	next := sorted[currentIdx+1]
	threshold := next.MinPoints
	span := float64(next.MinPoints - current.MinPoints)
	return Tier{
		Name:          current.Name,
		NextName:      next.Name,
		NextThreshold: &threshold,
		Progress:      clamp(float64(points-current.MinPoints) / span),
	}
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
