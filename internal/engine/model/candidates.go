package model

import "strings"

// NameBonus is added to the score of surfaces whose name suggests the main
// garment panel.
const NameBonus = 10000

var preferredNameParts = []string{"shirt", "body", "front"}

// SelectCandidates returns the surfaces that can be painted, in traversal
// order. A surface qualifies iff it has texture coordinates.
func SelectCandidates(m *Model) []*Surface {
	var out []*Surface
	for _, s := range m.Surfaces() {
		if s.HasUV {
			out = append(out, s)
		}
	}
	return out
}

// Score ranks a surface for automatic selection: NameBonus if its name
// contains a preferred word (case-insensitive), plus its vertex count.
func Score(s *Surface) int {
	score := s.VertexCount()
	name := strings.ToLower(s.Name)
	for _, part := range preferredNameParts {
		if strings.Contains(name, part) {
			score += NameBonus
			break
		}
	}
	return score
}

// AutoSelect returns the index of the highest-scoring candidate. Ties go to
// the earliest candidate. It returns -1 for an empty list.
func AutoSelect(candidates []*Surface) int {
	best, bestScore := -1, -1
	for i, s := range candidates {
		if sc := Score(s); sc > bestScore {
			best, bestScore = i, sc
		}
	}
	return best
}

// Cycle returns the index after current, wrapping around. With fewer than
// two candidates it returns current unchanged.
func Cycle(n, current int) int {
	if n < 2 {
		return current
	}
	return (current + 1) % n
}
