package similarity

import "github.com/okian/gigrec/internal/domain/model"

// Jaccard returns |A∩B| / |A∪B|, or 0 when both sets are empty.
func Jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 0
	}
	if len(a) > len(b) {
		a, b = b, a
	}
	inter := 0
	for k := range a {
		if _, ok := b[k]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

// JaccardStrings is Jaccard over string slices treated as sets.
func JaccardStrings(a, b []string) float64 {
	return Jaccard(toSet(a), toSet(b))
}

func toSet(s []string) map[string]struct{} {
	out := make(map[string]struct{}, len(s))
	for _, v := range s {
		out[v] = struct{}{}
	}
	return out
}

// Weights are the content similarity term weights.
type Weights struct {
	CategoryMatch   float64
	SkillOverlap    float64
	BudgetProximity float64
}

// DefaultWeights returns 0.3 category, 0.5 skills, 0.2 budget so identical
// items score 1.0.
func DefaultWeights() Weights {
	return Weights{CategoryMatch: 0.3, SkillOverlap: 0.5, BudgetProximity: 0.2}
}

// ContentSimilarity compares two items by category, skill overlap and price
// proximity. Missing categories, empty skills and zero prices contribute 0
// to their term.
func ContentSimilarity(a, b model.Item, w Weights) float64 {
	s := 0.0
	if a.Category != "" && a.Category == b.Category {
		s += w.CategoryMatch
	}
	s += w.SkillOverlap * JaccardStrings(a.Skills, b.Skills)

	pa, pb := a.Price(), b.Price()
	if pa > 0 && pb > 0 {
		s += w.BudgetProximity * min(pa, pb) / max(pa, pb)
	}
	return s
}
