package evaluation

import "math"

// CurveLen is the number of precision@k positions scored per query, k = 1..CurveLen.
const CurveLen = 100

// Filter removes excluded IDs from a ranking. Excluded entries never consume a
// rank slot and never count as a miss; all downstream metrics see only the
// filtered sequence.
func Filter(retrieved []int64, exclude map[int64]struct{}) []int64 {
	filtered := make([]int64, 0, len(retrieved))
	for _, id := range retrieved {
		if _, skip := exclude[id]; skip {
			continue
		}
		filtered = append(filtered, id)
	}
	return filtered
}

// PrecisionAtKs computes precision@k for each k in ks over a filtered ranking.
// The denominator is always the full k: positions past the end of the ranking
// count as non-relevant.
func PrecisionAtKs(ks []int, relevant map[int64]struct{}, filtered []int64) []float64 {
	out := make([]float64, len(ks))
	for i, k := range ks {
		if k <= 0 {
			continue
		}
		hits := 0
		for j := 0; j < k && j < len(filtered); j++ {
			if _, ok := relevant[filtered[j]]; ok {
				hits++
			}
		}
		out[i] = float64(hits) / float64(k)
	}
	return out
}

// relevances maps a filtered ranking to binary relevance marks.
func relevances(relevant map[int64]struct{}, filtered []int64) []int {
	rels := make([]int, len(filtered))
	for i, id := range filtered {
		if _, ok := relevant[id]; ok {
			rels[i] = 1
		}
	}
	return rels
}

// AveragePrecision computes AP over a binary relevance sequence: the mean of
// precision at each relevant position, normalized by the number of relevant
// results retrieved.
func AveragePrecision(rels []int) float64 {
	hits := 0
	sum := 0.0
	for i, r := range rels {
		if r > 0 {
			hits++
			sum += float64(hits) / float64(i+1)
		}
	}
	if hits == 0 {
		return 0
	}
	return sum / float64(hits)
}

// MRR returns the reciprocal rank of the first relevant result, or 0 if none.
func MRR(rels []int) float64 {
	for i, r := range rels {
		if r > 0 {
			return 1.0 / float64(i+1)
		}
	}
	return 0
}

// NDCG computes normalized discounted cumulative gain at k over binary gains.
func NDCG(rels []int, k int) float64 {
	if k > len(rels) {
		k = len(rels)
	}
	if k == 0 {
		return 0
	}

	dcg := float64(rels[0])
	for i := 1; i < k; i++ {
		dcg += float64(rels[i]) / math.Log2(float64(i+2))
	}

	// Ideal ordering puts every relevant result first.
	total := 0
	for _, r := range rels {
		if r > 0 {
			total++
		}
	}
	if total > k {
		total = k
	}
	if total == 0 {
		return 0
	}
	idcg := 1.0
	for i := 1; i < total; i++ {
		idcg += 1.0 / math.Log2(float64(i+2))
	}
	return dcg / idcg
}

// Recall computes the fraction of a query's relevant set found in the first k
// positions. The denominator is the full relevant set, not just the portion
// present in the ranking.
func Recall(rels []int, k, totalRelevant int) float64 {
	if totalRelevant == 0 {
		return 0
	}
	if k > len(rels) {
		k = len(rels)
	}
	hits := 0
	for i := 0; i < k; i++ {
		if rels[i] > 0 {
			hits++
		}
	}
	return float64(hits) / float64(totalRelevant)
}
