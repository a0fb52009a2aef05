package store

import "sort"

// squaredL2 computes the squared Euclidean distance between two
// vectors of equal length. The square root is never taken: ranking is
// unchanged and this matches the score magnitude stored at search time.
func squaredL2(a, b []float32) float32 {
	var sum float32
	for i := range a {
		d := a[i] - b[i]
		sum += d * d
	}
	return sum
}

// nearest returns the indices of the k vectors closest to query by
// ascending squared L2 distance, ties broken by lower vector index.
// k is clamped to the number of vectors.
func nearest(vectors [][]float32, query []float32, k int) ([]int, []float32) {
	if k > len(vectors) {
		k = len(vectors)
	}
	if k <= 0 {
		return nil, nil
	}

	distances := make([]float32, len(vectors))
	order := make([]int, len(vectors))
	for i, v := range vectors {
		distances[i] = squaredL2(query, v)
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		if distances[order[a]] != distances[order[b]] {
			return distances[order[a]] < distances[order[b]]
		}
		return order[a] < order[b]
	})

	top := make([]int, k)
	scores := make([]float32, k)
	for i := 0; i < k; i++ {
		top[i] = order[i]
		scores[i] = distances[order[i]]
	}
	return top, scores
}
