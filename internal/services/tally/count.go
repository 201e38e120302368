package tally

import "nuttally/internal/model"

// Count tallies detections per vocabulary column. Every detection counts
// toward total; labels outside the vocabulary reach no column.
func Count(detections []model.Detection, vocab model.Vocabulary) ([]int, int) {
	counts := make([]int, vocab.Len())
	for _, d := range detections {
		if i := vocab.Index(d.Label); i >= 0 {
			counts[i]++
		}
	}
	return counts, len(detections)
}
