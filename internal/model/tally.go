package model

import "time"

// TimestampLayout is how row timestamps are rendered for the tabular store.
const TimestampLayout = "2006-01-02 15:04:05"

// TallyRow is the fixed-schema summary of one submission.
type TallyRow struct {
	Timestamp time.Time `json:"timestamp"`
	Filename  string    `json:"filename"`
	Counts    []int     `json:"counts"` // vocabulary order
	Total     int       `json:"total"`  // includes labels outside the vocabulary
}

// Values renders the row as timestamp, filename, one count per class, total.
func (r TallyRow) Values() []interface{} {
	values := make([]interface{}, 0, len(r.Counts)+3)
	values = append(values, r.Timestamp.Format(TimestampLayout), r.Filename)
	for _, c := range r.Counts {
		values = append(values, c)
	}
	return append(values, r.Total)
}

// ClassCounts maps each vocabulary label to its count.
func (r TallyRow) ClassCounts(vocab Vocabulary) map[string]int {
	counts := make(map[string]int, vocab.Len())
	for i, label := range vocab.labels {
		if i < len(r.Counts) {
			counts[label] = r.Counts[i]
		}
	}
	return counts
}
