package model

// Vocabulary is the ordered set of class labels tallied into named columns.
// Order defines the column order of every TallyRow.
type Vocabulary struct {
	labels []string
	index  map[string]int
}

// NewVocabulary copies labels so later changes by the caller are not observed.
func NewVocabulary(labels []string) Vocabulary {
	v := Vocabulary{
		labels: make([]string, len(labels)),
		index:  make(map[string]int, len(labels)),
	}
	copy(v.labels, labels)
	for i, label := range v.labels {
		if _, exists := v.index[label]; !exists {
			v.index[label] = i
		}
	}
	return v
}

// Labels returns a copy of the labels in column order.
func (v Vocabulary) Labels() []string {
	out := make([]string, len(v.labels))
	copy(out, v.labels)
	return out
}

// Len returns the number of columns.
func (v Vocabulary) Len() int {
	return len(v.labels)
}

// Index returns the column of label, or -1 when label is not in the vocabulary.
func (v Vocabulary) Index(label string) int {
	if i, ok := v.index[label]; ok {
		return i
	}
	return -1
}
