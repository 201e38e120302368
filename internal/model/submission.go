package model

// Submission is the completed analysis of one uploaded image.
type Submission struct {
	ID          string         `json:"id"`
	Row         TallyRow       `json:"row"`
	ClassCounts map[string]int `json:"classCounts"`
	Outcome     Outcome        `json:"outcome"`
	Diagnostics []string       `json:"diagnostics,omitempty"`
}

// SubmissionFilter limits ledger queries.
type SubmissionFilter struct {
	Status OutcomeStatus
	Limit  int
	Offset int
}

// SubmissionStats summarizes the ledger.
type SubmissionStats struct {
	TotalSubmissions int                   `json:"total_submissions"`
	TotalDetections  int                   `json:"total_detections"`
	PerClass         map[string]int        `json:"per_class"`
	PerStatus        map[OutcomeStatus]int `json:"per_status"`
}
