package model

// ProcessingReport summarizes one batch run.
type ProcessingReport struct {
	Attempted int `json:"attempted"`
	Published int `json:"published"`
	Skipped   int `json:"skipped"` // fetched but beyond the per-run cap
	Failed    int `json:"failed"`
}

// Post is a formatted social post ready for the publisher.
type Post struct {
	Text  string
	Media [][]byte // optional rendered card images
}
