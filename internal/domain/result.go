package domain

// Standing is one candidate's position in the ranked tally.
type Standing struct {
	Name       string  `json:"name"`
	Symbol     string  `json:"symbol"`
	Votes      int64   `json:"votes"`
	Percentage float64 `json:"percentage"`
}

// RankedResult is the full election tally, ordered by votes descending with
// candidate name ascending as the tie-break.
type RankedResult struct {
	Entries    []Standing `json:"entries"`
	TotalVotes int64      `json:"total_votes"`
	NoVotes    bool       `json:"no_votes"`
}
