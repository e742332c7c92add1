package models

// Loan represents a lending record. Type shares the Rate type vocabulary.
type Loan struct {
	ID   int64  `json:"id"`
	Type string `json:"type"`
}
