package models

// Rate represents the annual interest rate charged for a loan type
type Rate struct {
	ID        int64   `json:"id"`
	Type      string  `json:"type"`
	RateValue float64 `json:"rateValue"` // Percent per annum
}
