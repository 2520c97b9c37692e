package enums

import "strings"

// AnnualRateStatus keys are open-ended; the server may introduce new ones at any time.
type AnnualRateStatus string

const (
	AnnualRateStatusDraft     AnnualRateStatus = "draft"
	AnnualRateStatusPending   AnnualRateStatus = "pending"
	AnnualRateStatusApproved  AnnualRateStatus = "approved"
	AnnualRateStatusActive    AnnualRateStatus = "active"
	AnnualRateStatusExpired   AnnualRateStatus = "expired"
	AnnualRateStatusCancelled AnnualRateStatus = "cancelled"
)

// String implements fmt.Stringer.
func (s AnnualRateStatus) String() string {
	return string(s)
}

// Normalize lowercases and trims the key for catalog lookups.
func (s AnnualRateStatus) Normalize() AnnualRateStatus {
	return AnnualRateStatus(strings.ToLower(strings.TrimSpace(string(s))))
}
