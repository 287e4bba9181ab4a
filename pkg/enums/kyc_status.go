package enums

import "fmt"

// KYCStatus maps to the kyc_status enum in Postgres. Only billboard owners
// carry a KYC status; approval gates listing submission.
type KYCStatus string

const (
	KYCStatusPending   KYCStatus = "pending"
	KYCStatusSubmitted KYCStatus = "submitted"
	KYCStatusApproved  KYCStatus = "approved"
	KYCStatusRejected  KYCStatus = "rejected"
)

var validKYCStatuses = []KYCStatus{
	KYCStatusPending,
	KYCStatusSubmitted,
	KYCStatusApproved,
	KYCStatusRejected,
}

// IsValid checks whether the value matches the canonical enum.
func (s KYCStatus) IsValid() bool {
	for _, candidate := range validKYCStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the KYC state machine allows the move.
// pending -> submitted, submitted -> approved|rejected, rejected -> submitted.
func (s KYCStatus) CanTransitionTo(target KYCStatus) bool {
	switch s {
	case KYCStatusPending:
		return target == KYCStatusSubmitted
	case KYCStatusSubmitted:
		return target == KYCStatusApproved || target == KYCStatusRejected
	case KYCStatusRejected:
		return target == KYCStatusSubmitted
	default:
		return false
	}
}

// ParseKYCStatus converts raw strings into KYCStatus.
func ParseKYCStatus(value string) (KYCStatus, error) {
	for _, candidate := range validKYCStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid kyc status %q", value)
}
