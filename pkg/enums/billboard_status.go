package enums

import "fmt"

// BillboardStatus maps to the billboard_status enum in Postgres.
type BillboardStatus string

const (
	BillboardStatusDraft    BillboardStatus = "draft"
	BillboardStatusPending  BillboardStatus = "pending"
	BillboardStatusApproved BillboardStatus = "approved"
	BillboardStatusRejected BillboardStatus = "rejected"
	BillboardStatusActive   BillboardStatus = "active"
	BillboardStatusInactive BillboardStatus = "inactive"
)

var validBillboardStatuses = []BillboardStatus{
	BillboardStatusDraft,
	BillboardStatusPending,
	BillboardStatusApproved,
	BillboardStatusRejected,
	BillboardStatusActive,
	BillboardStatusInactive,
}

// billboardTransitions is the lifecycle graph. Every write that moves a
// billboard between states must be guarded by the source state in SQL; this
// table is the in-process pre-check.
var billboardTransitions = map[BillboardStatus][]BillboardStatus{
	BillboardStatusDraft:    {BillboardStatusPending},
	BillboardStatusPending:  {BillboardStatusApproved, BillboardStatusRejected},
	BillboardStatusApproved: {BillboardStatusActive, BillboardStatusRejected},
	BillboardStatusActive:   {BillboardStatusApproved, BillboardStatusInactive},
	BillboardStatusInactive: {BillboardStatusActive},
	BillboardStatusRejected: {BillboardStatusPending},
}

// IsValid checks whether the value matches the canonical enum.
func (s BillboardStatus) IsValid() bool {
	for _, candidate := range validBillboardStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// CanTransitionTo reports whether the lifecycle graph allows the move.
func (s BillboardStatus) CanTransitionTo(target BillboardStatus) bool {
	for _, candidate := range billboardTransitions[s] {
		if candidate == target {
			return true
		}
	}
	return false
}

// ParseBillboardStatus converts raw strings into BillboardStatus.
func ParseBillboardStatus(value string) (BillboardStatus, error) {
	for _, candidate := range validBillboardStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid billboard status %q", value)
}
