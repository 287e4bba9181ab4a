package enums

import "fmt"

// AssignmentStatus maps to the assignment_status enum in Postgres.
type AssignmentStatus string

const (
	AssignmentStatusPending    AssignmentStatus = "pending"
	AssignmentStatusCompleted  AssignmentStatus = "completed"
	AssignmentStatusSuperseded AssignmentStatus = "superseded"
)

var validAssignmentStatuses = []AssignmentStatus{
	AssignmentStatusPending,
	AssignmentStatusCompleted,
	AssignmentStatusSuperseded,
}

// IsValid checks whether the value matches the canonical enum.
func (s AssignmentStatus) IsValid() bool {
	for _, candidate := range validAssignmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// AssignmentPriority maps to the assignment_priority enum in Postgres.
type AssignmentPriority string

const (
	AssignmentPriorityLow    AssignmentPriority = "low"
	AssignmentPriorityMedium AssignmentPriority = "medium"
	AssignmentPriorityHigh   AssignmentPriority = "high"
	AssignmentPriorityUrgent AssignmentPriority = "urgent"
)

var validAssignmentPriorities = []AssignmentPriority{
	AssignmentPriorityLow,
	AssignmentPriorityMedium,
	AssignmentPriorityHigh,
	AssignmentPriorityUrgent,
}

// IsValid checks whether the value matches the canonical enum.
func (p AssignmentPriority) IsValid() bool {
	for _, candidate := range validAssignmentPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// ParseAssignmentPriority converts raw strings into AssignmentPriority.
func ParseAssignmentPriority(value string) (AssignmentPriority, error) {
	for _, candidate := range validAssignmentPriorities {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid assignment priority %q", value)
}
