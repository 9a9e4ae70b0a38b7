package enums

import "fmt"

// ReconciliationStatus tracks the review lifecycle of a daily reconciliation.
// Transitions are monotonic: PENDING -> COMPLETED -> REVIEWED.
type ReconciliationStatus string

const (
	ReconciliationStatusPending   ReconciliationStatus = "PENDING"
	ReconciliationStatusCompleted ReconciliationStatus = "COMPLETED"
	ReconciliationStatusReviewed  ReconciliationStatus = "REVIEWED"
)

var reconciliationStatusRank = map[ReconciliationStatus]int{
	ReconciliationStatusPending:   0,
	ReconciliationStatusCompleted: 1,
	ReconciliationStatusReviewed:  2,
}

// IsValid reports whether the value is a known ReconciliationStatus.
func (s ReconciliationStatus) IsValid() bool {
	_, ok := reconciliationStatusRank[s]
	return ok
}

// CanTransitionTo reports whether moving from s to target is a forward step.
func (s ReconciliationStatus) CanTransitionTo(target ReconciliationStatus) bool {
	from, ok := reconciliationStatusRank[s]
	if !ok {
		return false
	}
	to, ok := reconciliationStatusRank[target]
	if !ok {
		return false
	}
	return to > from
}

// ParseReconciliationStatus converts raw input into a ReconciliationStatus.
func ParseReconciliationStatus(value string) (ReconciliationStatus, error) {
	if status := ReconciliationStatus(value); status.IsValid() {
		return status, nil
	}
	return "", fmt.Errorf("invalid reconciliation status %q", value)
}
