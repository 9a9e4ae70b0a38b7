package enums

import "fmt"

// LoadStatus tracks a truck load through its delivery day.
// Transitions are monotonic: LOADED -> IN_TRANSIT -> COMPLETED.
type LoadStatus string

const (
	LoadStatusLoaded    LoadStatus = "LOADED"
	LoadStatusInTransit LoadStatus = "IN_TRANSIT"
	LoadStatusCompleted LoadStatus = "COMPLETED"
)

var loadStatusRank = map[LoadStatus]int{
	LoadStatusLoaded:    0,
	LoadStatusInTransit: 1,
	LoadStatusCompleted: 2,
}

// IsValid reports whether the value is a known LoadStatus.
func (s LoadStatus) IsValid() bool {
	_, ok := loadStatusRank[s]
	return ok
}

// CanTransitionTo reports whether moving from s to target is a forward step.
func (s LoadStatus) CanTransitionTo(target LoadStatus) bool {
	from, ok := loadStatusRank[s]
	if !ok {
		return false
	}
	to, ok := loadStatusRank[target]
	if !ok {
		return false
	}
	return to > from
}

// ParseLoadStatus converts raw input into a LoadStatus.
func ParseLoadStatus(value string) (LoadStatus, error) {
	if status := LoadStatus(value); status.IsValid() {
		return status, nil
	}
	return "", fmt.Errorf("invalid load status %q", value)
}
