package enums

import "fmt"

// AuditOperation names the kind of mutation an audit log row records.
type AuditOperation string

const (
	AuditOperationInsert AuditOperation = "INSERT"
	AuditOperationUpdate AuditOperation = "UPDATE"
	AuditOperationDelete AuditOperation = "DELETE"
)

var validAuditOperations = []AuditOperation{
	AuditOperationInsert,
	AuditOperationUpdate,
	AuditOperationDelete,
}

// IsValid reports whether the value is a known AuditOperation.
func (o AuditOperation) IsValid() bool {
	for _, candidate := range validAuditOperations {
		if candidate == o {
			return true
		}
	}
	return false
}

// ParseAuditOperation converts raw input into an AuditOperation.
func ParseAuditOperation(value string) (AuditOperation, error) {
	for _, candidate := range validAuditOperations {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid audit operation %q", value)
}
