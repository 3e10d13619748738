package domain

import "time"

// History field names shared by components that record audit entries.
const (
	HistoryFieldStatus   = "status"
	HistoryFieldPriority = "priority"
	HistoryFieldAssignee = "assignee"
)

// ConversionHistoryField builds the field name recorded when a case is
// converted into another variant, e.g. "converted_to_compra".
func ConversionHistoryField(target Variant) string {
	return "converted_to_" + string(target)
}

// HistoryEntry is an immutable audit record for one tracked-field change.
// Entries are append-only; nothing updates or deletes them.
type HistoryEntry struct {
	ID          string
	CaseID      string
	FieldName   string
	OldValue    string
	NewValue    string
	ChangedBy   *string
	Description string
	CreatedAt   time.Time
}
