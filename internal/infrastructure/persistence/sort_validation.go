package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// RowSortFields contains allowed sort fields for answer rows
var RowSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"row_number":    true,
	"status":        true,
	"review_status": true,
	"flagged":       true,
}

// AnswerHistorySortFields contains allowed sort fields for the answer log
var AnswerHistorySortFields = map[string]bool{
	"id":          true,
	"created_at":  true,
	"run_id":      true,
	"row_id":      true,
	"confidence":  true,
	"tokens_used": true,
}
