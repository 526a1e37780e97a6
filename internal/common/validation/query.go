package validation

import (
	"fmt"
	"regexp"
	"strings"
)

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// QueryRequest carries the parsed query parameters of a list endpoint
// before they are handed to the pipeline.
type QueryRequest struct {
	Filters   map[string]string
	SortField string
	SortOrder string
	Page      int
	Limit     int
}

var fieldNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// ValidateQueryRequest validates pagination, sort and filter parameters
// with detailed errors. Field existence against the schema registry is
// checked later by the pipeline itself; here we only reject values that
// are malformed regardless of record type.
func ValidateQueryRequest(req QueryRequest, maxLimit int) *ValidationResult {
	errors := []ValidationError{}

	if req.Page < 1 {
		errors = append(errors, ValidationError{
			Field:   "page",
			Message: "page must be >= 1",
			Code:    "INVALID_PAGE",
		})
	}
	if req.Limit < 1 {
		errors = append(errors, ValidationError{
			Field:   "limit",
			Message: "limit must be >= 1",
			Code:    "INVALID_LIMIT",
		})
	}
	if maxLimit > 0 && req.Limit > maxLimit {
		errors = append(errors, ValidationError{
			Field:   "limit",
			Message: fmt.Sprintf("limit must be <= %d", maxLimit),
			Code:    "LIMIT_TOO_LARGE",
		})
	}

	if req.SortOrder != "" && req.SortOrder != "asc" && req.SortOrder != "desc" {
		errors = append(errors, ValidationError{
			Field:   "order",
			Message: "order must be one of [asc desc]",
			Code:    "INVALID_SORT_ORDER",
		})
	}
	if req.SortOrder != "" && req.SortField == "" {
		errors = append(errors, ValidationError{
			Field:   "sort",
			Message: "order given without a sort field",
			Code:    "SORT_FIELD_MISSING",
		})
	}
	if req.SortField != "" && !fieldNamePattern.MatchString(req.SortField) {
		errors = append(errors, ValidationError{
			Field:   "sort",
			Message: fmt.Sprintf("sort field must match pattern %s", fieldNamePattern.String()),
			Code:    "PATTERN_MISMATCH",
		})
	}

	for field := range req.Filters {
		if !fieldNamePattern.MatchString(field) {
			errors = append(errors, ValidationError{
				Field:   field,
				Message: fmt.Sprintf("filter field must match pattern %s", fieldNamePattern.String()),
				Code:    "PATTERN_MISMATCH",
			})
		}
	}

	return &ValidationResult{
		Valid:  len(errors) == 0,
		Errors: errors,
	}
}

// GetErrorMessages returns a simple list of error messages
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

// HasErrors checks if validation has errors for specific field
func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field {
			return true
		}
	}
	return false
}

// GetErrorsForField returns errors for a specific field
func (vr *ValidationResult) GetErrorsForField(field string) []ValidationError {
	var fieldErrors []ValidationError
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") {
			fieldErrors = append(fieldErrors, err)
		}
	}
	return fieldErrors
}

// ValidateEmail validates email format
func ValidateEmail(email string) bool {
	emailPattern := regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
	return emailPattern.MatchString(email)
}
