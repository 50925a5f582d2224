package services

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"gorm.io/gorm"
)

// ErrWriteNotApplied is returned when an update or delete matched zero rows after
// the target passed its existence check. From this layer a permission rule and a
// concurrent delete look identical, so the message stays generic.
var ErrWriteNotApplied = errors.New("the change was not applied: the record may have been removed or you may not have permission to modify it")

// ValidationError reports bad input for a single form field
type ValidationError struct {
	Field   string
	Message string
	Err     error // sentinel behind the message, if any
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// NewValidationError builds a ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// fieldError attaches a sentinel error to a form field
func fieldError(field string, err error) error {
	return &ValidationError{Field: field, Message: err.Error(), Err: err}
}

// ValidationErrors collects every invalid field of a form
type ValidationErrors []*ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return strings.Join(parts, "; ")
}

// Add appends a field error
func (v *ValidationErrors) Add(field, message string) {
	*v = append(*v, &ValidationError{Field: field, Message: message})
}

// Fields returns the errors keyed by field name
func (v ValidationErrors) Fields() map[string]string {
	fields := make(map[string]string, len(v))
	for _, e := range v {
		if _, exists := fields[e.Field]; !exists {
			fields[e.Field] = e.Message
		}
	}
	return fields
}

// ErrOrNil returns nil when no field failed
func (v ValidationErrors) ErrOrNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}

// UpstreamError wraps a failure reported by storage or another remote dependency
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error {
	return e.Err
}

var missingColumnPattern = regexp.MustCompile(`(?i)no such column|column .* does not exist|undefined column|unknown column`)
var missingTablePattern = regexp.MustCompile(`(?i)no such table|relation .* does not exist|undefined table`)

// sqlStater is implemented by Postgres-style driver errors (e.g. pgconn.PgError)
type sqlStater interface {
	SQLState() string
}

// isMissingColumnError detects a query against a column the schema does not have,
// by SQLSTATE 42703 or by the driver message.
func isMissingColumnError(err error) bool {
	if err == nil {
		return false
	}
	var se sqlStater
	if errors.As(err, &se) && se.SQLState() == "42703" {
		return true
	}
	return missingColumnPattern.MatchString(err.Error())
}

// isMissingTableError detects a query against a table the schema does not have
func isMissingTableError(err error) bool {
	if err == nil {
		return false
	}
	var se sqlStater
	if errors.As(err, &se) && se.SQLState() == "42P01" {
		return true
	}
	return missingTablePattern.MatchString(err.Error())
}

// isUniqueViolation detects a duplicate key on insert or update
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var se sqlStater
	if errors.As(err, &se) && se.SQLState() == "23505" {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate key")
}
