package aws

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
)

// ErrorCategory defines standardized error categories for audit trails
type ErrorCategory string

const (
	ErrorCategoryDiscovery  ErrorCategory = "discovery"
	ErrorCategorySampling   ErrorCategory = "sampling"
	ErrorCategoryGovernance ErrorCategory = "governance"
	ErrorCategoryNER        ErrorCategory = "ner"
	ErrorCategoryTimeout    ErrorCategory = "timeout"
	ErrorCategoryNetwork    ErrorCategory = "network"
	ErrorCategoryValidation ErrorCategory = "validation"
	ErrorCategorySystem     ErrorCategory = "system"
)

// OpError wraps collaborator call failures with standardized metadata
type OpError struct {
	Category    ErrorCategory
	OriginalErr error
	RequestID   string
	Timestamp   time.Time
	Details     map[string]interface{}
}

func (e OpError) Error() string {
	return fmt.Sprintf("[%s] %s (request: %s)", e.Category, e.OriginalErr.Error(), e.RequestID)
}

func (e OpError) Unwrap() error {
	return e.OriginalErr
}

// newOpError creates a new OpError with standard fields
func newOpError(category ErrorCategory, err error, requestID string, details map[string]interface{}) OpError {
	return OpError{
		Category:    category,
		OriginalErr: err,
		RequestID:   requestID,
		Timestamp:   time.Now(),
		Details:     details,
	}
}

// ErrorReporter handles standardized error reporting
type ErrorReporter struct {
	logger *log.Logger
}

// NewErrorReporter creates a new error reporter
func NewErrorReporter(logger *log.Logger) *ErrorReporter {
	return &ErrorReporter{
		logger: logger,
	}
}

// ReportError logs an error in structured JSON format
func (e *ErrorReporter) ReportError(err error) {
	// Extract op error metadata if available
	var opErr OpError
	details := map[string]interface{}{}

	if errors.As(err, &opErr) {
		details = map[string]interface{}{
			"category":   string(opErr.Category),
			"request_id": opErr.RequestID,
			"timestamp":  opErr.Timestamp.Format(time.RFC3339),
		}

		// Add any additional details
		for k, v := range opErr.Details {
			details[k] = v
		}
	}

	// Create structured error log
	logEntry := map[string]interface{}{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"event":     "error",
		"error":     err.Error(),
		"details":   details,
	}

	jsonData, err := json.Marshal(logEntry)
	if err != nil {
		e.logger.Printf("Error marshaling error log: %v", err)
		return
	}

	e.logger.Println(string(jsonData))
}

// categorizeError categorizes error based on error message
func categorizeError(err error) ErrorCategory {
	errStr := err.Error()

	if strings.Contains(errStr, "rate limit") || strings.Contains(errStr, "too many requests") {
		return ErrorCategoryNetwork
	} else if strings.Contains(errStr, "timeout") || strings.Contains(errStr, "deadline") {
		return ErrorCategoryTimeout
	} else if strings.Contains(errStr, "network") || strings.Contains(errStr, "connection") {
		return ErrorCategoryNetwork
	} else if strings.Contains(errStr, "invalid") || strings.Contains(errStr, "validation") {
		return ErrorCategoryValidation
	} else if strings.Contains(errStr, "access denied") || strings.Contains(errStr, "permission") {
		return ErrorCategoryGovernance
	}

	return ErrorCategorySystem
}
