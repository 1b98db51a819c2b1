package model

import (
	"errors"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

// ValidationError holds a list of field-level validation errors.
type ValidationError struct {
	Errors []FieldError
}

// FieldError represents a single validation failure on a named field.
type FieldError struct {
	Field   string
	Message string
}

// Error formats the validation error as a semicolon-separated list of field messages.
func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		parts[i] = fe.Field + ": " + fe.Message
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// HasErrors reports whether the validation error contains any field errors.
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterStructValidation(graphQueryRules, GraphQuery{})
		validate.RegisterStructValidation(summaryRequestRules, SummaryRequest{})
	})
	return validate
}

func graphQueryRules(sl validator.StructLevel) {
	q := sl.Current().Interface().(GraphQuery)
	if q.modeCount() != 1 {
		sl.ReportError(q, "query", "GraphQuery", "exactly_one_mode", "")
	}
}

func summaryRequestRules(sl validator.StructLevel) {
	r := sl.Current().Interface().(SummaryRequest)
	if strings.TrimSpace(r.Title) == "" && r.PubID == nil {
		sl.ReportError(r.Title, "title", "Title", "title_or_pub_id", "")
	}
}

// Validate checks v against its struct tags and the registered struct rules.
// It returns a *ValidationError if any rules fail, or nil if v is valid.
func Validate(v any) error {
	err := validatorInstance().Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	ve := &ValidationError{}
	for _, fe := range verrs {
		ve.Errors = append(ve.Errors, FieldError{
			Field:   strings.ToLower(fe.Field()),
			Message: messageFor(fe),
		})
	}
	return ve
}

// ValidateArticle normalizes list fields and validates the article.
func ValidateArticle(a *Article) error {
	a.Normalize()
	return Validate(a)
}

func messageFor(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "url":
		return "must be a valid URL"
	case "startswith":
		return "must start with " + fe.Param()
	case "oneof":
		return "must be one of: " + fe.Param()
	case "exactly_one_mode":
		return "exactly one of article_id, author, keywords or title must be set"
	case "title_or_pub_id":
		return "title or pub_id is required"
	}
	return "failed " + fe.Tag() + " check"
}
