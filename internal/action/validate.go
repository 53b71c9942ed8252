package action

import (
	"fmt"

	"github.com/go-playground/validator/v10"
)

// Validator inspects a value and returns the issues found, or nil if the
// value is acceptable. Actions run input/output validation through this
// seam so callers can plug struct-tag validation, schema-row validation,
// or hand-written checks uniformly.
type Validator func(v any) []Issue

// StructValidator builds a Validator backed by go-playground/validator
// struct tags, translating field errors into {path, message} issues.
func StructValidator() Validator {
	validate := validator.New()
	return func(v any) []Issue {
		if err := validate.Struct(v); err != nil {
			verrs, ok := err.(validator.ValidationErrors)
			if !ok {
				return []Issue{{Path: "$", Message: err.Error()}}
			}
			issues := make([]Issue, 0, len(verrs))
			for _, fe := range verrs {
				issues = append(issues, Issue{
					Path:    fe.Namespace(),
					Message: fmt.Sprintf("failed %q validation", fe.Tag()),
				})
			}
			return issues
		}
		return nil
	}
}
