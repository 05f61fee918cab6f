package bank

import (
	"fmt"

	"digital.vasic.snippetcheck/pkg/normalize"
)

// ValidationError represents a validation issue found in a suite
// file.
type ValidationError struct {
	Field   string
	Message string
	Index   int // -1 if not applicable
}

func (e ValidationError) Error() string {
	if e.Index >= 0 {
		return fmt.Sprintf("problems[%d].%s: %s", e.Index, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateFile validates a suite file and returns all errors found.
func ValidateFile(path string) []ValidationError {
	file, err := readSuite(path)
	if err != nil {
		return []ValidationError{{Field: "file", Message: err.Error(), Index: -1}}
	}
	return Validate(file)
}

// Validate checks a decoded suite.
func Validate(file *SuiteFile) []ValidationError {
	var errs []ValidationError

	if file.Version == "" {
		errs = append(errs, ValidationError{
			Field: "version", Message: "version is required", Index: -1,
		})
	}
	if len(file.Problems) == 0 {
		errs = append(errs, ValidationError{
			Field: "problems", Message: "at least one problem is required", Index: -1,
		})
	}

	ids := make(map[string]bool)
	for i, p := range file.Problems {
		switch {
		case p.ID == "":
			errs = append(errs, ValidationError{
				Field: "id", Message: "problem ID is required", Index: i,
			})
		case ids[p.ID]:
			errs = append(errs, ValidationError{
				Field: "id", Message: fmt.Sprintf("duplicate ID: %s", p.ID), Index: i,
			})
		default:
			ids[p.ID] = true
		}

		if p.Title == "" {
			errs = append(errs, ValidationError{
				Field: "title", Message: "problem title is required", Index: i,
			})
		}
		if len(p.Cases) == 0 {
			errs = append(errs, ValidationError{
				Field: "cases", Message: "at least one case is required", Index: i,
			})
		}
		if p.Dialect != "" {
			if _, err := normalize.ParseDialect(p.Dialect); err != nil {
				errs = append(errs, ValidationError{
					Field: "dialect", Message: err.Error(), Index: i,
				})
			}
		}
	}

	return errs
}
