package feature

import "fmt"

// Validatable is implemented by request types that declare structural
// constraints. Validate returns nil when the request is well formed.
type Validatable interface {
	Validate() error
}

// validateRequests checks every request object and aggregates violations
// into a single *ValidationError.
func validateRequests(requests []any) error {
	var violations []string
	for i, req := range requests {
		if req == nil {
			violations = append(violations, fmt.Sprintf("request %d: must not be nil", i))
			continue
		}
		v, ok := req.(Validatable)
		if !ok {
			continue
		}
		if err := v.Validate(); err != nil {
			violations = append(violations, err.Error())
		}
	}
	if len(violations) > 0 {
		return &ValidationError{Violations: violations}
	}
	return nil
}
