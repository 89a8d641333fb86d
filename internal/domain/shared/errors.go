package shared

// ValidationError indicates input that violates a numeric or field invariant
type ValidationError struct {
	Field  string
	Reason string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return "validation failed on " + e.Field + ": " + e.Reason
}

// Is implements the errors.Is interface for ValidationError
func (e ValidationError) Is(target error) bool {
	t, ok := target.(ValidationError)
	if !ok {
		return false
	}
	// An empty target matches any ValidationError
	if t.Field == "" && t.Reason == "" {
		return true
	}
	return e.Field == t.Field && e.Reason == t.Reason
}
