package cv

// FieldErrors maps a field path (e.g. "experience[1].start_date") to a
// human-readable message.
type FieldErrors map[string]string

func (e FieldErrors) Add(field, msg string) { e[field] = msg }

// OK reports whether the submission passed every check.
func (e FieldErrors) OK() bool { return len(e) == 0 }

// ValidationError carries field errors out of Commit when the storage layer
// rejects a write that binding-time validation did not catch (e.g. a
// national-id registered by a concurrent request).
type ValidationError struct {
	Fields FieldErrors
}

func (e *ValidationError) Error() string { return "submission failed validation" }
