package validation

// Result is the structural outcome of one or more handlers. Results form a
// monoid under Merge: Valid is the conjunction, errors and warnings
// concatenate in handler order, and metadata is a shallow union where later
// handlers win on key collision.
type Result struct {
	Valid    bool           `json:"valid"`
	Errors   []string       `json:"errors,omitempty"`
	Warnings []string       `json:"warnings,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// OK is the merge identity: valid with nothing to report.
func OK() Result {
	return Result{Valid: true}
}

// Merge combines two results structurally. Neither input is mutated.
func Merge(a, b Result) Result {
	out := Result{Valid: a.Valid && b.Valid}
	if n := len(a.Errors) + len(b.Errors); n > 0 {
		out.Errors = make([]string, 0, n)
		out.Errors = append(out.Errors, a.Errors...)
		out.Errors = append(out.Errors, b.Errors...)
	}
	if n := len(a.Warnings) + len(b.Warnings); n > 0 {
		out.Warnings = make([]string, 0, n)
		out.Warnings = append(out.Warnings, a.Warnings...)
		out.Warnings = append(out.Warnings, b.Warnings...)
	}
	if len(a.Metadata)+len(b.Metadata) > 0 {
		out.Metadata = make(map[string]any, len(a.Metadata)+len(b.Metadata))
		for k, v := range a.Metadata {
			out.Metadata[k] = v
		}
		for k, v := range b.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

func (r *Result) addError(msg string) {
	r.Valid = false
	r.Errors = append(r.Errors, msg)
}

func (r *Result) addWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

func (r *Result) setMetadata(key string, value any) {
	if r.Metadata == nil {
		r.Metadata = make(map[string]any)
	}
	r.Metadata[key] = value
}
