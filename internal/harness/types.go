package harness

// CaseResult is the outcome of encoding one case.
type CaseResult struct {
	Name string `json:"name"`
	Type string `json:"type"`

	// SQL is the formatted literal. Empty if encoding failed.
	SQL string `json:"sql,omitempty"`

	// Form is the literal form. Empty if encoding failed.
	Form string `json:"form,omitempty"`

	// Error is the encoding error code if encoding failed.
	Error string `json:"error,omitempty"`

	// Fingerprint is the content hash of the encoded expression.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Calls lists the functions the expression calls, sorted.
	Calls []string `json:"calls,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass indicates overall success: every expectation, round trip and
	// assertion held.
	Pass bool `json:"pass"`

	// Cases are in scenario order.
	Cases []CaseResult `json:"cases"`

	// Signatures are the registered magic-literal functions in name order.
	Signatures []string `json:"signatures"`

	// FragmentID identifies the stored fragment of encoded expressions.
	FragmentID string `json:"fragment_id,omitempty"`

	// Fingerprint is the content hash of the fragment.
	Fingerprint string `json:"fingerprint,omitempty"`

	// Errors contains validation error messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:       true,
		Cases:      []CaseResult{},
		Signatures: []string{},
		Errors:     []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Case returns the result of the named case.
func (r *Result) Case(name string) (CaseResult, bool) {
	for _, c := range r.Cases {
		if c.Name == name {
			return c, true
		}
	}
	return CaseResult{}, false
}
