package types

// IssueKind classifies a validation failure.
type IssueKind string

// Validation issue kinds.
const (
	IssueFormat         IssueKind = "FormatError"
	IssueReservedWord   IssueKind = "ReservedWordError"
	IssueReservedPrefix IssueKind = "ReservedPrefixError"
	IssueReservedSuffix IssueKind = "ReservedSuffixError"
	IssueAlreadyExists  IssueKind = "AlreadyExistsError"
)

// ValidationIssue is one accumulated validation failure.
type ValidationIssue struct {
	Kind    IssueKind `json:"kind"`
	Message string    `json:"message"`
}

// ValidationResult is the verdict on a candidate name. Issues accumulate in
// check order; IsValid is true only when there are none.
type ValidationResult struct {
	Name       string            `json:"name"`
	IsValid    bool              `json:"is_valid"`
	Errors     []string          `json:"errors"`
	Issues     []ValidationIssue `json:"issues"`
	Warnings   []string          `json:"warnings,omitempty"`
	IsReserved bool              `json:"is_reserved"`
	Priority   Priority          `json:"priority"`
	Category   string            `json:"category,omitempty"`
}

// AddIssue appends an issue and its message.
func (r *ValidationResult) AddIssue(kind IssueKind, msg string) {
	r.Issues = append(r.Issues, ValidationIssue{Kind: kind, Message: msg})
	r.Errors = append(r.Errors, msg)
}

// HasIssue reports whether an issue of the given kind was recorded.
func (r *ValidationResult) HasIssue(kind IssueKind) bool {
	for _, i := range r.Issues {
		if i.Kind == kind {
			return true
		}
	}
	return false
}
