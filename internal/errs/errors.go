package errs

import (
	"fmt"
	"strings"
)

// Error codes. Resolver-level codes are recoverable at the API boundary;
// ExecutionError and DatasetUnavailable are fatal to the request only.
const (
	CodeUnknownMetric      = "unknown_metric"
	CodeUnknownDimension   = "unknown_dimension"
	CodeUnknownFilterValue = "unknown_filter_value"
	CodeAmbiguousIntent    = "ambiguous_intent"
	CodeInvalidTimeRange   = "invalid_time_range"
	CodeExecution          = "query_execution_error"
	CodeDatasetUnavailable = "dataset_unavailable"
)

// Error is a structured error with enough detail for a caller to render an
// actionable message: the offending token, the nearest valid suggestion and
// a human-readable hint. Never a bare stack trace.
type Error struct {
	Code            string   `json:"code"`
	Message         string   `json:"message"`
	Token           string   `json:"token,omitempty"`
	Suggestion      string   `json:"suggestion,omitempty"`
	Hint            string   `json:"hint,omitempty"`
	Interpretations []string `json:"interpretations,omitempty"`
}

func (e *Error) Error() string {
	if e.Token != "" {
		return e.Code + ": " + e.Message + " (" + e.Token + ")"
	}
	return e.Code + ": " + e.Message
}

func UnknownMetric(token string, known []string) *Error {
	return &Error{
		Code:       CodeUnknownMetric,
		Message:    "metric is not defined in the registry",
		Token:      token,
		Suggestion: Nearest(token, known),
		Hint:       "known metrics: " + strings.Join(known, ", "),
	}
}

func UnknownDimension(token string, known []string) *Error {
	return &Error{
		Code:       CodeUnknownDimension,
		Message:    "dimension is not present in the loaded dataset",
		Token:      token,
		Suggestion: Nearest(token, known),
		Hint:       "available dimensions: " + strings.Join(known, ", "),
	}
}

func UnknownFilterValue(dimension, token string, known []string) *Error {
	return &Error{
		Code:       CodeUnknownFilterValue,
		Message:    fmt.Sprintf("value does not occur in dimension %q", dimension),
		Token:      token,
		Suggestion: Nearest(token, known),
		Hint:       "use the filter options endpoint to list valid values",
	}
}

func AmbiguousIntent(interpretations ...string) *Error {
	return &Error{
		Code:            CodeAmbiguousIntent,
		Message:         "question admits contradictory interpretations",
		Interpretations: interpretations,
		Hint:            "re-phrase with one of the listed interpretations",
	}
}

func InvalidTimeRange(msg string) *Error {
	return &Error{Code: CodeInvalidTimeRange, Message: msg, Hint: "start must not be after end"}
}

func Execution(msg string) *Error {
	return &Error{Code: CodeExecution, Message: msg}
}

func DatasetUnavailable() *Error {
	return &Error{
		Code:    CodeDatasetUnavailable,
		Message: "no dataset snapshot is loaded",
		Hint:    "load a dataset before querying",
	}
}

// Nearest returns the candidate with the smallest edit distance to token,
// or "" when nothing is close enough to be a plausible typo.
func Nearest(token string, candidates []string) string {
	token = strings.ToLower(token)
	best, bestDist := "", len(token)/2+2
	for _, c := range candidates {
		d := editDistance(token, strings.ToLower(c))
		if d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

func editDistance(a, b string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min3(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
