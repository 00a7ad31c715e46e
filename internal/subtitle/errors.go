package subtitle

import "fmt"

// malformed or absent transcript input, or an entry that breaks its invariants
type ValidationError struct {
	Reason string
	Line   int // 1-based source line, 0 when not tied to a line
}

func (e *ValidationError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("invalid subtitle data at line %d: %s", e.Line, e.Reason)
	}
	return "invalid subtitle data: " + e.Reason
}

// persisted entry that can no longer be reconstructed
type DecodeError struct {
	Value  string
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	msg := fmt.Sprintf("cannot decode entry %q: %s", truncate(e.Value, 60), e.Reason)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
