package parsing

import "fmt"

// maxExcerpt bounds how much raw model output a ParseError carries
const maxExcerpt = 1500

// ParseError reports model output that could not be interpreted as the
// expected JSON shape. Excerpt holds the start of the raw output.
type ParseError struct {
	Message string
	Excerpt string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

func newParseError(message, raw string, cause error) *ParseError {
	return &ParseError{
		Message: message,
		Excerpt: excerpt(raw),
		Cause:   cause,
	}
}

func excerpt(raw string) string {
	if len(raw) <= maxExcerpt {
		return raw
	}
	return raw[:maxExcerpt]
}
