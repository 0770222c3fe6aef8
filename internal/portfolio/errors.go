package portfolio

import "fmt"

// StoreError reports a failure to open, read or load the portfolio
type StoreError struct {
	Op    string
	Path  string
	Cause error
}

func (e *StoreError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("portfolio %s %s: %v", e.Op, e.Path, e.Cause)
	}
	return fmt.Sprintf("portfolio %s: %v", e.Op, e.Cause)
}

func (e *StoreError) Unwrap() error {
	return e.Cause
}
