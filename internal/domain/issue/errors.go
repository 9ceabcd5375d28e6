package issue

import "fmt"

// BackendError wraps a failed tracker call. It is localized to one plan
// step: the executor records it and moves on.
type BackendError struct {
	Op         string // "search", "create" or "metadata"
	StatusCode int    // HTTP status when the server answered, 0 otherwise
	Err        error
}

func (e *BackendError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("tracker %s failed with status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("tracker %s failed: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
