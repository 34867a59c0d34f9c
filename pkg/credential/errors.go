package credential

import (
	"fmt"
	"sort"
	"strings"
)

// NoEligibleError reports that Acquire found no usable credential. It
// names why each candidate was skipped.
type NoEligibleError struct {
	// Reasons maps credential id to the reason it was skipped. Empty
	// when the pool itself is empty.
	Reasons map[string]string
}

func (e *NoEligibleError) Error() string {
	if len(e.Reasons) == 0 {
		return "no credentials configured"
	}
	ids := make([]string, 0, len(e.Reasons))
	for id := range e.Reasons {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	parts := make([]string, 0, len(ids))
	for _, id := range ids {
		parts = append(parts, fmt.Sprintf("%s: %s", id, e.Reasons[id]))
	}
	return "no eligible credential: " + strings.Join(parts, "; ")
}

// RefreshError wraps a failed token refresh for one credential.
type RefreshError struct {
	ID  string
	Err error
}

func (e *RefreshError) Error() string {
	return fmt.Sprintf("refresh of credential %q failed: %v", e.ID, e.Err)
}

func (e *RefreshError) Unwrap() error {
	return e.Err
}
