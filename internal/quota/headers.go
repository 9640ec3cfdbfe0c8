package quota

import (
	"net/http"
	"strconv"
)

const (
	headerLimit     = "X-RateLimit-Limit"
	headerRemaining = "X-RateLimit-Remaining"
	headerReset     = "X-RateLimit-Reset"
)

// SetHeaders writes the quota state of d to h. Bypassed decisions write nothing.
func SetHeaders(h http.Header, d Decision, capacity int) {
	if d.Bypassed {
		return
	}
	remaining := d.Remaining
	if remaining < 0 {
		remaining = 0
	}
	h.Set(headerLimit, strconv.Itoa(capacity))
	h.Set(headerRemaining, strconv.Itoa(remaining))
	if !d.ResetAt.IsZero() {
		h.Set(headerReset, strconv.FormatInt(d.ResetAt.Unix(), 10))
	}
}
