package gateway

import "fmt"

// RemoteCartError is returned for every non-2xx response from the backend
// cart resource. It carries the backend's own message so the UI can surface
// it verbatim; the gateway never retries.
type RemoteCartError struct {
	StatusCode int
	Message    string
}

func (e *RemoteCartError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("cart backend returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("cart backend returned %d", e.StatusCode)
}
