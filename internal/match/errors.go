package match

import "fmt"

// ConfigError reports a missing or invalid provider configuration. It is
// raised before any network attempt.
type ConfigError struct {
	Provider string
	Reason   string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: configuration error: %s", e.Provider, e.Reason)
}

// NetworkError reports a transport failure or a non-success response from a
// remote provider.
type NetworkError struct {
	Provider string
	Status   int
	Err      error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%s: request failed with status %d: %v", e.Provider, e.Status, e.Err)
	}
	return fmt.Sprintf("%s: request failed: %v", e.Provider, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ResponseError reports a reply that failed validation against the expected
// binding shape. Callers receive zero bindings alongside it.
type ResponseError struct {
	Provider string
	Err      error
}

func (e *ResponseError) Error() string {
	return fmt.Sprintf("%s: invalid response: %v", e.Provider, e.Err)
}

func (e *ResponseError) Unwrap() error { return e.Err }
