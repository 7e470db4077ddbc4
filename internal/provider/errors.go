package provider

import "fmt"

// ConfigError reports a required provider setting that is absent. It is
// raised at first use, not at startup, so read-only deployments can omit
// write-side credentials.
type ConfigError struct {
	Setting string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("missing required setting %s", e.Setting)
}

// AuthError reports a rejected credential exchange with the provider.
type AuthError struct {
	Status int
	Body   string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("provider authorization failed: %d %s", e.Status, e.Body)
}

// RequestError reports a non-2xx provider response for any other operation.
type RequestError struct {
	Op     string
	Status int
	Body   string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s failed with status %d: %s", e.Op, e.Status, e.Body)
}
