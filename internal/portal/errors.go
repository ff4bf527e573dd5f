package portal

import "fmt"

// AuthError represents a login request the portal did not accept
type AuthError struct {
	StatusCode int
	Body       string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("login failed (status %d): %s", e.StatusCode, e.Body)
}

// FetchError represents a data request that did not return usable JSON
type FetchError struct {
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching %s failed (status %d): %s", e.Endpoint, e.StatusCode, e.Body)
}

// ParseError represents a payload whose timestamp column could not be parsed
type ParseError struct {
	Field string
	Value string
	Err   error
}

func (e *ParseError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("parsing %s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("parsing %s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
