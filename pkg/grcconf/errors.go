package grcconf

import "fmt"

// ConfigParseError locates a problem in a conf file.
type ConfigParseError struct {
	Line   int
	Stanza int
	Err    error
}

func (e *ConfigParseError) Error() string {
	if e.Stanza == 0 {
		return fmt.Sprintf("line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("line %d (stanza %d): %v", e.Line, e.Stanza, e.Err)
}

func (e *ConfigParseError) Unwrap() error { return e.Err }
