package types

import (
	"errors"
	"fmt"
)

// ConfigError reports configuration that makes a run impossible, such as an
// empty topic catalog.
type ConfigError struct {
	Op     string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %s", e.Op, e.Reason)
}

func NewConfigError(op, reason string) *ConfigError {
	return &ConfigError{Op: op, Reason: reason}
}

func IsConfigError(err error) bool {
	var target *ConfigError
	return errors.As(err, &target)
}

// FormatError reports a persisted file whose shape does not match what the
// run expects to find there.
type FormatError struct {
	Path   string
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("format error in %s: %s: %v", e.Path, e.Reason, e.Err)
	}
	return fmt.Sprintf("format error in %s: %s", e.Path, e.Reason)
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func NewFormatError(path, reason string, err error) *FormatError {
	return &FormatError{Path: path, Reason: reason, Err: err}
}

func IsFormatError(err error) bool {
	var target *FormatError
	return errors.As(err, &target)
}

type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

func NewIOError(op, path string, err error) *IOError {
	return &IOError{Op: op, Path: path, Err: err}
}

func IsIOError(err error) bool {
	var target *IOError
	return errors.As(err, &target)
}

// ParseError is returned when a response body is not the JSON document the
// collector expected. Head holds the start of the body for diagnosis.
type ParseError struct {
	URL  string
	Head string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("non-JSON response from %s: %v: %s", e.URL, e.Err, e.Head)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func NewParseError(url string, body []byte, err error) *ParseError {
	head := body
	if len(head) > 300 {
		head = head[:300]
	}
	return &ParseError{URL: url, Head: string(head), Err: err}
}

func IsParseError(err error) bool {
	var target *ParseError
	return errors.As(err, &target)
}

type CollectorError struct {
	Collector string
	Err       error
}

func (e *CollectorError) Error() string {
	return fmt.Sprintf("collector %s failed: %v", e.Collector, e.Err)
}

func (e *CollectorError) Unwrap() error {
	return e.Err
}

func NewCollectorError(collector string, err error) *CollectorError {
	return &CollectorError{Collector: collector, Err: err}
}
