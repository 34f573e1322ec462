package models

import (
	"context"
	"errors"
	"fmt"
)

// ErrIndexNotReady is returned by every query while no index build has succeeded.
var ErrIndexNotReady = errors.New("index not ready")

// ErrInvalidInput matches any ValidationError via errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// ErrUpstream matches any UpstreamError via errors.Is.
var ErrUpstream = errors.New("upstream service error")

// ErrEmptyDocument is reported for corpus files with no text.
var ErrEmptyDocument = errors.New("empty document")

// ValidationError rejects a request before any collaborator is called.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool { return target == ErrInvalidInput }

// ConfigError is a startup configuration problem. The engine must not become ready.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// CorpusLoadError reports a single corpus file that could not be loaded.
type CorpusLoadError struct {
	Path string
	Err  error
}

func (e *CorpusLoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Path, e.Err)
}

func (e *CorpusLoadError) Unwrap() error { return e.Err }

// UpstreamError wraps a failure of the embedding or language model service.
type UpstreamError struct {
	Service string
	Timeout bool
	Err     error
}

func (e *UpstreamError) Error() string {
	if e.Timeout {
		return fmt.Sprintf("%s timed out: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("%s failed: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// Upstream wraps err as an UpstreamError for service, marking deadline expiry as a timeout.
// A nil err returns nil.
func Upstream(service string, err error) error {
	if err == nil {
		return nil
	}
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return err
	}
	return &UpstreamError{
		Service: service,
		Timeout: errors.Is(err, context.DeadlineExceeded),
		Err:     err,
	}
}

// IsTimeout reports whether err is an upstream timeout.
func IsTimeout(err error) bool {
	var ue *UpstreamError
	return errors.As(err, &ue) && ue.Timeout
}
