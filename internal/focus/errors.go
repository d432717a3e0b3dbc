package focus

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidBody        = errors.New("invalid json body")
	ErrInvalidSubject     = errors.New("invalid subject")
	ErrInvalidMinutes     = errors.New("invalid minutes")
	ErrMissingConfig      = errors.New("missing env")
	ErrNoRowsToday        = errors.New("no rows today")
	ErrSubjectRowNotFound = errors.New("row not found")
	ErrQueryFailed        = errors.New("notion query failed")
	ErrUpdateFailed       = errors.New("notion update failed")
)

// ValidationError is a client-caused failure detected before any remote call.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s (field %q)", e.Err, e.Field)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// ConfigurationError reports required settings that are absent.
type ConfigurationError struct {
	Missing []string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("%s: %s", ErrMissingConfig, strings.Join(e.Missing, ", "))
}

func (e *ConfigurationError) Unwrap() error { return ErrMissingConfig }

// NotFoundError means today's row for the subject does not exist.
// AvailableSubjects lists what the store did have for the day.
type NotFoundError struct {
	Err               error
	Day               string
	Subject           string
	AvailableSubjects []string
}

func (e *NotFoundError) Error() string {
	if errors.Is(e.Err, ErrNoRowsToday) {
		return fmt.Sprintf("%s (%s)", e.Err, e.Day)
	}
	return fmt.Sprintf("%s: subject %q on %s", e.Err, e.Subject, e.Day)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// RemoteStoreError wraps a failed round trip to the record store.
// Status and Detail are relayed from the store when it answered.
type RemoteStoreError struct {
	Op         string
	Status     int
	Detail     json.RawMessage
	RetryAfter time.Duration
	Err        error
}

func (e *RemoteStoreError) Error() string {
	base := ErrQueryFailed
	if e.Op == "update" {
		base = ErrUpdateFailed
	}
	switch {
	case e.Status != 0 && e.Err != nil:
		return fmt.Sprintf("%s: status %d: %v", base, e.Status, e.Err)
	case e.Status != 0:
		return fmt.Sprintf("%s: status %d", base, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", base, e.Err)
	}
	return base.Error()
}

// Is lets callers match on ErrQueryFailed / ErrUpdateFailed without caring
// about the underlying transport error.
func (e *RemoteStoreError) Is(target error) bool {
	switch target {
	case ErrQueryFailed:
		return e.Op != "update"
	case ErrUpdateFailed:
		return e.Op == "update"
	}
	return false
}

func (e *RemoteStoreError) Unwrap() error { return e.Err }
