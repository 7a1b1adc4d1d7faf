package auth

import (
	"errors"
	"fmt"
	"net/http"
)

// RejectionKind classifies the ways in which a Pipeline can refuse a request
type RejectionKind int

const (
	KindMissingApiKey RejectionKind = iota + 1
	KindUnauthorized
	KindForbidden
	KindInternal
)

func (k RejectionKind) String() string {
	switch k {
	case KindMissingApiKey:
		return "missing_api_key"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindInternal:
		return "internal_error"
	}
	return fmt.Sprintf("rejection(%d)", int(k))
}

// StatusCode returns the HTTP status that a rejection of this kind is reported with
func (k RejectionKind) StatusCode() int {
	switch k {
	case KindMissingApiKey:
		return http.StatusBadRequest
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// Rejection is the error returned by Pipeline.Provide when a request is refused. Only
// rejections of KindInternal carry an underlying cause.
type Rejection struct {
	Kind RejectionKind
	Err  error
}

var (
	ErrMissingApiKey = &Rejection{Kind: KindMissingApiKey}
	ErrUnauthorized  = &Rejection{Kind: KindUnauthorized}
	ErrForbidden     = &Rejection{Kind: KindForbidden}
	ErrInternal      = &Rejection{Kind: KindInternal}
)

func internalError(err error) *Rejection {
	return &Rejection{Kind: KindInternal, Err: err}
}

func (r *Rejection) Error() string {
	if r.Err != nil {
		return fmt.Sprintf("%s: %v", r.Kind, r.Err)
	}
	return r.Kind.String()
}

func (r *Rejection) Unwrap() error {
	return r.Err
}

// Is reports whether target is the sentinel Rejection of the same kind, so that e.g.
// errors.Is(err, auth.ErrInternal) holds regardless of the cause
func (r *Rejection) Is(target error) bool {
	t, ok := target.(*Rejection)
	return ok && t.Err == nil && t.Kind == r.Kind
}

// StatusCode returns the HTTP status to respond with for an error returned from
// Pipeline.Provide: errors that aren't rejections are reported as internal errors
func StatusCode(err error) int {
	var r *Rejection
	if errors.As(err, &r) {
		return r.Kind.StatusCode()
	}
	return http.StatusInternalServerError
}
