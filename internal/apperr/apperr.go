// Package apperr defines the tagged failures returned by every public operation.
package apperr

import (
	"errors"
	"fmt"
	"strings"
)

// Kind is a stable, machine readable failure tag.
type Kind string

const (
	InvalidProfile    Kind = "InvalidProfile"
	InvalidGig        Kind = "InvalidGig"
	InvalidReviewType Kind = "InvalidReviewType"
	InvalidFixType    Kind = "InvalidFixType"
	// InvalidInput covers boundary validation of fields that are neither profile nor gig.
	InvalidInput Kind = "InvalidInput"

	NotFound         Kind = "NotFound"
	PermissionDenied Kind = "PermissionDenied"
	TooLarge         Kind = "TooLarge"
	OutOfSandbox     Kind = "OutOfSandbox"
	DiskFull         Kind = "DiskFull"
	BackupFailed     Kind = "BackupFailed"

	PlanOutOfRange Kind = "PlanOutOfRange"

	AdvisoryUnavailable Kind = "AdvisoryUnavailable"
	AdvisoryMalformed   Kind = "AdvisoryMalformed"

	Internal Kind = "Internal"
)

// Class groups kinds by how a caller is expected to react to them.
type Class string

const (
	ClassValidation Class = "validation"
	ClassResource   Class = "resource"
	ClassPlan       Class = "plan"
	ClassExternal   Class = "external"
	ClassInternal   Class = "internal"
)

// Class returns the taxonomy bucket of the kind.
func (k Kind) Class() Class {
	switch k {
	case InvalidProfile, InvalidGig, InvalidReviewType, InvalidFixType, InvalidInput:
		return ClassValidation
	case NotFound, PermissionDenied, TooLarge, OutOfSandbox, DiskFull, BackupFailed:
		return ClassResource
	case PlanOutOfRange:
		return ClassPlan
	case AdvisoryUnavailable, AdvisoryMalformed:
		return ClassExternal
	default:
		return ClassInternal
	}
}

// Error is a failure tagged with the operation that produced it and the subject
// (path, field, rule) needed to retry correctly.
type Error struct {
	Op      string
	Kind    Kind
	Subject string
	Err     error
}

// E builds a tagged error.
func E(op string, kind Kind, subject string, err error) *Error {
	return &Error{Op: op, Kind: kind, Subject: subject, Err: err}
}

// Errorf builds a tagged error with a formatted cause.
func Errorf(op string, kind Kind, subject, format string, args ...any) *Error {
	return E(op, kind, subject, fmt.Errorf(format, args...))
}

func (e *Error) Error() string {
	parts := make([]string, 0, 4)
	if e.Op != "" {
		parts = append(parts, e.Op)
	}
	parts = append(parts, string(e.Kind))
	if e.Subject != "" {
		parts = append(parts, e.Subject)
	}
	if e.Err != nil {
		parts = append(parts, e.Err.Error())
	}
	return strings.Join(parts, ": ")
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of the first tagged error in the chain, or Internal.
func KindOf(err error) Kind {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	return Internal
}

// Is reports whether err carries the given kind.
func Is(err error, kind Kind) bool {
	if err == nil {
		return false
	}
	return KindOf(err) == kind
}

// WithOp returns err tagged with op. A tagged error keeps its kind and subject but
// reports the outer operation; anything else becomes Internal.
func WithOp(err error, op string) error {
	if err == nil {
		return nil
	}

	var tagged *Error
	if errors.As(err, &tagged) {
		if tagged.Op == op {
			return err
		}
		return &Error{Op: op, Kind: tagged.Kind, Subject: tagged.Subject, Err: tagged.Err}
	}

	return &Error{Op: op, Kind: Internal, Err: err}
}

// Qualify prefixes the subject of a tagged error with ref, such as the position of the
// offending record. Untagged errors are returned unchanged.
func Qualify(err error, ref string) error {
	var tagged *Error
	if !errors.As(err, &tagged) {
		return err
	}

	subject := ref
	if tagged.Subject != "" {
		subject = ref + "." + tagged.Subject
	}
	return &Error{Op: tagged.Op, Kind: tagged.Kind, Subject: subject, Err: tagged.Err}
}

// Details is the serialisable view of a failure.
type Details struct {
	Op      string `json:"op,omitempty"`
	Kind    Kind   `json:"kind"`
	Class   Class  `json:"class"`
	Subject string `json:"subject,omitempty"`
	Message string `json:"message"`
}

// Describe converts any error into Details.
func Describe(err error) Details {
	var tagged *Error
	if !errors.As(err, &tagged) {
		return Details{Kind: Internal, Class: ClassInternal, Message: err.Error()}
	}

	message := err.Error()
	if tagged.Err != nil {
		message = tagged.Err.Error()
	}

	return Details{
		Op:      tagged.Op,
		Kind:    tagged.Kind,
		Class:   tagged.Kind.Class(),
		Subject: tagged.Subject,
		Message: message,
	}
}
