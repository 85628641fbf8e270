// Package qipuerr defines the closed error taxonomy every qipu operation
// returns through. It is modeled on the teacher's pkg/mddb.Error: a single
// struct carries structured context (id, path, operation) appended to the
// underlying message, with Unwrap/errors.Is/errors.As support.
package qipuerr

import (
	"errors"
	"strings"
)

// Kind is one of the closed set of error categories. New kinds require a
// spec change, not an ad-hoc addition here.
type Kind int

const (
	_ Kind = iota
	StoreNotFound
	NoteNotFound
	ParseError
	InvalidValue
	FailedOperation
	IOError
	Interrupted
	UnknownFormat
	UsageError
)

func (k Kind) String() string {
	switch k {
	case StoreNotFound:
		return "StoreNotFound"
	case NoteNotFound:
		return "NoteNotFound"
	case ParseError:
		return "ParseError"
	case InvalidValue:
		return "InvalidValue"
	case FailedOperation:
		return "FailedOperation"
	case IOError:
		return "IOError"
	case Interrupted:
		return "Interrupted"
	case UnknownFormat:
		return "UnknownFormat"
	case UsageError:
		return "UsageError"
	default:
		return "Unknown"
	}
}

// Error is the uniform error type returned by every public qipu API.
//
// Use errors.As to recover structured fields:
//
//	var qErr *qipuerr.Error
//	if errors.As(err, &qErr) {
//	    fmt.Println(qErr.Kind, qErr.ID)
//	}
type Error struct {
	Kind      Kind
	ID        string // note id, when known
	Path      string // file path, when known
	Operation string // for FailedOperation
	Reason    string // for FailedOperation
	Err       error  // underlying cause, may be nil
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}

	var b strings.Builder

	b.WriteString(e.Kind.String())

	if e.Operation != "" {
		b.WriteString(": ")
		b.WriteString(e.Operation)
	}

	cause := e.cause()
	if cause != "" {
		b.WriteString(": ")
		b.WriteString(cause)
	} else if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}

	suffix := e.suffix()
	if suffix != "" {
		b.WriteString(" ")
		b.WriteString(suffix)
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}

	return e.Err
}

func (e *Error) cause() string {
	if e.Err == nil {
		return ""
	}

	return e.Err.Error()
}

func (e *Error) suffix() string {
	var parts []string

	if e.ID != "" {
		parts = append(parts, "id="+e.ID)
	}

	if e.Path != "" {
		parts = append(parts, "path="+e.Path)
	}

	if len(parts) == 0 {
		return ""
	}

	return "(" + strings.Join(parts, " ") + ")"
}

// Is lets errors.Is match on Kind alone, e.g. errors.Is(err, qipuerr.NoteNotFound)
// when NoteNotFound is wrapped as a *Error{Kind: NoteNotFound}.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}

	return false
}

// New constructs an *Error of the given kind wrapping err, with optional
// structured context.
func New(kind Kind, err error, opts ...Option) *Error {
	e := &Error{Kind: kind, Err: err}
	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Option attaches structured context to an *Error during construction.
type Option func(*Error)

func WithID(id string) Option       { return func(e *Error) { e.ID = id } }
func WithPath(path string) Option   { return func(e *Error) { e.Path = path } }
func WithOp(op string) Option       { return func(e *Error) { e.Operation = op } }
func WithReason(r string) Option    { return func(e *Error) { e.Reason = r } }

// Sentinels for errors.Is(err, qipuerr.ErrXxx) against a bare *Error{Kind: ...}.
var (
	ErrStoreNotFound = &Error{Kind: StoreNotFound}
	ErrNoteNotFound  = &Error{Kind: NoteNotFound}
	ErrParse         = &Error{Kind: ParseError}
	ErrInvalidValue  = &Error{Kind: InvalidValue}
	ErrIO            = &Error{Kind: IOError}
	ErrInterrupted   = &Error{Kind: Interrupted}
	ErrUnknownFormat = &Error{Kind: UnknownFormat}
	ErrUsage         = &Error{Kind: UsageError}
)
