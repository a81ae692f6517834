package errors

import (
	// Go Internal Packages
	stderrors "errors"
	"fmt"
	"sort"
	"strings"
)

// Kind classifies an error so transports can map it without inspecting messages.
type Kind uint8

const (
	Other Kind = iota
	Invalid
	NotFound
	Conflict
	Unauthorized
	Forbidden
	Internal
)

func (k Kind) String() string {
	switch k {
	case Invalid:
		return "invalid"
	case NotFound:
		return "not found"
	case Conflict:
		return "conflict"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	case Internal:
		return "internal"
	default:
		return "other"
	}
}

type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Message
	}
	if e.Message == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("%s: %s", e.Message, e.Err.Error())
}

func (e *Error) Unwrap() error {
	return e.Err
}

// E builds a kinded error wrapping err (which may be nil).
func E(kind Kind, msg string, err error) error {
	return &Error{Kind: kind, Message: msg, Err: err}
}

// KindOf returns the kind of the outermost *Error in the chain, or Other.
func KindOf(err error) Kind {
	var e *Error
	if stderrors.As(err, &e) {
		return e.Kind
	}
	return Other
}

func IsKind(err error, kind Kind) bool {
	return err != nil && KindOf(err) == kind
}

// Is and As forward to the standard library so callers need a single errors import.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

func As(err error, target any) bool {
	return stderrors.As(err, target)
}

func New(msg string) error {
	return stderrors.New(msg)
}

// ValidationErrors collects field level problems before failing once.
type ValidationErrors struct {
	fields map[string][]string
}

func ValidationErrs() *ValidationErrors {
	return &ValidationErrors{fields: make(map[string][]string)}
}

func (v *ValidationErrors) Add(field, msg string) {
	v.fields[field] = append(v.fields[field], msg)
}

func (v *ValidationErrors) Len() int {
	return len(v.fields)
}

// Err returns nil when nothing was added.
func (v *ValidationErrors) Err() error {
	if len(v.fields) == 0 {
		return nil
	}
	return v
}

func (v *ValidationErrors) Error() string {
	keys := make([]string, 0, len(v.fields))
	for k := range v.fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s %s", k, strings.Join(v.fields[k], ", ")))
	}
	return strings.Join(parts, "; ")
}
