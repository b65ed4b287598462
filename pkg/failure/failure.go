// Package failure classifies pipeline errors. Every kind is fatal; the
// classification exists so an operator can tell an adapter bug from a broken
// build from a missing environment variable.
package failure

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	ConfigurationError  Kind = "ConfigurationError"
	ExternalToolFailure Kind = "ExternalToolFailure"
	SourceNotFound      Kind = "SourceNotFound"
	MalformedArtifact   Kind = "MalformedArtifact"
	MissingParameter    Kind = "MissingParameter"
)

func (k Kind) Error() string {
	return string(k)
}

// Error carries the kind plus enough context to diagnose: the stage that was
// running and the path or parameter involved.
type Error struct {
	Kind    Kind
	Stage   string
	Subject string
	Err     error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))

	if e.Stage != "" {
		b.WriteString(" during " + e.Stage)
	}

	if e.Subject != "" {
		b.WriteString(" (" + e.Subject + ")")
	}

	if e.Err != nil {
		b.WriteString(": " + e.Err.Error())
	}

	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is lets errors.Is(err, failure.SourceNotFound) match on kind.
func (e *Error) Is(target error) bool {
	kind, ok := target.(Kind)
	return ok && kind == e.Kind
}

func New(kind Kind, subject string, err error) *Error {
	return &Error{Kind: kind, Subject: subject, Err: err}
}

func Newf(kind Kind, subject, format string, args ...any) *Error {
	return &Error{Kind: kind, Subject: subject, Err: fmt.Errorf(format, args...)}
}

// InStage attributes err to a pipeline stage. Errors that are not yet
// classified keep their chain and are reported under the stage name only.
// A classified error wrapped with extra context keeps that context.
func InStage(stage string, err error) error {
	if err == nil {
		return nil
	}

	var classified *Error
	if !errors.As(err, &classified) {
		return fmt.Errorf("%s: %w", stage, err)
	}

	if classified.Stage != "" {
		return err
	}

	if top, ok := err.(*Error); ok {
		staged := *top
		staged.Stage = stage
		return &staged
	}

	return &Error{Kind: classified.Kind, Stage: stage, Err: err}
}

func KindOf(err error) (Kind, bool) {
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind, true
	}
	return "", false
}
