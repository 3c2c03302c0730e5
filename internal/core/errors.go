package core

import (
	"errors"
	"fmt"
)

// ErrorKind classifies fatal run errors.
type ErrorKind int

const (
	// KindConfiguration covers missing or invalid run settings, including a
	// header row without the translation key column.
	KindConfiguration ErrorKind = iota + 1

	// KindParse covers existing output that cannot be read back.
	KindParse

	// KindRender covers flat keys that cannot be nested into a document.
	KindRender

	// KindIO covers unreadable input and unwritable output.
	KindIO
)

func (k ErrorKind) String() string {
	switch k {
	case KindConfiguration:
		return "configuration error"
	case KindParse:
		return "parse failure"
	case KindRender:
		return "render failure"
	case KindIO:
		return "i/o failure"
	}
	return "error"
}

var (
	ErrInputFileRequired  = errors.New("the input file must be specified")
	ErrNoKeyColumn        = errors.New("no translation key column defined")
	ErrUnknownEncoding    = errors.New("unknown input encoding")
	ErrInvalidLocale      = errors.New("invalid locale name")
	ErrReconcilerFinished = errors.New("reconciler already finished")
	ErrHeadersNotRead     = errors.New("row received before headers")
	ErrHeadersRepeated    = errors.New("headers already received")
)

// Error is a fatal run error with its classification and the path or
// operation it concerns.
type Error struct {
	Kind ErrorKind
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s %s: %v", e.Kind, e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func configError(op string, err error) error {
	return &Error{Kind: KindConfiguration, Op: op, Err: err}
}

func parseError(op, path string, err error) error {
	return &Error{Kind: KindParse, Op: op, Path: path, Err: err}
}

func renderError(op, locale string, err error) error {
	return &Error{Kind: KindRender, Op: op, Path: locale, Err: err}
}

func ioError(op, path string, err error) error {
	return &Error{Kind: KindIO, Op: op, Path: path, Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or 0.
func KindOf(err error) ErrorKind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return 0
}
