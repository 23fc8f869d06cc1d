// errors.go - Failure taxonomy shared by every command.
package pipeline

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/parkitectnexus/assettools/pkg/annotate"
	"github.com/parkitectnexus/assettools/pkg/asset"
)

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidFileType = errors.New("invalid file type")
	ErrInvalidFormat   = errors.New("invalid format")
	ErrFontLoadFailed  = annotate.ErrFontLoadFailed

	// ErrPathNotFound is the ErrInvalidInput raised for missing or empty paths.
	ErrPathNotFound = fmt.Errorf("specified path does not exist: %w", ErrInvalidInput)
)

// Kind classifies a failure for reporting.
type Kind int

const (
	KindInternal Kind = iota
	KindInvalidInput
	KindInvalidFileType
	KindInvalidFormat
	KindFontLoadFailed
)

func (k Kind) String() string {
	switch k {
	case KindInvalidInput:
		return "InvalidInput"
	case KindInvalidFileType:
		return "InvalidFileType"
	case KindInvalidFormat:
		return "InvalidFormat"
	case KindFontLoadFailed:
		return "FontLoadFailed"
	}
	return "Internal"
}

// Classify maps err onto the taxonomy. Anything unrecognised is internal.
func Classify(err error) Kind {
	switch {
	case errors.Is(err, ErrInvalidInput):
		return KindInvalidInput
	case errors.Is(err, ErrInvalidFileType):
		return KindInvalidFileType
	case errors.Is(err, ErrInvalidFormat),
		errors.Is(err, asset.ErrInvalidBlueprint),
		errors.Is(err, asset.ErrInvalidSavegame):
		return KindInvalidFormat
	case errors.Is(err, ErrFontLoadFailed):
		return KindFontLoadFailed
	}
	return KindInternal
}

// Message returns the user-facing text for err. Classified failures get a
// fixed message; internal ones get the error type, message and trace.
func Message(err error) string {
	switch Classify(err) {
	case KindInvalidInput:
		if errors.Is(err, ErrPathNotFound) {
			return "specified path does not exist"
		}
		return "invalid input"
	case KindInvalidFileType:
		return "invalid file type"
	case KindInvalidFormat:
		if errors.Is(err, asset.ErrInvalidSavegame) {
			return "invalid savegame"
		}
		return "invalid blueprint"
	case KindFontLoadFailed:
		return "font could not be loaded"
	}

	var ie *InternalError
	if !errors.As(err, &ie) {
		ie = &InternalError{Err: err}
	}
	return ie.Report()
}

// InternalError is an unexpected failure. Stack is set when it came from a
// recovered panic.
type InternalError struct {
	Err   error
	Stack []byte
}

func (e *InternalError) Error() string { return e.Err.Error() }
func (e *InternalError) Unwrap() error { return e.Err }

// Report formats the error as "error: <type>: <message>" followed by a
// trace: the panic stack if there is one, else the chain of wrapped errors.
func (e *InternalError) Report() string {
	root := e.Err
	for {
		next := errors.Unwrap(root)
		if next == nil {
			break
		}
		root = next
	}

	var b strings.Builder
	fmt.Fprintf(&b, "error: %T: %s\n", root, e.Err)
	if len(e.Stack) > 0 {
		b.Write(e.Stack)
		return b.String()
	}
	for err := e.Err; err != nil; err = errors.Unwrap(err) {
		fmt.Fprintf(&b, "\tat %T: %s\n", err, err)
	}
	return b.String()
}

// recoverInternal turns a panic into an InternalError on *errp.
func recoverInternal(errp *error) {
	if r := recover(); r != nil {
		err, ok := r.(error)
		if !ok {
			err = fmt.Errorf("%v", r)
		}
		*errp = &InternalError{Err: err, Stack: debug.Stack()}
	}
}

// Stage is a step of a conversion.
type Stage int

const (
	StageIdle Stage = iota
	StageDecoding
	StageCompositing
	StageAnnotating
	StageEncoding
	StageDone
)

func (s Stage) String() string {
	switch s {
	case StageDecoding:
		return "decoding"
	case StageCompositing:
		return "compositing"
	case StageAnnotating:
		return "annotating"
	case StageEncoding:
		return "encoding"
	case StageDone:
		return "done"
	}
	return "idle"
}

// StageError records the stage a conversion failed in.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("%s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }
