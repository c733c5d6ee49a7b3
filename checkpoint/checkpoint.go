// Package checkpoint decorates errors with the location they passed through,
// which builds up something similar to a stacktrace while keeping every
// wrapped error reachable by errors.Is and errors.As.
//
// Printed with %v a checkpoint reads like a usual wrapped error
// ("reading directory: short read"). Printed with %+v it lists every
// checkpoint with its file and line.
package checkpoint

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"runtime"
	"strings"
)

// From wraps err by a new checkpoint which only adds the caller information.
// It returns nil if err is nil.
func From(err error) error {
	if err == nil {
		return nil
	}

	// io.EOF and io.ErrUnexpectedEOF must be returned as they are.
	// https://github.com/golang/go/issues/39155
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		return err
	}

	return newCheckpoint(err, nil)
}

// Wrap adds a checkpoint for prev and describes it by err.
// It returns nil if prev is nil, so it can be used directly on results:
//  var ErrSomethingWentWrong = errors.New("something went wrong")
//
//  func do() error {
//  	err := other()
//  	return checkpoint.Wrap(err, ErrSomethingWentWrong)
//  }
// Both ErrSomethingWentWrong and the error of other() match errors.Is
// on the result.
func Wrap(prev, err error) error {
	if prev == nil {
		return nil
	}

	// io.EOF must be returned as io.EOF directly.
	if prev == io.EOF {
		return io.EOF
	}

	return newCheckpoint(prev, err)
}

// Wrapf is Wrap with a formatted description. Use %w in format to keep a
// sentinel error matchable.
func Wrapf(prev error, format string, args ...interface{}) error {
	if prev == nil {
		return nil
	}
	if prev == io.EOF {
		return io.EOF
	}

	return newCheckpoint(prev, fmt.Errorf(format, args...))
}

func newCheckpoint(prev, err error) *checkpoint {
	// Skip newCheckpoint and the exported function.
	_, file, line, ok := runtime.Caller(2)

	return &checkpoint{
		err:      err,
		prev:     prev,
		callerOk: ok,
		file:     filepath.Base(file),
		line:     line,
	}
}

type checkpoint struct {
	// err describes the checkpoint. It is nil for checkpoints created by From.
	err  error
	prev error

	callerOk bool
	file     string
	line     int
}

func (e *checkpoint) Error() string {
	if e.err == nil {
		return e.prev.Error()
	}
	return e.err.Error() + ": " + e.prev.Error()
}

func (e *checkpoint) location() string {
	if !e.callerOk {
		return "unknown"
	}
	return fmt.Sprintf("%s:%d", e.file, e.line)
}

// Format implements fmt.Formatter so that %+v prints the whole trail.
func (e *checkpoint) Format(s fmt.State, verb rune) {
	if verb != 'v' || !s.Flag('+') {
		_, _ = io.WriteString(s, e.Error())
		return
	}

	var b strings.Builder
	var current error = e
	for current != nil {
		cp, ok := current.(*checkpoint)
		if !ok {
			b.WriteString("File: unknown\n\t")
			b.WriteString(strings.ReplaceAll(current.Error(), "\n", "\n\t"))
			break
		}

		b.WriteString("File: ")
		b.WriteString(cp.location())
		if cp.err != nil {
			b.WriteString("\n\t")
			b.WriteString(cp.err.Error())
		}
		b.WriteString("\n")
		current = cp.prev
	}

	_, _ = io.WriteString(s, strings.TrimRight(b.String(), "\n"))
}

func (e *checkpoint) Unwrap() error {
	return e.prev
}

func (e *checkpoint) Is(target error) bool {
	return e.err != nil && errors.Is(e.err, target)
}

func (e *checkpoint) As(target interface{}) bool {
	return e.err != nil && errors.As(e.err, target)
}
