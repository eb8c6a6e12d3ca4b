// Package builderrors implements the error taxonomy of spec.md §7: a single
// BuildError type whose Class field names one of the six classes
// (FatalConfig, FileIO, Parse, Resolve, BackendWrite, Linker), and
// Class.Recoverable reporting abort-vs-continue for a class. Grounded on kraklabs-cie's internal/errors.UserError
// (message/cause/Err wrapping, color-formatted terminal output), adapted
// from CLI exit codes to the recoverable/fatal split §7 actually needs.
package builderrors

import (
	"fmt"

	"github.com/fatih/color"
)

// Class is one of the six taxonomy members §7 names.
type Class string

const (
	ClassFatalConfig  Class = "FatalConfig"
	ClassFileIO       Class = "FileIO"
	ClassParse        Class = "Parse"
	ClassResolve      Class = "Resolve"
	ClassBackendWrite Class = "BackendWrite"
	ClassLinker       Class = "Linker"
)

// Recoverable reports whether the Builder should log and continue
// (FileIO, Parse, Resolve, Linker) rather than abort (FatalConfig,
// BackendWrite), per §7's propagation policy.
func (c Class) Recoverable() bool {
	switch c {
	case ClassFatalConfig, ClassBackendWrite:
		return false
	default:
		return true
	}
}

// BuildError carries a taxonomy class, the file it occurred on (if any),
// and the underlying cause.
type BuildError struct {
	Class Class
	File  string
	Msg   string
	Err   error
}

func (e *BuildError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s (%s): %v", e.Class, e.Msg, e.File, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Class, e.Msg, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

func New(class Class, msg, file string, err error) *BuildError {
	return &BuildError{Class: class, File: file, Msg: msg, Err: err}
}

var (
	colorFatal = color.New(color.FgRed, color.Bold)
	colorWarn  = color.New(color.FgYellow)
)

// Format renders the error for terminal output, red/bold for
// non-recoverable classes and yellow for logged-and-continued ones.
func (e *BuildError) Format() string {
	c := colorWarn
	if !e.Class.Recoverable() {
		c = colorFatal
	}
	return c.Sprint(e.Error())
}
