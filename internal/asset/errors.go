package asset

import (
	"errors"
	"fmt"
)

// ErrOutsideRoots is recorded when CopySingleFile receives a file that lies in
// neither the asset folder nor the content folder.
var ErrOutsideRoots = errors.New("file is outside the asset and content folders")

// Op names the step of a copy that failed.
type Op string

const (
	OpStat    Op = "stat"
	OpList    Op = "list"
	OpMkdir   Op = "mkdir"
	OpOpen    Op = "open"
	OpCreate  Op = "create"
	OpWrite   Op = "write"
	OpResolve Op = "resolve"
)

// CopyError associates a source path with the cause of its failure.
type CopyError struct {
	Source string
	Target string // empty when the failure happened before a target was known
	Op     Op
	Err    error
}

func (e CopyError) Error() string {
	if e.Target != "" {
		return fmt.Sprintf("%s %s -> %s: %v", e.Op, e.Source, e.Target, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Source, e.Err)
}

func (e CopyError) Unwrap() error {
	return e.Err
}
