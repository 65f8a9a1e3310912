// Package errors provides the classified error primitives used across docbake.
//
// A ClassifiedError carries a category (config, filesystem, watch, ...), a
// severity and free-form context, and is built through a fluent builder:
//
//	err := errors.FileSystemError("asset copy finished with errors").
//		WithContext("errors", len(records)).
//		WithCause(errors.Join(causes...)).
//		Build()
//
// The CLI adapter maps categories to process exit codes and decides how much
// of an error is shown to the user.
package errors
