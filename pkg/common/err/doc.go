// Package err provides a standardized error handling system for the
// reference store.
//
// # Design Principles
//
// 1. Consistency: All packages use the same base error structure
// 2. Context: Errors carry package, operation, and code information
// 3. Wrapping: Full support for Go 1.13+ error wrapping with errors.Is/As
// 4. Categorization: Machine-readable error codes enable programmatic handling
//
// # Usage Patterns
//
// Each package wraps its failures with its own package name and one of the
// shared codes:
//
//	return err.New("files", err.CodeLockError, "commit",
//	    fmt.Sprintf("cannot lock ref %q", name), underlying)
//
// Callers branch on codes, never on message text:
//
//	if err.IsCode(e, err.CodeNameConflict) {
//	    // report the directory/file conflict
//	}
//
// Fatal invariant violations (programmer errors, never user input) do not
// go through this package at all; they panic with a "BUG:" message.
package err
