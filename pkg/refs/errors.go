package refs

import (
	"fmt"

	"github.com/utkarsh5026/RefStore/pkg/common/err"
)

const pkgName = "refs"

// Sentinel errors shared by all engines.
var (
	// ErrNotExist indicates a single-hop read of an absent ref
	ErrNotExist = err.New(pkgName, err.CodeNotFound, "read", "ref does not exist", nil)

	// ErrStopIteration stops an iteration cleanly from inside a callback
	ErrStopIteration = fmt.Errorf("stop iteration")

	// ErrTooDeep indicates a symref chain longer than MaxSymrefDepth hops,
	// including cycles
	ErrTooDeep = err.New(pkgName, err.CodeTooDeep, "resolve", "symbolic reference chain too deep", nil)
)

// BadNameError builds the rejection for a refname failing validation.
func BadNameError(op, refname string) error {
	return err.New(pkgName, err.CodeBadName, op,
		fmt.Sprintf("refusing to operate on ref with bad name %q", refname), nil)
}

// LockError builds the failure for a CAS mismatch or lock contention.
func LockError(pkg, refname string, underlying error) error {
	return err.New(pkg, err.CodeLockError, "lock",
		fmt.Sprintf("cannot lock ref %q", refname), underlying)
}

// NameConflictError builds the failure for a directory/file overlap.
func NameConflictError(pkg, existing, proposed string) error {
	return err.New(pkg, err.CodeNameConflict, "verify_refname_available",
		fmt.Sprintf("%q exists; cannot create %q", existing, proposed), nil)
}

// InFlightConflictError builds the failure for two names in the same
// transaction that overlap as directory and file.
func InFlightConflictError(pkg, a, b string) error {
	return err.New(pkg, err.CodeNameConflict, "verify_refname_available",
		fmt.Sprintf("cannot process %q and %q at the same time", a, b), nil)
}

// brokenError builds the failure for an unparseable or dangling value.
func brokenError(op, refname string) error {
	return err.New(pkgName, err.CodeBroken, op,
		fmt.Sprintf("ref %q is broken", refname), nil)
}
