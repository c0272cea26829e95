package branch

import (
	"fmt"

	"github.com/utkarsh5026/RefStore/pkg/common/err"
)

const pkgName = "branch"

// NewNotFoundError reports a branch that does not exist
func NewNotFoundError(name string) error {
	return err.New(pkgName, err.CodeNotFound, "lookup",
		fmt.Sprintf("branch %q not found", name), nil)
}

// NewExistsError reports a branch that already exists
func NewExistsError(name string) error {
	return err.New(pkgName, err.CodeAlreadyExists, "create",
		fmt.Sprintf("branch %q already exists", name), nil)
}

// NewInvalidNameError reports an ill-formed branch name
func NewInvalidNameError(name string) error {
	return err.New(pkgName, err.CodeBadName, "validate",
		fmt.Sprintf("%q is not a valid branch name", name), nil)
}

// NewCurrentBranchError reports an operation refused on the checked-out
// branch
func NewCurrentBranchError(op, name string) error {
	return err.New(pkgName, err.CodeInvalidInput, op,
		fmt.Sprintf("refusing to %s the current branch %q", op, name), nil)
}
