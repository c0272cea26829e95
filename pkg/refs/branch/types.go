package branch

import (
	"github.com/utkarsh5026/RefStore/pkg/oid"
)

// Info contains detailed information about a branch
type Info struct {
	// Name is the branch name (e.g., "main", "feature/login")
	Name string

	// OID is the object identifier the branch points to
	OID oid.OID

	// IsCurrent indicates if HEAD currently points at this branch
	IsCurrent bool

	// HasReflog indicates whether the branch has a reference log
	HasReflog bool
}

// CreateConfig holds configuration for branch creation
type CreateConfig struct {
	// StartPoint is an object identifier or ref short name to start from.
	// If empty, uses HEAD.
	StartPoint string

	// Force overwrites the branch if it already exists
	Force bool
}

// CreateOption is a functional option for configuring branch creation
type CreateOption func(*CreateConfig)

// WithStartPoint sets the starting point for the new branch
func WithStartPoint(ref string) CreateOption {
	return func(c *CreateConfig) {
		c.StartPoint = ref
	}
}

// WithForceCreate forces creation even if the branch exists
func WithForceCreate() CreateOption {
	return func(c *CreateConfig) {
		c.Force = true
	}
}

// DeleteConfig holds configuration for branch deletion
type DeleteConfig struct {
	// Force skips the current-value verification
	Force bool
}

// DeleteOption is a functional option for configuring deletion
type DeleteOption func(*DeleteConfig)

// WithForceDelete forces deletion without verifying the current value
func WithForceDelete() DeleteOption {
	return func(c *DeleteConfig) {
		c.Force = true
	}
}

// RenameConfig holds configuration for branch renaming
type RenameConfig struct {
	// Force overwrites the target branch if it exists
	Force bool
}

// RenameOption is a functional option for configuring rename
type RenameOption func(*RenameConfig)

// WithForceRename forces rename even if the target exists
func WithForceRename() RenameOption {
	return func(c *RenameConfig) {
		c.Force = true
	}
}

// CheckoutConfig holds configuration for switching HEAD
type CheckoutConfig struct {
	// Detach points HEAD directly at an object instead of a branch
	Detach bool

	// Create creates the branch first if it doesn't exist
	Create bool
}

// CheckoutOption is a functional option for configuring checkout
type CheckoutOption func(*CheckoutConfig)

// WithDetach points HEAD directly at the resolved object
func WithDetach() CheckoutOption {
	return func(c *CheckoutConfig) {
		c.Detach = true
	}
}

// WithCreateBranch creates the branch if it doesn't exist
func WithCreateBranch() CheckoutOption {
	return func(c *CheckoutConfig) {
		c.Create = true
	}
}
