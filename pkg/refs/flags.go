package refs

// ResolveFlag modifies symbolic-reference resolution.
type ResolveFlag uint

const (
	// Reading makes a missing leaf a hard failure instead of "zero OID"
	Reading ResolveFlag = 1 << iota

	// NoRecurse stops after the first hop, returning the symbolic target
	// with a zeroed OID
	NoRecurse

	// AllowBadName lets syntactically invalid starting names resolve when
	// they are safe to handle
	AllowBadName
)

// RefBits report properties of a resolved or iterated reference.
type RefBits uint

const (
	// IsSymref is set only when resolution stops at a symbolic hop (with
	// NoRecurse); a fully-followed chain does not set it
	IsSymref RefBits = 1 << iota

	// IsBroken is set for an unparseable value, an invalid symref target,
	// or a null OID at a leaf
	IsBroken

	// BadName is set for a syntactically bad name that was handled anyway
	// because the caller asked for lenient mode
	BadName
)

// UpdateFlag modifies a single staged reference update.
type UpdateFlag uint

const (
	// NoDeref operates on the symref itself rather than its pointee
	NoDeref UpdateFlag = 1 << iota

	// LogOnly writes only a reflog entry, leaving the ref value untouched
	LogOnly

	// HaveNew records that the update carries a new value (derived)
	HaveNew

	// HaveOld records that the update carries an old-value expectation (derived)
	HaveOld

	// Deleting records that the new value is the null OID (derived)
	Deleting

	// IsNotHead marks an update known not to be the HEAD pointee
	IsNotHead

	// ForceReflog creates a reflog entry even for refs that would not
	// auto-create one
	ForceReflog

	// NoReflog suppresses the reflog entry for this update; used when
	// expiry rewinds a ref to its last surviving log entry
	NoReflog
)

// IterFlag modifies reference iteration.
type IterFlag uint

const (
	// IncludeBroken passes otherwise-skipped broken refs to the callback
	IncludeBroken IterFlag = 1 << iota
)

// ExpireFlag modifies reflog expiry.
type ExpireFlag uint

const (
	// ExpireDryRun evaluates the policy without deleting anything
	ExpireDryRun ExpireFlag = 1 << iota

	// ExpireUpdateRef rewrites the ref to the last kept new-value when the
	// ref is non-symbolic and at least one entry survives
	ExpireUpdateRef
)
