package refs

import (
	"github.com/utkarsh5026/RefStore/pkg/oid"
)

// RawRef is the single-hop content of a reference as stored: either a
// direct OID or an unresolved symbolic target.
type RawRef struct {
	// OID is the direct value; meaningful only when Target is empty
	OID oid.OID

	// Target is the symbolic target refname; non-empty for symrefs
	Target string
}

// IsSymbolic reports whether the raw content is a symbolic target.
func (r RawRef) IsSymbolic() bool {
	return r.Target != ""
}

// RefFn is the callback for reference iteration. A non-nil error stops the
// iteration and becomes its result; ErrStopIteration stops it cleanly.
type RefFn func(refname string, id oid.OID, bits RefBits) error

// ReflogFn is the callback for reflog entry iteration, with the same
// stopping convention as RefFn.
type ReflogFn func(entry *ReflogEntry) error

// ExpirePolicy decides per entry whether it survives a reflog expiry pass.
type ExpirePolicy func(entry *ReflogEntry) (keep bool)

// Backend is the abstract operation set every reference storage engine
// implements. The coordinator and the iteration facade consume it; nothing
// outside the registry and the coordinator may depend on a concrete engine.
type Backend interface {
	// Name returns the registry name of the engine ("files", "boltdb", ...)
	Name() string

	// InitDB creates empty storage. Idempotent.
	InitDB() error

	// Close releases any open transaction and storage handle. The backend
	// must not be used afterwards.
	Close() error

	// ReadRaw performs a single-hop read with no resolution. A missing ref
	// yields ErrNotExist.
	ReadRaw(refname string) (RawRef, error)

	// Commit applies a transaction's updates. names is the sorted list of
	// affected refnames, used for deterministic lock order.
	Commit(tx *Transaction, names []string) error

	// InitialCommit is Commit without per-ref existence checks, used only
	// by fresh-store creation.
	InitialCommit(tx *Transaction, names []string) error

	// ForEachRef walks refs whose name begins with base in lexicographic
	// order, trimming trim leading bytes before invoking fn.
	ForEachRef(base string, trim int, flags IterFlag, fn RefFn) error

	// VerifyRefnameAvailable checks that refname does not conflict with an
	// existing ref as a directory/file overlap. Names in skip are ignored
	// (scheduled for deletion in the same transaction); names in extras
	// conflict as if they existed.
	VerifyRefnameAvailable(refname string, extras, skip []string) error

	// CreateSymref writes refname as a symbolic ref to target.
	CreateSymref(refname, target, logMsg string) error

	// RenameRef renames a non-symbolic ref, migrating its reflog.
	RenameRef(oldName, newName, logMsg string) error

	// PeelRef returns the fully-peeled OID of a tag ref, when known to the
	// engine without consulting object storage.
	PeelRef(refname string) (oid.OID, error)

	// PackRefs migrates loose storage into the packed catalog. Engines with
	// no packed form treat it as a no-op.
	PackRefs(prune bool) error

	// DeleteRefs removes the named refs outside any transaction.
	DeleteRefs(msg string, names []string) error

	// ReflogExists reports whether refname has a reflog.
	ReflogExists(refname string) bool

	// CreateReflog ensures a reflog exists for refname. Without force, only
	// refs that qualify for auto-creation get one.
	CreateReflog(refname string, force bool) error

	// DeleteReflog removes the reflog of refname entirely.
	DeleteReflog(refname string) error

	// ForEachReflog iterates the refnames that have reflogs.
	ForEachReflog(fn func(refname string) error) error

	// ForEachReflogEnt iterates reflog entries oldest-first.
	ForEachReflogEnt(refname string, fn ReflogFn) error

	// ForEachReflogEntReverse iterates reflog entries newest-first.
	ForEachReflogEntReverse(refname string, fn ReflogFn) error

	// ExpireReflog applies policy to every entry of refname's reflog,
	// deleting entries the policy rejects. The reflog itself survives even
	// when empty. Returns the last kept new-value for ExpireUpdateRef.
	ExpireReflog(refname string, flags ExpireFlag, policy ExpirePolicy) (lastKept oid.OID, err error)
}
