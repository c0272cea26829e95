package files

import (
	"errors"
	"fmt"

	"github.com/utkarsh5026/RefStore/pkg/common/err"
	"github.com/utkarsh5026/RefStore/pkg/common/lockfile"
	"github.com/utkarsh5026/RefStore/pkg/oid"
	"github.com/utkarsh5026/RefStore/pkg/refs"
)

// stagedUpdate is one update with its acquired lock and the value the ref
// held under that lock.
type stagedUpdate struct {
	u       *refs.Update
	lock    *lockfile.Lock
	current oid.OID
	existed bool
}

// Commit applies a transaction: every affected ref is locked in sorted name
// order, checked against its old-value expectation and against name
// conflicts, then written (rename over the lockfile), deleted, or merely
// logged. Deletions also rewrite the packed catalog; updates rely on loose
// shadowing instead.
func (b *Backend) Commit(tx *refs.Transaction, names []string) error {
	return b.commit(tx, names, false)
}

// InitialCommit is Commit without per-ref existence and conflict checks,
// used only when populating a fresh store.
func (b *Backend) InitialCommit(tx *refs.Transaction, names []string) error {
	return b.commit(tx, names, true)
}

func (b *Backend) commit(tx *refs.Transaction, names []string, initial bool) error {
	byName := make(map[string]*refs.Update, len(tx.Updates))
	for _, u := range tx.Updates {
		byName[u.Refname] = u
	}

	var deleting, extras []string
	for _, u := range tx.Updates {
		if u.IsDelete() {
			deleting = append(deleting, u.Refname)
		} else {
			extras = append(extras, u.Refname)
		}
	}

	staged := make([]*stagedUpdate, 0, len(names))
	rollback := func() {
		for _, st := range staged {
			st.lock.Rollback()
		}
	}

	// Locks are taken in sorted name order so that cooperating processes
	// cannot deadlock against each other.
	for _, name := range names {
		u := byName[name]

		st, e := b.prepareOne(u, extras, deleting, initial)
		if e != nil {
			rollback()
			return e
		}
		staged = append(staged, st)
	}

	if len(deleting) > 0 {
		if e := b.rewritePackedWithout(deleting); e != nil {
			rollback()
			return e
		}
	}

	for _, st := range staged {
		if e := b.applyOne(st); e != nil {
			// Later updates have not been applied; release their locks.
			rollback()
			return e
		}
	}
	return nil
}

// prepareOne locks one ref, verifies the caller's expectations, and stages
// the new content in the lockfile.
func (b *Backend) prepareOne(u *refs.Update, extras, deleting []string, initial bool) (*stagedUpdate, error) {
	lock, e := b.lockRef(u.Refname)
	if e != nil {
		return nil, e
	}
	st := &stagedUpdate{u: u, lock: lock}

	if !initial {
		if e := b.checkExpectations(st, extras, deleting); e != nil {
			lock.Rollback()
			return nil, e
		}
	}

	if u.Flags&refs.LogOnly == 0 && u.HasNew() && !u.IsDelete() {
		if e := lock.Write([]byte(u.New.String() + "\n")); e != nil {
			lock.Rollback()
			return nil, e
		}
	}
	return st, nil
}

// checkExpectations resolves the ref's current value under the lock and
// compares it to the update's old-value expectation, then checks name
// availability for creations.
func (b *Backend) checkExpectations(st *stagedUpdate, extras, deleting []string) error {
	u := st.u

	var rflags refs.ResolveFlag
	if u.HasOld() && !u.Old.IsZero() {
		rflags |= refs.Reading
	}
	if u.IsDelete() {
		rflags |= refs.AllowBadName
	}

	resolved, e := refs.ResolveRef(b, u.Refname, rflags)
	switch {
	case e == nil:
		st.existed = !resolved.OID.IsZero()
		st.current = resolved.OID
	case errors.Is(e, refs.ErrNotExist):
		st.existed = false
	default:
		return refs.LockError(pkgName, u.Refname, e)
	}

	if u.HasOld() {
		if u.Old.IsZero() {
			if st.existed {
				return err.New(pkgName, err.CodeLockError, "commit",
					fmt.Sprintf("ref %q already exists", u.Refname), nil)
			}
		} else if st.current != u.Old {
			return err.New(pkgName, err.CodeLockError, "commit",
				fmt.Sprintf("ref %q is at %s but expected %s", u.Refname, st.current, u.Old), nil)
		}
	}

	if !u.IsDelete() && !st.existed && u.Flags&refs.LogOnly == 0 {
		if e := b.verifyAvailable(u.Refname, extras, deleting); e != nil {
			return e
		}
	}
	return nil
}

// applyOne finalizes one staged update: rename the lockfile over the ref,
// remove the ref, or only append to its reflog.
func (b *Backend) applyOne(st *stagedUpdate) error {
	u := st.u

	switch {
	case u.Flags&refs.LogOnly != 0:
		st.lock.Rollback()
		newOID := st.current
		if u.HasNew() {
			newOID = u.New
		}
		old := st.current
		if !u.ReadOID.IsZero() {
			old = u.ReadOID
		}
		return b.logUpdate(u.Refname, old, newOID, u.Msg, u.Flags&refs.ForceReflog != 0)

	case u.IsDelete():
		st.lock.Rollback()
		if e := b.removeLoose(u.Refname); e != nil {
			return e
		}
		return b.DeleteReflog(u.Refname)

	case u.HasNew():
		if e := st.lock.Commit(); e != nil {
			return e
		}
		if u.Flags&refs.NoReflog != 0 {
			return nil
		}
		return b.logUpdate(u.Refname, st.current, u.New, u.Msg, u.Flags&refs.ForceReflog != 0)

	default:
		// Verify-only: the expectation held while we owned the lock.
		st.lock.Rollback()
		return nil
	}
}

// VerifyRefnameAvailable checks directory/file conflicts: no existing ref
// may be a strict prefix or a strict extension of refname.
func (b *Backend) VerifyRefnameAvailable(refname string, extras, skip []string) error {
	return b.verifyAvailable(refname, extras, skip)
}

func (b *Backend) verifyAvailable(refname string, extras, skip []string) error {
	skipSet := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipSet[s] = true
	}

	// Anything under refname/ conflicts, loose or packed.
	childPrefix := refname + "/"
	loose, e := b.looseRefs(childPrefix)
	if e != nil {
		return e
	}
	for _, name := range loose {
		if !skipSet[name] {
			return refs.NameConflictError(pkgName, name, refname)
		}
	}
	packed, e := b.readPacked()
	if e != nil {
		return e
	}
	for _, entry := range packed {
		if len(entry.Name) > len(childPrefix) && entry.Name[:len(childPrefix)] == childPrefix {
			if !skipSet[entry.Name] {
				return refs.NameConflictError(pkgName, entry.Name, refname)
			}
		}
	}

	// Every parent directory of refname must not itself be a ref.
	for i := 0; i < len(refname); i++ {
		if refname[i] != '/' {
			continue
		}
		parent := refname[:i]
		if skipSet[parent] {
			continue
		}
		for _, extra := range extras {
			if extra == parent {
				return refs.InFlightConflictError(pkgName, refname, parent)
			}
		}
		if _, e := b.ReadRaw(parent); e == nil {
			return refs.NameConflictError(pkgName, parent, refname)
		}
	}

	// A staged sibling that extends refname/ conflicts too.
	for _, extra := range extras {
		if len(extra) > len(childPrefix) && extra[:len(childPrefix)] == childPrefix && !skipSet[extra] {
			return refs.InFlightConflictError(pkgName, refname, extra)
		}
	}
	return nil
}
