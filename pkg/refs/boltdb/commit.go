package boltdb

import (
	"errors"
	"fmt"

	bolt "go.etcd.io/bbolt"

	"github.com/utkarsh5026/RefStore/pkg/common/err"
	"github.com/utkarsh5026/RefStore/pkg/oid"
	"github.com/utkarsh5026/RefStore/pkg/refs"
)

// Commit applies a transaction inside one write transaction of the store.
// The write lock blocks other writers, so values read during the checks
// are stable until the transaction commits.
func (b *Backend) Commit(tx *refs.Transaction, names []string) error {
	return b.commit(tx, names, false)
}

// InitialCommit is Commit without per-ref existence checks.
func (b *Backend) InitialCommit(tx *refs.Transaction, names []string) error {
	return b.commit(tx, names, true)
}

func (b *Backend) commit(tx *refs.Transaction, names []string, initial bool) error {
	btx, e := b.begin(true)
	if e != nil {
		return e
	}
	bk := b.bucket(btx)

	byName := make(map[string]*refs.Update, len(tx.Updates))
	var deleting, extras []string
	for _, u := range tx.Updates {
		byName[u.Refname] = u
		if u.IsDelete() {
			deleting = append(deleting, u.Refname)
		} else {
			extras = append(extras, u.Refname)
		}
	}

	for _, name := range names {
		if e := b.applyOne(bk, byName[name], extras, deleting, initial); e != nil {
			b.abortWrite()
			return e
		}
	}

	return b.endWrite()
}

func (b *Backend) applyOne(bk *bolt.Bucket, u *refs.Update, extras, deleting []string, initial bool) error {
	reader := txReader{bk}

	var current oid.OID
	existed := false
	symbolic := false

	if raw, e := readRawTx(bk, u.Refname); e == nil {
		symbolic = raw.IsSymbolic()
	}

	if !initial {
		var rflags refs.ResolveFlag
		if u.HasOld() && !u.Old.IsZero() {
			rflags |= refs.Reading
		}
		if u.IsDelete() {
			rflags |= refs.AllowBadName
			if u.Flags&refs.NoDeref != 0 {
				rflags |= refs.NoRecurse
			}
		}

		resolved, e := refs.ResolveRef(reader, u.Refname, rflags)
		switch {
		case e == nil:
			current = resolved.OID
			existed = !resolved.OID.IsZero()
		case errors.Is(e, refs.ErrNotExist):
		default:
			return err.New(pkgName, err.CodeLockError, "commit",
				fmt.Sprintf("cannot lock ref %q", u.Refname), e)
		}

		if u.HasOld() {
			if u.Old.IsZero() {
				if existed {
					return err.New(pkgName, err.CodeLockError, "commit",
						fmt.Sprintf("ref %q already exists", u.Refname), nil)
				}
			} else if current != u.Old {
				return err.New(pkgName, err.CodeLockError, "commit",
					fmt.Sprintf("ref %q is at %s but expected %s", u.Refname, current, u.Old), nil)
			}
		}

		if !u.IsDelete() && !existed && u.Flags&refs.LogOnly == 0 {
			if e := verifyAvailableTx(bk, u.Refname, extras, deleting); e != nil {
				return e
			}
		}
	}

	old := current
	if !u.ReadOID.IsZero() {
		old = u.ReadOID
	}

	switch {
	case u.Flags&refs.LogOnly != 0:
		newOID := current
		if u.HasNew() {
			newOID = u.New
		}
		return b.logUpdateTx(bk, u.Refname, old, newOID, u.Msg, u.Flags&refs.ForceReflog != 0)

	case u.IsDelete():
		if e := bk.Delete(refKey(u.Refname)); e != nil {
			return err.Wrap(e, pkgName, "commit")
		}
		return deleteReflogTx(bk, u.Refname)

	case u.HasNew():
		// An overwrite that changes nothing still counts for the symref
		// case, where the symbolic value is replaced by a direct one.
		if !initial && existed && !symbolic && current == u.New {
			return nil
		}
		if e := bk.Put(refKey(u.Refname), refValue(refs.RawRef{OID: u.New})); e != nil {
			return err.Wrap(e, pkgName, "commit")
		}
		if u.Flags&refs.NoReflog != 0 {
			return nil
		}
		return b.logUpdateTx(bk, u.Refname, old, u.New, u.Msg, u.Flags&refs.ForceReflog != 0)

	default:
		// Verify-only: the snapshot guarantees stability until commit.
		return nil
	}
}

// CreateSymref writes refname as a symbolic ref inside its own write
// transaction.
func (b *Backend) CreateSymref(refname, target, logMsg string) error {
	btx, e := b.begin(true)
	if e != nil {
		return e
	}
	bk := b.bucket(btx)

	var old oid.OID
	if logMsg != "" {
		if resolved, re := refs.ResolveRef(txReader{bk}, target, 0); re == nil {
			old = resolved.OID
		}
	}

	if e := bk.Put(refKey(refname), refValue(refs.RawRef{Target: target})); e != nil {
		b.abortWrite()
		return err.Wrap(e, pkgName, "create_symref")
	}

	if logMsg != "" {
		if resolved, re := refs.ResolveRef(txReader{bk}, target, 0); re == nil {
			if e := b.logUpdateTx(bk, refname, old, resolved.OID, logMsg, false); e != nil {
				b.abortWrite()
				return e
			}
		}
	}

	return b.endWrite()
}

// RenameRef renames a non-symbolic ref, copying each reflog entry under
// the new name with its original timestamp.
func (b *Backend) RenameRef(oldName, newName, logMsg string) error {
	if oldName == newName {
		return nil
	}

	btx, e := b.begin(true)
	if e != nil {
		return e
	}
	bk := b.bucket(btx)

	raw, e := readRawTx(bk, oldName)
	if e != nil {
		b.abortWrite()
		return err.New(pkgName, err.CodeNotFound, "rename_ref",
			fmt.Sprintf("refname %q not found", oldName), e)
	}
	if raw.IsSymbolic() {
		b.abortWrite()
		return err.New(pkgName, err.CodeInvalidInput, "rename_ref",
			fmt.Sprintf("refname %q is a symbolic ref, renaming it is not supported", oldName), nil)
	}

	if e := verifyAvailableTx(bk, newName, nil, []string{oldName}); e != nil {
		b.abortWrite()
		return e
	}

	if hadLog := bk.Get(logHeaderKey(oldName)) != nil; hadLog {
		if e := renameReflogTx(bk, oldName, newName); e != nil {
			b.abortWrite()
			return e
		}
	}

	if e := bk.Delete(refKey(oldName)); e != nil {
		b.abortWrite()
		return err.Wrap(e, pkgName, "rename_ref")
	}
	if e := bk.Put(refKey(newName), refValue(refs.RawRef{OID: raw.OID})); e != nil {
		b.abortWrite()
		return err.Wrap(e, pkgName, "rename_ref")
	}
	if e := b.logUpdateTx(bk, newName, raw.OID, raw.OID, logMsg, false); e != nil {
		b.abortWrite()
		return e
	}

	return b.endWrite()
}

// DeleteRefs removes the named refs and their reflogs in one write
// transaction.
func (b *Backend) DeleteRefs(msg string, names []string) error {
	if len(names) == 0 {
		return nil
	}

	btx, e := b.begin(true)
	if e != nil {
		return e
	}
	bk := b.bucket(btx)

	for _, name := range names {
		if e := bk.Delete(refKey(name)); e != nil {
			b.abortWrite()
			return err.Wrap(e, pkgName, "delete_refs")
		}
		if e := deleteReflogTx(bk, name); e != nil {
			b.abortWrite()
			return e
		}
	}
	return b.endWrite()
}
