package refs

import (
	"fmt"
	"os"
	"strings"

	"github.com/utkarsh5026/RefStore/pkg/common/err"
	"github.com/utkarsh5026/RefStore/pkg/common/lockfile"
	"github.com/utkarsh5026/RefStore/pkg/oid"
)

// Pseudo-refs (FETCH_HEAD, MERGE_HEAD, ...) are plain files in the store
// root, written under a lockfile with an optional old-value check. They
// bypass the backends entirely.

// ReadPseudoRef reads the OID stored in a pseudo-ref file. Trailing content
// after the OID (FETCH_HEAD carries annotations) is ignored.
func (s *Store) ReadPseudoRef(name string) (oid.OID, error) {
	if Classify(name) != KindPseudo {
		panic(fmt.Sprintf("BUG: ReadPseudoRef called for non-pseudo ref %q", name))
	}

	data, e := os.ReadFile(s.root.PseudoPath(name))
	if e != nil {
		if os.IsNotExist(e) {
			return oid.Zero, ErrNotExist
		}
		return oid.Zero, err.Wrap(e, pkgName, "read_pseudoref")
	}

	line := strings.TrimLeft(string(data), " \t")
	id, pe := oid.ParseBytes([]byte(line))
	if pe != nil {
		return oid.Zero, err.New(pkgName, err.CodeBroken, "read_pseudoref",
			fmt.Sprintf("pseudo-ref %q has unparseable content", name), pe)
	}
	return id, nil
}

// WritePseudoRef installs newOID in the pseudo-ref file. A non-nil oldOID
// must match the current content (the null OID means "must not exist"), or
// the write fails with LOCK_ERROR.
func (s *Store) WritePseudoRef(name string, newOID oid.OID, oldOID *oid.OID) error {
	if Classify(name) != KindPseudo {
		panic(fmt.Sprintf("BUG: WritePseudoRef called for non-pseudo ref %q", name))
	}

	path := s.root.PseudoPath(name)
	lock, e := lockfile.Acquire(path, lockfile.Options{})
	if e != nil {
		return e
	}

	if oldOID != nil {
		if e := s.checkPseudoOld(name, *oldOID); e != nil {
			lock.Rollback()
			return e
		}
	}

	if e := lock.Write([]byte(newOID.String() + "\n")); e != nil {
		lock.Rollback()
		return e
	}
	return lock.Commit()
}

// DeletePseudoRef removes the pseudo-ref file, optionally after an
// old-value check taken under the lock.
func (s *Store) DeletePseudoRef(name string, oldOID *oid.OID) error {
	if Classify(name) != KindPseudo {
		panic(fmt.Sprintf("BUG: DeletePseudoRef called for non-pseudo ref %q", name))
	}

	path := s.root.PseudoPath(name)

	if oldOID == nil {
		if e := os.Remove(path); e != nil && !os.IsNotExist(e) {
			return err.Wrap(e, pkgName, "delete_pseudoref")
		}
		return nil
	}

	lock, e := lockfile.Acquire(path, lockfile.Options{})
	if e != nil {
		return e
	}
	defer lock.Rollback()

	if e := s.checkPseudoOld(name, *oldOID); e != nil {
		return e
	}
	if e := os.Remove(path); e != nil && !os.IsNotExist(e) {
		return err.Wrap(e, pkgName, "delete_pseudoref")
	}
	return nil
}

func (s *Store) checkPseudoOld(name string, old oid.OID) error {
	current, e := s.ReadPseudoRef(name)
	switch {
	case e == nil:
		if old.IsZero() {
			return err.New(pkgName, err.CodeLockError, "write_pseudoref",
				fmt.Sprintf("pseudo-ref %q already exists", name), nil)
		}
		if current != old {
			return err.New(pkgName, err.CodeLockError, "write_pseudoref",
				fmt.Sprintf("pseudo-ref %q is at %s but expected %s", name, current, old), nil)
		}
		return nil
	case old.IsZero():
		return nil
	default:
		return err.New(pkgName, err.CodeLockError, "write_pseudoref",
			fmt.Sprintf("pseudo-ref %q does not exist but %s expected", name, old), nil)
	}
}
