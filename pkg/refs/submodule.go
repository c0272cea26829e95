package refs

import (
	"context"
	"fmt"

	"github.com/utkarsh5026/RefStore/pkg/common/err"
	"github.com/utkarsh5026/RefStore/pkg/config"
	"github.com/utkarsh5026/RefStore/pkg/oid"
)

// SubmoduleStore opens the reference store of a submodule rooted at dir.
// Submodules are required to use the same backend as the superproject;
// a mismatch, read from the submodule's own configuration, is fatal.
func (s *Store) SubmoduleStore(dir string) (*Store, error) {
	mgr := config.NewManager(dir)
	if e := mgr.Load(context.Background()); e != nil {
		return nil, err.Wrap(e, pkgName, "submodule")
	}
	subBackend := config.NewTypedConfig(mgr).RefStorage()
	if subBackend != s.BackendName() {
		return nil, err.New(pkgName, err.CodeInvalidInput, "submodule",
			fmt.Sprintf("submodule %q uses ref storage %q, superproject uses %q",
				dir, subBackend, s.BackendName()), nil)
	}

	return Open(dir, Options{Backend: s.BackendName(), Committer: s.committer})
}

// ResolveSubmoduleRef resolves refname inside the submodule rooted at dir.
func (s *Store) ResolveSubmoduleRef(dir, refname string) (oid.OID, error) {
	sub, e := s.SubmoduleStore(dir)
	if e != nil {
		return oid.Zero, e
	}
	resolved, e := sub.Resolve(refname, Reading)
	if e != nil {
		return oid.Zero, e
	}
	return resolved.OID, nil
}

// ForEachSubmoduleRef iterates refs of the submodule rooted at dir.
func (s *Store) ForEachSubmoduleRef(dir, prefix string, fn RefFn) error {
	sub, e := s.SubmoduleStore(dir)
	if e != nil {
		return e
	}
	return sub.ForEachRef(prefix, 0, 0, fn)
}
