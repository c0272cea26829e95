package branch

import (
	"errors"
	"sort"
	"strings"

	"github.com/utkarsh5026/RefStore/pkg/oid"
	"github.com/utkarsh5026/RefStore/pkg/refs"
)

// Manager is a convenience layer over the reference store for branch
// operations: creation, deletion, renaming, listing, and switching HEAD.
//
// Manager is not thread-safe; external synchronization is required when
// accessing one instance from multiple goroutines.
type Manager struct {
	store *refs.Store
}

// NewManager creates a branch manager over a reference store.
func NewManager(store *refs.Store) *Manager {
	return &Manager{store: store}
}

// ValidateName checks whether name is acceptable as a branch name.
func ValidateName(name string) bool {
	return name != "" && refs.CheckFormat(refs.HeadsPrefix+name, 0)
}

// refname returns the full refname of a branch.
func refname(name string) string {
	return refs.HeadsPrefix + name
}

// Current returns the name of the branch HEAD points at, or "" when HEAD
// is detached or unborn.
func (m *Manager) Current() (string, error) {
	raw, err := m.store.ReadRaw(refs.Head)
	if err != nil {
		if errors.Is(err, refs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	if !raw.IsSymbolic() {
		return "", nil
	}
	return strings.TrimPrefix(raw.Target, refs.HeadsPrefix), nil
}

// Create makes a new branch pointing at the resolved start point.
func (m *Manager) Create(name string, opts ...CreateOption) error {
	cfg := &CreateConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if !ValidateName(name) {
		return NewInvalidNameError(name)
	}

	target, err := m.resolveStartPoint(cfg.StartPoint)
	if err != nil {
		return err
	}

	tx := m.store.NewTransaction()
	if cfg.Force {
		if err := tx.Update(refname(name), &target, nil, refs.NoDeref, "branch: created"); err != nil {
			tx.Free()
			return err
		}
	} else {
		if err := tx.Create(refname(name), target, refs.NoDeref, "branch: created"); err != nil {
			tx.Free()
			return err
		}
	}
	_, err = m.store.Commit(tx)
	return err
}

// Delete removes a branch. Deleting the current branch is refused.
func (m *Manager) Delete(name string, opts ...DeleteOption) error {
	cfg := &DeleteConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	current, err := m.Current()
	if err != nil {
		return err
	}
	if current == name {
		return NewCurrentBranchError("delete", name)
	}

	resolved, err := m.store.Resolve(refname(name), refs.Reading)
	if err != nil {
		return NewNotFoundError(name)
	}

	var old *oid.OID
	if !cfg.Force {
		old = &resolved.OID
	}
	return m.store.DeleteRef(refname(name), old, refs.NoDeref)
}

// Rename renames a branch and migrates its reflog. HEAD is repointed when
// the current branch is renamed.
func (m *Manager) Rename(oldName, newName string, opts ...RenameOption) error {
	cfg := &RenameConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if !ValidateName(newName) {
		return NewInvalidNameError(newName)
	}
	if m.store.RefExists(refname(newName)) {
		if !cfg.Force {
			return NewExistsError(newName)
		}
		if err := m.store.DeleteRef(refname(newName), nil, refs.NoDeref); err != nil {
			return err
		}
	}

	current, err := m.Current()
	if err != nil {
		return err
	}

	if err := m.store.RenameRef(refname(oldName), refname(newName), "branch: renamed "+oldName+" to "+newName); err != nil {
		return err
	}

	if current == oldName {
		return m.store.CreateSymref(refs.Head, refname(newName), "branch: renamed "+oldName+" to "+newName)
	}
	return nil
}

// Checkout switches HEAD to the named branch, creating it first when
// requested. With WithDetach, HEAD records the resolved object directly.
func (m *Manager) Checkout(name string, opts ...CheckoutOption) error {
	cfg := &CheckoutConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Detach {
		target, err := m.resolveStartPoint(name)
		if err != nil {
			return err
		}
		return m.store.UpdateRef("checkout: detached", refs.Head, &target, nil, refs.NoDeref)
	}

	if !m.store.RefExists(refname(name)) {
		if !cfg.Create {
			return NewNotFoundError(name)
		}
		if err := m.Create(name); err != nil {
			return err
		}
	}
	return m.store.CreateSymref(refs.Head, refname(name), "checkout: moving to "+name)
}

// List returns every branch, sorted by name, with HEAD marked.
func (m *Manager) List() ([]*Info, error) {
	current, err := m.Current()
	if err != nil {
		return nil, err
	}

	var infos []*Info
	err = m.store.ForEachBranch(func(name string, id oid.OID, bits refs.RefBits) error {
		infos = append(infos, &Info{
			Name:      name,
			OID:       id,
			IsCurrent: name == current,
			HasReflog: m.store.ReflogExists(refname(name)),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(infos, func(i, j int) bool { return infos[i].Name < infos[j].Name })
	return infos, nil
}

// resolveStartPoint turns a start point (an object identifier, a short ref
// name, or empty for HEAD) into an OID.
func (m *Manager) resolveStartPoint(start string) (oid.OID, error) {
	if start == "" {
		resolved, err := m.store.Resolve(refs.Head, refs.Reading)
		if err != nil {
			return oid.Zero, err
		}
		return resolved.OID, nil
	}

	if id, err := oid.Parse(start); err == nil {
		return id, nil
	}

	if _, id, found := m.store.DwimRef(start); found > 0 {
		return id, nil
	}
	return oid.Zero, NewNotFoundError(start)
}
