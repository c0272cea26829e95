package refs

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/utkarsh5026/RefStore/pkg/common/err"
	"github.com/utkarsh5026/RefStore/pkg/common/logger"
	"github.com/utkarsh5026/RefStore/pkg/config"
	"github.com/utkarsh5026/RefStore/pkg/oid"
	"github.com/utkarsh5026/RefStore/pkg/repository/layout"
)

// FilesBackendName is the registry name of the filesystem engine. Normal
// refs go to the selected backend; per-worktree refs and pseudo-refs always
// go to this one.
const FilesBackendName = "files"

// SplitCommitWarning is emitted when a transaction split across two
// backends commits its first half but not its second.
const SplitCommitWarning = "A ref transaction was split across two refs backends. " +
	"Part of the transaction succeeded, but then the update to the per-worktree " +
	"refs failed. Your repository may be in an inconsistent state."

// Store is the reference store of one repository: the coordinator over the
// selected backend plus the always-present files backend, the iteration
// facade, and the pseudo-ref path.
type Store struct {
	root    layout.StorePath
	cfg     *config.TypedConfig
	primary Backend
	files   Backend
	hidden  *HideRefs

	// Namespace, when non-empty, prefixes namespaced iteration
	// ("refs/namespaces/<ns>/").
	Namespace string

	warnAmbiguous bool
	committer     string
}

// CommitResult reports the outcome of a transaction commit. Warning carries
// the split-transaction message when the secondary commit failed after the
// primary succeeded; it is never folded into the error.
type CommitResult struct {
	Warning string
}

// Options configure opening a store.
type Options struct {
	// Backend overrides extensions.refstorage
	Backend string

	// Committer overrides the configured reflog identity
	Committer string

	// Namespace scopes namespaced iteration
	Namespace string
}

// Open loads the store rooted at dir, selecting the backend from
// extensions.refstorage (default files).
func Open(dir string, opts Options) (*Store, error) {
	mgr := config.NewManager(dir)
	if e := mgr.Load(context.Background()); e != nil {
		return nil, err.Wrap(e, pkgName, "open")
	}
	cfg := config.NewTypedConfig(mgr)

	backendName := opts.Backend
	if backendName == "" {
		backendName = cfg.RefStorage()
	}

	committer := opts.Committer
	if committer == "" {
		committer = formatIdentity(cfg.UserName(), cfg.UserEmail())
	}

	bopts := BackendOptions{
		Committer:        committer,
		LogAllRefUpdates: cfg.LogAllRefUpdates(),
	}

	files, e := OpenBackend(FilesBackendName, dir, bopts)
	if e != nil {
		return nil, e
	}

	primary := files
	if backendName != FilesBackendName {
		primary, e = OpenBackend(backendName, dir, bopts)
		if e != nil {
			return nil, e
		}
	}

	return &Store{
		root:          layout.StorePath(dir),
		cfg:           cfg,
		primary:       primary,
		files:         files,
		hidden:        ParseHideRefs(cfg.HideRefs("")),
		Namespace:     opts.Namespace,
		warnAmbiguous: cfg.WarnAmbiguousRefs(),
		committer:     committer,
	}, nil
}

// Init creates a fresh store at dir with the given backend and a HEAD
// pointing at the default branch. Idempotent on an existing store.
func Init(dir string, opts Options) (*Store, error) {
	mgr := config.NewManager(dir)
	if e := mgr.Load(context.Background()); e != nil {
		return nil, err.Wrap(e, pkgName, "init")
	}
	backendName := opts.Backend
	if backendName == "" {
		backendName = config.NewTypedConfig(mgr).RefStorage()
	}
	if backendName != FilesBackendName {
		// Persist the selection so later opens pick the same engine.
		if e := mgr.Set("extensions.refstorage", backendName, config.RepositoryLevel); e != nil {
			return nil, e
		}
	}

	s, e := Open(dir, opts)
	if e != nil {
		return nil, e
	}
	if e := s.primary.InitDB(); e != nil {
		return nil, e
	}
	if s.primary != s.files {
		if e := s.files.InitDB(); e != nil {
			return nil, e
		}
	}

	head := HeadsPrefix + s.cfg.DefaultBranch()
	if _, e := s.files.ReadRaw(Head); errors.Is(e, ErrNotExist) {
		if e := s.files.CreateSymref(Head, head, ""); e != nil {
			return nil, e
		}
	}
	return s, nil
}

// Close releases the engines' open transactions and storage handles.
func (s *Store) Close() error {
	e := s.primary.Close()
	if s.files != s.primary {
		if fe := s.files.Close(); e == nil {
			e = fe
		}
	}
	return e
}

// Root returns the store's root directory.
func (s *Store) Root() string {
	return s.root.String()
}

// BackendName returns the name of the selected engine.
func (s *Store) BackendName() string {
	return s.primary.Name()
}

// Committer returns the reflog identity used for writes.
func (s *Store) Committer() string {
	return s.committer
}

// backendFor routes a refname to the engine servicing its kind. Non-normal
// refs always go to the files backend; that invariant is what makes
// per-worktree semantics work without backend cooperation.
func (s *Store) backendFor(refname string) Backend {
	if Classify(refname) == KindNormal {
		return s.primary
	}
	return s.files
}

// ReadRaw performs a single-hop read routed by ref kind.
func (s *Store) ReadRaw(refname string) (RawRef, error) {
	return s.backendFor(refname).ReadRaw(refname)
}

// Resolve follows refname to its leaf, routing each hop by ref kind.
func (s *Store) Resolve(refname string, flags ResolveFlag) (*Resolved, error) {
	return ResolveRef(storeReader{s}, refname, flags)
}

// storeReader routes each resolution hop to the backend owning the name.
type storeReader struct {
	s *Store
}

func (r storeReader) ReadRaw(refname string) (RawRef, error) {
	return r.s.ReadRaw(refname)
}

// RefExists reports whether refname resolves to an existing leaf.
func (s *Store) RefExists(refname string) bool {
	_, e := s.Resolve(refname, Reading)
	return e == nil
}

// NewTransaction begins an empty transaction carrying the store's reflog
// identity.
func (s *Store) NewTransaction() *Transaction {
	tx := NewTransaction()
	tx.Committer = s.committer
	return tx
}

// Commit runs the commit pipeline on tx:
//
//  1. dereference symbolic refs once, redirecting each affected update to
//     its leaf and demoting the original to a log-only write
//  2. split updates by ref kind between the selected backend and the files
//     backend
//  3. reject duplicate refnames per sub-transaction
//  4. commit the primary sub-transaction
//  5. commit the files sub-transaction; a failure here after a successful
//     primary commit produces the split-transaction warning, not an error
//
// Cross-backend atomicity is not provided.
func (s *Store) Commit(tx *Transaction) (*CommitResult, error) {
	return s.commit(tx, false)
}

// InitialCommit is Commit for fresh-store creation: per-ref existence
// checks are bypassed.
func (s *Store) InitialCommit(tx *Transaction) (*CommitResult, error) {
	return s.commit(tx, true)
}

func (s *Store) commit(tx *Transaction, initial bool) (*CommitResult, error) {
	if tx.State != TxOpen {
		panic(fmt.Sprintf("BUG: commit called for transaction that is %s", tx.State))
	}
	tx.State = TxPrepared
	defer func() {
		tx.State = TxClosed
		tx.Free()
	}()

	res := &CommitResult{}
	if len(tx.Updates) == 0 {
		return res, nil
	}

	s.dereferenceSymrefs(tx)

	filesTx := tx
	if s.primary != s.files {
		filesTx = s.splitByKind(tx)
	}

	names, e := affectedNames(tx.Updates)
	if e != nil {
		return nil, e
	}
	var filesNames []string
	if filesTx != tx {
		if filesNames, e = affectedNames(filesTx.Updates); e != nil {
			return nil, e
		}
	}

	if len(tx.Updates) > 0 {
		if e := s.commitOne(s.primary, tx, names, initial); e != nil {
			return nil, e
		}
	}

	if filesTx != tx && len(filesTx.Updates) > 0 {
		if e := s.commitOne(s.files, filesTx, filesNames, initial); e != nil {
			if len(tx.Updates) > 0 {
				logger.Warn(SplitCommitWarning, "error", e)
				res.Warning = SplitCommitWarning
				return res, nil
			}
			return nil, e
		}
	}

	return res, nil
}

func (s *Store) commitOne(b Backend, tx *Transaction, names []string, initial bool) error {
	if initial {
		return b.InitialCommit(tx, names)
	}
	return b.Commit(tx, names)
}

// dereferenceSymrefs performs the coordinator's one-time resolution pass.
// Each update whose target turns out symbolic is redirected to the leaf:
// a new update for the leaf carries the original new/old/flags/message,
// and the original survives as a log-only, no-deref write so the symref's
// own reflog still records the change.
func (s *Store) dereferenceSymrefs(tx *Transaction) {
	originals := tx.Updates
	for _, u := range originals {
		if u.Flags&NoDeref != 0 {
			continue
		}

		raw, e := s.ReadRaw(u.Refname)
		if e != nil || !raw.IsSymbolic() {
			continue
		}

		var flags ResolveFlag
		if u.HasOld() && !u.Old.IsZero() {
			flags |= Reading
		}
		if u.IsDelete() {
			flags |= NoRecurse | AllowBadName
		}

		resolved, e := s.Resolve(u.Refname, flags)
		if e != nil {
			u.Bits |= IsBroken
			continue
		}

		u.ReadOID = resolved.OID

		leaf := &Update{
			Refname: resolved.Name,
			New:     u.New,
			Old:     u.Old,
			Flags:   u.Flags,
			Msg:     u.Msg,
		}
		tx.Updates = append(tx.Updates, leaf)

		u.Flags |= LogOnly | NoDeref
		u.Flags &^= HaveOld
	}
}

// splitByKind moves every non-normal update out of tx into a fresh files
// transaction, which shares tx's lifetime.
func (s *Store) splitByKind(tx *Transaction) *Transaction {
	filesTx := &Transaction{State: TxPrepared, Committer: tx.Committer}

	kept := tx.Updates[:0]
	for _, u := range tx.Updates {
		if Classify(u.Refname) == KindNormal {
			kept = append(kept, u)
		} else {
			filesTx.Updates = append(filesTx.Updates, u)
		}
	}
	tx.Updates = kept
	return filesTx
}

// affectedNames returns the sorted refnames touched by updates, failing
// with GENERIC_ERROR on duplicates.
func affectedNames(updates []*Update) ([]string, error) {
	names := make([]string, 0, len(updates))
	for _, u := range updates {
		names = append(names, u.Refname)
	}
	sort.Strings(names)
	for i := 1; i < len(names); i++ {
		if names[i] == names[i-1] {
			return nil, err.New(pkgName, err.CodeGeneric, "commit",
				fmt.Sprintf("multiple updates for ref %q not allowed", names[i]), nil)
		}
	}
	return names, nil
}

// UpdateRef is the one-shot convenience: begin, stage one update, commit.
func (s *Store) UpdateRef(msg, refname string, newOID, oldOID *oid.OID, flags UpdateFlag) error {
	tx := s.NewTransaction()
	if e := tx.Update(refname, newOID, oldOID, flags, msg); e != nil {
		tx.Free()
		return e
	}
	_, e := s.Commit(tx)
	return e
}

// DeleteRef is the one-shot deletion convenience.
func (s *Store) DeleteRef(refname string, oldOID *oid.OID, flags UpdateFlag) error {
	tx := s.NewTransaction()
	if e := tx.Delete(refname, oldOID, flags, ""); e != nil {
		tx.Free()
		return e
	}
	_, e := s.Commit(tx)
	return e
}

// CreateSymref writes refname as a symbolic ref pointing at target.
func (s *Store) CreateSymref(refname, target, logMsg string) error {
	return s.backendFor(refname).CreateSymref(refname, target, logMsg)
}

// RenameRef renames a non-symbolic ref, migrating its reflog.
func (s *Store) RenameRef(oldName, newName, logMsg string) error {
	if Classify(oldName) != Classify(newName) {
		return err.New(pkgName, err.CodeInvalidInput, "rename",
			fmt.Sprintf("cannot rename %q to %q across ref kinds", oldName, newName), nil)
	}
	return s.backendFor(oldName).RenameRef(oldName, newName, logMsg)
}

// DeleteRefs removes the named refs, splitting them by kind.
func (s *Store) DeleteRefs(msg string, names []string) error {
	var normal, other []string
	for _, n := range names {
		if Classify(n) == KindNormal {
			normal = append(normal, n)
		} else {
			other = append(other, n)
		}
	}
	if len(normal) > 0 {
		if e := s.primary.DeleteRefs(msg, normal); e != nil {
			return e
		}
	}
	if len(other) > 0 {
		return s.files.DeleteRefs(msg, other)
	}
	return nil
}

// PackRefs migrates loose refs into the packed catalog on engines that
// have one.
func (s *Store) PackRefs(prune bool) error {
	return s.primary.PackRefs(prune)
}

// PeelRef returns the fully-peeled OID of a tag ref when the engine knows it.
func (s *Store) PeelRef(refname string) (oid.OID, error) {
	return s.backendFor(refname).PeelRef(refname)
}

// VerifyRefnameAvailable checks refname against directory/file conflicts.
func (s *Store) VerifyRefnameAvailable(refname string, extras, skip []string) error {
	return s.backendFor(refname).VerifyRefnameAvailable(refname, extras, skip)
}

// Hidden reports whether refname is hidden by hiderefs configuration.
func (s *Store) Hidden(refname string) bool {
	return s.hidden.Hidden(refname)
}

// ReflogExists reports whether refname has a reflog.
func (s *Store) ReflogExists(refname string) bool {
	return s.backendFor(refname).ReflogExists(refname)
}

// CreateReflog ensures refname has a reflog.
func (s *Store) CreateReflog(refname string, force bool) error {
	return s.backendFor(refname).CreateReflog(refname, force)
}

// DeleteReflog removes refname's reflog entirely.
func (s *Store) DeleteReflog(refname string) error {
	return s.backendFor(refname).DeleteReflog(refname)
}

// ForEachReflogEnt iterates refname's reflog oldest-first.
func (s *Store) ForEachReflogEnt(refname string, fn ReflogFn) error {
	return s.backendFor(refname).ForEachReflogEnt(refname, fn)
}

// ForEachReflogEntReverse iterates refname's reflog newest-first.
func (s *Store) ForEachReflogEntReverse(refname string, fn ReflogFn) error {
	return s.backendFor(refname).ForEachReflogEntReverse(refname, fn)
}

// ForEachReflog iterates the refnames that have reflogs, HEAD first.
func (s *Store) ForEachReflog(fn func(refname string) error) error {
	if s.files.ReflogExists(Head) {
		if e := fn(Head); e != nil {
			return stopOrErr(e)
		}
	}
	return s.primary.ForEachReflog(func(refname string) error {
		if refname == Head {
			return nil
		}
		return fn(refname)
	})
}

// ExpireReflog applies policy to refname's reflog. With ExpireUpdateRef the
// ref is rewritten to the last kept new-value when it is non-symbolic and
// at least one entry survived.
func (s *Store) ExpireReflog(refname string, flags ExpireFlag, policy ExpirePolicy) error {
	b := s.backendFor(refname)

	raw, e := b.ReadRaw(refname)
	symbolic := e == nil && raw.IsSymbolic()

	lastKept, e := b.ExpireReflog(refname, flags, policy)
	if e != nil {
		return e
	}

	if flags&ExpireDryRun == 0 && flags&ExpireUpdateRef != 0 &&
		!symbolic && !lastKept.IsZero() {
		return s.UpdateRef("", refname, &lastKept, nil, NoDeref|NoReflog)
	}
	return nil
}

func formatIdentity(name, email string) string {
	if name == "" {
		name = "refstore"
	}
	if email == "" {
		email = "refstore@localhost"
	}
	return fmt.Sprintf("%s <%s>", name, email)
}

func stopOrErr(e error) error {
	if errors.Is(e, ErrStopIteration) {
		return nil
	}
	return e
}
