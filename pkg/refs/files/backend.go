// Package files implements the filesystem reference backend: each ref is a
// small file under the store root, shadowing a sorted packed catalog, with
// lockfile-based compare-and-set and per-ref reflog files.
package files

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"syscall"
	"time"

	"github.com/utkarsh5026/RefStore/pkg/common/err"
	"github.com/utkarsh5026/RefStore/pkg/common/fileops"
	"github.com/utkarsh5026/RefStore/pkg/common/lockfile"
	"github.com/utkarsh5026/RefStore/pkg/oid"
	"github.com/utkarsh5026/RefStore/pkg/refs"
	"github.com/utkarsh5026/RefStore/pkg/repository/layout"
)

const pkgName = "files"

func init() {
	refs.RegisterBackend(refs.FilesBackendName, func(root string, opts refs.BackendOptions) (refs.Backend, error) {
		return New(root, opts), nil
	})
}

// Backend stores refs as loose files plus a packed catalog.
type Backend struct {
	root layout.StorePath
	opts refs.BackendOptions

	// lockTimeout bounds contended lock acquisition; zero fails fast
	lockTimeout time.Duration
}

// New creates a files backend rooted at dir.
func New(dir string, opts refs.BackendOptions) *Backend {
	return &Backend{root: layout.StorePath(dir), opts: opts}
}

// SetLockTimeout exposes the only blocking knob: how long a contended
// lockfile acquisition may retry before failing.
func (b *Backend) SetLockTimeout(d time.Duration) {
	b.lockTimeout = d
}

// Name returns the registry name of this engine.
func (b *Backend) Name() string {
	return refs.FilesBackendName
}

// Close is a no-op: the engine holds no long-lived handles.
func (b *Backend) Close() error {
	return nil
}

// InitDB creates the refs and logs directory skeleton. Idempotent.
func (b *Backend) InitDB() error {
	for _, dir := range []string{
		b.root.RefsPath(),
		b.root.Join(layout.RefsDir, "heads"),
		b.root.Join(layout.RefsDir, "tags"),
		b.root.LogsPath(),
	} {
		if e := fileops.EnsureDir(dir); e != nil {
			return err.Wrap(e, pkgName, "init_db")
		}
	}
	return nil
}

// ReadRaw performs a single-hop read of a loose ref, falling back to the
// packed catalog. Symlinks pointing inside the refs tree are tolerated and
// reported as symbolic refs; they are never written.
//
// Content rules: the OID arm is lenient (leading whitespace before the
// 40-hex value is skipped), the symbolic arm is strict ("ref:" must start
// at byte 0).
func (b *Backend) ReadRaw(refname string) (refs.RawRef, error) {
	path := b.root.RefPath(refname)

	if fi, e := os.Lstat(path); e == nil && fi.Mode()&os.ModeSymlink != 0 {
		target, e := os.Readlink(path)
		if e == nil && strings.HasPrefix(target, "refs/") {
			return refs.RawRef{Target: target}, nil
		}
	}

	if fi, e := os.Stat(path); e == nil && fi.IsDir() {
		// A directory of refs is not itself a ref.
		if entry, ok := b.packedLookup(refname); ok {
			return refs.RawRef{OID: entry.OID}, nil
		}
		return refs.RawRef{}, refs.ErrNotExist
	}

	data, e := os.ReadFile(path)
	if e != nil {
		if os.IsNotExist(e) || isNotDir(e) {
			if entry, ok := b.packedLookup(refname); ok {
				return refs.RawRef{OID: entry.OID}, nil
			}
			return refs.RawRef{}, refs.ErrNotExist
		}
		return refs.RawRef{}, err.Wrap(e, pkgName, "read_raw_ref")
	}

	return parseRefContent(refname, string(data))
}

// parseRefContent classifies raw file content as a direct OID or a
// symbolic target.
func parseRefContent(refname, content string) (refs.RawRef, error) {
	if rest, ok := strings.CutPrefix(content, "ref:"); ok {
		target := strings.TrimRight(strings.TrimLeft(rest, " \t"), " \t\r\n")
		if target == "" {
			return refs.RawRef{}, brokenRef(refname)
		}
		return refs.RawRef{Target: target}, nil
	}

	trimmed := strings.TrimLeft(content, " \t")
	id, e := oid.ParseBytes([]byte(trimmed))
	if e != nil {
		return refs.RawRef{}, brokenRef(refname)
	}
	if len(trimmed) > oid.HexLen {
		if c := trimmed[oid.HexLen]; c != '\n' && c != ' ' && c != '\t' && c != '\r' {
			return refs.RawRef{}, brokenRef(refname)
		}
	}
	return refs.RawRef{OID: id}, nil
}

func brokenRef(refname string) error {
	return err.New(pkgName, err.CodeBroken, "read_raw_ref",
		fmt.Sprintf("ref %q has unparseable content", refname), nil)
}

// CreateSymref writes refname as "ref: target", logging the change when the
// pointee resolves and a message is given.
func (b *Backend) CreateSymref(refname, target, logMsg string) error {
	lock, e := b.lockRef(refname)
	if e != nil {
		return e
	}

	var old oid.OID
	if logMsg != "" {
		if resolved, re := refs.ResolveRef(b, target, 0); re == nil {
			old = resolved.OID
		}
	}

	if e := lock.Write([]byte(refs.SymrefPrefix + target + "\n")); e != nil {
		lock.Rollback()
		return e
	}
	if e := lock.Commit(); e != nil {
		return e
	}

	if logMsg != "" {
		if resolved, re := refs.ResolveRef(b, target, 0); re == nil {
			return b.logUpdate(refname, old, resolved.OID, logMsg, false)
		}
	}
	return nil
}

// RenameRef renames a non-symbolic ref and migrates its reflog file.
func (b *Backend) RenameRef(oldName, newName, logMsg string) error {
	if oldName == newName {
		return nil
	}

	raw, e := b.ReadRaw(oldName)
	if e != nil {
		return err.New(pkgName, err.CodeNotFound, "rename_ref",
			fmt.Sprintf("refname %q not found", oldName), e)
	}
	if raw.IsSymbolic() {
		return err.New(pkgName, err.CodeInvalidInput, "rename_ref",
			fmt.Sprintf("refname %q is a symbolic ref, renaming it is not supported", oldName), nil)
	}

	if e := b.VerifyRefnameAvailable(newName, nil, []string{oldName}); e != nil {
		return e
	}

	hadLog := b.ReflogExists(oldName)

	if e := b.deleteOne(oldName); e != nil {
		return e
	}

	lock, e := b.lockRef(newName)
	if e != nil {
		return e
	}
	if e := lock.Write([]byte(raw.OID.String() + "\n")); e != nil {
		lock.Rollback()
		return e
	}
	if e := lock.Commit(); e != nil {
		return e
	}

	if hadLog {
		oldLog := b.root.LogPath(oldName)
		newLog := b.root.LogPath(newName)
		if e := fileops.EnsureParentDir(newLog); e != nil {
			return err.Wrap(e, pkgName, "rename_ref")
		}
		if e := os.Rename(oldLog, newLog); e != nil && !os.IsNotExist(e) {
			return err.Wrap(e, pkgName, "rename_ref")
		}
		fileops.RemoveEmptyParents(oldLog, b.root.LogsPath())
	}

	return b.logUpdate(newName, raw.OID, raw.OID, logMsg, false)
}

// PeelRef answers from the packed catalog's peeled annotations; the engine
// has no object storage to peel with otherwise.
func (b *Backend) PeelRef(refname string) (oid.OID, error) {
	if entry, ok := b.packedLookup(refname); ok && entry.HasPeeled {
		return entry.Peeled, nil
	}
	return oid.Zero, err.New(pkgName, err.CodeNotFound, "peel_ref",
		fmt.Sprintf("no peeled value known for %q", refname), nil)
}

// DeleteRefs removes the named refs outside any transaction: loose files
// and packed entries, plus their reflogs.
func (b *Backend) DeleteRefs(msg string, names []string) error {
	if len(names) == 0 {
		return nil
	}

	if e := b.rewritePackedWithout(names); e != nil {
		return e
	}
	for _, name := range names {
		if e := b.removeLoose(name); e != nil {
			return e
		}
		if e := b.DeleteReflog(name); e != nil {
			return e
		}
	}
	return nil
}

// deleteOne removes a single ref (loose and packed) without touching its
// reflog.
func (b *Backend) deleteOne(refname string) error {
	if e := b.rewritePackedWithout([]string{refname}); e != nil {
		return e
	}
	return b.removeLoose(refname)
}

func (b *Backend) removeLoose(refname string) error {
	path := b.root.RefPath(refname)
	if e := fileops.SafeRemove(path); e != nil {
		return err.Wrap(e, pkgName, "delete")
	}
	fileops.RemoveEmptyParents(path, b.root.String())
	return nil
}

// lockRef acquires the per-ref lockfile, creating parent directories.
func (b *Backend) lockRef(refname string) (*lockfile.Lock, error) {
	path := b.root.RefPath(refname)
	lock, e := lockfile.Acquire(path, lockfile.Options{Timeout: b.lockTimeout})
	if e != nil {
		// A ref file sitting where we need a directory surfaces here as
		// ENOTDIR; report it as the name conflict it is.
		if isNotDir(e) {
			if ce := b.verifyAvailable(refname, nil, nil); ce != nil {
				return nil, ce
			}
		}
		return nil, refs.LockError(pkgName, refname, e)
	}
	return lock, nil
}

func isNotDir(e error) bool {
	return errors.Is(e, syscall.ENOTDIR)
}
