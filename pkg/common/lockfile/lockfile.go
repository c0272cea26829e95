package lockfile

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/utkarsh5026/RefStore/pkg/common/err"
)

const pkgName = "lockfile"

// LockSuffix is appended to the locked path to form the lockfile name.
const LockSuffix = ".lock"

// ErrLockHeld is returned when another process already holds the lock.
var ErrLockHeld = err.New(pkgName, err.CodeLockError, "acquire", "lock is held by another process", nil)

// Lock is an exclusive filesystem lock guarding a single target file.
// The lockfile doubles as the staging area for the target's new content:
// Commit renames it over the target, Rollback deletes it. Either way the
// lock is released exactly once.
type Lock struct {
	target   string
	lockPath string
	file     *os.File
	done     bool
}

// Options control lock acquisition.
type Options struct {
	// Timeout bounds the total time spent retrying a contended lock.
	// Zero means fail fast on first contention.
	Timeout time.Duration

	// Mode is the permission bits for the eventual target file.
	Mode os.FileMode
}

// WithTimeout returns Options that retry a contended lock until d elapses.
func WithTimeout(d time.Duration) Options {
	return Options{Timeout: d, Mode: 0o644}
}

// Acquire takes the exclusive lock for target, creating <target>.lock with
// O_CREAT|O_EXCL. With a zero timeout contention fails immediately with a
// LOCK_ERROR; otherwise acquisition is retried with backoff until the
// timeout expires.
func Acquire(target string, opts Options) (*Lock, error) {
	if opts.Mode == 0 {
		opts.Mode = 0o644
	}
	lockPath := target + LockSuffix

	if e := os.MkdirAll(filepath.Dir(lockPath), 0o755); e != nil {
		return nil, err.Wrap(e, pkgName, "acquire")
	}

	deadline := time.Now().Add(opts.Timeout)
	backoff := time.Millisecond

	for {
		file, e := os.OpenFile(lockPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, opts.Mode)
		if e == nil {
			return &Lock{target: target, lockPath: lockPath, file: file}, nil
		}
		if !os.IsExist(e) {
			return nil, err.WrapWithCode(e, pkgName, err.CodeLockError, "acquire")
		}
		if opts.Timeout == 0 || time.Now().After(deadline) {
			return nil, err.New(pkgName, err.CodeLockError, "acquire",
				fmt.Sprintf("unable to create %q: lock held by another process", lockPath), ErrLockHeld)
		}
		time.Sleep(backoff)
		if backoff < 50*time.Millisecond {
			backoff *= 2
		}
	}
}

// Write replaces the staged content of the lockfile.
func (l *Lock) Write(data []byte) error {
	if l.done {
		panic("BUG: write on a released lock")
	}
	if e := l.file.Truncate(0); e != nil {
		return err.Wrap(e, pkgName, "write")
	}
	if _, e := l.file.Seek(0, 0); e != nil {
		return err.Wrap(e, pkgName, "write")
	}
	if _, e := l.file.Write(data); e != nil {
		return err.Wrap(e, pkgName, "write")
	}
	return nil
}

// Commit fsyncs the staged content and atomically renames the lockfile over
// the target, releasing the lock.
func (l *Lock) Commit() error {
	if l.done {
		panic("BUG: commit on a released lock")
	}
	l.done = true

	if e := l.file.Sync(); e != nil {
		l.file.Close()
		os.Remove(l.lockPath)
		return err.Wrap(e, pkgName, "commit")
	}
	if e := l.file.Close(); e != nil {
		os.Remove(l.lockPath)
		return err.Wrap(e, pkgName, "commit")
	}
	if e := os.Rename(l.lockPath, l.target); e != nil {
		os.Remove(l.lockPath)
		return err.Wrap(e, pkgName, "commit")
	}
	return nil
}

// Rollback discards the staged content and releases the lock.
// Safe to call after Commit; it then does nothing.
func (l *Lock) Rollback() error {
	if l.done {
		return nil
	}
	l.done = true

	if e := l.file.Close(); e != nil {
		os.Remove(l.lockPath)
		return err.Wrap(e, pkgName, "rollback")
	}
	if e := os.Remove(l.lockPath); e != nil && !os.IsNotExist(e) {
		return err.Wrap(e, pkgName, "rollback")
	}
	return nil
}

// Target returns the path the lock guards.
func (l *Lock) Target() string {
	return l.target
}

// Path returns the lockfile path.
func (l *Lock) Path() string {
	return l.lockPath
}
