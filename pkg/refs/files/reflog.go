package files

import (
	"bufio"
	"bytes"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/utkarsh5026/RefStore/pkg/common/err"
	"github.com/utkarsh5026/RefStore/pkg/common/fileops"
	"github.com/utkarsh5026/RefStore/pkg/common/lockfile"
	"github.com/utkarsh5026/RefStore/pkg/oid"
	"github.com/utkarsh5026/RefStore/pkg/refs"
)

// shouldAutoCreateReflog decides whether a ref gets a reflog without being
// asked. HEAD always qualifies; branch, remote-tracking and notes refs
// qualify while core.logallrefupdates is on.
func (b *Backend) shouldAutoCreateReflog(refname string) bool {
	if refname == refs.Head {
		return true
	}
	if !b.opts.LogAllRefUpdates {
		return false
	}
	return strings.HasPrefix(refname, refs.HeadsPrefix) ||
		strings.HasPrefix(refname, refs.RemotesPrefix) ||
		strings.HasPrefix(refname, refs.NotesPrefix)
}

// ReflogExists reports whether refname has a reflog file.
func (b *Backend) ReflogExists(refname string) bool {
	fi, e := os.Stat(b.root.LogPath(refname))
	return e == nil && !fi.IsDir()
}

// CreateReflog ensures the reflog file exists. Without force, only refs
// that qualify for auto-creation get one.
func (b *Backend) CreateReflog(refname string, force bool) error {
	if !force && !b.shouldAutoCreateReflog(refname) {
		return nil
	}

	path := b.root.LogPath(refname)
	if e := fileops.EnsureParentDir(path); e != nil {
		return err.Wrap(e, pkgName, "create_reflog")
	}
	f, e := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if e != nil {
		return err.Wrap(e, pkgName, "create_reflog")
	}
	return f.Close()
}

// DeleteReflog removes the reflog file entirely.
func (b *Backend) DeleteReflog(refname string) error {
	path := b.root.LogPath(refname)
	if e := fileops.SafeRemove(path); e != nil {
		return err.Wrap(e, pkgName, "delete_reflog")
	}
	fileops.RemoveEmptyParents(path, b.root.LogsPath())
	return nil
}

// logUpdate appends one entry to refname's reflog, creating the log first
// when auto-creation (or force) applies.
func (b *Backend) logUpdate(refname string, old, newOID oid.OID, msg string, force bool) error {
	if !b.ReflogExists(refname) {
		if !force && !b.shouldAutoCreateReflog(refname) {
			return nil
		}
		if e := b.CreateReflog(refname, true); e != nil {
			return e
		}
	}

	now := time.Now()
	_, offset := now.Zone()
	entry := &refs.ReflogEntry{
		Old:      old,
		New:      newOID,
		Identity: b.opts.Committer,
		Time:     now.Unix(),
		TZ:       tzHHMM(offset),
		Message:  msg,
	}

	f, e := os.OpenFile(b.root.LogPath(refname), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if e != nil {
		return err.Wrap(e, pkgName, "reflog_append")
	}
	defer f.Close()

	if _, e := f.WriteString(entry.Encode()); e != nil {
		return err.Wrap(e, pkgName, "reflog_append")
	}
	return nil
}

// tzHHMM converts a zone offset in seconds to the signed HHMM form reflog
// records carry.
func tzHHMM(offsetSeconds int) int {
	sign := 1
	if offsetSeconds < 0 {
		sign = -1
		offsetSeconds = -offsetSeconds
	}
	hours := offsetSeconds / 3600
	minutes := (offsetSeconds % 3600) / 60
	return sign * (hours*100 + minutes)
}

// ForEachReflog iterates the refnames that have reflog files, HEAD first.
func (b *Backend) ForEachReflog(fn func(refname string) error) error {
	root := b.root.LogsPath()

	var names []string
	e := filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if d.IsDir() {
			return nil
		}
		rel, e := filepath.Rel(root, path)
		if e != nil {
			return e
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if e != nil {
		return e
	}
	sort.Strings(names)

	for _, name := range names {
		if e := fn(name); e != nil {
			if e == refs.ErrStopIteration {
				return nil
			}
			return e
		}
	}
	return nil
}

// ForEachReflogEnt iterates reflog entries oldest-first by line.
func (b *Backend) ForEachReflogEnt(refname string, fn refs.ReflogFn) error {
	f, e := os.Open(b.root.LogPath(refname))
	if e != nil {
		if os.IsNotExist(e) {
			return nil
		}
		return err.Wrap(e, pkgName, "for_each_reflog_ent")
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		entry, de := refs.DecodeReflogLine(line)
		if de != nil {
			continue
		}
		if e := fn(entry); e != nil {
			if e == refs.ErrStopIteration {
				return nil
			}
			return e
		}
	}
	return scanner.Err()
}

// ForEachReflogEntReverse iterates entries newest-first: the whole file is
// read and walked backwards.
func (b *Backend) ForEachReflogEntReverse(refname string, fn refs.ReflogFn) error {
	data, e := os.ReadFile(b.root.LogPath(refname))
	if e != nil {
		if os.IsNotExist(e) {
			return nil
		}
		return err.Wrap(e, pkgName, "for_each_reflog_ent_reverse")
	}

	lines := bytes.Split(bytes.TrimRight(data, "\n"), []byte{'\n'})
	for i := len(lines) - 1; i >= 0; i-- {
		if len(lines[i]) == 0 {
			continue
		}
		entry, de := refs.DecodeReflogLine(string(lines[i]))
		if de != nil {
			continue
		}
		if e := fn(entry); e != nil {
			if e == refs.ErrStopIteration {
				return nil
			}
			return e
		}
	}
	return nil
}

// ExpireReflog rewrites refname's reflog keeping only the entries the
// policy accepts: survivors are staged in the log's own lockfile
// (logs/<refname>.lock), which is then renamed over the log. The log file
// itself always survives, possibly empty.
func (b *Backend) ExpireReflog(refname string, flags refs.ExpireFlag, policy refs.ExpirePolicy) (oid.OID, error) {
	var lastKept oid.OID

	if !b.ReflogExists(refname) {
		return lastKept, nil
	}

	lock, e := lockfile.Acquire(b.root.LogPath(refname), lockfile.Options{Timeout: b.lockTimeout})
	if e != nil {
		return lastKept, refs.LockError(pkgName, refname, e)
	}

	var kept bytes.Buffer
	e = b.ForEachReflogEnt(refname, func(entry *refs.ReflogEntry) error {
		if policy(entry) {
			lastKept = entry.New
			kept.WriteString(entry.Encode())
		}
		return nil
	})
	if e != nil {
		lock.Rollback()
		return oid.Zero, e
	}

	if flags&refs.ExpireDryRun != 0 {
		lock.Rollback()
		return lastKept, nil
	}

	if e := lock.Write(kept.Bytes()); e != nil {
		lock.Rollback()
		return oid.Zero, e
	}
	if e := lock.Commit(); e != nil {
		return oid.Zero, e
	}
	return lastKept, nil
}
