package boltdb

import (
	"bytes"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/utkarsh5026/RefStore/pkg/common/err"
	"github.com/utkarsh5026/RefStore/pkg/oid"
	"github.com/utkarsh5026/RefStore/pkg/refs"
)

// shouldAutoCreateReflog mirrors the files engine's rule: HEAD always;
// branch, remote-tracking and notes refs while core.logallrefupdates is on.
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

// ReflogExists reports whether refname's reflog header key is present.
func (b *Backend) ReflogExists(refname string) bool {
	tx, e := b.begin(false)
	if e != nil {
		return false
	}
	return b.bucket(tx).Get(logHeaderKey(refname)) != nil
}

// CreateReflog writes the reflog header key: its existence is the "reflog
// exists" signal.
func (b *Backend) CreateReflog(refname string, force bool) error {
	if !force && !b.shouldAutoCreateReflog(refname) {
		return nil
	}

	btx, e := b.begin(true)
	if e != nil {
		return e
	}
	if e := b.bucket(btx).Put(logHeaderKey(refname), []byte{}); e != nil {
		b.abortWrite()
		return err.Wrap(e, pkgName, "create_reflog")
	}
	return b.endWrite()
}

// createReflogTx is CreateReflog inside an already-open write transaction.
func (b *Backend) createReflogTx(bk *bolt.Bucket, refname string, force bool) error {
	if !force && !b.shouldAutoCreateReflog(refname) {
		return nil
	}
	if bk.Get(logHeaderKey(refname)) != nil {
		return nil
	}
	return err.Wrap(bk.Put(logHeaderKey(refname), []byte{}), pkgName, "create_reflog")
}

// logUpdateTx appends one reflog entry inside the open write transaction.
// Nothing is written when the reflog does not exist and auto-creation does
// not apply.
func (b *Backend) logUpdateTx(bk *bolt.Bucket, refname string, old, newOID oid.OID, msg string, force bool) error {
	if e := b.createReflogTx(bk, refname, force); e != nil {
		return e
	}
	if bk.Get(logHeaderKey(refname)) == nil {
		return nil
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

	key := logEntryKey(refname, uint64(now.UnixNano()))
	// Bump the timestamp until the key is free; two updates of one ref in
	// the same nanosecond must both survive.
	nanos := uint64(now.UnixNano())
	for bk.Get(key) != nil {
		nanos++
		key = logEntryKey(refname, nanos)
	}

	value := append([]byte(entry.Encode()), 0)
	return err.Wrap(bk.Put(key, value), pkgName, "reflog_append")
}

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

// DeleteReflog removes the header and every entry of refname's reflog.
func (b *Backend) DeleteReflog(refname string) error {
	btx, e := b.begin(true)
	if e != nil {
		return e
	}
	if e := deleteReflogTx(b.bucket(btx), refname); e != nil {
		b.abortWrite()
		return e
	}
	return b.endWrite()
}

func deleteReflogTx(bk *bolt.Bucket, refname string) error {
	prefix := logPrefix(refname)
	c := bk.Cursor()
	for k, _ := c.Seek(prefix); k != nil; k, _ = c.Seek(prefix) {
		if !bytes.HasPrefix(k, prefix) {
			break
		}
		if e := c.Delete(); e != nil {
			return err.Wrap(e, pkgName, "delete_reflog")
		}
	}
	return nil
}

// ForEachReflog iterates the refnames whose reflog header is present.
func (b *Backend) ForEachReflog(fn func(refname string) error) error {
	tx, e := b.begin(false)
	if e != nil {
		return e
	}
	bk := b.bucket(tx)

	zeros := make([]byte, 8)
	c := bk.Cursor()
	for k, _ := c.Seek([]byte("logs/")); k != nil; k, _ = c.Next() {
		if !bytes.HasPrefix(k, []byte("logs/")) {
			break
		}
		// Header keys end in NUL plus 8 zero bytes.
		if len(k) < 14 || !bytes.Equal(k[len(k)-8:], zeros) || k[len(k)-9] != 0 {
			continue
		}
		name := string(k[5 : len(k)-9])
		if e := fn(name); e != nil {
			if e == refs.ErrStopIteration {
				return nil
			}
			return e
		}
	}
	return nil
}

// forEachReflogEnt walks entry keys of refname in the requested direction,
// skipping the header.
func (b *Backend) forEachReflogEnt(refname string, fn refs.ReflogFn, reverse bool) error {
	tx, e := b.begin(false)
	if e != nil {
		return e
	}
	bk := b.bucket(tx)
	c := bk.Cursor()

	prefix := logPrefix(refname)
	zeros := make([]byte, 8)

	visit := func(k, v []byte) (done bool, e error) {
		if !bytes.HasPrefix(k, prefix) || len(k) != len(prefix)+8 {
			return true, nil
		}
		if bytes.Equal(k[len(prefix):], zeros) {
			return false, nil // header
		}
		line := strings.TrimSuffix(string(v), "\x00")
		entry, de := refs.DecodeReflogLine(line)
		if de != nil {
			return false, nil
		}
		if e := fn(entry); e != nil {
			if e == refs.ErrStopIteration {
				return true, nil
			}
			return true, e
		}
		return false, nil
	}

	if !reverse {
		for k, v := c.Seek(prefix); k != nil; k, v = c.Next() {
			done, e := visit(k, v)
			if done || e != nil {
				return e
			}
		}
		return nil
	}

	// For a reverse walk, start at the key lexicographically after every
	// entry of this ref: the prefix with its final NUL bumped to 1.
	after := append([]byte{}, prefix...)
	after[len(after)-1] = 1

	k, v := c.Seek(after)
	if k == nil {
		k, v = c.Last()
	} else {
		k, v = c.Prev()
	}
	for ; k != nil; k, v = c.Prev() {
		done, e := visit(k, v)
		if done || e != nil {
			return e
		}
	}
	return nil
}

// ForEachReflogEnt iterates reflog entries oldest-first.
func (b *Backend) ForEachReflogEnt(refname string, fn refs.ReflogFn) error {
	return b.forEachReflogEnt(refname, fn, false)
}

// ForEachReflogEntReverse iterates reflog entries newest-first.
func (b *Backend) ForEachReflogEntReverse(refname string, fn refs.ReflogFn) error {
	return b.forEachReflogEnt(refname, fn, true)
}

// ExpireReflog range-scans refname's entries, deleting the ones the policy
// rejects with the cursor. The header key survives, so the reflog still
// exists afterwards even when empty.
func (b *Backend) ExpireReflog(refname string, flags refs.ExpireFlag, policy refs.ExpirePolicy) (oid.OID, error) {
	var lastKept oid.OID

	dryRun := flags&refs.ExpireDryRun != 0
	btx, e := b.begin(!dryRun)
	if e != nil {
		return lastKept, e
	}
	bk := b.bucket(btx)

	prefix := logPrefix(refname)
	zeros := make([]byte, 8)
	c := bk.Cursor()

	k, v := c.Seek(prefix)
	for k != nil {
		if !bytes.HasPrefix(k, prefix) || len(k) != len(prefix)+8 {
			break
		}
		if bytes.Equal(k[len(prefix):], zeros) {
			k, v = c.Next()
			continue
		}

		entry, de := refs.DecodeReflogLine(strings.TrimSuffix(string(v), "\x00"))
		if de == nil && policy(entry) {
			lastKept = entry.New
			k, v = c.Next()
			continue
		}

		if dryRun {
			k, v = c.Next()
			continue
		}
		if e := c.Delete(); e != nil {
			b.abortWrite()
			return oid.Zero, err.Wrap(e, pkgName, "reflog_expire")
		}
		// Cursor.Delete leaves the cursor on the predecessor; Next moves
		// to the key after the deleted one.
		k, v = c.Next()
	}

	if dryRun {
		return lastKept, nil
	}
	if e := b.endWrite(); e != nil {
		return oid.Zero, e
	}
	return lastKept, nil
}

// renameReflogTx copies each entry under the new name with its original
// timestamp, then removes the old entries and header.
func renameReflogTx(bk *bolt.Bucket, oldName, newName string) error {
	if e := bk.Put(logHeaderKey(newName), []byte{}); e != nil {
		return err.Wrap(e, pkgName, "rename_ref")
	}

	oldPrefix := logPrefix(oldName)
	newPrefix := logPrefix(newName)
	zeros := make([]byte, 8)

	c := bk.Cursor()
	for k, v := c.Seek(oldPrefix); k != nil; k, v = c.Seek(oldPrefix) {
		if !bytes.HasPrefix(k, oldPrefix) || len(k) != len(oldPrefix)+8 {
			break
		}
		ts := k[len(oldPrefix):]
		if !bytes.Equal(ts, zeros) {
			newKey := append(append([]byte{}, newPrefix...), ts...)
			value := append([]byte{}, v...)
			if e := bk.Put(newKey, value); e != nil {
				return err.Wrap(e, pkgName, "rename_ref")
			}
		}
		if e := c.Delete(); e != nil {
			return err.Wrap(e, pkgName, "rename_ref")
		}
	}
	return nil
}
