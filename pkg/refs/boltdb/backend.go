// Package boltdb implements the key-value reference backend over bbolt.
//
// The design relies on the store's write lock: any write transaction
// blocks all other writers, so values read inside a transaction cannot
// change out from under it, and readers get a fully-consistent snapshot.
//
// Ref values are stored with a trailing NUL, like the loose file content
// they mirror. Reflog entries sort chronologically because their keys end
// in a big-endian nanosecond timestamp.
package boltdb

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/utkarsh5026/RefStore/pkg/common/err"
	"github.com/utkarsh5026/RefStore/pkg/oid"
	"github.com/utkarsh5026/RefStore/pkg/refs"
	"github.com/utkarsh5026/RefStore/pkg/repository/layout"
)

const (
	pkgName = "boltdb"

	// BackendName is this engine's registry name
	BackendName = "boltdb"

	// rootBucket holds every ref and reflog key
	rootBucket = "refs"
)

func init() {
	refs.RegisterBackend(BackendName, func(root string, opts refs.BackendOptions) (refs.Backend, error) {
		return New(root, opts), nil
	})
}

// Backend stores refs and reflogs as keys in a single ordered bucket.
type Backend struct {
	root layout.StorePath
	opts refs.BackendOptions

	db *bolt.DB

	// slot is the process-wide transaction of §"global transaction slot":
	// one open transaction at a time, reused by nested reads, upgraded for
	// writes. Held as explicit state on the backend, not a true global.
	slot slot

	// generation counts events that may have changed the store behind our
	// snapshot; a mismatch with the slot forces a transaction restart.
	generation uint64
}

type slot struct {
	tx       *bolt.Tx
	writable bool
	gen      uint64
}

// New creates a boltdb backend rooted at dir. The database file is opened
// lazily.
func New(dir string, opts refs.BackendOptions) *Backend {
	return &Backend{root: layout.StorePath(dir), opts: opts}
}

// Name returns the registry name of this engine.
func (b *Backend) Name() string {
	return BackendName
}

// InitDB creates the database directory and the root bucket. Idempotent.
func (b *Backend) InitDB() error {
	if e := b.open(); e != nil {
		return e
	}
	return nil
}

// open lazily opens the database file and ensures the root bucket exists.
func (b *Backend) open() error {
	if b.db != nil {
		return nil
	}

	path := b.root.RefDBPath()
	if e := os.MkdirAll(filepath.Dir(path), 0o755); e != nil {
		return err.Wrap(e, pkgName, "init_db")
	}

	db, e := bolt.Open(path, 0o644, &bolt.Options{Timeout: 5 * time.Second})
	if e != nil {
		return err.Wrap(e, pkgName, "init_db")
	}

	if e := db.Update(func(tx *bolt.Tx) error {
		_, e := tx.CreateBucketIfNotExists([]byte(rootBucket))
		return e
	}); e != nil {
		db.Close()
		return err.Wrap(e, pkgName, "init_db")
	}

	b.db = db
	return nil
}

// Close aborts any open transaction and closes the database.
func (b *Backend) Close() error {
	if b.slot.tx != nil {
		b.slot.tx.Rollback()
		b.slot = slot{}
	}
	if b.db != nil {
		e := b.db.Close()
		b.db = nil
		return e
	}
	return nil
}

// InvalidateSnapshot records that the store may have been mutated outside
// the open transaction; the next begin restarts it to refresh the snapshot.
func (b *Backend) InvalidateSnapshot() {
	b.generation++
}

// begin hands out the slot transaction.
//
//   - No transaction open: open one with the requested mode.
//   - Read requested while a read-write transaction is open: reuse it.
//   - Write requested while a read-only is open: abort and reopen
//     read-write.
//   - Stale generation: abort and reopen to refresh the snapshot.
//   - Write requested while a read-write is open: programmer error.
func (b *Backend) begin(writable bool) (*bolt.Tx, error) {
	if e := b.open(); e != nil {
		return nil, e
	}

	if b.slot.tx == nil {
		return b.beginFresh(writable)
	}

	if writable && b.slot.writable {
		panic("BUG: rw transaction started during another rw transaction")
	}

	forceRestart := b.slot.gen != b.generation
	upgrade := writable && !b.slot.writable

	if forceRestart || upgrade {
		b.slot.tx.Rollback()
		b.slot = slot{}
		return b.beginFresh(writable)
	}

	// Read requested: a read-write transaction serves reads too.
	return b.slot.tx, nil
}

func (b *Backend) beginFresh(writable bool) (*bolt.Tx, error) {
	tx, e := b.db.Begin(writable)
	if e != nil {
		return nil, err.Wrap(e, pkgName, "transaction_begin")
	}
	b.slot = slot{tx: tx, writable: writable, gen: b.generation}
	return tx, nil
}

// endWrite commits the slot's write transaction and clears the slot.
func (b *Backend) endWrite() error {
	if b.slot.tx == nil || !b.slot.writable {
		panic("BUG: endWrite without an open write transaction")
	}
	tx := b.slot.tx
	b.slot = slot{}
	if e := tx.Commit(); e != nil {
		return err.Wrap(e, pkgName, "transaction_commit")
	}
	return nil
}

// abortWrite rolls back the slot's write transaction.
func (b *Backend) abortWrite() {
	if b.slot.tx != nil {
		b.slot.tx.Rollback()
		b.slot = slot{}
	}
}

func (b *Backend) bucket(tx *bolt.Tx) *bolt.Bucket {
	bk := tx.Bucket([]byte(rootBucket))
	if bk == nil {
		panic("BUG: refs bucket missing")
	}
	return bk
}

// Key and value encodings.

func refKey(refname string) []byte {
	return append([]byte(refname), 0)
}

func refValue(raw refs.RawRef) []byte {
	if raw.IsSymbolic() {
		return append([]byte(refs.SymrefPrefix+raw.Target), 0)
	}
	return append([]byte(raw.OID.String()), 0)
}

// logPrefix is "logs/<refname>\0", the shared prefix of the reflog header
// and every entry key.
func logPrefix(refname string) []byte {
	return append([]byte("logs/"+refname), 0)
}

// logHeaderKey marks reflog existence: the prefix plus 8 zero bytes in
// lieu of a timestamp.
func logHeaderKey(refname string) []byte {
	return append(logPrefix(refname), make([]byte, 8)...)
}

// logEntryKey appends the big-endian nanosecond timestamp so that key
// order is chronological order.
func logEntryKey(refname string, nanos uint64) []byte {
	key := logPrefix(refname)
	var ts [8]byte
	for i := 0; i < 8; i++ {
		ts[i] = byte(nanos >> (56 - 8*i))
	}
	return append(key, ts[:]...)
}

func parseRefValue(refname string, value []byte) (refs.RawRef, error) {
	content := strings.TrimSuffix(string(value), "\x00")
	if rest, ok := strings.CutPrefix(content, "ref:"); ok {
		target := strings.TrimLeft(rest, " \t")
		if target == "" {
			return refs.RawRef{}, brokenRef(refname)
		}
		return refs.RawRef{Target: target}, nil
	}
	id, e := oid.Parse(strings.TrimSpace(content))
	if e != nil {
		return refs.RawRef{}, brokenRef(refname)
	}
	return refs.RawRef{OID: id}, nil
}

func brokenRef(refname string) error {
	return err.New(pkgName, err.CodeBroken, "read_raw_ref",
		fmt.Sprintf("ref %q has unparseable content", refname), nil)
}

// ReadRaw performs a single-hop read inside the slot transaction.
func (b *Backend) ReadRaw(refname string) (refs.RawRef, error) {
	tx, e := b.begin(false)
	if e != nil {
		return refs.RawRef{}, e
	}
	return readRawTx(b.bucket(tx), refname)
}

func readRawTx(bk *bolt.Bucket, refname string) (refs.RawRef, error) {
	value := bk.Get(refKey(refname))
	if value == nil {
		return refs.RawRef{}, refs.ErrNotExist
	}
	return parseRefValue(refname, value)
}

// txReader resolves inside one transaction's snapshot.
type txReader struct {
	bk *bolt.Bucket
}

func (r txReader) ReadRaw(refname string) (refs.RawRef, error) {
	return readRawTx(r.bk, refname)
}

// ForEachRef walks ref keys in key order starting at base.
func (b *Backend) ForEachRef(base string, trim int, flags refs.IterFlag, fn refs.RefFn) error {
	if base == "" {
		base = "refs/"
		trim = 0
	}

	tx, e := b.begin(false)
	if e != nil {
		return e
	}
	bk := b.bucket(tx)
	reader := txReader{bk}

	c := bk.Cursor()
	for k, _ := c.Seek([]byte(base)); k != nil; k, _ = c.Next() {
		if !bytes.HasPrefix(k, []byte(base)) {
			break
		}
		if len(k) == 0 || k[len(k)-1] != 0 {
			continue
		}
		name := string(k[:len(k)-1])

		resolved, re := refs.ResolveRef(reader, name, 0)
		display := name
		if trim > 0 && trim <= len(name) {
			display = name[trim:]
		}

		if re != nil {
			if flags&refs.IncludeBroken != 0 {
				if e := fn(display, oid.Zero, refs.IsBroken); e != nil {
					return stopOrErr(e)
				}
			}
			continue
		}
		bits := resolved.Bits
		if bits&refs.IsBroken != 0 && flags&refs.IncludeBroken == 0 {
			continue
		}
		if resolved.OID.IsZero() && flags&refs.IncludeBroken == 0 {
			// A symref whose chain ends nowhere has no value to report.
			continue
		}
		if raw, re := readRawTx(bk, name); re == nil && raw.IsSymbolic() {
			bits |= refs.IsSymref
		}
		if e := fn(display, resolved.OID, bits); e != nil {
			return stopOrErr(e)
		}
	}
	return nil
}

func stopOrErr(e error) error {
	if e == refs.ErrStopIteration {
		return nil
	}
	return e
}

// VerifyRefnameAvailable positions a cursor at "<refname>/" and walks
// forward for descendants, then probes every parent prefix exactly.
func (b *Backend) VerifyRefnameAvailable(refname string, extras, skip []string) error {
	tx, e := b.begin(false)
	if e != nil {
		return e
	}
	return verifyAvailableTx(b.bucket(tx), refname, extras, skip)
}

func verifyAvailableTx(bk *bolt.Bucket, refname string, extras, skip []string) error {
	skipSet := make(map[string]bool, len(skip))
	for _, s := range skip {
		skipSet[s] = true
	}

	childPrefix := []byte(refname + "/")
	c := bk.Cursor()
	for k, _ := c.Seek(childPrefix); k != nil; k, _ = c.Next() {
		if !bytes.HasPrefix(k, childPrefix) {
			break
		}
		if len(k) == 0 || k[len(k)-1] != 0 {
			continue
		}
		name := string(k[:len(k)-1])
		if skipSet[name] {
			continue
		}
		return refs.NameConflictError(pkgName, name, refname)
	}

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
		if bk.Get(refKey(parent)) != nil {
			return refs.NameConflictError(pkgName, parent, refname)
		}
	}

	childStr := refname + "/"
	for _, extra := range extras {
		if strings.HasPrefix(extra, childStr) && !skipSet[extra] {
			return refs.InFlightConflictError(pkgName, refname, extra)
		}
	}
	return nil
}

// PackRefs is a no-op: this engine has no packed form.
func (b *Backend) PackRefs(prune bool) error {
	return nil
}

// PeelRef has no peeled annotations to answer from.
func (b *Backend) PeelRef(refname string) (oid.OID, error) {
	return oid.Zero, err.New(pkgName, err.CodeNotFound, "peel_ref",
		fmt.Sprintf("no peeled value known for %q", refname), nil)
}
