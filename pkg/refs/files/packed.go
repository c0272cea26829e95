package files

import (
	"bufio"
	"bytes"
	"os"
	"sort"
	"strings"

	"github.com/utkarsh5026/RefStore/pkg/common/err"
	"github.com/utkarsh5026/RefStore/pkg/common/lockfile"
	"github.com/utkarsh5026/RefStore/pkg/oid"
	"github.com/utkarsh5026/RefStore/pkg/refs"
)

// packedHeader declares the traits this implementation writes: every tag
// entry that could be peeled carries its peeled annotation.
const packedHeader = "# pack-refs with: peeled fully-peeled \n"

// packedEntry is one record of the packed catalog.
type packedEntry struct {
	Name      string
	OID       oid.OID
	Peeled    oid.OID
	HasPeeled bool
}

// readPacked parses the packed-refs file into its sorted entry list.
// A missing file is an empty catalog.
func (b *Backend) readPacked() ([]packedEntry, error) {
	data, e := os.ReadFile(b.root.PackedRefsPath())
	if e != nil {
		if os.IsNotExist(e) {
			return nil, nil
		}
		return nil, err.Wrap(e, pkgName, "read_packed_refs")
	}
	return parsePacked(data)
}

func parsePacked(data []byte) ([]packedEntry, error) {
	var entries []packedEntry

	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if after, ok := strings.CutPrefix(line, "^"); ok {
			if len(entries) == 0 {
				return nil, err.New(pkgName, err.CodeInvalidFormat, "read_packed_refs",
					"peeled line before any ref record", nil)
			}
			peeled, pe := oid.Parse(strings.TrimSpace(after))
			if pe != nil {
				return nil, err.New(pkgName, err.CodeInvalidFormat, "read_packed_refs",
					"unparseable peeled line", pe)
			}
			entries[len(entries)-1].Peeled = peeled
			entries[len(entries)-1].HasPeeled = true
			continue
		}

		sp := strings.IndexByte(line, ' ')
		if sp != oid.HexLen {
			return nil, err.New(pkgName, err.CodeInvalidFormat, "read_packed_refs",
				"malformed packed record", nil)
		}
		id, pe := oid.Parse(line[:sp])
		if pe != nil {
			return nil, err.New(pkgName, err.CodeInvalidFormat, "read_packed_refs",
				"unparseable packed record", pe)
		}
		entries = append(entries, packedEntry{Name: line[sp+1:], OID: id})
	}
	if e := scanner.Err(); e != nil {
		return nil, err.Wrap(e, pkgName, "read_packed_refs")
	}
	return entries, nil
}

// packedLookup binary-searches the catalog for refname.
func (b *Backend) packedLookup(refname string) (packedEntry, bool) {
	entries, e := b.readPacked()
	if e != nil {
		return packedEntry{}, false
	}
	i := sort.Search(len(entries), func(i int) bool {
		return entries[i].Name >= refname
	})
	if i < len(entries) && entries[i].Name == refname {
		return entries[i], true
	}
	return packedEntry{}, false
}

// formatPacked serializes entries into the on-disk catalog form.
func formatPacked(entries []packedEntry) []byte {
	var buf bytes.Buffer
	buf.WriteString(packedHeader)
	for _, e := range entries {
		buf.WriteString(e.OID.String())
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte('\n')
		if e.HasPeeled {
			buf.WriteByte('^')
			buf.WriteString(e.Peeled.String())
			buf.WriteByte('\n')
		}
	}
	return buf.Bytes()
}

// withPackedLock runs fn on the current catalog under the single global
// packed-refs lock and writes back whatever fn returns.
func (b *Backend) withPackedLock(fn func(entries []packedEntry) ([]packedEntry, error)) error {
	lock, e := lockfile.Acquire(b.root.PackedRefsPath(), lockfile.Options{Timeout: b.lockTimeout})
	if e != nil {
		return refs.LockError(pkgName, "packed-refs", e)
	}

	entries, e := b.readPacked()
	if e != nil {
		lock.Rollback()
		return e
	}

	updated, e := fn(entries)
	if e != nil {
		lock.Rollback()
		return e
	}

	sort.Slice(updated, func(i, j int) bool { return updated[i].Name < updated[j].Name })

	if e := lock.Write(formatPacked(updated)); e != nil {
		lock.Rollback()
		return e
	}
	return lock.Commit()
}

// rewritePackedWithout removes the named refs from the catalog, taking the
// lock only when at least one of them is actually packed.
func (b *Backend) rewritePackedWithout(names []string) error {
	entries, e := b.readPacked()
	if e != nil {
		return e
	}
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		drop[n] = true
	}
	found := false
	for _, entry := range entries {
		if drop[entry.Name] {
			found = true
			break
		}
	}
	if !found {
		return nil
	}

	return b.withPackedLock(func(entries []packedEntry) ([]packedEntry, error) {
		kept := entries[:0]
		for _, entry := range entries {
			if !drop[entry.Name] {
				kept = append(kept, entry)
			}
		}
		return kept, nil
	})
}

// PackRefs migrates loose direct refs under refs/ into the packed catalog.
// Symbolic refs stay loose. With prune, packed loose files are removed.
func (b *Backend) PackRefs(prune bool) error {
	loose, e := b.looseRefs("refs/")
	if e != nil {
		return e
	}

	var packed []string
	e = b.withPackedLock(func(entries []packedEntry) ([]packedEntry, error) {
		byName := make(map[string]int, len(entries))
		for i, entry := range entries {
			byName[entry.Name] = i
		}

		for _, name := range loose {
			raw, re := b.ReadRaw(name)
			if re != nil || raw.IsSymbolic() {
				continue
			}
			if i, ok := byName[name]; ok {
				entries[i].OID = raw.OID
			} else {
				entries = append(entries, packedEntry{Name: name, OID: raw.OID})
			}
			packed = append(packed, name)
		}
		return entries, nil
	})
	if e != nil {
		return e
	}

	if prune {
		for _, name := range packed {
			if e := b.removeLoose(name); e != nil {
				return e
			}
		}
	}
	return nil
}
