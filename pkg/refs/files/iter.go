package files

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/utkarsh5026/RefStore/pkg/common/logger"
	"github.com/utkarsh5026/RefStore/pkg/oid"
	"github.com/utkarsh5026/RefStore/pkg/refs"
)

func resolvedOID(r *refs.Resolved) oid.OID {
	if r == nil {
		return oid.Zero
	}
	return r.OID
}

// looseRefs walks the loose tree and returns the sorted refnames whose name
// begins with prefix. Lockfiles in flight are not refs.
func (b *Backend) looseRefs(prefix string) ([]string, error) {
	root := b.root.String()
	start := b.root.RefsPath()

	var names []string
	e := filepath.WalkDir(start, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if d.IsDir() || strings.HasSuffix(path, ".lock") {
			return nil
		}
		rel, e := filepath.Rel(root, path)
		if e != nil {
			return e
		}
		name := filepath.ToSlash(rel)
		if strings.HasPrefix(name, prefix) {
			names = append(names, name)
		}
		return nil
	})
	if e != nil && !os.IsNotExist(e) {
		return nil, e
	}
	sort.Strings(names)
	return names, nil
}

// ForEachRef walks refs in ascending refname order, merging the loose tree
// with the packed catalog; a loose ref shadows its packed entry. Broken
// refs are skipped with a warning unless IncludeBroken is set.
func (b *Backend) ForEachRef(base string, trim int, flags refs.IterFlag, fn refs.RefFn) error {
	if base == "" {
		base = "refs/"
		trim = 0
	}

	loose, e := b.looseRefs(base)
	if e != nil {
		return e
	}
	packed, e := b.readPacked()
	if e != nil {
		return e
	}

	seen := make(map[string]bool, len(loose))
	names := make([]string, 0, len(loose)+len(packed))
	for _, name := range loose {
		seen[name] = true
		names = append(names, name)
	}
	for _, entry := range packed {
		if strings.HasPrefix(entry.Name, base) && !seen[entry.Name] {
			names = append(names, entry.Name)
		}
	}
	sort.Strings(names)

	for _, name := range names {
		if e := b.visitRef(name, trim, flags, fn); e != nil {
			if e == refs.ErrStopIteration {
				return nil
			}
			return e
		}
	}
	return nil
}

func (b *Backend) visitRef(name string, trim int, flags refs.IterFlag, fn refs.RefFn) error {
	resolved, e := refs.ResolveRef(b, name, 0)
	display := name
	if trim > 0 && trim <= len(name) {
		display = name[trim:]
	}

	if e != nil {
		if flags&refs.IncludeBroken != 0 {
			return fn(display, resolvedOID(resolved), refs.IsBroken)
		}
		if strings.Contains(name, "/") {
			logger.Warn(fmt.Sprintf("ignoring broken ref %s", name))
		}
		return nil
	}

	bits := resolved.Bits
	if bits&refs.IsBroken != 0 && flags&refs.IncludeBroken == 0 {
		logger.Warn(fmt.Sprintf("ignoring broken ref %s", name))
		return nil
	}
	if resolved.OID.IsZero() && flags&refs.IncludeBroken == 0 {
		// A symref whose chain ends nowhere has no value to report.
		return nil
	}
	if raw, re := b.ReadRaw(name); re == nil && raw.IsSymbolic() {
		bits |= refs.IsSymref
	}
	return fn(display, resolved.OID, bits)
}
