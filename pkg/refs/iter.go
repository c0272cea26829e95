package refs

import (
	"path"
	"strings"

	"github.com/utkarsh5026/RefStore/pkg/oid"
)

// ForEachRef walks refs whose name begins with prefix in ascending refname
// order, trimming trim leading bytes before invoking fn. A non-nil error
// from fn stops the iteration and becomes its result; ErrStopIteration
// stops it cleanly. Broken refs are skipped unless IncludeBroken is set.
func (s *Store) ForEachRef(prefix string, trim int, flags IterFlag, fn RefFn) error {
	return stopOrErr(s.primary.ForEachRef(prefix, trim, flags, fn))
}

// ForEachRefIn walks refs under prefix, trimming the prefix itself.
func (s *Store) ForEachRefIn(prefix string, fn RefFn) error {
	return s.ForEachRef(prefix, len(prefix), 0, fn)
}

// ForEachBranch walks refs/heads/.
func (s *Store) ForEachBranch(fn RefFn) error {
	return s.ForEachRefIn(HeadsPrefix, fn)
}

// ForEachTag walks refs/tags/.
func (s *Store) ForEachTag(fn RefFn) error {
	return s.ForEachRefIn(TagsPrefix, fn)
}

// ForEachRemoteRef walks refs/remotes/.
func (s *Store) ForEachRemoteRef(fn RefFn) error {
	return s.ForEachRefIn(RemotesPrefix, fn)
}

// ForEachReplaceRef walks refs/replace/, trimming the prefix.
func (s *Store) ForEachReplaceRef(fn RefFn) error {
	return s.ForEachRefIn(ReplacePrefix, fn)
}

// ForEachRawRef walks every ref including broken ones.
func (s *Store) ForEachRawRef(fn RefFn) error {
	return s.ForEachRef("", 0, IncludeBroken, fn)
}

// ForEachNamespacedRef walks refs inside the store's namespace
// ("refs/namespaces/<ns>/refs/").
func (s *Store) ForEachNamespacedRef(fn RefFn) error {
	if s.Namespace == "" {
		return s.ForEachRef("refs/", 0, 0, fn)
	}
	prefix := "refs/namespaces/" + s.Namespace + "/refs/"
	return s.ForEachRef(prefix, 0, 0, fn)
}

// HeadRef resolves HEAD and, if it resolves, invokes fn once for it.
func (s *Store) HeadRef(fn RefFn) error {
	resolved, e := s.Resolve(Head, Reading)
	if e != nil {
		return nil
	}
	bits := RefBits(0)
	raw, e := s.ReadRaw(Head)
	if e == nil && raw.IsSymbolic() {
		bits |= IsSymref
	}
	return stopOrErr(fn(Head, resolved.OID, bits))
}

// ForEachGlobRef walks refs matching a shell glob pattern. A pattern
// without glob specials gets an implied "/*" appended; a pattern not under
// refs/ is anchored there.
func (s *Store) ForEachGlobRef(pattern string, fn RefFn) error {
	real := pattern
	if !strings.HasPrefix(real, "refs/") {
		real = "refs/" + real
	}
	if !strings.ContainsAny(pattern, "*?[") {
		if !strings.HasSuffix(real, "/") {
			real += "/"
		}
		real += "*"
	}

	// Walk from the longest literal prefix.
	literal := real
	if i := strings.IndexAny(real, "*?["); i >= 0 {
		literal = real[:i]
	}

	return s.ForEachRef(literal, 0, 0, func(refname string, id oid.OID, bits RefBits) error {
		if matched, e := path.Match(real, refname); e != nil || !matched {
			// path.Match stops '*' at '/'; ref globs let a trailing
			// wildcard span whole subtrees.
			if !globMatchComponents(real, refname) {
				return nil
			}
		}
		return fn(refname, id, bits)
	})
}

// globMatchComponents matches pattern against name letting a trailing "*"
// span '/' the way ref globs do.
func globMatchComponents(pattern, name string) bool {
	if strings.HasSuffix(pattern, "/*") {
		base := strings.TrimSuffix(pattern, "/*")
		return strings.HasPrefix(name, base+"/")
	}
	matched, e := path.Match(pattern, name)
	return e == nil && matched
}

// WarnDanglingSymrefs reports, via warn, every symref that points at one of
// the (just deleted) refnames.
func (s *Store) WarnDanglingSymrefs(refnames []string, warn func(refname string)) error {
	targets := make(map[string]bool, len(refnames))
	for _, n := range refnames {
		targets[n] = true
	}

	return s.ForEachRawRef(func(refname string, id oid.OID, bits RefBits) error {
		if bits&IsSymref == 0 {
			return nil
		}
		raw, e := s.ReadRaw(refname)
		if e != nil || !raw.IsSymbolic() {
			return nil
		}
		if targets[raw.Target] {
			warn(refname)
		}
		return nil
	})
}
