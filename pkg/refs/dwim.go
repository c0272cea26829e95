package refs

import (
	"fmt"
	"strings"

	"github.com/utkarsh5026/RefStore/pkg/common/logger"
	"github.com/utkarsh5026/RefStore/pkg/oid"
)

// revParseRules are the expansions tried, in order, when a short name is
// looked up. "%s" stands for the short name.
var revParseRules = []string{
	"%s",
	"refs/%s",
	"refs/tags/%s",
	"refs/heads/%s",
	"refs/remotes/%s",
	"refs/remotes/%s/HEAD",
}

// DwimRef expands a short name to a full refname by trying each rule in
// order, returning the first match plus the number of rules that matched.
// With ambiguity warnings enabled the scan continues past the first match
// and warns when more than one rule resolves.
func (s *Store) DwimRef(short string) (refname string, id oid.OID, found int) {
	for _, rule := range revParseRules {
		full := fmt.Sprintf(rule, short)
		if !CheckFormat(full, AllowOneLevel) {
			continue
		}

		resolved, e := s.Resolve(full, Reading)
		if e == nil {
			found++
			if found == 1 {
				refname = resolved.Name
				id = resolved.OID
			}
			if !s.warnAmbiguous {
				break
			}
			if found > 1 {
				logger.Warn("refname is ambiguous", "short", short, "also", full)
			}
			continue
		}

		if raw, re := s.ReadRaw(full); re == nil && raw.IsSymbolic() && full != Head {
			logger.Warn("ignoring dangling symref", "refname", full)
		}
	}
	return refname, id, found
}

// DwimLog is DwimRef restricted to refs that have a reflog: the result is
// the refname whose log should be consulted for "@{...}" style queries.
func (s *Store) DwimLog(short string) (refname string, id oid.OID, found int) {
	for _, rule := range revParseRules {
		full := fmt.Sprintf(rule, short)
		if !CheckFormat(full, AllowOneLevel) {
			continue
		}

		resolved, e := s.Resolve(full, Reading)
		if e != nil {
			continue
		}

		var it string
		switch {
		case s.ReflogExists(full):
			it = full
		case resolved.Name != full && s.ReflogExists(resolved.Name):
			it = resolved.Name
		default:
			continue
		}

		found++
		if found == 1 {
			refname = it
			id = resolved.OID
		}
		if !s.warnAmbiguous {
			break
		}
	}
	return refname, id, found
}

// ShortenRef picks the shortest form of refname that still expands back to
// it unambiguously through the rule list. In strict mode every other rule
// must fail to resolve the candidate; otherwise only rules listed before
// the matched one are checked.
func (s *Store) ShortenRef(refname string, strict bool) string {
	// Rules are tried longest-expansion first; the first rule ("%s")
	// always matches and is skipped.
	for i := len(revParseRules) - 1; i > 0; i-- {
		short, ok := matchRule(revParseRules[i], refname)
		if !ok {
			continue
		}

		rulesToFail := i
		if strict {
			rulesToFail = len(revParseRules)
		}

		ambiguous := false
		for j := 0; j < rulesToFail; j++ {
			if j == i {
				continue
			}
			candidate := fmt.Sprintf(revParseRules[j], short)
			if s.RefExists(candidate) {
				ambiguous = true
				break
			}
		}
		if !ambiguous {
			return short
		}
	}
	return refname
}

// matchRule extracts the short name when refname fits the rule's shape.
func matchRule(rule, refname string) (string, bool) {
	idx := strings.Index(rule, "%s")
	prefix, suffix := rule[:idx], rule[idx+2:]

	if !strings.HasPrefix(refname, prefix) || !strings.HasSuffix(refname, suffix) {
		return "", false
	}
	short := refname[len(prefix) : len(refname)-len(suffix)]
	if short == "" {
		return "", false
	}
	return short, true
}
