package refs

import "strings"

// HideRefs is an ordered list of hide patterns from transfer.hiderefs and
// <section>.hiderefs configuration. Later patterns win, "!" negates, and a
// "^" anchor matches the full name only (no prefix semantics).
type HideRefs struct {
	patterns []hidePattern
}

type hidePattern struct {
	prefix string
	negate bool
	exact  bool
}

// ParseHideRefs builds a matcher from raw configuration values, in order.
// Trailing slashes on a pattern are ignored.
func ParseHideRefs(values []string) *HideRefs {
	h := &HideRefs{}
	for _, v := range values {
		p := hidePattern{}
		if after, ok := strings.CutPrefix(v, "!"); ok {
			p.negate = true
			v = after
		}
		if after, ok := strings.CutPrefix(v, "^"); ok {
			p.exact = true
			v = after
		}
		v = strings.TrimRight(v, "/")
		if v == "" {
			continue
		}
		p.prefix = v
		h.patterns = append(h.patterns, p)
	}
	return h
}

// Hidden reports whether refname is hidden. The last matching pattern
// decides; a name matches a pattern when it equals the pattern or extends
// it with a '/' component (exact patterns match equality only).
func (h *HideRefs) Hidden(refname string) bool {
	if h == nil {
		return false
	}
	hidden := false
	for _, p := range h.patterns {
		if p.matches(refname) {
			hidden = !p.negate
		}
	}
	return hidden
}

func (p hidePattern) matches(refname string) bool {
	if refname == p.prefix {
		return true
	}
	if p.exact {
		return false
	}
	return strings.HasPrefix(refname, p.prefix) && refname[len(p.prefix)] == '/'
}
