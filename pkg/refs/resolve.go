package refs

import (
	"errors"

	"github.com/utkarsh5026/RefStore/pkg/oid"
)

// MaxSymrefDepth bounds symbolic-reference chains. A chain longer than this
// (which includes any cycle) fails with TOO_DEEP.
const MaxSymrefDepth = 5

// SymrefPrefix introduces a symbolic target in a stored ref value.
const SymrefPrefix = "ref: "

// Resolved is the outcome of following a reference to its leaf.
type Resolved struct {
	// Name is the refname of the final hop: the leaf for a full resolution,
	// or the first symbolic target under NoRecurse.
	Name string

	// OID is the leaf value; zero under NoRecurse or for a missing leaf
	// outside Reading mode.
	OID oid.OID

	// Bits accumulates findings across hops. IsSymref is set only when
	// NoRecurse stopped at a symbolic hop.
	Bits RefBits
}

// RawReader is the single-hop read every resolution walks over. Backends
// satisfy it; the store supplies a router that picks the backend per hop.
type RawReader interface {
	ReadRaw(refname string) (RawRef, error)
}

// ResolveRef follows refname through the given single-hop reader until it
// reaches a direct value.
//
//   - A chain longer than MaxSymrefDepth hops fails with TOO_DEEP.
//   - Reading makes a missing leaf fail with NOT_FOUND instead of
//     returning a zeroed OID.
//   - NoRecurse stops after the first hop.
//   - AllowBadName lets a syntactically invalid (but safe) starting name
//     resolve; invalid names encountered mid-chain mark the result broken
//     and fail unless the same leniency applies.
func ResolveRef(b RawReader, refname string, flags ResolveFlag) (*Resolved, error) {
	res := &Resolved{Name: refname}
	badName := false

	if !CheckFormat(refname, AllowOneLevel) {
		res.Bits |= BadName
		if flags&AllowBadName == 0 || !IsSafe(refname) {
			return nil, BadNameError("resolve", refname)
		}
		badName = true
	}

	for depth := 0; depth <= MaxSymrefDepth; depth++ {
		raw, err := b.ReadRaw(res.Name)
		if err != nil {
			if !errors.Is(err, ErrNotExist) {
				return nil, err
			}
			res.OID = oid.Zero
			if badName {
				res.Bits |= IsBroken
			}
			if flags&Reading != 0 {
				return nil, err
			}
			return res, nil
		}

		if !raw.IsSymbolic() {
			res.OID = raw.OID
			if badName {
				res.OID = oid.Zero
				res.Bits |= IsBroken
			} else if raw.OID.IsZero() {
				res.Bits |= IsBroken
			}
			return res, nil
		}

		res.Name = raw.Target
		if flags&NoRecurse != 0 {
			// IsSymref reports only a resolution stopped at the symbolic
			// hop; a fully-followed chain comes back with plain bits.
			res.Bits |= IsSymref
			res.OID = oid.Zero
			return res, nil
		}

		if !CheckFormat(raw.Target, AllowOneLevel) {
			res.Bits |= IsBroken | BadName
			if flags&AllowBadName == 0 || !IsSafe(raw.Target) {
				return nil, brokenError("resolve", res.Name)
			}
			badName = true
		}
	}

	return nil, ErrTooDeep
}
