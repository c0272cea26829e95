package refs

import (
	"fmt"
	"time"

	"github.com/utkarsh5026/RefStore/pkg/common/err"
	"github.com/utkarsh5026/RefStore/pkg/common/logger"
	"github.com/utkarsh5026/RefStore/pkg/oid"
)

// RefAtResult is the value a ref held at a point in its history.
type RefAtResult struct {
	OID     oid.OID
	Message string

	// CutoffTime/CutoffTZ describe the entry the answer came from
	CutoffTime int64
	CutoffTZ   int

	// Entries is the number of records walked
	Entries int

	// Exact is false when the requested point predates the whole log and
	// the oldest entry was used instead
	Exact bool
}

// RefAt walks refname's reflog newest-first to find the value it held at
// the given time, or cnt entries back when cnt is non-negative (cnt 0 means
// "the newest entry"). Gaps in the log are reported as warnings; reflogs
// are append-only but expiry can remove runs of entries.
func (s *Store) RefAt(refname string, at time.Time, cnt int) (*RefAtResult, error) {
	res := &RefAtResult{}
	atUnix := at.Unix()

	var prevOld oid.OID
	var havePrev bool

	e := s.ForEachReflogEntReverse(refname, func(entry *ReflogEntry) error {
		res.Entries++

		if entry.Time <= atUnix || cnt == 0 {
			res.Message = entry.Message
			res.CutoffTime = entry.Time
			res.CutoffTZ = entry.TZ
			res.OID = entry.New
			res.Exact = true

			// prevOld still holds the old value of the record one step
			// newer than this one; a mismatch means expiry ate entries.
			if havePrev && !prevOld.IsZero() && prevOld != entry.New {
				logger.Warn("reflog has gap",
					"refname", refname,
					"after", time.Unix(entry.Time, 0).Format(time.RFC1123Z))
			}
			return ErrStopIteration
		}

		prevOld = entry.Old
		havePrev = true
		if cnt > 0 {
			cnt--
		}
		return nil
	})
	if e != nil {
		return nil, e
	}

	if res.Entries == 0 {
		return nil, err.New(pkgName, err.CodeNotFound, "ref_at",
			fmt.Sprintf("log for %q is empty", refname), nil)
	}
	if res.Exact {
		return res, nil
	}

	// The requested point predates the log: fall back to the oldest entry.
	e = s.ForEachReflogEnt(refname, func(entry *ReflogEntry) error {
		res.Message = entry.Message
		res.CutoffTime = entry.Time
		res.CutoffTZ = entry.TZ
		res.OID = entry.Old
		if res.OID.IsZero() {
			res.OID = entry.New
		}
		return ErrStopIteration
	})
	if e != nil {
		return nil, e
	}
	return res, nil
}
