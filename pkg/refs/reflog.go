package refs

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/utkarsh5026/RefStore/pkg/common/err"
	"github.com/utkarsh5026/RefStore/pkg/oid"
)

// ReflogEntry is one record of the history a reference has held.
//
// The serialized form is a single line:
//
//	<40hex> SP <40hex> SP <identity-with-email> SP <unix-seconds> SP <±HHMM> [TAB <message>] LF
type ReflogEntry struct {
	Old      oid.OID
	New      oid.OID
	Identity string // "Name <email>"
	Time     int64  // unix seconds
	TZ       int    // signed HHMM offset, e.g. +0530 carried as 530
	Message  string
}

// reflogMinLen is the minimum length of a serialized entry including the
// trailing newline: two OIDs, their two separators, and the newline. The
// identity, timestamp and zone fields are checked separately.
const reflogMinLen = 83

// NormalizeReflogMessage prepares a free-form message for single-line
// storage: leading whitespace is dropped, embedded newlines and runs of
// whitespace collapse to single spaces, and trailing whitespace is trimmed.
func NormalizeReflogMessage(msg string) string {
	var b strings.Builder
	wasSpace := true
	for i := 0; i < len(msg); i++ {
		c := msg[i]
		if isSpace(c) {
			if wasSpace {
				continue
			}
			wasSpace = true
			b.WriteByte(' ')
			continue
		}
		wasSpace = false
		b.WriteByte(c)
	}
	return strings.TrimRight(b.String(), " ")
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\v' || c == '\f' || c == '\r'
}

// Encode serializes the entry into its line form, newline included.
func (e *ReflogEntry) Encode() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s %s %s %d %+05d", e.Old, e.New, e.Identity, e.Time, e.TZ)
	if msg := NormalizeReflogMessage(e.Message); msg != "" {
		b.WriteByte('\t')
		b.WriteString(msg)
	}
	b.WriteByte('\n')
	return b.String()
}

// DecodeReflogLine parses one serialized reflog line. The trailing newline
// is optional. Lines shorter than the minimum or with separators out of
// position are rejected.
func DecodeReflogLine(line string) (*ReflogEntry, error) {
	withNL := line
	if !strings.HasSuffix(withNL, "\n") {
		withNL += "\n"
	}
	if len(withNL) < reflogMinLen {
		return nil, corruptReflog("line too short")
	}
	line = withNL[:len(withNL)-1]

	if line[40] != ' ' || line[81] != ' ' {
		return nil, corruptReflog("separator out of position")
	}
	old, e := oid.Parse(line[:40])
	if e != nil {
		return nil, corruptReflog("bad old value")
	}
	newOID, e := oid.Parse(line[41:81])
	if e != nil {
		return nil, corruptReflog("bad new value")
	}

	rest := line[82:]
	gt := strings.IndexByte(rest, '>')
	if gt < 0 || gt+1 >= len(rest) || rest[gt+1] != ' ' {
		return nil, corruptReflog("identity not terminated")
	}
	identity := rest[:gt+1]

	fields := rest[gt+2:]
	sp := strings.IndexByte(fields, ' ')
	if sp <= 0 {
		return nil, corruptReflog("missing timestamp")
	}
	ts, e := strconv.ParseInt(fields[:sp], 10, 64)
	if e != nil || ts == 0 {
		return nil, corruptReflog("bad timestamp")
	}

	zone := fields[sp+1:]
	var message string
	if tab := strings.IndexByte(zone, '\t'); tab >= 0 {
		message = zone[tab+1:]
		zone = zone[:tab]
	}
	if len(zone) != 5 || (zone[0] != '+' && zone[0] != '-') {
		return nil, corruptReflog("bad timezone")
	}
	for i := 1; i < 5; i++ {
		if zone[i] < '0' || zone[i] > '9' {
			return nil, corruptReflog("bad timezone")
		}
	}
	tz, _ := strconv.Atoi(zone)

	return &ReflogEntry{
		Old:      old,
		New:      newOID,
		Identity: identity,
		Time:     ts,
		TZ:       tz,
		Message:  message,
	}, nil
}

func corruptReflog(detail string) error {
	return err.New(pkgName, err.CodeInvalidFormat, "decode_reflog", detail, nil)
}
