package files

import (
	"testing"

	"github.com/utkarsh5026/RefStore/pkg/oid"
	"github.com/utkarsh5026/RefStore/pkg/refs"
)

func TestReflog_AppendAndIterate(t *testing.T) {
	b := testBackend(t)

	seq := []oid.OID{oid1, oid2, oid3}
	prev := oid.Zero
	for _, id := range seq {
		v := id
		old := prev
		var oldPtr *oid.OID
		if !old.IsZero() {
			oldPtr = &old
		}
		if e := commitOne(t, b, "refs/heads/main", &v, oldPtr, 0, "step"); e != nil {
			t.Fatalf("update failed: %v", e)
		}
		prev = id
	}

	var forward []oid.OID
	if e := b.ForEachReflogEnt("refs/heads/main", func(entry *refs.ReflogEntry) error {
		forward = append(forward, entry.New)
		return nil
	}); e != nil {
		t.Fatalf("forward iteration failed: %v", e)
	}
	if len(forward) != 3 || forward[0] != oid1 || forward[2] != oid3 {
		t.Errorf("forward = %v", forward)
	}

	var reverse []oid.OID
	if e := b.ForEachReflogEntReverse("refs/heads/main", func(entry *refs.ReflogEntry) error {
		reverse = append(reverse, entry.New)
		return nil
	}); e != nil {
		t.Fatalf("reverse iteration failed: %v", e)
	}
	if len(reverse) != 3 || reverse[0] != oid3 || reverse[2] != oid1 {
		t.Errorf("reverse = %v", reverse)
	}

	// The oldest entry records the first value written.
	if forward[0] != oid1 {
		t.Errorf("first entry new = %s, want %s", forward[0], oid1)
	}
}

func TestReflog_NoAutoCreateOutsideKnownPrefixes(t *testing.T) {
	b := testBackend(t)

	if e := commitOne(t, b, "refs/stash-like/x", &oid1, nil, 0, "msg"); e != nil {
		t.Fatalf("update failed: %v", e)
	}
	if b.ReflogExists("refs/stash-like/x") {
		t.Error("reflog auto-created outside heads/remotes/notes")
	}

	// ForceReflog writes one anyway.
	if e := commitOne(t, b, "refs/stash-like/y", &oid1, nil, refs.ForceReflog, "msg"); e != nil {
		t.Fatalf("update failed: %v", e)
	}
	if !b.ReflogExists("refs/stash-like/y") {
		t.Error("ForceReflog did not create a reflog")
	}
}

func TestReflog_DisabledByConfig(t *testing.T) {
	b := New(t.TempDir(), refs.BackendOptions{
		Committer:        "Tester <tester@example.com>",
		LogAllRefUpdates: false,
	})
	if e := b.InitDB(); e != nil {
		t.Fatal(e)
	}

	if e := commitOne(t, b, "refs/heads/main", &oid1, nil, 0, "msg"); e != nil {
		t.Fatalf("update failed: %v", e)
	}
	if b.ReflogExists("refs/heads/main") {
		t.Error("reflog created with core.logallrefupdates off")
	}
}

func TestReflog_ExpireKeepNone(t *testing.T) {
	b := testBackend(t)

	for _, id := range []oid.OID{oid1, oid2} {
		v := id
		if e := commitOne(t, b, "refs/heads/main", &v, nil, 0, "step"); e != nil {
			t.Fatalf("update failed: %v", e)
		}
	}

	lastKept, e := b.ExpireReflog("refs/heads/main", 0, func(entry *refs.ReflogEntry) bool {
		return false
	})
	if e != nil {
		t.Fatalf("ExpireReflog failed: %v", e)
	}
	if !lastKept.IsZero() {
		t.Errorf("lastKept = %s, want zero", lastKept)
	}

	// The log itself survives, empty.
	if !b.ReflogExists("refs/heads/main") {
		t.Error("reflog file removed by expiry")
	}
	count := 0
	b.ForEachReflogEnt("refs/heads/main", func(entry *refs.ReflogEntry) error {
		count++
		return nil
	})
	if count != 0 {
		t.Errorf("%d entries survived keep-none expiry", count)
	}
}

func TestReflog_ExpireKeepSome(t *testing.T) {
	b := testBackend(t)

	for _, id := range []oid.OID{oid1, oid2, oid3} {
		v := id
		if e := commitOne(t, b, "refs/heads/main", &v, nil, 0, "step"); e != nil {
			t.Fatalf("update failed: %v", e)
		}
	}

	// Keep only the entry whose new value is oid1.
	lastKept, e := b.ExpireReflog("refs/heads/main", 0, func(entry *refs.ReflogEntry) bool {
		return entry.New == oid1
	})
	if e != nil {
		t.Fatalf("ExpireReflog failed: %v", e)
	}
	if lastKept != oid1 {
		t.Errorf("lastKept = %s, want %s", lastKept, oid1)
	}

	var survivors []oid.OID
	b.ForEachReflogEnt("refs/heads/main", func(entry *refs.ReflogEntry) error {
		survivors = append(survivors, entry.New)
		return nil
	})
	if len(survivors) != 1 || survivors[0] != oid1 {
		t.Errorf("survivors = %v, want [%s]", survivors, oid1)
	}
}

func TestReflog_ExpireDryRun(t *testing.T) {
	b := testBackend(t)

	if e := commitOne(t, b, "refs/heads/main", &oid1, nil, 0, "step"); e != nil {
		t.Fatalf("update failed: %v", e)
	}

	if _, e := b.ExpireReflog("refs/heads/main", refs.ExpireDryRun, func(entry *refs.ReflogEntry) bool {
		return false
	}); e != nil {
		t.Fatalf("dry-run expire failed: %v", e)
	}

	count := 0
	b.ForEachReflogEnt("refs/heads/main", func(entry *refs.ReflogEntry) error {
		count++
		return nil
	})
	if count != 1 {
		t.Errorf("dry run pruned entries: %d left, want 1", count)
	}
}

func TestForEachReflog(t *testing.T) {
	b := testBackend(t)

	if e := commitOne(t, b, "refs/heads/a", &oid1, nil, 0, ""); e != nil {
		t.Fatal(e)
	}
	if e := commitOne(t, b, "refs/heads/b", &oid2, nil, 0, ""); e != nil {
		t.Fatal(e)
	}

	var names []string
	if e := b.ForEachReflog(func(refname string) error {
		names = append(names, refname)
		return nil
	}); e != nil {
		t.Fatalf("ForEachReflog failed: %v", e)
	}
	if len(names) != 2 || names[0] != "refs/heads/a" || names[1] != "refs/heads/b" {
		t.Errorf("reflog names = %v", names)
	}
}

func TestDeleteRemovesReflog(t *testing.T) {
	b := testBackend(t)

	if e := commitOne(t, b, "refs/heads/main", &oid1, nil, 0, "created"); e != nil {
		t.Fatal(e)
	}
	zero := oid.Zero
	if e := commitOne(t, b, "refs/heads/main", &zero, &oid1, 0, "gone"); e != nil {
		t.Fatalf("delete failed: %v", e)
	}
	if b.ReflogExists("refs/heads/main") {
		t.Error("reflog survived ref deletion")
	}
}
