package files

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/utkarsh5026/RefStore/pkg/common/err"
	"github.com/utkarsh5026/RefStore/pkg/oid"
	"github.com/utkarsh5026/RefStore/pkg/refs"
)

var (
	oid1 = oid.MustParse(strings.Repeat("11", 20))
	oid2 = oid.MustParse(strings.Repeat("22", 20))
	oid3 = oid.MustParse(strings.Repeat("33", 20))
)

func testBackend(t *testing.T) *Backend {
	t.Helper()

	b := New(t.TempDir(), refs.BackendOptions{
		Committer:        "Tester <tester@example.com>",
		LogAllRefUpdates: true,
	})
	if e := b.InitDB(); e != nil {
		t.Fatalf("InitDB failed: %v", e)
	}
	return b
}

// commitOne stages and commits a single update through the backend.
func commitOne(t *testing.T, b *Backend, refname string, newOID, oldOID *oid.OID, flags refs.UpdateFlag, msg string) error {
	t.Helper()

	tx := refs.NewTransaction()
	tx.Committer = b.opts.Committer
	if e := tx.Update(refname, newOID, oldOID, flags, msg); e != nil {
		return e
	}
	return b.Commit(tx, []string{refname})
}

func TestReadRaw_LooseFormats(t *testing.T) {
	b := testBackend(t)

	tests := []struct {
		name    string
		content string
		want    refs.RawRef
		broken  bool
	}{
		{"plain oid", oid1.String() + "\n", refs.RawRef{OID: oid1}, false},
		{"no newline", oid1.String(), refs.RawRef{OID: oid1}, false},
		{"leading whitespace oid", "  " + oid1.String() + "\n", refs.RawRef{OID: oid1}, false},
		{"symref", "ref: refs/heads/main\n", refs.RawRef{Target: "refs/heads/main"}, false},
		{"symref extra space", "ref:   refs/heads/main\n", refs.RawRef{Target: "refs/heads/main"}, false},
		{"garbage", "not a ref\n", refs.RawRef{}, true},
		{"truncated oid", oid1.String()[:20] + "\n", refs.RawRef{}, true},
		{"oid with trailing junk", oid1.String() + "x\n", refs.RawRef{}, true},
		{"whitespace before symref", "  ref: refs/heads/main\n", refs.RawRef{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := b.root.RefPath("refs/heads/probe")
			if e := os.MkdirAll(filepath.Dir(path), 0o755); e != nil {
				t.Fatal(e)
			}
			if e := os.WriteFile(path, []byte(tt.content), 0o644); e != nil {
				t.Fatal(e)
			}

			raw, e := b.ReadRaw("refs/heads/probe")
			if tt.broken {
				if !err.IsCode(e, err.CodeBroken) {
					t.Errorf("ReadRaw(%q) = (%v, %v), want BROKEN", tt.content, raw, e)
				}
				return
			}
			if e != nil {
				t.Fatalf("ReadRaw failed: %v", e)
			}
			if raw != tt.want {
				t.Errorf("ReadRaw = %+v, want %+v", raw, tt.want)
			}
		})
	}
}

func TestReadRaw_Missing(t *testing.T) {
	b := testBackend(t)
	if _, e := b.ReadRaw("refs/heads/absent"); !errors.Is(e, refs.ErrNotExist) {
		t.Errorf("ReadRaw(absent) = %v, want ErrNotExist", e)
	}
}

func TestCreateThenRead(t *testing.T) {
	b := testBackend(t)

	zero := oid.Zero
	if e := commitOne(t, b, "refs/heads/main", &oid1, &zero, 0, "created"); e != nil {
		t.Fatalf("create failed: %v", e)
	}

	resolved, e := refs.ResolveRef(b, "refs/heads/main", refs.Reading)
	if e != nil {
		t.Fatalf("resolve failed: %v", e)
	}
	if resolved.Name != "refs/heads/main" || resolved.OID != oid1 || resolved.Bits != 0 {
		t.Errorf("resolve = %+v", resolved)
	}
}

func TestCreate_ExistingFails(t *testing.T) {
	b := testBackend(t)

	zero := oid.Zero
	if e := commitOne(t, b, "refs/heads/main", &oid1, &zero, 0, ""); e != nil {
		t.Fatalf("create failed: %v", e)
	}
	e := commitOne(t, b, "refs/heads/main", &oid2, &zero, 0, "")
	if !err.IsCode(e, err.CodeLockError) {
		t.Errorf("second create = %v, want LOCK_ERROR", e)
	}

	// The value is unchanged.
	raw, _ := b.ReadRaw("refs/heads/main")
	if raw.OID != oid1 {
		t.Errorf("ref = %s after failed create, want %s", raw.OID, oid1)
	}
}

func TestCAS_Mismatch(t *testing.T) {
	b := testBackend(t)

	if e := commitOne(t, b, "refs/heads/main", &oid1, nil, 0, ""); e != nil {
		t.Fatalf("setup failed: %v", e)
	}

	// Expect oid3 while the ref holds oid1.
	e := commitOne(t, b, "refs/heads/main", &oid2, &oid3, 0, "")
	if !err.IsCode(e, err.CodeLockError) {
		t.Errorf("CAS mismatch = %v, want LOCK_ERROR", e)
	}

	raw, _ := b.ReadRaw("refs/heads/main")
	if raw.OID != oid1 {
		t.Errorf("ref changed by failed CAS: %s", raw.OID)
	}
}

func TestDelete_WrongOldFails(t *testing.T) {
	b := testBackend(t)

	if e := commitOne(t, b, "refs/heads/main", &oid1, nil, 0, ""); e != nil {
		t.Fatalf("setup failed: %v", e)
	}

	zero := oid.Zero
	e := commitOne(t, b, "refs/heads/main", &zero, &oid2, 0, "")
	if !err.IsCode(e, err.CodeLockError) {
		t.Errorf("delete with wrong old = %v, want LOCK_ERROR", e)
	}
	if _, e := b.ReadRaw("refs/heads/main"); e != nil {
		t.Errorf("ref vanished after failed delete: %v", e)
	}
}

func TestDirectoryFileConflicts(t *testing.T) {
	b := testBackend(t)

	if e := commitOne(t, b, "refs/heads/foo", &oid1, nil, 0, ""); e != nil {
		t.Fatalf("setup failed: %v", e)
	}

	// refs/heads/foo exists: refs/heads/foo/bar may not be created.
	e := commitOne(t, b, "refs/heads/foo/bar", &oid2, nil, 0, "")
	if !err.IsCode(e, err.CodeNameConflict) {
		t.Errorf("create under existing file = %v, want NAME_CONFLICT", e)
	}

	b2 := testBackend(t)
	if e := commitOne(t, b2, "refs/heads/foo/bar", &oid1, nil, 0, ""); e != nil {
		t.Fatalf("setup failed: %v", e)
	}

	// refs/heads/foo/bar exists: refs/heads/foo may not be created.
	e = commitOne(t, b2, "refs/heads/foo", &oid2, nil, 0, "")
	if !err.IsCode(e, err.CodeNameConflict) {
		t.Errorf("create over existing directory = %v, want NAME_CONFLICT", e)
	}
}

func TestLooseShadowsPacked(t *testing.T) {
	b := testBackend(t)

	if e := commitOne(t, b, "refs/heads/main", &oid1, nil, 0, ""); e != nil {
		t.Fatalf("setup failed: %v", e)
	}
	if e := b.PackRefs(true); e != nil {
		t.Fatalf("PackRefs failed: %v", e)
	}

	// Now only packed. Update writes a loose file without touching packed.
	if e := commitOne(t, b, "refs/heads/main", &oid2, &oid1, 0, ""); e != nil {
		t.Fatalf("update failed: %v", e)
	}

	if entry, ok := b.packedLookup("refs/heads/main"); !ok || entry.OID != oid1 {
		t.Fatalf("packed entry = %+v, want stale %s", entry, oid1)
	}
	raw, e := b.ReadRaw("refs/heads/main")
	if e != nil || raw.OID != oid2 {
		t.Errorf("ReadRaw = (%+v, %v), want loose %s", raw, e, oid2)
	}
}

func TestDelete_RemovesPackedEntry(t *testing.T) {
	b := testBackend(t)

	if e := commitOne(t, b, "refs/heads/main", &oid1, nil, 0, ""); e != nil {
		t.Fatalf("setup failed: %v", e)
	}
	if e := b.PackRefs(true); e != nil {
		t.Fatalf("PackRefs failed: %v", e)
	}

	zero := oid.Zero
	if e := commitOne(t, b, "refs/heads/main", &zero, &oid1, 0, ""); e != nil {
		t.Fatalf("delete failed: %v", e)
	}

	if _, e := b.ReadRaw("refs/heads/main"); !errors.Is(e, refs.ErrNotExist) {
		t.Errorf("ReadRaw after delete = %v, want ErrNotExist", e)
	}
	if _, ok := b.packedLookup("refs/heads/main"); ok {
		t.Error("packed entry survived deletion")
	}
}

func TestIteration_Order(t *testing.T) {
	b := testBackend(t)

	for name, id := range map[string]oid.OID{
		"refs/heads/zeta":  oid1,
		"refs/heads/alpha": oid2,
		"refs/tags/v1":     oid3,
	} {
		v := id
		if e := commitOne(t, b, name, &v, nil, 0, ""); e != nil {
			t.Fatalf("setup %s failed: %v", name, e)
		}
	}
	// Pack them, keeping the loose files, to exercise the merge.
	if e := b.PackRefs(false); e != nil {
		t.Fatalf("PackRefs failed: %v", e)
	}

	var got []string
	e := b.ForEachRef("refs/", 0, 0, func(refname string, id oid.OID, bits refs.RefBits) error {
		got = append(got, refname)
		return nil
	})
	if e != nil {
		t.Fatalf("ForEachRef failed: %v", e)
	}

	want := []string{"refs/heads/alpha", "refs/heads/zeta", "refs/tags/v1"}
	if len(got) != len(want) {
		t.Fatalf("visited %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("visit[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}

func TestIteration_SkipsBroken(t *testing.T) {
	b := testBackend(t)

	if e := commitOne(t, b, "refs/heads/good", &oid1, nil, 0, ""); e != nil {
		t.Fatalf("setup failed: %v", e)
	}
	path := b.root.RefPath("refs/heads/bad")
	if e := os.WriteFile(path, []byte("garbage\n"), 0o644); e != nil {
		t.Fatal(e)
	}

	var visited []string
	if e := b.ForEachRef("refs/", 0, 0, func(refname string, id oid.OID, bits refs.RefBits) error {
		visited = append(visited, refname)
		return nil
	}); e != nil {
		t.Fatalf("ForEachRef failed: %v", e)
	}
	if len(visited) != 1 || visited[0] != "refs/heads/good" {
		t.Errorf("visited = %v, want only the good ref", visited)
	}

	var withBroken []string
	if e := b.ForEachRef("refs/", 0, refs.IncludeBroken, func(refname string, id oid.OID, bits refs.RefBits) error {
		withBroken = append(withBroken, refname)
		return nil
	}); e != nil {
		t.Fatalf("ForEachRef failed: %v", e)
	}
	if len(withBroken) != 2 {
		t.Errorf("IncludeBroken visited = %v, want both refs", withBroken)
	}
}

func TestSymlinkToleratedOnRead(t *testing.T) {
	b := testBackend(t)

	if e := commitOne(t, b, "refs/heads/main", &oid1, nil, 0, ""); e != nil {
		t.Fatalf("setup failed: %v", e)
	}
	link := b.root.RefPath("refs/heads/alias")
	if e := os.Symlink("refs/heads/main", link); e != nil {
		t.Skipf("symlinks unavailable: %v", e)
	}

	raw, e := b.ReadRaw("refs/heads/alias")
	if e != nil {
		t.Fatalf("ReadRaw(symlink) failed: %v", e)
	}
	if raw.Target != "refs/heads/main" {
		t.Errorf("symlink target = %q, want refs/heads/main", raw.Target)
	}
}

func TestRenameRef(t *testing.T) {
	b := testBackend(t)

	if e := commitOne(t, b, "refs/heads/old", &oid1, nil, 0, "created"); e != nil {
		t.Fatalf("setup failed: %v", e)
	}
	if !b.ReflogExists("refs/heads/old") {
		t.Fatal("expected auto-created reflog")
	}

	if e := b.RenameRef("refs/heads/old", "refs/heads/new", "renamed"); e != nil {
		t.Fatalf("RenameRef failed: %v", e)
	}

	if _, e := b.ReadRaw("refs/heads/old"); !errors.Is(e, refs.ErrNotExist) {
		t.Errorf("old name still readable: %v", e)
	}
	raw, e := b.ReadRaw("refs/heads/new")
	if e != nil || raw.OID != oid1 {
		t.Errorf("new name = (%+v, %v), want %s", raw, e, oid1)
	}
	if !b.ReflogExists("refs/heads/new") {
		t.Error("reflog did not migrate")
	}
}

func TestRenameRef_SymrefRefused(t *testing.T) {
	b := testBackend(t)

	if e := b.CreateSymref("refs/heads/link", "refs/heads/main", ""); e != nil {
		t.Fatalf("CreateSymref failed: %v", e)
	}
	if e := b.RenameRef("refs/heads/link", "refs/heads/other", ""); e == nil {
		t.Error("renaming a symref succeeded, want refusal")
	}
}

func TestPackedRefs_Format(t *testing.T) {
	b := testBackend(t)

	if e := commitOne(t, b, "refs/heads/main", &oid1, nil, 0, ""); e != nil {
		t.Fatalf("setup failed: %v", e)
	}
	if e := b.PackRefs(true); e != nil {
		t.Fatalf("PackRefs failed: %v", e)
	}

	data, e := os.ReadFile(b.root.PackedRefsPath())
	if e != nil {
		t.Fatalf("read packed-refs: %v", e)
	}
	content := string(data)
	if !strings.HasPrefix(content, "# pack-refs with:") {
		t.Errorf("packed-refs missing header: %q", content)
	}
	if !strings.Contains(content, oid1.String()+" refs/heads/main\n") {
		t.Errorf("packed-refs missing record: %q", content)
	}
}
