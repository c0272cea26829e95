package refs_test

import (
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/utkarsh5026/RefStore/pkg/common/err"
	"github.com/utkarsh5026/RefStore/pkg/oid"
	"github.com/utkarsh5026/RefStore/pkg/refs"

	_ "github.com/utkarsh5026/RefStore/pkg/refs/boltdb"
	_ "github.com/utkarsh5026/RefStore/pkg/refs/files"
)

var (
	oid1 = oid.MustParse(strings.Repeat("11", 20))
	oid2 = oid.MustParse(strings.Repeat("22", 20))
	oid3 = oid.MustParse(strings.Repeat("33", 20))
	oidD = oid.MustParse(strings.Repeat("dd", 20))
	oidE = oid.MustParse(strings.Repeat("ee", 20))
)

// backendCases runs a subtest against a store on each engine.
func backendCases(t *testing.T, fn func(t *testing.T, store *refs.Store)) {
	t.Helper()

	for _, backend := range []string{"files", "boltdb"} {
		t.Run(backend, func(t *testing.T) {
			store, e := refs.Init(t.TempDir(), refs.Options{
				Backend:   backend,
				Committer: "Tester <tester@example.com>",
			})
			require.NoError(t, e)
			t.Cleanup(func() { store.Close() })
			fn(t, store)
		})
	}
}

func TestStore_CreateThenRead(t *testing.T) {
	backendCases(t, func(t *testing.T, store *refs.Store) {
		tx := store.NewTransaction()
		require.NoError(t, tx.Create("refs/heads/main", oid1, 0, "created"))
		_, e := store.Commit(tx)
		require.NoError(t, e)

		resolved, e := store.Resolve("refs/heads/main", refs.Reading)
		require.NoError(t, e)
		require.Equal(t, "refs/heads/main", resolved.Name)
		require.Equal(t, oid1, resolved.OID)
		require.Equal(t, refs.RefBits(0), resolved.Bits)
	})
}

func TestStore_SymrefFollow(t *testing.T) {
	backendCases(t, func(t *testing.T, store *refs.Store) {
		require.NoError(t, store.UpdateRef("", "refs/heads/main", &oid2, nil, refs.NoDeref))

		// HEAD was created by Init pointing at refs/heads/main. A full
		// resolution comes back with plain bits.
		resolved, e := store.Resolve("HEAD", 0)
		require.NoError(t, e)
		require.Equal(t, "refs/heads/main", resolved.Name)
		require.Equal(t, oid2, resolved.OID)
		require.Equal(t, refs.RefBits(0), resolved.Bits)

		noRecurse, e := store.Resolve("HEAD", refs.NoRecurse)
		require.NoError(t, e)
		require.Equal(t, "refs/heads/main", noRecurse.Name)
		require.True(t, noRecurse.OID.IsZero())
		require.NotZero(t, noRecurse.Bits&refs.IsSymref)
	})
}

func TestStore_UpdateThroughHead(t *testing.T) {
	backendCases(t, func(t *testing.T, store *refs.Store) {
		require.NoError(t, store.UpdateRef("", "refs/heads/main", &oid1, nil, 0))

		// Updating HEAD without NoDeref lands on the leaf and logs to both.
		require.NoError(t, store.UpdateRef("moved", "HEAD", &oid2, &oid1, 0))

		resolved, e := store.Resolve("refs/heads/main", refs.Reading)
		require.NoError(t, e)
		require.Equal(t, oid2, resolved.OID)

		raw, e := store.ReadRaw("HEAD")
		require.NoError(t, e)
		require.Equal(t, "refs/heads/main", raw.Target)

		require.True(t, store.ReflogExists("HEAD"))
		var headLog []oid.OID
		require.NoError(t, store.ForEachReflogEnt("HEAD", func(entry *refs.ReflogEntry) error {
			headLog = append(headLog, entry.New)
			return nil
		}))
		require.NotEmpty(t, headLog)
		require.Equal(t, oid2, headLog[len(headLog)-1])
	})
}

func TestStore_CASFailureLeavesRefUntouched(t *testing.T) {
	backendCases(t, func(t *testing.T, store *refs.Store) {
		require.NoError(t, store.UpdateRef("", "refs/heads/r", &oid1, nil, 0))

		e := store.UpdateRef("", "refs/heads/r", &oid2, &oid3, 0)
		require.True(t, err.IsCode(e, err.CodeLockError), "got %v", e)

		resolved, re := store.Resolve("refs/heads/r", refs.Reading)
		require.NoError(t, re)
		require.Equal(t, oid1, resolved.OID)
	})
}

func TestStore_DuplicateNamesRejected(t *testing.T) {
	backendCases(t, func(t *testing.T, store *refs.Store) {
		tx := store.NewTransaction()
		require.NoError(t, tx.Update("refs/heads/dup", &oid1, nil, refs.NoDeref, ""))
		require.NoError(t, tx.Update("refs/heads/dup", &oid2, nil, refs.NoDeref, ""))

		_, e := store.Commit(tx)
		require.True(t, err.IsCode(e, err.CodeGeneric), "got %v", e)

		// Nothing touched storage.
		_, re := store.ReadRaw("refs/heads/dup")
		require.True(t, errors.Is(re, refs.ErrNotExist))
	})
}

func TestStore_TooDeepSymrefChain(t *testing.T) {
	backendCases(t, func(t *testing.T, store *refs.Store) {
		// A five-hop chain to a direct value resolves.
		require.NoError(t, store.UpdateRef("", "refs/heads/leaf", &oid1, nil, refs.NoDeref))
		prev := "refs/heads/leaf"
		for _, name := range []string{"refs/s/1", "refs/s/2", "refs/s/3", "refs/s/4", "refs/s/5"} {
			require.NoError(t, store.CreateSymref(name, prev, ""))
			prev = name
		}

		resolved, e := store.Resolve("refs/s/5", refs.Reading)
		require.NoError(t, e)
		require.Equal(t, oid1, resolved.OID)

		// A sixth hop exceeds the bound.
		require.NoError(t, store.CreateSymref("refs/s/6", "refs/s/5", ""))
		_, e = store.Resolve("refs/s/6", refs.Reading)
		require.True(t, err.IsCode(e, err.CodeTooDeep), "got %v", e)
	})
}

func TestStore_SymrefCycle(t *testing.T) {
	backendCases(t, func(t *testing.T, store *refs.Store) {
		require.NoError(t, store.CreateSymref("refs/cycle/a", "refs/cycle/b", ""))
		require.NoError(t, store.CreateSymref("refs/cycle/b", "refs/cycle/a", ""))

		_, e := store.Resolve("refs/cycle/a", refs.Reading)
		require.True(t, err.IsCode(e, err.CodeTooDeep), "got %v", e)
	})
}

func TestStore_SplitTransactionRouting(t *testing.T) {
	store, e := refs.Init(t.TempDir(), refs.Options{
		Backend:   "boltdb",
		Committer: "Tester <tester@example.com>",
	})
	require.NoError(t, e)
	t.Cleanup(func() { store.Close() })

	// One transaction touching a normal ref and HEAD (per-worktree). The
	// coordinator must route the branch to the key-value engine and HEAD's
	// own update to the files engine.
	require.NoError(t, store.UpdateRef("", "refs/heads/main", &oid1, nil, refs.NoDeref))

	tx := store.NewTransaction()
	require.NoError(t, tx.Update("refs/heads/x", &oid2, nil, 0, "x"))
	require.NoError(t, tx.Update("HEAD", &oid3, nil, 0, "via head"))
	res, e := store.Commit(tx)
	require.NoError(t, e)
	require.Empty(t, res.Warning)

	// HEAD dereferenced onto refs/heads/main in the kv engine.
	resolved, e := store.Resolve("refs/heads/main", refs.Reading)
	require.NoError(t, e)
	require.Equal(t, oid3, resolved.OID)

	resolved, e = store.Resolve("refs/heads/x", refs.Reading)
	require.NoError(t, e)
	require.Equal(t, oid2, resolved.OID)

	// HEAD's reflog lives in the files backend.
	require.True(t, store.ReflogExists("HEAD"))
}

func TestStore_SplitCommitWarning(t *testing.T) {
	dir := t.TempDir()
	store, e := refs.Init(dir, refs.Options{
		Backend:   "boltdb",
		Committer: "Tester <tester@example.com>",
	})
	require.NoError(t, e)
	t.Cleanup(func() { store.Close() })

	// Hold HEAD's lockfile so the files half of the transaction fails
	// after the key-value half has committed.
	lockPath := dir + "/HEAD.lock"
	require.NoError(t, os.WriteFile(lockPath, nil, 0o644))
	defer os.Remove(lockPath)

	tx := store.NewTransaction()
	require.NoError(t, tx.Update("refs/heads/x", &oid1, nil, 0, ""))
	require.NoError(t, tx.Update("HEAD", &oid2, nil, refs.NoDeref, ""))

	res, e := store.Commit(tx)
	require.NoError(t, e)
	require.Equal(t, refs.SplitCommitWarning, res.Warning)

	// The primary commit is not rolled back.
	resolved, re := store.Resolve("refs/heads/x", refs.Reading)
	require.NoError(t, re)
	require.Equal(t, oid1, resolved.OID)
}

func TestStore_ExpireWithUpdateRef(t *testing.T) {
	backendCases(t, func(t *testing.T, store *refs.Store) {
		// Three updates ending at dd...dd; the first entry's new value is
		// ee...ee.
		require.NoError(t, store.UpdateRef("one", "refs/heads/r", &oidE, nil, refs.NoDeref))
		require.NoError(t, store.UpdateRef("two", "refs/heads/r", &oid2, &oidE, refs.NoDeref))
		require.NoError(t, store.UpdateRef("three", "refs/heads/r", &oidD, &oid2, refs.NoDeref))

		e := store.ExpireReflog("refs/heads/r", refs.ExpireUpdateRef, func(entry *refs.ReflogEntry) bool {
			return entry.New == oidE
		})
		require.NoError(t, e)

		resolved, re := store.Resolve("refs/heads/r", refs.Reading)
		require.NoError(t, re)
		require.Equal(t, oidE, resolved.OID)

		var entries []oid.OID
		require.NoError(t, store.ForEachReflogEnt("refs/heads/r", func(entry *refs.ReflogEntry) error {
			entries = append(entries, entry.New)
			return nil
		}))
		require.Equal(t, []oid.OID{oidE}, entries)
		require.True(t, store.ReflogExists("refs/heads/r"))
	})
}

func TestStore_Dwim(t *testing.T) {
	backendCases(t, func(t *testing.T, store *refs.Store) {
		require.NoError(t, store.UpdateRef("", "refs/heads/topic", &oid1, nil, refs.NoDeref))
		require.NoError(t, store.UpdateRef("", "refs/tags/v1", &oid2, nil, refs.NoDeref))

		refname, id, found := store.DwimRef("topic")
		require.Equal(t, 1, found)
		require.Equal(t, "refs/heads/topic", refname)
		require.Equal(t, oid1, id)

		refname, id, found = store.DwimRef("v1")
		require.Equal(t, 1, found)
		require.Equal(t, "refs/tags/v1", refname)
		require.Equal(t, oid2, id)

		// Tags rule is listed before heads: an ambiguous short name picks
		// the tag.
		require.NoError(t, store.UpdateRef("", "refs/heads/v1", &oid3, nil, refs.NoDeref))
		refname, _, found = store.DwimRef("v1")
		require.Equal(t, 2, found)
		require.Equal(t, "refs/tags/v1", refname)

		_, _, found = store.DwimRef("no-such-ref")
		require.Equal(t, 0, found)
	})
}

func TestStore_ShortenRef(t *testing.T) {
	backendCases(t, func(t *testing.T, store *refs.Store) {
		require.NoError(t, store.UpdateRef("", "refs/heads/topic", &oid1, nil, refs.NoDeref))

		require.Equal(t, "topic", store.ShortenRef("refs/heads/topic", false))

		// With a tag of the same name, the branch must stay qualified.
		require.NoError(t, store.UpdateRef("", "refs/tags/topic", &oid2, nil, refs.NoDeref))
		require.Equal(t, "heads/topic", store.ShortenRef("refs/heads/topic", false))
		require.Equal(t, "tags/topic", store.ShortenRef("refs/tags/topic", true))
	})
}

func TestStore_Pseudorefs(t *testing.T) {
	backendCases(t, func(t *testing.T, store *refs.Store) {
		// Write, read back, CAS, delete.
		require.NoError(t, store.WritePseudoRef("MERGE_HEAD", oid1, nil))

		id, e := store.ReadPseudoRef("MERGE_HEAD")
		require.NoError(t, e)
		require.Equal(t, oid1, id)

		e = store.WritePseudoRef("MERGE_HEAD", oid2, &oid3)
		require.True(t, err.IsCode(e, err.CodeLockError), "got %v", e)

		require.NoError(t, store.WritePseudoRef("MERGE_HEAD", oid2, &oid1))

		zero := oid.Zero
		e = store.WritePseudoRef("MERGE_HEAD", oid3, &zero)
		require.True(t, err.IsCode(e, err.CodeLockError), "must-not-exist check, got %v", e)

		require.NoError(t, store.DeletePseudoRef("MERGE_HEAD", &oid2))
		_, e = store.ReadPseudoRef("MERGE_HEAD")
		require.True(t, errors.Is(e, refs.ErrNotExist))
	})
}

func TestStore_IterationFacade(t *testing.T) {
	backendCases(t, func(t *testing.T, store *refs.Store) {
		for name, id := range map[string]oid.OID{
			"refs/heads/a":            oid1,
			"refs/heads/b":            oid2,
			"refs/tags/v1":            oid3,
			"refs/remotes/origin/a":   oid1,
			"refs/heads/feature/x":    oid2,
			"refs/heads/feature/deep": oid3,
		} {
			v := id
			require.NoError(t, store.UpdateRef("", name, &v, nil, refs.NoDeref))
		}

		var branches []string
		require.NoError(t, store.ForEachBranch(func(refname string, id oid.OID, bits refs.RefBits) error {
			branches = append(branches, refname)
			return nil
		}))
		require.Equal(t, []string{"a", "b", "feature/deep", "feature/x"}, branches)

		var tags []string
		require.NoError(t, store.ForEachTag(func(refname string, id oid.OID, bits refs.RefBits) error {
			tags = append(tags, refname)
			return nil
		}))
		require.Equal(t, []string{"v1"}, tags)

		// Early stop propagates cleanly.
		count := 0
		require.NoError(t, store.ForEachRef("refs/", 0, 0, func(refname string, id oid.OID, bits refs.RefBits) error {
			count++
			if count == 2 {
				return refs.ErrStopIteration
			}
			return nil
		}))
		require.Equal(t, 2, count)

		var globbed []string
		require.NoError(t, store.ForEachGlobRef("refs/heads/feature/*", func(refname string, id oid.OID, bits refs.RefBits) error {
			globbed = append(globbed, refname)
			return nil
		}))
		require.Equal(t, []string{"refs/heads/feature/deep", "refs/heads/feature/x"}, globbed)
	})
}

func TestStore_RefAt(t *testing.T) {
	backendCases(t, func(t *testing.T, store *refs.Store) {
		require.NoError(t, store.UpdateRef("one", "refs/heads/r", &oid1, nil, refs.NoDeref))
		require.NoError(t, store.UpdateRef("two", "refs/heads/r", &oid2, &oid1, refs.NoDeref))

		// "Now" lands on the newest entry.
		res, e := store.RefAt("refs/heads/r", time.Now().Add(time.Hour), 0)
		require.NoError(t, e)
		require.Equal(t, oid2, res.OID)

		// A time before the log falls back to the oldest entry's old value
		// (or its new value when the old side is the null OID).
		res, e = store.RefAt("refs/heads/r", time.Unix(100, 0), -1)
		require.NoError(t, e)
		require.False(t, res.Exact)
		require.Equal(t, oid1, res.OID)

		_, e = store.RefAt("refs/heads/unlogged", time.Now(), 0)
		require.Error(t, e)
	})
}

func TestStore_DeleteRefs(t *testing.T) {
	backendCases(t, func(t *testing.T, store *refs.Store) {
		require.NoError(t, store.UpdateRef("", "refs/heads/a", &oid1, nil, refs.NoDeref))
		require.NoError(t, store.UpdateRef("", "refs/heads/b", &oid2, nil, refs.NoDeref))

		require.NoError(t, store.DeleteRefs("cleanup", []string{"refs/heads/a", "refs/heads/b"}))

		_, e := store.ReadRaw("refs/heads/a")
		require.True(t, errors.Is(e, refs.ErrNotExist))
		_, e = store.ReadRaw("refs/heads/b")
		require.True(t, errors.Is(e, refs.ErrNotExist))
	})
}

func TestStore_BackendSelectionPersists(t *testing.T) {
	dir := t.TempDir()
	store, e := refs.Init(dir, refs.Options{Backend: "boltdb"})
	require.NoError(t, e)
	require.Equal(t, "boltdb", store.BackendName())
	require.NoError(t, store.UpdateRef("", "refs/heads/main", &oid1, nil, refs.NoDeref))
	require.NoError(t, store.Close())

	// Reopening without an explicit selection reads extensions.refstorage.
	reopened, e := refs.Open(dir, refs.Options{})
	require.NoError(t, e)
	t.Cleanup(func() { reopened.Close() })
	require.Equal(t, "boltdb", reopened.BackendName())

	resolved, e := reopened.Resolve("refs/heads/main", refs.Reading)
	require.NoError(t, e)
	require.Equal(t, oid1, resolved.OID)
}

func TestStore_UnknownBackend(t *testing.T) {
	_, e := refs.Open(t.TempDir(), refs.Options{Backend: "no-such-engine"})
	require.Error(t, e)
}
