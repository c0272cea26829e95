package main

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/utkarsh5026/RefStore/pkg/refs"
)

// withStore points the global --store-dir at a fresh initialized store.
func withStore(t *testing.T, backend string) string {
	t.Helper()

	dir := filepath.Join(t.TempDir(), StoreDirName)
	storeDir = dir
	t.Cleanup(func() { storeDir = "" })

	cmd := newInitCmd()
	cmd.SetArgs([]string{"--backend", backend})
	require.NoError(t, cmd.Execute())
	return dir
}

func TestCmd_InitAndUpdateRef(t *testing.T) {
	for _, backend := range []string{"files", "boltdb"} {
		t.Run(backend, func(t *testing.T) {
			withStore(t, backend)

			update := newUpdateRefCmd()
			update.SetArgs([]string{"refs/heads/main", strings.Repeat("11", 20)})
			require.NoError(t, update.Execute())

			store, err := findStore()
			require.NoError(t, err)
			defer store.Close()
			resolved, err := store.Resolve("refs/heads/main", refs.Reading)
			require.NoError(t, err)
			require.Equal(t, strings.Repeat("11", 20), resolved.OID.String())
		})
	}
}

func TestCmd_UpdateRefCAS(t *testing.T) {
	withStore(t, "files")

	update := newUpdateRefCmd()
	update.SetArgs([]string{"refs/heads/main", strings.Repeat("11", 20)})
	require.NoError(t, update.Execute())

	// Wrong old value fails.
	casFail := newUpdateRefCmd()
	casFail.SetArgs([]string{"refs/heads/main", strings.Repeat("22", 20), strings.Repeat("33", 20)})
	require.Error(t, casFail.Execute())

	// Right old value succeeds.
	cas := newUpdateRefCmd()
	cas.SetArgs([]string{"refs/heads/main", strings.Repeat("22", 20), strings.Repeat("11", 20)})
	require.NoError(t, cas.Execute())
}

func TestCmd_SymbolicRef(t *testing.T) {
	withStore(t, "files")

	set := newSymbolicRefCmd()
	set.SetArgs([]string{"HEAD", "refs/heads/topic"})
	require.NoError(t, set.Execute())

	store, err := findStore()
	require.NoError(t, err)
	defer store.Close()
	raw, err := store.ReadRaw("HEAD")
	require.NoError(t, err)
	require.Equal(t, "refs/heads/topic", raw.Target)
}

func TestCmd_SymbolicRefRejectsBadTarget(t *testing.T) {
	withStore(t, "files")

	set := newSymbolicRefCmd()
	set.SetArgs([]string{"HEAD", "refs/heads/bad..name"})
	require.Error(t, set.Execute())
}

func TestCmd_DeleteRef(t *testing.T) {
	withStore(t, "files")

	update := newUpdateRefCmd()
	update.SetArgs([]string{"refs/heads/gone", strings.Repeat("11", 20)})
	require.NoError(t, update.Execute())

	del := newUpdateRefCmd()
	del.SetArgs([]string{"-d", "refs/heads/gone", strings.Repeat("11", 20)})
	require.NoError(t, del.Execute())

	store, err := findStore()
	require.NoError(t, err)
	defer store.Close()
	_, err = store.ReadRaw("refs/heads/gone")
	require.Error(t, err)
}

func TestCmd_CheckRefFormat(t *testing.T) {
	ok := newCheckFormatCmd()
	ok.SetArgs([]string{"refs/heads/main"})
	require.NoError(t, ok.Execute())

	bad := newCheckFormatCmd()
	bad.SetArgs([]string{"refs/heads/bad..name"})
	require.Error(t, bad.Execute())

	onelevel := newCheckFormatCmd()
	onelevel.SetArgs([]string{"--allow-onelevel", "HEAD"})
	require.NoError(t, onelevel.Execute())
}

func TestCmd_PackRefs(t *testing.T) {
	withStore(t, "files")

	update := newUpdateRefCmd()
	update.SetArgs([]string{"refs/heads/main", strings.Repeat("11", 20)})
	require.NoError(t, update.Execute())

	pack := newPackRefsCmd()
	pack.SetArgs([]string{"--prune"})
	require.NoError(t, pack.Execute())

	store, err := findStore()
	require.NoError(t, err)
	defer store.Close()
	resolved, err := store.Resolve("refs/heads/main", refs.Reading)
	require.NoError(t, err)
	require.Equal(t, strings.Repeat("11", 20), resolved.OID.String())
}
