package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/utkarsh5026/RefStore/pkg/refs"
)

// StoreDirName is the directory a store lives in, discovered by walking up
// from the working directory.
const StoreDirName = ".refstore"

// findStore locates and opens the reference store for the current command:
// --store-dir wins, otherwise the nearest .refstore above the working
// directory.
func findStore() (*refs.Store, error) {
	dir, err := findStoreDir()
	if err != nil {
		return nil, err
	}
	return refs.Open(dir, refs.Options{})
}

func findStoreDir() (string, error) {
	if storeDir != "" {
		return storeDir, nil
	}

	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current directory: %w", err)
	}

	dir := cwd
	for {
		candidate := filepath.Join(dir, StoreDirName)
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("not a refstore repository (or any parent up to mount point)")
		}
		dir = parent
	}
}
