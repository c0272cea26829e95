package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/utkarsh5026/RefStore/cmd/ui"
	"github.com/utkarsh5026/RefStore/pkg/refs"
)

func newInitCmd() *cobra.Command {
	var backend string

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create an empty reference store",
		Long: `Create an empty reference store.

The store is created as a .refstore directory with a HEAD pointing at the
default branch. The storage engine is recorded in the store configuration
under extensions.refstorage.

Examples:
  # Create a files-backed store in the current directory
  refstore init

  # Create a store backed by the embedded key-value engine
  refstore init --backend boltdb

  # Create a store elsewhere
  refstore init /path/to/project`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := "."
			if len(args) == 1 {
				base = args[0]
			}

			dir := storeDir
			if dir == "" {
				dir = filepath.Join(base, StoreDirName)
			}
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("failed to create store directory: %w", err)
			}

			store, err := refs.Init(dir, refs.Options{Backend: backend})
			if err != nil {
				return fmt.Errorf("failed to initialize store: %w", err)
			}
			defer store.Close()

			fmt.Println(ui.SuccessMessage("Initialized empty reference store in", dir))
			fmt.Printf("  backend: %s\n", store.BackendName())
			return nil
		},
	}

	cmd.Flags().StringVar(&backend, "backend", "", "Storage engine (files, boltdb)")
	return cmd
}
