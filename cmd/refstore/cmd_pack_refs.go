package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/utkarsh5026/RefStore/cmd/ui"
)

func newPackRefsCmd() *cobra.Command {
	var prune bool

	cmd := &cobra.Command{
		Use:   "pack-refs",
		Short: "Migrate loose references into the packed catalog",
		Long: `Migrate loose references into the packed catalog.

Symbolic refs stay loose. On engines without a packed form this is a
no-op.

Examples:
  refstore pack-refs
  refstore pack-refs --prune`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := findStore()
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.PackRefs(prune); err != nil {
				return err
			}
			fmt.Println(ui.SuccessMessage("Packed refs"))
			return nil
		},
	}

	cmd.Flags().BoolVar(&prune, "prune", false, "Remove loose files after packing")
	return cmd
}
