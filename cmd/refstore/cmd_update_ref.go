package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/utkarsh5026/RefStore/cmd/ui"
	"github.com/utkarsh5026/RefStore/pkg/oid"
	"github.com/utkarsh5026/RefStore/pkg/refs"
)

func newUpdateRefCmd() *cobra.Command {
	var message string
	var noDeref bool
	var deleteFlag bool
	var createReflog bool

	cmd := &cobra.Command{
		Use:   "update-ref <ref> [<new-value>] [<old-value>]",
		Short: "Update the object identifier stored in a reference",
		Long: `Update the object identifier stored in a reference, safely.

With <old-value> the update is a compare-and-set: it fails unless the ref
currently holds exactly that value. The all-zero identifier as <old-value>
requires that the ref does not exist yet.

Examples:
  # Point a branch at a commit
  refstore update-ref refs/heads/main 1111111111111111111111111111111111111111

  # Compare-and-set
  refstore update-ref refs/heads/main <new> <old>

  # Delete, verifying the current value
  refstore update-ref -d refs/heads/topic <old>

  # Update the symref file itself instead of its pointee
  refstore update-ref --no-deref HEAD <new>`,
		Args: cobra.RangeArgs(1, 3),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := findStore()
			if err != nil {
				return err
			}
			defer store.Close()

			refname := args[0]
			var flags refs.UpdateFlag
			if noDeref {
				flags |= refs.NoDeref
			}
			if createReflog {
				flags |= refs.ForceReflog
			}

			if deleteFlag {
				var old *oid.OID
				if len(args) >= 2 {
					parsed, err := oid.Parse(args[1])
					if err != nil {
						return fmt.Errorf("bad old value: %w", err)
					}
					old = &parsed
				}
				if err := store.DeleteRef(refname, old, flags); err != nil {
					return err
				}
				fmt.Println(ui.SuccessMessage("Deleted", refname))
				return nil
			}

			if len(args) < 2 {
				return fmt.Errorf("update requires a new value")
			}
			newOID, err := oid.Parse(args[1])
			if err != nil {
				return fmt.Errorf("bad new value: %w", err)
			}

			var old *oid.OID
			if len(args) == 3 {
				parsed, err := oid.Parse(args[2])
				if err != nil {
					return fmt.Errorf("bad old value: %w", err)
				}
				old = &parsed
			}

			if err := store.UpdateRef(message, refname, &newOID, old, flags); err != nil {
				return err
			}
			fmt.Println(ui.SuccessMessage("Updated", refname, newOID.Short()))
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Reflog message")
	cmd.Flags().BoolVar(&noDeref, "no-deref", false, "Operate on the symref itself, not its pointee")
	cmd.Flags().BoolVarP(&deleteFlag, "delete", "d", false, "Delete the reference")
	cmd.Flags().BoolVar(&createReflog, "create-reflog", false, "Force a reflog entry even for refs that would not get one")
	return cmd
}

func newRenameRefCmd() *cobra.Command {
	var message string

	cmd := &cobra.Command{
		Use:   "rename-ref <old> <new>",
		Short: "Rename a reference, migrating its reflog",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := findStore()
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.RenameRef(args[0], args[1], message); err != nil {
				return err
			}
			fmt.Println(ui.SuccessMessage("Renamed", args[0], "to", args[1]))
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "rename", "Reflog message")
	return cmd
}
