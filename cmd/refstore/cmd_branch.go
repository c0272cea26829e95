package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/utkarsh5026/RefStore/cmd/ui"
	"github.com/utkarsh5026/RefStore/pkg/refs/branch"
)

func newBranchCmd() *cobra.Command {
	var deleteFlag bool
	var renameFlag bool
	var forceFlag bool
	var startPoint string

	cmd := &cobra.Command{
		Use:   "branch [name] [new-name]",
		Short: "List, create, delete, or rename branches",
		Long: `List, create, delete, or rename branches.

With no arguments, lists all branches; the current branch is highlighted.
With a name argument, creates a new branch.

Examples:
  # List all branches
  refstore branch

  # Create a new branch at HEAD
  refstore branch feature-name

  # Create a branch at a specific object
  refstore branch feature-name --start-point <oid>

  # Delete a branch
  refstore branch -d feature-name

  # Rename a branch
  refstore branch -m old-name new-name`,
		Args: cobra.MaximumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := findStore()
			if err != nil {
				return err
			}
			defer store.Close()
			manager := branch.NewManager(store)

			if renameFlag {
				if len(args) != 2 {
					return fmt.Errorf("rename requires old and new branch names")
				}
				opts := []branch.RenameOption{}
				if forceFlag {
					opts = append(opts, branch.WithForceRename())
				}
				if err := manager.Rename(args[0], args[1], opts...); err != nil {
					return fmt.Errorf("failed to rename branch: %w", err)
				}
				fmt.Println(ui.SuccessMessage("Renamed", args[0], "to", args[1]))
				return nil
			}

			if deleteFlag {
				if len(args) == 0 {
					return fmt.Errorf("branch name required for deletion")
				}
				opts := []branch.DeleteOption{}
				if forceFlag {
					opts = append(opts, branch.WithForceDelete())
				}
				if err := manager.Delete(args[0], opts...); err != nil {
					return fmt.Errorf("failed to delete branch: %w", err)
				}
				fmt.Println(ui.SuccessMessage("Deleted branch", args[0]))
				return nil
			}

			if len(args) >= 1 {
				opts := []branch.CreateOption{}
				if startPoint != "" {
					opts = append(opts, branch.WithStartPoint(startPoint))
				}
				if forceFlag {
					opts = append(opts, branch.WithForceCreate())
				}
				if err := manager.Create(args[0], opts...); err != nil {
					return fmt.Errorf("failed to create branch: %w", err)
				}
				fmt.Println(ui.BranchInfo(args[0]))
				return nil
			}

			infos, err := manager.List()
			if err != nil {
				return err
			}
			for _, info := range infos {
				marker := "  "
				name := info.Name
				if info.IsCurrent {
					marker = ui.Green("* ")
					name = ui.BranchStyle.Render(name)
				}
				fmt.Printf("%s%s %s\n", marker, name, ui.Gray(info.OID.Short()))
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&deleteFlag, "delete", "d", false, "Delete a branch")
	cmd.Flags().BoolVarP(&renameFlag, "move", "m", false, "Rename a branch")
	cmd.Flags().BoolVarP(&forceFlag, "force", "f", false, "Force the operation")
	cmd.Flags().StringVar(&startPoint, "start-point", "", "Object or ref the new branch starts at")
	return cmd
}
