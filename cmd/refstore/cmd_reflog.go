package main

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/utkarsh5026/RefStore/cmd/ui"
	"github.com/utkarsh5026/RefStore/pkg/refs"
)

func newReflogCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reflog",
		Short: "Inspect and manage reference logs",
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	cmd.AddCommand(newReflogShowCmd())
	cmd.AddCommand(newReflogExistsCmd())
	cmd.AddCommand(newReflogExpireCmd())
	cmd.AddCommand(newReflogDeleteCmd())
	cmd.AddCommand(newReflogListCmd())
	return cmd
}

func newReflogShowCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "show <ref>",
		Short: "Show the log of values a reference has held, newest first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := findStore()
			if err != nil {
				return err
			}
			defer store.Close()

			refname, _, found := store.DwimLog(args[0])
			if found == 0 {
				return fmt.Errorf("no reflog for %q", args[0])
			}

			idx := 0
			return store.ForEachReflogEntReverse(refname, func(entry *refs.ReflogEntry) error {
				if limit > 0 && idx >= limit {
					return refs.ErrStopIteration
				}
				when := humanize.Time(time.Unix(entry.Time, 0))
				fmt.Printf("%s %s@{%d}: %s %s\n",
					ui.OidStyle.Render(entry.New.Short()),
					ui.Cyan(refname), idx,
					entry.Message,
					ui.Gray("("+when+")"))
				idx++
				return nil
			})
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many entries")
	return cmd
}

func newReflogExistsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "exists <ref>",
		Short: "Check whether a reference has a reflog",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := findStore()
			if err != nil {
				return err
			}
			defer store.Close()
			if !store.ReflogExists(args[0]) {
				return fmt.Errorf("reflog for %q does not exist", args[0])
			}
			fmt.Println(ui.SuccessMessage("reflog exists", args[0]))
			return nil
		},
	}
}

func newReflogExpireCmd() *cobra.Command {
	var olderThan time.Duration
	var all bool
	var dryRun bool
	var updateRef bool

	cmd := &cobra.Command{
		Use:   "expire <ref>",
		Short: "Remove old entries from a reference's log",
		Long: `Remove old entries from a reference's log.

The log itself survives even when every entry is pruned.

Examples:
  # Drop entries older than 90 days
  refstore reflog expire refs/heads/main --older-than 2160h

  # Drop everything
  refstore reflog expire refs/heads/main --all

  # Also rewind the ref to the newest surviving entry
  refstore reflog expire refs/heads/main --older-than 2160h --update-ref`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := findStore()
			if err != nil {
				return err
			}
			defer store.Close()

			cutoff := time.Now().Add(-olderThan).Unix()
			pruned := 0
			policy := func(entry *refs.ReflogEntry) bool {
				if all || entry.Time < cutoff {
					pruned++
					return false
				}
				return true
			}

			var flags refs.ExpireFlag
			if dryRun {
				flags |= refs.ExpireDryRun
			}
			if updateRef {
				flags |= refs.ExpireUpdateRef
			}

			if err := store.ExpireReflog(args[0], flags, policy); err != nil {
				return err
			}
			if dryRun {
				fmt.Printf("would prune %d reflog entries for %s\n", pruned, args[0])
				return nil
			}
			fmt.Println(ui.SuccessMessage("Expired reflog entries for", args[0]))
			return nil
		},
	}

	cmd.Flags().DurationVar(&olderThan, "older-than", 90*24*time.Hour, "Prune entries older than this")
	cmd.Flags().BoolVar(&all, "all", false, "Prune every entry")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Only report what would be pruned")
	cmd.Flags().BoolVar(&updateRef, "update-ref", false, "Rewind the ref to the last kept value")
	return cmd
}

func newReflogDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <ref>",
		Short: "Remove a reference's log entirely",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := findStore()
			if err != nil {
				return err
			}
			defer store.Close()
			if err := store.DeleteReflog(args[0]); err != nil {
				return err
			}
			fmt.Println(ui.SuccessMessage("Deleted reflog for", args[0]))
			return nil
		},
	}
}

func newReflogListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List references that have a reflog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := findStore()
			if err != nil {
				return err
			}
			defer store.Close()
			return store.ForEachReflog(func(refname string) error {
				fmt.Println(refname)
				return nil
			})
		},
	}
}
