package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/utkarsh5026/RefStore/cmd/ui"
	"github.com/utkarsh5026/RefStore/pkg/oid"
	"github.com/utkarsh5026/RefStore/pkg/refs"
)

func newForEachRefCmd() *cobra.Command {
	var includeBroken bool
	var count int
	var glob string

	cmd := &cobra.Command{
		Use:   "for-each-ref [prefix]",
		Short: "Iterate references in refname order",
		Long: `Iterate references in ascending refname order, starting at an
optional prefix.

Examples:
  refstore for-each-ref
  refstore for-each-ref refs/tags/
  refstore for-each-ref --glob 'refs/heads/feature/*'
  refstore for-each-ref --count 10`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := findStore()
			if err != nil {
				return err
			}
			defer store.Close()

			seen := 0
			visit := func(refname string, id oid.OID, bits refs.RefBits) error {
				if count > 0 && seen >= count {
					return refs.ErrStopIteration
				}
				seen++
				if bits&refs.IsBroken != 0 {
					fmt.Println(ui.FormatBroken(refname))
					return nil
				}
				fmt.Println(ui.FormatRef(refname, id.String()))
				return nil
			}

			if glob != "" {
				return store.ForEachGlobRef(glob, visit)
			}

			prefix := ""
			if len(args) == 1 {
				prefix = args[0]
			}
			var flags refs.IterFlag
			if includeBroken {
				flags |= refs.IncludeBroken
			}
			return store.ForEachRef(prefix, 0, flags, visit)
		},
	}

	cmd.Flags().BoolVar(&includeBroken, "include-broken", false, "Include broken refs instead of skipping them")
	cmd.Flags().IntVar(&count, "count", 0, "Stop after this many refs")
	cmd.Flags().StringVar(&glob, "glob", "", "Shell glob pattern to match refs against")
	return cmd
}

func newCheckFormatCmd() *cobra.Command {
	var allowOneLevel bool
	var refspecPattern bool

	cmd := &cobra.Command{
		Use:   "check-ref-format <refname>",
		Short: "Check whether a refname is well formed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var flags refs.FormatFlag
			if allowOneLevel {
				flags |= refs.AllowOneLevel
			}
			if refspecPattern {
				flags |= refs.RefspecPattern
			}
			if !refs.CheckFormat(args[0], flags) {
				return fmt.Errorf("refname %q is not well formed", args[0])
			}
			fmt.Println(ui.SuccessMessage("ok", args[0]))
			return nil
		},
	}

	cmd.Flags().BoolVar(&allowOneLevel, "allow-onelevel", false, "Accept single-component names")
	cmd.Flags().BoolVar(&refspecPattern, "refspec-pattern", false, "Accept one component-wide * wildcard")
	return cmd
}
