package main

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/utkarsh5026/RefStore/cmd/ui"
	"github.com/utkarsh5026/RefStore/pkg/oid"
	"github.com/utkarsh5026/RefStore/pkg/refs"
)

func newShowRefCmd() *cobra.Command {
	var headsOnly bool
	var tagsOnly bool
	var useTable bool
	var showHidden bool

	cmd := &cobra.Command{
		Use:   "show-ref [pattern]",
		Short: "List references",
		Long: `List references, optionally limited to branches or tags.

A pattern argument limits the listing to refs whose short name resolves
through the usual lookup rules.

Examples:
  refstore show-ref
  refstore show-ref --heads
  refstore show-ref --table
  refstore show-ref main`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := findStore()
			if err != nil {
				return err
			}
			defer store.Close()

			if len(args) == 1 {
				refname, id, found := store.DwimRef(args[0])
				if found == 0 {
					return fmt.Errorf("no ref matches %q", args[0])
				}
				fmt.Println(ui.FormatRef(refname, id.String()))
				return nil
			}

			var table *tablewriter.Table
			if useTable {
				table = tablewriter.NewWriter(os.Stdout)
				table.Header("Ref", "Object", "Kind")
			}

			visit := func(refname string, id oid.OID, bits refs.RefBits) error {
				if !showHidden && store.Hidden(refname) {
					return nil
				}
				if useTable {
					kind := "ref"
					if bits&refs.IsSymref != 0 {
						kind = "symref"
					}
					table.Append(refname, id.Short(), kind)
					return nil
				}
				fmt.Println(ui.FormatRef(refname, id.String()))
				return nil
			}

			var iterErr error
			switch {
			case headsOnly:
				iterErr = store.ForEachRef(refs.HeadsPrefix, 0, 0, visit)
			case tagsOnly:
				iterErr = store.ForEachRef(refs.TagsPrefix, 0, 0, visit)
			default:
				iterErr = store.ForEachRef("refs/", 0, 0, visit)
			}
			if iterErr != nil {
				return iterErr
			}

			if useTable {
				table.Render()
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&headsOnly, "heads", false, "Limit to refs/heads/")
	cmd.Flags().BoolVar(&tagsOnly, "tags", false, "Limit to refs/tags/")
	cmd.Flags().BoolVar(&useTable, "table", false, "Tabular output")
	cmd.Flags().BoolVar(&showHidden, "include-hidden", false, "Include refs hidden by hiderefs configuration")
	return cmd
}
