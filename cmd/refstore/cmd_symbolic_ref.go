package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/utkarsh5026/RefStore/cmd/ui"
	"github.com/utkarsh5026/RefStore/pkg/refs"
)

func newSymbolicRefCmd() *cobra.Command {
	var message string
	var short bool

	cmd := &cobra.Command{
		Use:   "symbolic-ref <name> [<target>]",
		Short: "Read or modify a symbolic reference",
		Long: `Read or modify a symbolic reference.

With one argument, prints the target of the symbolic ref. With two, makes
<name> point at <target>.

Examples:
  # Where does HEAD point?
  refstore symbolic-ref HEAD

  # Switch HEAD to another branch
  refstore symbolic-ref HEAD refs/heads/topic -m "checkout: topic"`,
		Args: cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := findStore()
			if err != nil {
				return err
			}
			defer store.Close()
			name := args[0]

			if len(args) == 1 {
				raw, err := store.ReadRaw(name)
				if err != nil {
					return err
				}
				if !raw.IsSymbolic() {
					return fmt.Errorf("ref %s is not a symbolic ref", name)
				}
				target := raw.Target
				if short {
					target = refs.Prettify(target)
				}
				fmt.Println(target)
				return nil
			}

			target := args[1]
			if !refs.CheckFormat(target, 0) {
				return fmt.Errorf("refusing to point %s at invalid target %q", name, target)
			}
			if err := store.CreateSymref(name, target, message); err != nil {
				return err
			}
			fmt.Println(ui.FormatSymref(name, target))
			return nil
		},
	}

	cmd.Flags().StringVarP(&message, "message", "m", "", "Reflog message")
	cmd.Flags().BoolVar(&short, "short", false, "Shorten the printed target")
	return cmd
}
