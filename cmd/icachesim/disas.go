package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sarchlab/icachesim/loader"
)

func newDisasCmd(_ *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "disas <listing>",
		Short: "Print the decoded instructions of a listing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			prog, err := loader.Load(args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Entry point: 0x%x\n", prog.Entry())
			_, _ = fmt.Fprintf(out, "Compressed: %t\n", prog.Compressed)
			_, _ = fmt.Fprintf(out, "Instructions: %d\n\n", prog.Len())

			for _, addr := range prog.Addresses() {
				inst, _ := prog.Lookup(addr)
				_, _ = fmt.Fprintf(out, "%s\t%s\n", inst, inst.Op)
			}

			return nil
		},
	}
}
