// cmd/collector/resolve.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tamzrod/modbus-collector/internal/address"
)

var resolveExample = `
collector resolve 40001 %MW100.3 --manufacturer schneider --offset 1
`

func newResolveCommand() *cobra.Command {
	var (
		manufacturer string
		offset       int
	)

	cmd := &cobra.Command{
		Use:     "resolve ADDRESS...",
		Short:   "Show the Modbus region and offset of tag addresses",
		Example: resolveExample,
		Args:    cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m := address.ParseManufacturer(manufacturer)
			out := cmd.OutOrStdout()

			failed := 0
			for _, raw := range args {
				r, err := address.Resolve(raw, m, offset)
				if err != nil {
					failed++
					fmt.Fprintf(out, "%-12s unresolved: %v\n", raw, err)
					continue
				}
				fmt.Fprintf(out, "%-12s %s (FC %d)\n", raw, r, r.Region.FunctionCode())
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d address(es) unresolved", failed, len(args))
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&manufacturer, "manufacturer", "m", "", "PLC vendor (generic, schneider, ge fanuc)")
	cmd.Flags().IntVar(&offset, "offset", 0, "address offset added to register offsets")
	return cmd
}
