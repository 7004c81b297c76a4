// cmd/collector/main.go
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "collector",
		Short:         "Polls Modbus TCP PLCs and stores their tag values in PostgreSQL",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.AddCommand(
		newRunCommand(),
		newResolveCommand(),
		newProbeCommand(),
	)
	return cmd
}
