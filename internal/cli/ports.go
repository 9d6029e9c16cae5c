package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/five82/obcdbg/internal/telemetry"
)

// listPorts is swapped in tests.
var listPorts = telemetry.ListPorts

func newPortsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ports",
		Short: "List serial devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ports, err := listPorts()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(ports) == 0 {
				_, err := fmt.Fprintln(out, "no serial ports found")
				return err
			}
			for _, p := range ports {
				if _, err := fmt.Fprintln(out, p); err != nil {
					return err
				}
			}
			return nil
		},
	}
}
