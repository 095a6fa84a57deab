package cli

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

func NewSendCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "send COMMAND [PARAM...]",
		Short: "Send one command line and print the response",
		Example: `  daq-host send R 500
  daq-host send E 1 3 0 0`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args[0]) != 1 {
				return fmt.Errorf("command must be a single letter, got %q", args[0])
			}
			params := make([]int32, 0, len(args)-1)
			for _, a := range args[1:] {
				v, err := strconv.ParseInt(a, 10, 32)
				if err != nil {
					return fmt.Errorf("parameter %q: %w", a, err)
				}
				params = append(params, int32(v))
			}

			client, err := o.connect()
			if err != nil {
				return err
			}
			defer client.Close()

			line, err := client.Send(args[0][0], params...)
			if line != "" {
				fmt.Fprintln(cmd.OutOrStdout(), line)
			}
			return err
		},
	}
}

func NewStatusCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Print the instrument status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := o.connect()
			if err != nil {
				return err
			}
			defer client.Close()

			lines, err := client.Status()
			for _, l := range lines {
				fmt.Fprintln(cmd.OutOrStdout(), l)
			}
			return err
		},
	}
}
