package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"godaq/host/daq"
	"godaq/host/record"
)

func NewReplayCommand(o *options) *cobra.Command {
	return &cobra.Command{
		Use:   "replay [RUN]",
		Short: "List recorded runs or print the blocks of one",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			recorder, err := record.Open(o.cfg.Recorder.Path)
			if err != nil {
				return err
			}
			defer recorder.Close()

			out := cmd.OutOrStdout()
			if len(args) == 0 {
				runs, err := recorder.Runs()
				if err != nil {
					return err
				}
				for _, r := range runs {
					fmt.Fprintf(out, "%s\t%s\t%s\t%d blocks\n", r.ID, r.Started.Format("2006-01-02 15:04:05"), r.Device, r.Blocks)
				}
				return nil
			}

			info, err := recorder.Run(args[0])
			if err != nil {
				return err
			}
			return recorder.Blocks(info.ID, func(seq uint64, words []uint16) error {
				printSamples(out, seq, daq.Decode(words, info.Plan.Sequence, info.Plan.LowResolution))
				return nil
			})
		},
	}
}
