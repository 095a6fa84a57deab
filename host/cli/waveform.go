package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"godaq/host/daq"
)

func NewWaveformCommand(o *options) *cobra.Command {
	var stop bool
	var shape string
	var length, channel int
	var amplitude, offset int32
	var period, repeat uint32
	cmd := &cobra.Command{
		Use:   "waveform",
		Short: "Synthesize a waveform, upload it and start playback",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := o.connect()
			if err != nil {
				return err
			}
			defer client.Close()

			if stop {
				return client.StopWaveform()
			}

			w := o.cfg.Waveform
			flags := cmd.Flags()
			if flags.Changed("shape") {
				w.Shape = daq.Shape(shape)
			}
			if flags.Changed("length") {
				w.Length = length
			}
			if flags.Changed("channel") {
				w.Channel = channel
			}
			if flags.Changed("amplitude") {
				w.AmplitudeMV = amplitude
			}
			if flags.Changed("offset") {
				w.OffsetMV = offset
			}
			if flags.Changed("period") {
				w.PeriodUs = period
			}
			if flags.Changed("repeat") {
				w.Repeat = repeat
			}

			lut, err := w.Synthesize()
			if err != nil {
				return err
			}
			if err := client.UploadLUT(lut); err != nil {
				return err
			}
			if err := client.StartWaveform(w.PeriodUs, w.Repeat); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s on DAC %d: %d points every %d uS\n", w.Shape, w.Channel, w.Length, w.PeriodUs)
			return nil
		},
	}
	cmd.Flags().BoolVar(&stop, "stop", false, "Stop playback instead")
	cmd.Flags().StringVar(&shape, "shape", "", "sine, triangle, square or sawtooth")
	cmd.Flags().IntVar(&length, "length", 0, "Points per period")
	cmd.Flags().IntVar(&channel, "channel", 0, "DAC output (1 or 2)")
	cmd.Flags().Int32Var(&amplitude, "amplitude", 0, "Amplitude in mV")
	cmd.Flags().Int32Var(&offset, "offset", 0, "Offset in mV")
	cmd.Flags().Uint32Var(&period, "period", 0, "Point period in uS")
	cmd.Flags().Uint32Var(&repeat, "repeat", 0, "Periods to play, 0 = unbounded")
	return cmd
}
