package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"godaq/host/daq"
	"godaq/host/log"
	"godaq/host/record"
	"godaq/protocol"
)

const (
	BlocksOptionName = "blocks"
	RecordOptionName = "record"
	ModeOptionName   = "mode"
)

func printSamples(w io.Writer, seq uint64, samples []daq.Sample) {
	for _, s := range samples {
		fmt.Fprintf(w, "%d\tCH%d\t%d\n", seq, s.Channel, s.Millivolts)
	}
}

func NewAcquireCommand(o *options) *cobra.Command {
	var blocks int
	var rec bool
	var mode string
	cmd := &cobra.Command{
		Use:   "acquire",
		Short: "Apply the acquisition plan and stream blocks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			plan := o.cfg.Acquisition
			if mode != "" {
				plan.Mode = mode
			}
			if rec && plan.Mode != daq.ModeBinary {
				return errors.New("recording needs binary mode")
			}

			client, err := o.connect()
			if err != nil {
				return err
			}
			defer client.Close()

			if err := client.Apply(plan); err != nil {
				return err
			}

			var recorder *record.Recorder
			var run string
			if rec {
				recorder, err = record.Open(o.cfg.Recorder.Path)
				if err != nil {
					return err
				}
				defer recorder.Close()
				run, err = recorder.NewRun(record.RunInfo{Device: o.deviceName(), Plan: plan})
				if err != nil {
					return err
				}
			}

			if err := client.Start(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for n := 0; n < blocks; n++ {
				if plan.Mode == daq.ModeASCII {
					readings, err := client.ReadASCIIBlock()
					if errors.Is(err, protocol.ErrOverrun) {
						log.Warning("overrun, instrument fell back to its safe period")
						continue
					}
					if err != nil {
						return err
					}
					for _, r := range readings {
						fmt.Fprintf(out, "%d\tCH%d\t%d\n", n, r.Channel, r.Millivolts)
					}
					continue
				}

				words, err := client.ReadRawBlock()
				if errors.Is(err, protocol.ErrOverrun) {
					log.Warning("overrun, instrument fell back to its safe period")
					continue
				}
				if err != nil {
					return err
				}
				if recorder != nil {
					if _, err := recorder.Append(run, words); err != nil {
						return err
					}
				}
				printSamples(out, uint64(n), daq.Decode(words, plan.Sequence, plan.LowResolution))
			}

			if skipped, dropped := client.Stats(); skipped > 0 || dropped > 0 {
				log.Warning("stream: %d bytes skipped, %d frames dropped", skipped, dropped)
			}
			if rec {
				log.Info("run %s: %d blocks in %s", run, blocks, o.cfg.Recorder.Path)
			}
			return client.Stop()
		},
	}
	cmd.Flags().IntVar(&blocks, BlocksOptionName, 10, "Number of blocks to read")
	cmd.Flags().BoolVar(&rec, RecordOptionName, false, "Store blocks in the recorder database")
	cmd.Flags().StringVar(&mode, ModeOptionName, "", "Output mode (ascii or binary), overrides the configuration")
	return cmd
}
