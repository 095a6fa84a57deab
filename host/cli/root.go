// Package cli implements the daq-host command tree.
package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"godaq/host/config"
	"godaq/host/daq"
	"godaq/host/log"
	"godaq/host/serial"
	"godaq/host/sim"
)

const (
	LogLevelOptionName = "log-level"
	ConfigOptionName   = "config"
	DeviceOptionName   = "device"
	SimOptionName      = "sim"
)

// options are the persistent flags and the configuration they select
type options struct {
	configPath string
	logLevel   string
	device     string
	sim        bool

	cfg *config.Config
}

// connect opens the instrument: the serial device, or a simulated board
// with --sim
func (o *options) connect() (*daq.Client, error) {
	var port serial.Port
	if o.sim {
		in, err := sim.New()
		if err != nil {
			return nil, err
		}
		port = in
	} else {
		sc := o.cfg.Serial
		if o.device != "" {
			sc.Device = o.device
		}
		p, err := serial.Open(&sc)
		if err != nil {
			return nil, err
		}
		port = p
	}
	return daq.NewClient(port, o.cfg.ResponseTimeout), nil
}

// deviceName is the name recorded with a run
func (o *options) deviceName() string {
	switch {
	case o.sim:
		return "sim"
	case o.device != "":
		return o.device
	}
	return o.cfg.Serial.Device
}

func NewRootCommand(out io.Writer) *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:           "daq-host",
		Short:         "Tool to work with the DAQ instrument",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(o.configPath)
			if err != nil {
				return err
			}
			if o.logLevel != "" {
				cfg.LogLevel = o.logLevel
			}
			if err := log.Init(cmd.ErrOrStderr(), cfg.LogLevel); err != nil {
				return err
			}
			o.cfg = cfg
			return nil
		},
	}
	cmd.SetOut(out)
	cmd.AddCommand(NewPortsCommand())
	cmd.AddCommand(NewSendCommand(o))
	cmd.AddCommand(NewStatusCommand(o))
	cmd.AddCommand(NewAcquireCommand(o))
	cmd.AddCommand(NewWaveformCommand(o))
	cmd.AddCommand(NewReplayCommand(o))
	cmd.AddCommand(NewConfigCommand(o))
	cmd.PersistentFlags().StringVar(&o.logLevel, LogLevelOptionName, "", fmt.Sprintf("Log level. %s", log.HelpLevels))
	cmd.PersistentFlags().StringVar(&o.configPath, ConfigOptionName, "daq.yaml", "Configuration file")
	cmd.PersistentFlags().StringVar(&o.device, DeviceOptionName, "", "Serial device, overrides the configuration")
	cmd.PersistentFlags().BoolVar(&o.sim, SimOptionName, false, "Use a simulated instrument")
	return cmd
}
