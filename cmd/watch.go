package cmd

import (
	"fmt"
	"time"

	"github.com/mabhi256/swotrace/internal/capture"
	"github.com/mabhi256/swotrace/internal/viewer"
	"github.com/spf13/cobra"
)

var (
	readTimeoutMS int
	channelNames  []string
)

var watchCmd = &cobra.Command{
	Use: "watch [usb[:VID:PID]|HOST:PORT]",
	Short: `Watch captures and decodes a live SWO trace stream:
- ITM stimulus channels as a per-channel log
- Trace activity over time on a zoomable timeline
- PC-sample profile of where the target spends cycles

Examples:
  swotrace watch                        # Default probe (ST-Link v2)
  swotrace watch usb                    # Same, explicit
  swotrace watch usb:0483:374b          # Probe by USB vendor:product
  swotrace watch 192.168.7.2:9229      # TCP trace bridge (OpenOCD, orbuculum)`,
	Args: cobra.MaximumNArgs(1),
	ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		if len(args) != 0 {
			return nil, cobra.ShellCompDirectiveNoFileComp
		}
		completions := []string{
			"usb\tdefault debug probe",
			fmt.Sprintf("usb:%04x:%04x\tprobe by vendor:product", capture.DefaultVendorID, capture.DefaultProductID),
		}
		return completions, cobra.ShellCompDirectiveNoFileComp
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		target := "usb"
		if len(args) > 0 {
			target = args[0]
		}

		config, err := capture.ParseTarget(target)
		if err != nil {
			return err
		}
		if readTimeoutMS > 0 {
			config.ReadTimeout = time.Duration(readTimeoutMS) * time.Millisecond
		}

		session := viewer.NewSession(config)
		if err := applyChannelNames(session, channelNames); err != nil {
			return err
		}

		if err := session.Capture.Start(); err != nil {
			return fmt.Errorf("unable to start capture on %s: %w", config, err)
		}

		if err := viewer.StartTUI(session); err != nil {
			return fmt.Errorf("unable to start TUI: %w", err)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().IntVarP(&readTimeoutMS, "read-timeout", "t", 0, "Transport read timeout in ms")
	watchCmd.Flags().StringSliceVarP(&channelNames, "name", "n", nil, "Channel name as ID=NAME (repeatable)")
}

func applyChannelNames(session *viewer.Session, specs []string) error {
	for _, spec := range specs {
		var id int
		var name string
		if _, err := fmt.Sscanf(spec, "%d=%s", &id, &name); err != nil {
			return fmt.Errorf("invalid channel name %q: want ID=NAME", spec)
		}
		if session.Table.Get(id) == nil {
			return fmt.Errorf("invalid channel id %d", id)
		}
		session.Table.SetName(id, name)
	}
	return nil
}
