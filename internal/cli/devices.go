package cli

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"uirecorder/pkg/chrome"
)

var devicesCmd = &cobra.Command{
	Use:   "devices",
	Short: "List the devices available for emulation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "NAME\tSIZE\tSCALE\tMOBILE")
		for _, name := range chrome.DeviceNames() {
			d, _ := chrome.LookupDevice(name)
			fmt.Fprintf(tw, "%s\t%dx%d\t%.1f\t%t\n", name, d.Width, d.Height, d.DevicePixelRatio, d.Mobile)
		}
		return tw.Flush()
	},
}
