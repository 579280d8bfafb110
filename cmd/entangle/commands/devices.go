package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func devicesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "devices",
		Short: "List capturable input devices",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			devices, err := appCtx.Devices.ListDevices()
			if err != nil {
				return err
			}
			for _, d := range devices {
				fmt.Printf("%d\t%s\t%q\t%d keys, %d axes\n",
					d.ID, d.Class, d.Name, d.Caps.Keys.Count(), d.Caps.Rel.Count())
			}
			return nil
		},
	}
}
