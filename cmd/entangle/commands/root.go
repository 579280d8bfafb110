package commands

import (
	"github.com/spf13/cobra"

	"github.com/yshui/entangle/internal/app"
)

var (
	home    string
	verbose bool
	appCtx  *app.App
)

func Execute() error {
	root := &cobra.Command{
		Use:           "entangle",
		Short:         "Forward input devices to another machine",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			appCtx, err = app.New(app.Config{Home: home, Verbose: verbose})
			return err
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "state dir (default ~/.entangle)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(pairCmd(), serverCmd(), clientCmd(), peersCmd(), devicesCmd())
	return root.Execute()
}
