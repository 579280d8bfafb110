package commands

import (
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/yshui/entangle/internal/session"
)

// clientCmd runs the injection side: connect to a paired server and replay
// its device events locally. There is no automatic reconnect; when the
// session ends the command exits.
func clientCmd() *cobra.Command {
	var (
		server    string
		peer      string
		keepAlive time.Duration
		idle      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "client",
		Short: "Receive input from a paired server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if server == "" {
				return fmt.Errorf("--server is required")
			}
			if peer == "" {
				peer = server
			}
			mgr, err := session.NewManager(session.Config{
				Store:             appCtx.Store,
				Devices:           appCtx.Devices,
				KeepAliveInterval: keepAlive,
				IdleTimeout:       idle,
				Logger:            appCtx.Logger,
			})
			if err != nil {
				return err
			}
			conn, err := net.Dial("tcp", server)
			if err != nil {
				return err
			}
			err = mgr.RunClient(conn, peer)
			stats := mgr.Stats()
			appCtx.Logger.Info("session stats",
				"gaps", stats.SequenceGaps(),
				"duplicates", stats.Duplicates(),
				"capability_drops", stats.CapabilityDrops(),
				"devices_lost", stats.DevicesLost())
			return err
		},
	}
	cmd.Flags().StringVarP(&server, "server", "s", "", "server address")
	cmd.Flags().StringVar(&peer, "peer", "", "stored peer name (default the server address)")
	cmd.Flags().DurationVar(&keepAlive, "keepalive", session.DefaultKeepAliveInterval,
		"keep-alive interval")
	cmd.Flags().DurationVar(&idle, "idle-timeout", session.DefaultIdleTimeout,
		"drop the session after this much silence")
	return cmd
}
