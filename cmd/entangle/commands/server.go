package commands

import (
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/yshui/entangle/internal/session"
)

// serverCmd runs the capture side: accept one authenticated connection at a
// time and forward local input to it. When a session ends the server simply
// listens again; reconnection policy beyond that is the client's problem.
func serverCmd() *cobra.Command {
	var (
		addr      string
		keepAlive time.Duration
		idle      time.Duration
	)
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Forward local input devices to a paired client",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
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
			ln, err := net.Listen("tcp", addr)
			if err != nil {
				return err
			}
			defer ln.Close()
			appCtx.Logger.Info("listening", "addr", ln.Addr())

			for {
				conn, err := ln.Accept()
				if err != nil {
					return err
				}
				appCtx.Logger.Info("connection", "from", conn.RemoteAddr())
				if err := mgr.Serve(conn); err != nil {
					appCtx.Logger.Warn("session ended", "err", err)
				}
			}
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":3241", "listen address")
	cmd.Flags().DurationVar(&keepAlive, "keepalive", session.DefaultKeepAliveInterval,
		"keep-alive interval")
	cmd.Flags().DurationVar(&idle, "idle-timeout", session.DefaultIdleTimeout,
		"drop the session after this much silence")
	return cmd
}
