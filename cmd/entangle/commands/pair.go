package commands

import (
	"bufio"
	"fmt"
	"net"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/yshui/entangle/internal/crypto"
	"github.com/yshui/entangle/internal/pairing"
)

// pairCmd runs one interactive pairing attempt, either waiting for the
// other machine (--listen) or dialing the address it printed.
func pairCmd() *cobra.Command {
	var (
		listen  bool
		addr    string
		name    string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "pair [address]",
		Short: "Establish a shared secret with another machine",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			engine := pairing.New(appCtx.Store, confirmPrompt,
				pairing.WithConfirmTimeout(timeout),
				pairing.WithLogger(appCtx.Logger))

			if listen {
				ln, err := net.Listen("tcp", addr)
				if err != nil {
					return err
				}
				defer ln.Close()
				fmt.Printf("Waiting for the other machine at %s\n", ln.Addr())
				cred, err := engine.Accept(ln, name)
				if err != nil {
					return err
				}
				fmt.Printf("Paired with %s.\nFingerprint: %s\n",
					cred.Peer, crypto.Fingerprint(cred.Secret))
				return nil
			}

			if len(args) != 1 {
				return fmt.Errorf("need the address shown by 'pair --listen' on the other machine")
			}
			cred, err := engine.Connect(args[0], name)
			if err != nil {
				return err
			}
			fmt.Printf("Paired with %s.\nFingerprint: %s\n",
				cred.Peer, crypto.Fingerprint(cred.Secret))
			return nil
		},
	}
	cmd.Flags().BoolVarP(&listen, "listen", "l", false, "wait for the other machine to connect")
	cmd.Flags().StringVar(&addr, "addr", ":3242", "listen address for --listen")
	cmd.Flags().StringVar(&name, "name", "", "name to store the peer under (default its address)")
	cmd.Flags().DurationVar(&timeout, "confirm-timeout", pairing.DefaultConfirmTimeout,
		"how long to wait for confirmation")
	return cmd
}

// confirmPrompt shows the verification code and reads the operator's
// verdict from the terminal.
func confirmPrompt(code string) (bool, error) {
	fmt.Printf("Verify the other machine shows the same code:\n\n\t%s\n\nPair? (y/N): ", code)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}
