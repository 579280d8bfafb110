package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/yshui/entangle/internal/crypto"
)

func peersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "peers",
		Short: "List paired machines",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := appCtx.Store.List()
			if err != nil {
				return err
			}
			if len(creds) == 0 {
				fmt.Println("No paired machines. Run 'entangle pair' first.")
				return nil
			}
			for _, c := range creds {
				fmt.Printf("%s\t%s\tpaired %s\n",
					c.Peer, crypto.Fingerprint(c.Secret), c.CreatedAt.Format("2006-01-02 15:04"))
			}
			return nil
		},
	}
}
