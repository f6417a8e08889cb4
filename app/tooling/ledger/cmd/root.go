// Package cmd contains the ledger tooling commands.
package cmd

import (
	"path/filepath"
	"strings"

	"github.com/hashledger/ledger/foundation/nameservice"
	"github.com/spf13/cobra"
)

// options holds the persistent flag values shared by the commands.
type options struct {
	accountName string
	accountPath string
	url         string
}

// keyPath returns the path to the private key file for the account.
func (o *options) keyPath() string {
	name := o.accountName
	if !strings.HasSuffix(name, nameservice.KeyExtension) {
		name += nameservice.KeyExtension
	}

	return filepath.Join(o.accountPath, name)
}

// New constructs the root command with every sub command attached.
func New() *cobra.Command {
	var opts options

	rootCmd := &cobra.Command{
		Use:          "ledger",
		Short:        "Tooling for the hash linked ledger",
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&opts.accountName, "account", "a", "node", "Name of the private key.")
	rootCmd.PersistentFlags().StringVarP(&opts.accountPath, "account-path", "p", "zblock/accounts/", "Path to the directory with private keys.")
	rootCmd.PersistentFlags().StringVarP(&opts.url, "url", "u", "http://localhost:8080", "Url of the ledger node.")

	rootCmd.AddCommand(
		newGenKeyCmd(&opts),
		newAddressCmd(&opts),
		newAccountsCmd(&opts),
		newDemoCmd(&opts),
		newSubmitCmd(&opts),
		newBlocksCmd(&opts),
		newValidateCmd(&opts),
	)

	return rootCmd
}
