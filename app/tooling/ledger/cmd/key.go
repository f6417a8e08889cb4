package cmd

import (
	"fmt"
	"os"

	"github.com/hashledger/ledger/foundation/blockchain/signature"
	"github.com/hashledger/ledger/foundation/nameservice"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newGenKeyCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "genkey",
		Short: "Generate a new private key for signing blocks",
		RunE: func(cmd *cobra.Command, args []string) error {
			signer, err := signature.GenerateSigner()
			if err != nil {
				return err
			}

			if err := os.MkdirAll(opts.accountPath, 0700); err != nil {
				return fmt.Errorf("creating account path: %w", err)
			}

			if err := signer.Save(opts.keyPath()); err != nil {
				return fmt.Errorf("saving key: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), signer.Address())
			return nil
		},
	}
}

func newAddressCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "address",
		Short: "Print the checksum address for the private key",
		RunE: func(cmd *cobra.Command, args []string) error {
			signer, err := signature.LoadSigner(opts.keyPath())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), signer.Address())
			return nil
		},
	}
}

func newAccountsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "accounts",
		Short: "List the named keys in the account path",
		RunE: func(cmd *cobra.Command, args []string) error {
			ns, err := nameservice.New(opts.accountPath)
			if err != nil {
				return err
			}

			data := pterm.TableData{
				{"Name", "Address"},
			}
			for _, account := range ns.Accounts() {
				data = append(data, []string{account.Name, account.Address})
			}

			table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}
}
