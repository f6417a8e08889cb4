package cmd

import (
	"fmt"
	"strconv"
	"time"

	"github.com/hashledger/ledger/foundation/blockchain/chain"
	"github.com/hashledger/ledger/foundation/blockchain/signature"
	"github.com/hashledger/ledger/foundation/logger"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

func newDemoCmd(opts *options) *cobra.Command {
	var (
		blocks  int
		items   int
		merkle  bool
		sign    bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Build an in-memory chain and print it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if blocks < 0 {
				return fmt.Errorf("blocks must not be negative: %d", blocks)
			}
			if items < 0 {
				return fmt.Errorf("items must not be negative: %d", items)
			}

			cfg := chain.Config{
				EnableMerkle: merkle,
			}

			if sign {
				signer, err := signature.LoadSigner(opts.keyPath())
				if err != nil {
					return err
				}
				cfg.EnableSigning = true
				cfg.Signer = signer
			}

			if verbose {
				log, err := logger.New("LEDGER", "stderr")
				if err != nil {
					return err
				}
				defer log.Sync()

				cfg.EvHandler = func(v string, args ...any) {
					log.Infow(fmt.Sprintf(v, args...))
				}
			}

			ch, err := chain.New(cfg)
			if err != nil {
				return err
			}

			data := pterm.TableData{
				{"Index", "Hash", "Previous Hash", "Merkle Root", "Signed", "Took"},
			}

			for i := 1; i <= blocks; i++ {
				payload := demoPayload(i, items)

				start := time.Now()
				b, err := ch.Append(payload)
				if err != nil {
					return err
				}
				took := time.Since(start)

				stored, exists := ch.Retrieve(b.Hash())
				if !exists || !stored.Equals(payload) {
					return fmt.Errorf("blk[%d]: payload not retrievable by hash", b.Index())
				}

				root, _ := b.MerkleRoot()
				_, signed := b.Signature()

				data = append(data, []string{
					strconv.FormatUint(b.Index(), 10),
					short(b.Hash()),
					short(b.PrevHash()),
					short(root),
					strconv.FormatBool(signed),
					took.String(),
				})
			}

			table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, table)

			start := time.Now()
			valid := ch.Validate()
			fmt.Fprintf(out, "blocks: %d valid: %t took: %s\n", ch.Length(), valid, time.Since(start))

			if !valid {
				return fmt.Errorf("chain failed validation")
			}

			return nil
		},
	}

	cmd.Flags().IntVarP(&blocks, "blocks", "n", 10, "Number of blocks to append after genesis.")
	cmd.Flags().IntVar(&items, "items", 0, "Items per payload, 0 appends a single item payload.")
	cmd.Flags().BoolVar(&merkle, "merkle", true, "Record a merkle root for sequence payloads.")
	cmd.Flags().BoolVar(&sign, "sign", false, "Sign blocks with the account's private key.")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log chain events to stderr.")

	return cmd
}

// demoPayload builds the payload for the i'th demo block.
func demoPayload(i int, items int) chain.Payload {
	if items == 0 {
		return chain.Single(fmt.Sprintf("Block %d Data", i))
	}

	values := make([]any, items)
	for j := range values {
		values[j] = fmt.Sprintf("Block %d Item %d", i, j)
	}

	return chain.Many(values...)
}

// short trims a hash for display.
func short(hash string) string {
	if len(hash) <= 16 {
		return hash
	}

	return hash[:16]
}
