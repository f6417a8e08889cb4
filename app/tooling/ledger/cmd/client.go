package cmd

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/go-resty/resty/v2"
	"github.com/hashledger/ledger/foundation/blockchain/chain"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

// apiError is the error document returned by the node.
type apiError struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

func newClient(opts *options) *resty.Client {
	return resty.New().SetBaseURL(opts.url)
}

// checkResponse converts an error document into an error value.
func checkResponse(resp *resty.Response, er *apiError) error {
	if !resp.IsError() {
		return nil
	}

	if len(er.Fields) > 0 {
		return fmt.Errorf("%s: %s: %v", resp.Status(), er.Error, er.Fields)
	}

	return fmt.Errorf("%s: %s", resp.Status(), er.Error)
}

func newSubmitCmd(opts *options) *cobra.Command {
	var many bool

	cmd := &cobra.Command{
		Use:   "submit [data...]",
		Short: "Append a block to the node",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var payload chain.Payload
			switch {
			case many || len(args) > 1:
				items := make([]any, len(args))
				for i, arg := range args {
					items[i] = arg
				}
				payload = chain.Many(items...)
			default:
				payload = chain.Single(args[0])
			}

			body := struct {
				Payload chain.Payload `json:"payload"`
			}{
				Payload: payload,
			}

			var bd chain.BlockData
			var er apiError
			resp, err := newClient(opts).R().
				SetBody(body).
				SetResult(&bd).
				SetError(&er).
				Post("/v1/blocks")
			if err != nil {
				return err
			}

			if err := checkResponse(resp, &er); err != nil {
				return err
			}

			return printJSON(cmd, bd)
		},
	}

	cmd.Flags().BoolVarP(&many, "many", "m", false, "Submit the data as a sequence payload even with one item.")

	return cmd
}

func newBlocksCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "blocks",
		Short: "List the blocks held by the node",
		RunE: func(cmd *cobra.Command, args []string) error {
			var bds []chain.BlockData
			var er apiError
			resp, err := newClient(opts).R().
				SetResult(&bds).
				SetError(&er).
				Get("/v1/blocks/list")
			if err != nil {
				return err
			}

			if err := checkResponse(resp, &er); err != nil {
				return err
			}

			data := pterm.TableData{
				{"Index", "Hash", "Previous Hash", "Merkle Root", "Payload"},
			}
			for _, bd := range bds {
				data = append(data, []string{
					strconv.FormatUint(bd.Index, 10),
					short(bd.Hash),
					short(bd.PrevHash),
					short(bd.MerkleRoot),
					bd.Payload.String(),
				})
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

func newValidateCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Ask the node to validate its chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			var result struct {
				Valid  bool   `json:"valid"`
				Length int    `json:"length"`
				Error  string `json:"error,omitempty"`
			}
			var er apiError
			resp, err := newClient(opts).R().
				SetResult(&result).
				SetError(&er).
				Get("/v1/chain/validate")
			if err != nil {
				return err
			}

			if err := checkResponse(resp, &er); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "blocks: %d valid: %t\n", result.Length, result.Valid)
			if !result.Valid {
				return fmt.Errorf("chain failed validation: %s", result.Error)
			}

			return nil
		},
	}
}

// printJSON writes the value as indented JSON.
func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}
