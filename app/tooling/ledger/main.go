// This program provides key management, an in-memory demo and a client for
// the ledger node.
package main

import (
	"os"

	"github.com/hashledger/ledger/app/tooling/ledger/cmd"
)

func main() {
	if err := cmd.New().Execute(); err != nil {
		os.Exit(1)
	}
}
