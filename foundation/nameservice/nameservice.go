// Package nameservice reads a folder of private keys and creates a name
// service lookup for the addresses that sign blocks.
package nameservice

import (
	"errors"
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashledger/ledger/foundation/blockchain/signature"
)

// KeyExtension is the file extension of a private key file.
const KeyExtension = ".ecdsa"

// Account pairs a key file name with the address of its key.
type Account struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// NameService maintains a map of addresses for name lookup.
type NameService struct {
	accounts map[string]string
}

// New constructs a name service with the keys found under the root folder.
// A root folder that does not exist produces an empty name service.
func New(root string) (*NameService, error) {
	ns := NameService{
		accounts: make(map[string]string),
	}

	fn := func(fileName string, info fs.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walkdir failure: %w", err)
		}

		if path.Ext(fileName) != KeyExtension {
			return nil
		}

		signer, err := signature.LoadSigner(fileName)
		if err != nil {
			return err
		}

		ns.accounts[signer.Address()] = strings.TrimSuffix(path.Base(fileName), KeyExtension)

		return nil
	}

	if err := filepath.Walk(root, fn); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return &ns, nil
		}
		return nil, fmt.Errorf("walking directory: %w", err)
	}

	return &ns, nil
}

// Lookup returns the name for the specified address. The address itself
// is returned when no key is known for it.
func (ns *NameService) Lookup(address string) string {
	name, exists := ns.accounts[address]
	if !exists {
		return address
	}
	return name
}

// Accounts returns the known accounts ordered by name.
func (ns *NameService) Accounts() []Account {
	accounts := make([]Account, 0, len(ns.accounts))
	for address, name := range ns.accounts {
		accounts = append(accounts, Account{Name: name, Address: address})
	}

	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Name < accounts[j].Name
	})

	return accounts
}
