package public

import "github.com/hashledger/ledger/foundation/blockchain/chain"

// NewBlock is what a client submits to append a block. An array payload
// is committed to with a merkle root.
type NewBlock struct {
	Payload *chain.Payload `json:"payload" validate:"required"`
}

// Validation is the result of walking the chain.
type Validation struct {
	Valid  bool   `json:"valid"`
	Length int    `json:"length"`
	Error  string `json:"error,omitempty"`
}

// PayloadResponse is the payload stored for a block hash.
type PayloadResponse struct {
	Hash    string        `json:"hash"`
	Payload chain.Payload `json:"payload"`
}

// SignerResponse describes the key blocks are signed with.
type SignerResponse struct {
	Signing bool   `json:"signing"`
	Address string `json:"address,omitempty"`
	Name    string `json:"name,omitempty"`
}
