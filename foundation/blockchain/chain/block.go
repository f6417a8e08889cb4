package chain

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/hashledger/ledger/foundation/blockchain/digest"
	"github.com/hashledger/ledger/foundation/blockchain/merkle"
	"github.com/hashledger/ledger/foundation/blockchain/signature"
)

// GenesisPrevHash is the previous hash recorded by the genesis block.
const GenesisPrevHash = "0"

// GenesisPayload is the payload recorded by the genesis block.
const GenesisPayload = "Genesis Block"

// =============================================================================

// BlockOptions selects the optional work performed when a block is built.
type BlockOptions struct {
	EnableMerkle bool
	Signer       *signature.Signer
}

// Block represents an entry in the chain. A block can't be changed once it
// has been constructed.
type Block struct {
	index      uint64
	timestamp  float64
	payload    Payload
	prevHash   string
	hash       string
	merkleRoot string
	signature  *signature.Signature
}

// NewBlock constructs a block, computing its hash. When merkle support is
// enabled and the payload is a sequence, the root of a tree over the items
// is recorded. When a signer is provided the hash is signed.
func NewBlock(index uint64, timestamp float64, payload Payload, prevHash string, opts BlockOptions) (Block, error) {
	b := Block{
		index:     index,
		timestamp: timestamp,
		payload:   payload,
		prevHash:  prevHash,
	}

	hash, err := b.CalculateHash()
	if err != nil {
		return Block{}, err
	}
	b.hash = hash

	if opts.EnableMerkle && payload.Kind() == KindMany && len(payload.items) > 0 {
		leafs := make([]leaf, len(payload.items))
		for i, item := range payload.items {
			leafs[i] = leaf{item: item}
		}

		root, err := merkle.Root(leafs)
		if err != nil {
			return Block{}, fmt.Errorf("merkle root: %w", err)
		}
		b.merkleRoot = root
	}

	if opts.Signer != nil {
		sig, err := opts.Signer.Sign(b.hash)
		if err != nil {
			return Block{}, fmt.Errorf("signing block: %w", err)
		}
		b.signature = &sig
	}

	return b, nil
}

// Index returns the position of the block in the chain.
func (b Block) Index() uint64 {
	return b.index
}

// Timestamp returns the time the block was created in seconds.
func (b Block) Timestamp() float64 {
	return b.timestamp
}

// Payload returns the data carried by the block.
func (b Block) Payload() Payload {
	return b.payload
}

// PrevHash returns the hash of the previous block.
func (b Block) PrevHash() string {
	return b.prevHash
}

// Hash returns the hash computed when the block was constructed.
func (b Block) Hash() string {
	return b.hash
}

// MerkleRoot returns the merkle root over the payload items and whether
// one was computed.
func (b Block) MerkleRoot() (string, bool) {
	return b.merkleRoot, b.merkleRoot != ""
}

// Signature returns the signature over the block hash and whether the
// block was signed.
func (b Block) Signature() (signature.Signature, bool) {
	if b.signature == nil {
		return signature.Signature{}, false
	}

	return *b.signature, true
}

// CalculateHash recomputes the hash from the block's stored fields.
func (b Block) CalculateHash() (string, error) {
	text, err := b.payload.Text()
	if err != nil {
		return "", err
	}

	return digest.Block(b.index, b.timestamp, text, b.prevHash), nil
}

// ValidateBlock checks the block's hash matches its fields and that it
// links to the specified previous block.
func (b Block) ValidateBlock(previousBlock Block) error {
	hash, err := b.CalculateHash()
	if err != nil {
		return err
	}

	if hash != b.hash {
		return fmt.Errorf("block hash doesn't match its contents, got %s, exp %s", hash, b.hash)
	}

	if b.prevHash != previousBlock.hash {
		return fmt.Errorf("parent block hash doesn't match our known parent, got %s, exp %s", b.prevHash, previousBlock.hash)
	}

	return nil
}

// VerifySignature checks the block's signature against the public key.
func (b Block) VerifySignature(publicKey *ecdsa.PublicKey) error {
	if b.signature == nil {
		return errors.New("block is not signed")
	}

	return signature.Verify(b.hash, *b.signature, publicKey)
}

// String implements the Stringer interface.
func (b Block) String() string {
	sig := "none"
	if b.signature != nil {
		sig = b.signature.String()
	}

	root := "none"
	if b.merkleRoot != "" {
		root = b.merkleRoot
	}

	return fmt.Sprintf("Block(Index: %d, Hash: %s, Previous Hash: %s, Merkle Root: %s, Signature: %s, Data: %s)", b.index, b.hash, b.prevHash, root, sig, b.payload)
}

// =============================================================================

// BlockData represents the block for serialization to clients.
type BlockData struct {
	Index      uint64  `json:"index"`
	Timestamp  float64 `json:"timestamp"`
	Payload    Payload `json:"payload"`
	PrevHash   string  `json:"prev_hash"`
	Hash       string  `json:"hash"`
	MerkleRoot string  `json:"merkle_root,omitempty"`
	Signature  string  `json:"signature,omitempty"`
}

// NewBlockData constructs the value to serialize.
func NewBlockData(b Block) BlockData {
	bd := BlockData{
		Index:      b.index,
		Timestamp:  b.timestamp,
		Payload:    b.payload,
		PrevHash:   b.prevHash,
		Hash:       b.hash,
		MerkleRoot: b.merkleRoot,
	}

	if b.signature != nil {
		bd.Signature = b.signature.String()
	}

	return bd
}

// ToBlock converts serialized block data back into a block. The stored hash
// is kept as is so ValidateBlock can detect data that doesn't match it.
func ToBlock(bd BlockData) (Block, error) {
	b := Block{
		index:      bd.Index,
		timestamp:  bd.Timestamp,
		payload:    bd.Payload,
		prevHash:   bd.PrevHash,
		hash:       bd.Hash,
		merkleRoot: bd.MerkleRoot,
	}

	if bd.Signature != "" {
		sig, err := signature.ToSignatureFromHex(bd.Signature)
		if err != nil {
			return Block{}, fmt.Errorf("parsing signature: %w", err)
		}
		b.signature = &sig
	}

	return b, nil
}
