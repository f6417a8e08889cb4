// Package chain implements an append-only ledger of hash linked blocks. Each
// block can commit to a sequence payload with a merkle root and carry a
// signature over its hash. Payloads are indexed by block hash.
package chain

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/hashledger/ledger/foundation/blockchain/index"
	"github.com/hashledger/ledger/foundation/blockchain/signature"
)

// Set of error variables for the chain.
var (
	ErrSerialization = errors.New("payload serialization failure")
	ErrNotFound      = errors.New("block not found")
)

// =============================================================================

// Config represents the configuration required to start the chain.
type Config struct {
	EnableMerkle  bool
	EnableSigning bool
	Signer        *signature.Signer
	GenesisTime   float64
	Now           func() float64
	EvHandler     func(v string, args ...any)
}

// Chain manages the ordered set of blocks and the index of payloads by
// block hash.
type Chain struct {
	mu sync.RWMutex

	opts      BlockOptions
	now       func() float64
	evHandler func(v string, args ...any)

	blocks []Block
	index  *index.Index[Payload]
}

// New constructs a chain holding only the genesis block.
func New(cfg Config) (*Chain, error) {
	if cfg.EnableSigning && cfg.Signer == nil {
		return nil, fmt.Errorf("%w: signing enabled without a signer", signature.ErrKeyMaterialInvalid)
	}

	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	now := cfg.Now
	if now == nil {
		now = Now
	}

	opts := BlockOptions{
		EnableMerkle: cfg.EnableMerkle,
	}
	if cfg.EnableSigning {
		opts.Signer = cfg.Signer
	}

	genesisTime := cfg.GenesisTime
	if genesisTime == 0 {
		genesisTime = now()
	}

	genesis, err := NewBlock(0, genesisTime, Single(GenesisPayload), GenesisPrevHash, opts)
	if err != nil {
		return nil, fmt.Errorf("genesis block: %w", err)
	}

	ev("chain: New: genesis: blk[%s]: merkle[%t] signing[%t]", genesis.Hash(), cfg.EnableMerkle, cfg.EnableSigning)

	ch := Chain{
		opts:      opts,
		now:       now,
		evHandler: ev,
		blocks:    []Block{genesis},
		index:     index.New[Payload](),
	}

	return &ch, nil
}

// Append builds the next block for the payload, adds it to the chain and
// indexes the payload under the new block's hash.
func (ch *Chain) Append(payload Payload) (Block, error) {
	ch.mu.Lock()
	defer ch.mu.Unlock()

	latest := ch.blocks[len(ch.blocks)-1]

	block, err := NewBlock(uint64(len(ch.blocks)), ch.now(), payload, latest.Hash(), ch.opts)
	if err != nil {
		return Block{}, err
	}

	ch.blocks = append(ch.blocks, block)
	ch.index.Insert(block.Hash(), payload)

	ch.evHandler("chain: Append: blk[%d]: hash[%s] prev[%s]", block.Index(), block.Hash(), block.PrevHash())

	return block, nil
}

// Validate walks the chain and reports whether every block after genesis
// matches its hash and links to its predecessor.
func (ch *Chain) Validate() bool {
	return ch.Verify() == nil
}

// Verify walks the chain and returns the first block that fails to match
// its hash or link to its predecessor.
func (ch *Chain) Verify() error {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	for i := 1; i < len(ch.blocks); i++ {
		if err := ch.blocks[i].ValidateBlock(ch.blocks[i-1]); err != nil {
			ch.evHandler("chain: Verify: blk[%d]: ERROR: %s", i, err)
			return fmt.Errorf("blk[%d]: %w", i, err)
		}
	}

	ch.evHandler("chain: Verify: blocks[%d]: valid", len(ch.blocks))

	return nil
}

// Retrieve returns the payload appended with the specified block hash.
func (ch *Chain) Retrieve(hash string) (Payload, bool) {
	return ch.index.Retrieve(hash)
}

// Length returns the number of blocks including genesis.
func (ch *Chain) Length() int {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	return len(ch.blocks)
}

// IndexSize returns the number of payloads in the index.
func (ch *Chain) IndexSize() int {
	return ch.index.Len()
}

// LatestBlock returns the last block in the chain.
func (ch *Chain) LatestBlock() Block {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	return ch.blocks[len(ch.blocks)-1]
}

// QueryByIndex returns the block at the specified position.
func (ch *Chain) QueryByIndex(idx uint64) (Block, error) {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	if idx >= uint64(len(ch.blocks)) {
		return Block{}, ErrNotFound
	}

	return ch.blocks[idx], nil
}

// Blocks returns a copy of the blocks in order.
func (ch *Chain) Blocks() []Block {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	return append([]Block{}, ch.blocks...)
}

// String implements the Stringer interface.
func (ch *Chain) String() string {
	blocks := ch.Blocks()

	strs := make([]string, len(blocks))
	for i, b := range blocks {
		strs[i] = b.String()
	}

	return fmt.Sprintf("Blockchain([%s])", strings.Join(strs, ", "))
}

// =============================================================================

// Now returns the current wall clock time in seconds.
func Now() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Second)
}
