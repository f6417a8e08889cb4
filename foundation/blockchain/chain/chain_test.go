package chain_test

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/hashledger/ledger/foundation/blockchain/chain"
	"github.com/hashledger/ledger/foundation/blockchain/digest"
	"github.com/hashledger/ledger/foundation/blockchain/signature"
)

const pkHexKey = "dd90e8b1feba61b9f6b13f18a940574f01f6aa7d1dd645b4bcfa9f2fbaa51b7f"

func ifErrFailNow(t *testing.T, err error) {
	t.Helper()

	if err != nil {
		t.Error(err)
		t.FailNow()
	}
}

// clock returns a deterministic clock that advances one second per call.
func clock() func() float64 {
	ts := 1700000000.0
	return func() float64 {
		ts++
		return ts
	}
}

// =============================================================================

func Test_Genesis(t *testing.T) {
	ch, err := chain.New(chain.Config{GenesisTime: 1700000000})
	ifErrFailNow(t, err)

	if ch.Length() != 1 {
		t.Fatalf("Should have 1 block, got %d.", ch.Length())
	}

	genesis := ch.LatestBlock()
	if genesis.PrevHash() != "0" {
		t.Fatalf("Should have a previous hash of \"0\", got %q.", genesis.PrevHash())
	}

	if genesis.Index() != 0 {
		t.Fatalf("Should have an index of 0, got %d.", genesis.Index())
	}

	exp := digest.Block(0, 1700000000, chain.GenesisPayload, "0")
	if genesis.Hash() != exp {
		t.Logf("got: %s", genesis.Hash())
		t.Logf("exp: %s", exp)
		t.Fatalf("Should hash the genesis fields.")
	}

	if !ch.Validate() {
		t.Fatalf("Should have a valid chain with only genesis.")
	}
}

func Test_Linkage(t *testing.T) {
	ch, err := chain.New(chain.Config{Now: clock()})
	ifErrFailNow(t, err)

	for i := 0; i < 10; i++ {
		_, err := ch.Append(chain.Single("Block Data"))
		ifErrFailNow(t, err)
	}

	blocks := ch.Blocks()
	if len(blocks) != 11 {
		t.Fatalf("Should have 11 blocks, got %d.", len(blocks))
	}

	for i := 1; i < len(blocks); i++ {
		if blocks[i].PrevHash() != blocks[i-1].Hash() {
			t.Fatalf("blk[%d]: Should link to the previous block.", i)
		}

		if blocks[i].Index() != uint64(i) {
			t.Fatalf("blk[%d]: Should have index %d, got %d.", i, i, blocks[i].Index())
		}
	}

	if !ch.Validate() {
		t.Fatalf("Should have a valid chain.")
	}
}

func Test_EndToEnd(t *testing.T) {
	ch, err := chain.New(chain.Config{EnableMerkle: true, Now: clock()})
	ifErrFailNow(t, err)

	for _, s := range []string{"A", "B", "C"} {
		_, err := ch.Append(chain.Many(s))
		ifErrFailNow(t, err)
	}

	if ch.Length() != 4 {
		t.Fatalf("Should have 4 blocks, got %d.", ch.Length())
	}

	blocks := ch.Blocks()
	if blocks[3].PrevHash() != blocks[2].Hash() {
		t.Fatalf("Should link block 3 to block 2.")
	}

	root, ok := blocks[1].MerkleRoot()
	if !ok {
		t.Fatalf("Should have a merkle root for a sequence payload.")
	}

	if exp := digest.Sum([]byte("A")); root != exp {
		t.Logf("got: %s", root)
		t.Logf("exp: %s", exp)
		t.Fatalf("Should have the single leaf hash as the root.")
	}

	if _, ok := blocks[0].MerkleRoot(); ok {
		t.Fatalf("Should not have a merkle root on genesis.")
	}

	if !ch.Validate() {
		t.Fatalf("Should have a valid chain.")
	}
}

func Test_MerkleRoot(t *testing.T) {
	ch, err := chain.New(chain.Config{EnableMerkle: true, Now: clock()})
	ifErrFailNow(t, err)

	b, err := ch.Append(chain.Many("a", "b", "c"))
	ifErrFailNow(t, err)

	a, bb, c := digest.Sum([]byte("a")), digest.Sum([]byte("b")), digest.Sum([]byte("c"))
	exp := digest.Combine(digest.Combine(a, bb), c)

	root, _ := b.MerkleRoot()
	if root != exp {
		t.Logf("got: %s", root)
		t.Logf("exp: %s", exp)
		t.Fatalf("Should promote the odd leaf.")
	}

	single, err := ch.Append(chain.Single("a"))
	ifErrFailNow(t, err)

	if _, ok := single.MerkleRoot(); ok {
		t.Fatalf("Should not build a tree for a single payload.")
	}

	empty, err := ch.Append(chain.Many())
	ifErrFailNow(t, err)

	if _, ok := empty.MerkleRoot(); ok {
		t.Fatalf("Should not have a root for an empty sequence.")
	}
}

func Test_MerkleDisabled(t *testing.T) {
	ch, err := chain.New(chain.Config{Now: clock()})
	ifErrFailNow(t, err)

	b, err := ch.Append(chain.Many("a", "b"))
	ifErrFailNow(t, err)

	if _, ok := b.MerkleRoot(); ok {
		t.Fatalf("Should not build a tree when merkle support is disabled.")
	}
}

func Test_Retrieve(t *testing.T) {
	ch, err := chain.New(chain.Config{EnableMerkle: true, Now: clock()})
	ifErrFailNow(t, err)

	payloads := []chain.Payload{
		chain.Single("Block 1 Data"),
		chain.Many("x", "y"),
		chain.Single(map[string]any{"to": "bill", "value": 10.0}),
	}

	for _, p := range payloads {
		b, err := ch.Append(p)
		ifErrFailNow(t, err)

		got, exists := ch.Retrieve(b.Hash())
		if !exists {
			t.Fatalf("Should find the payload for blk[%d].", b.Index())
		}

		if !got.Equals(p) {
			t.Fatalf("Should get back the payload for blk[%d], got %s, exp %s.", b.Index(), got, p)
		}
	}

	if _, exists := ch.Retrieve(ch.Blocks()[0].Hash()); exists {
		t.Fatalf("Should not index the genesis payload.")
	}

	if _, exists := ch.Retrieve("unknown"); exists {
		t.Fatalf("Should not find an unknown hash.")
	}

	if ch.IndexSize() != len(payloads) {
		t.Fatalf("Should have %d payloads indexed, got %d.", len(payloads), ch.IndexSize())
	}
}

func Test_Signing(t *testing.T) {
	signer, err := signature.NewSigner(pkHexKey)
	ifErrFailNow(t, err)

	ch, err := chain.New(chain.Config{EnableSigning: true, Signer: signer, Now: clock()})
	ifErrFailNow(t, err)

	b, err := ch.Append(chain.Single("Block 1 Data"))
	ifErrFailNow(t, err)

	sig, ok := b.Signature()
	if !ok {
		t.Fatalf("Should have a signature on the block.")
	}

	if err := b.VerifySignature(signer.PublicKey()); err != nil {
		t.Fatalf("Should be able to verify the block signature: %s", err)
	}

	hash := []byte(b.Hash())
	hash[0] ^= 0x01
	if err := signature.Verify(string(hash), sig, signer.PublicKey()); err == nil {
		t.Fatalf("Should fail verification with a changed hash.")
	}

	if _, ok := ch.Blocks()[0].Signature(); !ok {
		t.Fatalf("Should sign the genesis block.")
	}
}

func Test_SigningDisabled(t *testing.T) {
	signer, err := signature.NewSigner(pkHexKey)
	ifErrFailNow(t, err)

	ch, err := chain.New(chain.Config{Signer: signer, Now: clock()})
	ifErrFailNow(t, err)

	b, err := ch.Append(chain.Single("Block 1 Data"))
	ifErrFailNow(t, err)

	if _, ok := b.Signature(); ok {
		t.Fatalf("Should not sign when signing is disabled.")
	}

	if err := b.VerifySignature(signer.PublicKey()); err == nil {
		t.Fatalf("Should fail to verify an unsigned block.")
	}
}

func Test_SignerRequired(t *testing.T) {
	_, err := chain.New(chain.Config{EnableSigning: true})
	if !errors.Is(err, signature.ErrKeyMaterialInvalid) {
		t.Fatalf("Should get ErrKeyMaterialInvalid without a signer, got %v.", err)
	}
}

func Test_SerializationFailure(t *testing.T) {
	ch, err := chain.New(chain.Config{EnableMerkle: true, Now: clock()})
	ifErrFailNow(t, err)

	tt := []chain.Payload{
		chain.Single(math.NaN()),
		chain.Many("a", make(chan int)),
		{},
	}

	for i, p := range tt {
		if _, err := ch.Append(p); !errors.Is(err, chain.ErrSerialization) {
			t.Errorf("[case:%d] Should get ErrSerialization, got %v.", i, err)
		}
	}

	if ch.Length() != 1 {
		t.Fatalf("Should not append blocks that failed, got %d blocks.", ch.Length())
	}
}

func Test_PayloadCanonical(t *testing.T) {
	m1 := map[string]any{"a": 1, "b": 2, "c": 3}
	m2 := map[string]any{"c": 3, "b": 2, "a": 1}

	s1, err := chain.Single(m1).Text()
	ifErrFailNow(t, err)

	s2, err := chain.Single(m2).Text()
	ifErrFailNow(t, err)

	if s1 != s2 {
		t.Fatalf("Should get the same text regardless of map order, got %s and %s.", s1, s2)
	}

	if chain.Single("A").Equals(chain.Many("A")) {
		t.Fatalf("Should treat a single item and a sequence as different payloads.")
	}

	// The text does not carry the kind, so a single array item and a
	// sequence of the same items hash alike.
	s1, err = chain.Single([]any{"A"}).Text()
	ifErrFailNow(t, err)

	s2, err = chain.Many("A").Text()
	ifErrFailNow(t, err)

	if s1 != s2 {
		t.Fatalf("Should render a single array item like a sequence, got %s and %s.", s1, s2)
	}

	if chain.Single([]any{"A"}).Equals(chain.Many("A")) {
		t.Fatalf("Should still tell the two kinds apart.")
	}
}

func Test_PayloadJSON(t *testing.T) {
	var p chain.Payload
	ifErrFailNow(t, json.Unmarshal([]byte(`["a", "b"]`), &p))

	if p.Kind() != chain.KindMany || len(p.Items()) != 2 {
		t.Fatalf("Should decode an array as a sequence, got %s with %d items.", p.Kind(), len(p.Items()))
	}

	ifErrFailNow(t, json.Unmarshal([]byte(`"a"`), &p))

	if p.Kind() != chain.KindSingle {
		t.Fatalf("Should decode a string as a single item, got %s.", p.Kind())
	}

	data, err := json.Marshal(chain.Many("a", "b"))
	ifErrFailNow(t, err)

	if string(data) != `["a","b"]` {
		t.Fatalf("Should encode a sequence as an array, got %s.", data)
	}
}

func Test_PayloadNumberPrecision(t *testing.T) {
	const input = `[12345678901234567891, 0.1000000000000000055511151231257827]`
	const exp = `[12345678901234567891,0.1000000000000000055511151231257827]`

	var p chain.Payload
	ifErrFailNow(t, json.Unmarshal([]byte(input), &p))

	ch, err := chain.New(chain.Config{EnableMerkle: true, Now: clock()})
	ifErrFailNow(t, err)

	b, err := ch.Append(p)
	ifErrFailNow(t, err)

	got, exists := ch.Retrieve(b.Hash())
	if !exists {
		t.Fatalf("Should find the payload for blk[%d].", b.Index())
	}

	data, err := json.Marshal(got)
	ifErrFailNow(t, err)

	if string(data) != exp {
		t.Fatalf("Should keep every digit of the numbers, got %s, exp %s.", data, exp)
	}

	text, err := got.Text()
	ifErrFailNow(t, err)

	if text != exp {
		t.Fatalf("Should hash the numbers as received, got %s, exp %s.", text, exp)
	}

	ifErrFailNow(t, json.Unmarshal([]byte(`12345678901234567891`), &p))

	if s := p.String(); s != "12345678901234567891" {
		t.Fatalf("Should keep every digit of a single number, got %s.", s)
	}
}

func Test_QueryByIndex(t *testing.T) {
	ch, err := chain.New(chain.Config{Now: clock()})
	ifErrFailNow(t, err)

	b, err := ch.Append(chain.Single("Block 1 Data"))
	ifErrFailNow(t, err)

	got, err := ch.QueryByIndex(1)
	ifErrFailNow(t, err)

	if got.Hash() != b.Hash() {
		t.Fatalf("Should get back block 1.")
	}

	if _, err := ch.QueryByIndex(2); !errors.Is(err, chain.ErrNotFound) {
		t.Fatalf("Should get ErrNotFound past the end, got %v.", err)
	}
}

func Test_BlockDataRoundTrip(t *testing.T) {
	signer, err := signature.NewSigner(pkHexKey)
	ifErrFailNow(t, err)

	ch, err := chain.New(chain.Config{EnableMerkle: true, EnableSigning: true, Signer: signer, Now: clock()})
	ifErrFailNow(t, err)

	b, err := ch.Append(chain.Many("a", "b"))
	ifErrFailNow(t, err)

	data, err := json.Marshal(chain.NewBlockData(b))
	ifErrFailNow(t, err)

	var bd chain.BlockData
	ifErrFailNow(t, json.Unmarshal(data, &bd))

	b2, err := chain.ToBlock(bd)
	ifErrFailNow(t, err)

	if err := b2.ValidateBlock(ch.Blocks()[0]); err != nil {
		t.Fatalf("Should validate the decoded block: %s", err)
	}

	if err := b2.VerifySignature(signer.PublicKey()); err != nil {
		t.Fatalf("Should verify the decoded signature: %s", err)
	}
}

func Test_String(t *testing.T) {
	ch, err := chain.New(chain.Config{Now: clock()})
	ifErrFailNow(t, err)

	if ch.String() == "" || ch.LatestBlock().String() == "" {
		t.Fatalf("Should get a non empty string.")
	}
}
