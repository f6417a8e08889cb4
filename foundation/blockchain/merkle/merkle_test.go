// Copyright 2017 Cameron Bergoon
// https://github.com/cbergoon/merkletree
// Licensed under the MIT License, see LICENCE file for details.

package merkle_test

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"hash"
	"testing"

	"github.com/hashledger/ledger/foundation/blockchain/digest"
	"github.com/hashledger/ledger/foundation/blockchain/merkle"
)

// Data is a simple string value for the merkle tree.
type Data struct {
	x string
}

// Bytes returns the value to be hashed.
func (d Data) Bytes() ([]byte, error) {
	return []byte(d.x), nil
}

// Equals tests for equality of two piece of data.
func (d Data) Equals(other Data) bool {
	return d.x == other.x
}

// BadData fails to produce its bytes.
type BadData struct{}

func (BadData) Bytes() ([]byte, error)   { return nil, errors.New("no bytes") }
func (BadData) Equals(other BadData) bool { return true }

// =============================================================================

func leaf(s string) string {
	return digest.Sum([]byte(s))
}

func Test_NewTree(t *testing.T) {
	a, b, c, d, e := leaf("a"), leaf("b"), leaf("c"), leaf("d"), leaf("e")
	ab := digest.Combine(a, b)
	cd := digest.Combine(c, d)

	tt := []struct {
		name string
		data []Data
		exp  string
	}{
		{"single", []Data{{"a"}}, a},
		{"pair", []Data{{"a"}, {"b"}}, ab},
		{"odd", []Data{{"a"}, {"b"}, {"c"}}, digest.Combine(ab, c)},
		{"four", []Data{{"a"}, {"b"}, {"c"}, {"d"}}, digest.Combine(ab, cd)},
		{"five", []Data{{"a"}, {"b"}, {"c"}, {"d"}, {"e"}}, digest.Combine(digest.Combine(ab, cd), e)},
	}

	for _, tst := range tt {
		t.Run(tst.name, func(t *testing.T) {
			tree, err := merkle.NewTree(tst.data)
			if err != nil {
				t.Fatalf("Should be able to construct the tree: %s", err)
			}

			if tree.MerkleRoot != tst.exp {
				t.Logf("got: %s", tree.MerkleRoot)
				t.Logf("exp: %s", tst.exp)
				t.Fatalf("Should get back the right merkle root.")
			}

			root, err := merkle.Root(tst.data)
			if err != nil {
				t.Fatalf("Should be able to compute the root: %s", err)
			}

			if root != tree.RootHex() {
				t.Fatalf("Should get the same root from Root and NewTree.")
			}
		})
	}
}

func Test_OddLeafNotDuplicated(t *testing.T) {
	a, b, c := leaf("a"), leaf("b"), leaf("c")

	tree, err := merkle.NewTree([]Data{{"a"}, {"b"}, {"c"}})
	if err != nil {
		t.Fatalf("Should be able to construct the tree: %s", err)
	}

	dup := digest.Combine(digest.Combine(a, b), digest.Combine(c, c))
	if tree.MerkleRoot == dup {
		t.Fatalf("Should not duplicate the last leaf on an odd layer.")
	}

	if len(tree.Layers) != 3 {
		t.Fatalf("Should have 3 layers, got %d.", len(tree.Layers))
	}

	if tree.Layers[1][1] != c {
		t.Fatalf("Should promote the unpaired leaf unchanged.")
	}
}

func Test_OrderSensitive(t *testing.T) {
	ab, err := merkle.Root([]Data{{"a"}, {"b"}})
	if err != nil {
		t.Fatalf("Should be able to compute the root: %s", err)
	}

	ba, err := merkle.Root([]Data{{"b"}, {"a"}})
	if err != nil {
		t.Fatalf("Should be able to compute the root: %s", err)
	}

	if ab == ba {
		t.Fatalf("Should get different roots when the leafs are reordered.")
	}
}

func Test_NoContent(t *testing.T) {
	if _, err := merkle.NewTree([]Data{}); !errors.Is(err, merkle.ErrNoContent) {
		t.Fatalf("Should get ErrNoContent for an empty tree, got %v.", err)
	}
}

func Test_BadLeaf(t *testing.T) {
	if _, err := merkle.NewTree([]BadData{{}}); err == nil {
		t.Fatalf("Should get an error when a leaf can't produce its bytes.")
	}
}

func Test_WithHashStrategy(t *testing.T) {
	sum := func(s string) string {
		h := sha256.Sum256([]byte(s))
		return hex.EncodeToString(h[:])
	}

	tree, err := merkle.NewTree([]Data{{"a"}, {"b"}, {"c"}}, merkle.WithHashStrategy[Data](sha256.New))
	if err != nil {
		t.Fatalf("Should be able to construct the tree: %s", err)
	}

	exp := sum(sum(sum("a")+sum("b")) + sum("c"))
	if tree.MerkleRoot != exp {
		t.Logf("got: %s", tree.MerkleRoot)
		t.Logf("exp: %s", exp)
		t.Fatalf("Should use the provided hash strategy.")
	}
}

func Test_ProofAndVerifyData(t *testing.T) {
	strategies := []func() hash.Hash{digest.New, sha256.New}

	for _, strategy := range strategies {
		for n := 1; n <= 9; n++ {
			var data []Data
			for i := 0; i < n; i++ {
				data = append(data, Data{x: string(rune('a' + i))})
			}

			tree, err := merkle.NewTree(data, merkle.WithHashStrategy[Data](strategy))
			if err != nil {
				t.Fatalf("[n:%d] Should be able to construct the tree: %s", n, err)
			}

			if err := tree.Verify(); err != nil {
				t.Fatalf("[n:%d] Should be able to verify the tree: %s", n, err)
			}

			for _, d := range data {
				if err := tree.VerifyData(d); err != nil {
					t.Fatalf("[n:%d] Should be able to verify %q: %s", n, d.x, err)
				}
			}

			if err := tree.VerifyData(Data{x: "NotInTestTable"}); err == nil {
				t.Fatalf("[n:%d] Should not verify data that isn't in the tree.", n)
			}
		}
	}
}

func Test_VerifyTampered(t *testing.T) {
	data := []Data{{"Hello"}, {"Hi"}, {"Hey"}}

	tree, err := merkle.NewTree(data)
	if err != nil {
		t.Fatalf("Should be able to construct the tree: %s", err)
	}

	root := tree.MerkleRoot
	tree.MerkleRoot = leaf("tampered")

	if err := tree.Verify(); err == nil {
		t.Fatalf("Should fail verification with a tampered root.")
	}

	if err := tree.VerifyData(data[0]); err == nil {
		t.Fatalf("Should fail data verification with a tampered root.")
	}

	if err := tree.Rebuild(); err != nil {
		t.Fatalf("Should be able to rebuild the tree: %s", err)
	}

	if tree.MerkleRoot != root {
		t.Fatalf("Should get back the original root after a rebuild.")
	}
}

func Test_VerifyProofMismatch(t *testing.T) {
	if merkle.VerifyProof(leaf("a"), []string{leaf("b")}, nil, leaf("a"), nil) {
		t.Fatalf("Should reject a proof with a mismatched order length.")
	}
}

func Test_Values(t *testing.T) {
	data := []Data{{"a"}, {"b"}, {"c"}}

	tree, err := merkle.NewTree(data)
	if err != nil {
		t.Fatalf("Should be able to construct the tree: %s", err)
	}

	values := tree.Values()
	if len(values) != len(data) {
		t.Fatalf("Should get back %d values, got %d.", len(data), len(values))
	}

	for i := range data {
		if !values[i].Equals(data[i]) {
			t.Fatalf("Should get back the values in order.")
		}
	}

	if tree.String() == "" {
		t.Fatalf("Should get a non empty string.")
	}
}
