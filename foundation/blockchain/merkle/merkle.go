// Copyright 2017 Cameron Bergoon
// https://github.com/cbergoon/merkletree
// Licensed under the MIT License, see LICENCE file for details.
// This code has been cleaned up, refactored, and turned into generics.

// Package merkle provides an implementation of a merkle tree for committing
// to the ordered items of a block payload.
//
// The tree is built layer by layer. Layer 0 holds one leaf digest per value
// in input order. Each parent layer pairs up consecutive digests and hashes
// the concatenation of their hex strings. When a layer has an odd number of
// digests the last one is promoted unchanged to the next layer, it is never
// duplicated.
package merkle

import (
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"strings"

	"github.com/hashledger/ledger/foundation/blockchain/digest"
)

// ErrNoContent is returned when a tree is constructed with no values.
var ErrNoContent = errors.New("cannot construct tree with no content")

// Hashable represents the behavior concrete data must exhibit to be used in
// the merkle tree.
type Hashable[T any] interface {
	Bytes() ([]byte, error)
	Equals(other T) bool
}

// =============================================================================

// Tree represents a merkle tree that uses data of some type T that exhibits the
// behavior defined by the Hashable constraint.
type Tree[T Hashable[T]] struct {
	Layers       [][]string
	MerkleRoot   string
	values       []T
	hashStrategy func() hash.Hash
}

// WithHashStrategy is used to change the default hash strategy of using
// BLAKE2b-512 when constructing a new tree.
func WithHashStrategy[T Hashable[T]](hashStrategy func() hash.Hash) func(t *Tree[T]) {
	return func(t *Tree[T]) {
		t.hashStrategy = hashStrategy
	}
}

// NewTree constructs a new merkle tree that uses data of some type T that
// exhibits the behavior defined by the Hashable interface.
func NewTree[T Hashable[T]](values []T, options ...func(t *Tree[T])) (*Tree[T], error) {
	t := Tree[T]{
		hashStrategy: digest.New,
	}

	for _, option := range options {
		option(&t)
	}

	if err := t.Generate(values); err != nil {
		return nil, err
	}

	return &t, nil
}

// Root is a convenience function that builds a tree over the values and
// returns only the root digest.
func Root[T Hashable[T]](values []T, options ...func(t *Tree[T])) (string, error) {
	t, err := NewTree(values, options...)
	if err != nil {
		return "", err
	}

	return t.MerkleRoot, nil
}

// Generate constructs the layers of the tree from the specified data. If the
// tree has been generated previously, the tree is re-generated from scratch.
func (t *Tree[T]) Generate(values []T) error {
	if len(values) == 0 {
		return ErrNoContent
	}

	leafs := make([]string, len(values))
	for i, value := range values {
		data, err := value.Bytes()
		if err != nil {
			return fmt.Errorf("leaf[%d]: %w", i, err)
		}

		leafs[i] = t.sum(data)
	}

	layers := [][]string{leafs}
	for layer := leafs; len(layer) > 1; {
		layer = t.parentLayer(layer)
		layers = append(layers, layer)
	}

	t.Layers = layers
	t.MerkleRoot = layers[len(layers)-1][0]
	t.values = append([]T(nil), values...)

	return nil
}

// Rebuild is a helper function that will rebuild the tree reusing only the
// data that it currently holds.
func (t *Tree[T]) Rebuild() error {
	return t.Generate(t.values)
}

// Proof returns the set of hashes and the order of concatenating those
// hashes for proving a value is in the tree. Layers where the value's
// ancestor was promoted contribute nothing to the proof.
//
// Process the leaf hash against the proof like this.
// bytes = concat(proof[0], leafHash)  -- Order 0 says proof comes first.
// h1 = hash(bytes)
// bytes = concat(h1, proof[1])        -- Order 1 says proof comes second.
// root = hash(bytes)
//
// The calculated root should match the merkle root.
func (t *Tree[T]) Proof(data T) ([]string, []int64, error) {
	for i, value := range t.values {
		if !value.Equals(data) {
			continue
		}

		var proof []string
		var order []int64

		idx := i
		for _, layer := range t.Layers[:len(t.Layers)-1] {
			switch {
			case idx%2 == 1:
				proof = append(proof, layer[idx-1])
				order = append(order, 0) // sibling is on the left, concat first.
			case idx+1 < len(layer):
				proof = append(proof, layer[idx+1])
				order = append(order, 1) // sibling is on the right, concat second.
			}
			idx /= 2
		}

		return proof, order, nil
	}

	return nil, nil, errors.New("unable to find data in tree")
}

// VerifyData indicates whether a given piece of data is in the tree and if
// the hashes on its path reproduce the merkle root.
func (t *Tree[T]) VerifyData(data T) error {
	proof, order, err := t.Proof(data)
	if err != nil {
		return err
	}

	b, err := data.Bytes()
	if err != nil {
		return err
	}

	if !VerifyProof(t.sum(b), proof, order, t.MerkleRoot, t.hashStrategy) {
		return errors.New("merkle root is not equivalent to the merkle root calculated on the critical path")
	}

	return nil
}

// Verify recomputes every layer from the values and checks the result
// against the stored root.
func (t *Tree[T]) Verify() error {
	cpy := Tree[T]{hashStrategy: t.hashStrategy}
	if err := cpy.Generate(t.values); err != nil {
		return err
	}

	if cpy.MerkleRoot != t.MerkleRoot {
		return errors.New("root hash invalid")
	}

	return nil
}

// Values returns a copy of the values stored in the tree.
func (t *Tree[T]) Values() []T {
	return append([]T(nil), t.values...)
}

// RootHex returns the merkle root as a hex string.
func (t *Tree[T]) RootHex() string {
	return t.MerkleRoot
}

// String returns a string representation of the tree, one layer per line
// starting with the leafs.
func (t *Tree[T]) String() string {
	var sb strings.Builder
	for i, layer := range t.Layers {
		fmt.Fprintf(&sb, "%d: %v\n", i, layer)
	}

	return sb.String()
}

// =============================================================================

// VerifyProof walks the proof from a leaf hash up to the root using the
// specified hash strategy. A nil strategy means BLAKE2b-512.
func VerifyProof(leafHash string, proof []string, order []int64, root string, hashStrategy func() hash.Hash) bool {
	if len(proof) != len(order) {
		return false
	}

	if hashStrategy == nil {
		hashStrategy = digest.New
	}

	current := leafHash
	for i, p := range proof {
		var data string
		switch order[i] {
		case 0:
			data = p + current
		default:
			data = current + p
		}

		h := hashStrategy()
		h.Write([]byte(data))
		current = hex.EncodeToString(h.Sum(nil))
	}

	return current == root
}

// parentLayer pairs consecutive digests and hashes each pair. An unpaired
// last digest is carried up as is.
func (t *Tree[T]) parentLayer(layer []string) []string {
	parents := make([]string, 0, (len(layer)+1)/2)

	for i := 0; i < len(layer); i += 2 {
		if i+1 == len(layer) {
			parents = append(parents, layer[i])
			break
		}

		parents = append(parents, t.sum([]byte(layer[i]+layer[i+1])))
	}

	return parents
}

// sum hashes the data with the tree's hash strategy.
func (t *Tree[T]) sum(data []byte) string {
	h := t.hashStrategy()
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
