package chain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind identifies the shape of a payload.
type Kind int

// Set of payload kinds.
const (
	KindSingle Kind = iota + 1
	KindMany
)

// String implements the Stringer interface.
func (k Kind) String() string {
	switch k {
	case KindSingle:
		return "single"
	case KindMany:
		return "many"
	}

	return "unknown"
}

// =============================================================================

// Payload is the data carried by a block. It is either a single item or an
// ordered sequence of items. Only a sequence is committed to by a merkle
// tree. Items are strings, byte slices or any value encoding/json can
// marshal.
type Payload struct {
	kind  Kind
	items []any
}

// Single constructs a payload holding one item.
func Single(item any) Payload {
	return Payload{
		kind:  KindSingle,
		items: []any{item},
	}
}

// Many constructs a payload holding an ordered sequence of items.
func Many(items ...any) Payload {
	return Payload{
		kind:  KindMany,
		items: append([]any{}, items...),
	}
}

// Kind returns the shape of the payload.
func (p Payload) Kind() Kind {
	return p.kind
}

// Items returns a copy of the items in order.
func (p Payload) Items() []any {
	return append([]any{}, p.items...)
}

// Text returns the canonical textual form of the payload used for hashing.
// A single string item is used as is. Everything else is rendered as JSON,
// which sorts map keys so the text doesn't depend on insertion order.
func (p Payload) Text() (string, error) {
	switch p.kind {
	case KindSingle:
		return itemText(p.items[0])

	case KindMany:
		data, err := json.Marshal(p.items)
		if err != nil {
			return "", fmt.Errorf("%w: %s", ErrSerialization, err)
		}
		return string(data), nil
	}

	return "", fmt.Errorf("%w: payload has no kind", ErrSerialization)
}

// String implements the Stringer interface.
func (p Payload) String() string {
	s, err := p.Text()
	if err != nil {
		return fmt.Sprintf("%v", p.items)
	}

	return s
}

// Equals reports whether two payloads have the same kind and canonical text.
func (p Payload) Equals(other Payload) bool {
	if p.kind != other.kind {
		return false
	}

	s1, err1 := p.Text()
	s2, err2 := other.Text()

	return err1 == nil && err2 == nil && s1 == s2
}

// MarshalJSON implements the json.Marshaler interface. A single payload
// marshals as its item and a sequence as an array.
func (p Payload) MarshalJSON() ([]byte, error) {
	switch p.kind {
	case KindSingle:
		return json.Marshal(p.items[0])
	case KindMany:
		return json.Marshal(p.items)
	}

	return []byte("null"), nil
}

// UnmarshalJSON implements the json.Unmarshaler interface. An array becomes
// a sequence and any other value a single item. Numbers are kept as
// json.Number so they marshal back exactly as received.
func (p *Payload) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	if len(data) > 0 && data[0] == '[' {
		var items []any
		if err := dec.Decode(&items); err != nil {
			return err
		}
		*p = Many(items...)
		return nil
	}

	var item any
	if err := dec.Decode(&item); err != nil {
		return err
	}
	*p = Single(item)

	return nil
}

// =============================================================================

// leaf adapts a payload item to the merkle tree.
type leaf struct {
	item any
}

// Bytes returns the canonical text of the item.
func (l leaf) Bytes() ([]byte, error) {
	s, err := itemText(l.item)
	if err != nil {
		return nil, err
	}

	return []byte(s), nil
}

// Equals tests for equality of two leafs by their canonical text.
func (l leaf) Equals(other leaf) bool {
	s1, err1 := itemText(l.item)
	s2, err2 := itemText(other.item)

	return err1 == nil && err2 == nil && s1 == s2
}

// itemText returns the canonical text of a single item.
func itemText(item any) (string, error) {
	switch v := item.(type) {
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	}

	data, err := json.Marshal(item)
	if err != nil {
		return "", fmt.Errorf("%w: %s", ErrSerialization, err)
	}

	return string(data), nil
}
