// Package bencode decodes and canonically encodes bencoded values.
package bencode

import (
	"bytes"
	"fmt"
)

// BType defines the type of value stored in BNode.
type BType int

const (
	BString BType = iota
	BInt
	BList
	BDict
)

func (t BType) String() string {
	switch t {
	case BString:
		return "string"
	case BInt:
		return "integer"
	case BList:
		return "list"
	case BDict:
		return "dictionary"
	default:
		return fmt.Sprintf("BType(%d)", int(t))
	}
}

// BNode represents a self-referencing structure to hold Bencode values.
//
// Only the field matching Type is meaningful. Str holds raw bytes, bencode
// strings are not required to be valid UTF-8. Dict keys are raw key bytes
// stored in a Go string; the encoder sorts them, so decoded key order is not kept.
type BNode struct {
	Type BType
	Str  []byte
	Int  int64
	List []*BNode
	Dict map[string]*BNode
}

// NewString returns a string node holding the bytes of s.
func NewString(s string) BNode {
	return BNode{Type: BString, Str: []byte(s)}
}

// NewBytes returns a string node holding a copy of b.
func NewBytes(b []byte) BNode {
	return BNode{Type: BString, Str: append([]byte{}, b...)}
}

// NewInt returns an integer node.
func NewInt(i int64) BNode {
	return BNode{Type: BInt, Int: i}
}

// NewList returns a list node with the given items in order.
func NewList(items ...BNode) BNode {
	r := BNode{Type: BList, List: make([]*BNode, 0, len(items))}
	for i := range items {
		item := items[i]
		r.List = append(r.List, &item)
	}
	return r
}

// NewDict returns a dictionary node. The map is copied.
func NewDict(entries map[string]BNode) BNode {
	r := BNode{Type: BDict, Dict: make(map[string]*BNode, len(entries))}
	for k, v := range entries {
		v := v
		r.Dict[k] = &v
	}
	return r
}

// Lookup returns the value stored under key in a dictionary node.
func (n BNode) Lookup(key string) (*BNode, bool) {
	if n.Type != BDict {
		return nil, false
	}
	v, ok := n.Dict[key]
	return v, ok && v != nil
}

// Equal reports whether n and other describe the same value. Dictionaries are
// compared by key set and values, lists element by element.
func (n BNode) Equal(other BNode) bool {
	if n.Type != other.Type {
		return false
	}

	switch n.Type {
	case BString:
		return bytes.Equal(n.Str, other.Str)
	case BInt:
		return n.Int == other.Int
	case BList:
		if len(n.List) != len(other.List) {
			return false
		}
		for i := range n.List {
			if !equalPtr(n.List[i], other.List[i]) {
				return false
			}
		}
		return true
	case BDict:
		if len(n.Dict) != len(other.Dict) {
			return false
		}
		for k, v := range n.Dict {
			w, ok := other.Dict[k]
			if !ok || !equalPtr(v, w) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

func equalPtr(a, b *BNode) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
