package bencode

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// MarshalBNode encodes a BNode into JSON format. Byte strings become JSON
// strings; bytes that are not valid UTF-8 are replaced by encoding/json.
func MarshalBNode(node *BNode) ([]byte, error) {
	if node == nil {
		return nil, fmt.Errorf("bencode: %w: nil node", ErrInvalidNode)
	}

	switch node.Type {
	case BString:
		return json.Marshal(string(node.Str))

	case BInt:
		return json.Marshal(node.Int)

	case BList:
		encodedList := make([]json.RawMessage, 0, len(node.List))
		for _, item := range node.List {
			encodedItem, err := MarshalBNode(item)
			if err != nil {
				return nil, err
			}
			encodedList = append(encodedList, encodedItem)
		}
		return json.Marshal(encodedList)

	case BDict:
		encodedDict := make(map[string]json.RawMessage, len(node.Dict))
		for key, value := range node.Dict {
			encodedItem, err := MarshalBNode(value)
			if err != nil {
				return nil, err
			}
			encodedDict[key] = encodedItem
		}
		return json.Marshal(encodedDict)

	default:
		return nil, fmt.Errorf("bencode: %w: unknown node type %d", ErrInvalidNode, node.Type)
	}
}

// FromJSON builds a BNode from a single JSON document. Numbers must be
// integers; booleans and null have no bencode counterpart and are rejected.
func FromJSON(data []byte) (BNode, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return BNode{}, fmt.Errorf("bencode: parse json: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return BNode{}, fmt.Errorf("bencode: %w: json document", ErrTrailingData)
	}

	v, err := normalizeJSON(v)
	if err != nil {
		return BNode{}, err
	}
	return FromValue(v)
}

// normalizeJSON replaces json.Number with int64 and rejects values that
// cannot be bencoded.
func normalizeJSON(v any) (any, error) {
	switch x := v.(type) {
	case json.Number:
		i, err := x.Int64()
		if err != nil {
			return nil, fmt.Errorf("bencode: %w: %s is not an integer", ErrInvalidNode, x)
		}
		return i, nil
	case string:
		return x, nil
	case []any:
		for i := range x {
			item, err := normalizeJSON(x[i])
			if err != nil {
				return nil, err
			}
			x[i] = item
		}
		return x, nil
	case map[string]any:
		for k, item := range x {
			item, err := normalizeJSON(item)
			if err != nil {
				return nil, err
			}
			x[k] = item
		}
		return x, nil
	default:
		return nil, fmt.Errorf("bencode: %w: json value %v", ErrInvalidNode, v)
	}
}
