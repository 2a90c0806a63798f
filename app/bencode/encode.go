package bencode

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

// Encode encodes a BNode into its canonical bencoding. Dictionary keys are
// written in raw byte order regardless of how the tree was built.
func Encode(node BNode) ([]byte, error) {
	var buf bytes.Buffer
	if err := encodeBNode(&buf, &node); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeTo writes the canonical bencoding of node to w. Nothing is written
// when the tree is invalid.
func EncodeTo(w io.Writer, node BNode) error {
	b, err := Encode(node)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

func encodeBNode(buf *bytes.Buffer, node *BNode) error {
	if node == nil {
		return fmt.Errorf("bencode: %w: nil node", ErrInvalidNode)
	}

	switch node.Type {
	case BString:
		encodeBencodeString(buf, node.Str)
	case BInt:
		encodeBencodeInt(buf, node.Int)
	case BList:
		return encodeBencodeList(buf, node)
	case BDict:
		return encodeBencodeDict(buf, node)
	default:
		return fmt.Errorf("bencode: %w: unknown node type %d", ErrInvalidNode, node.Type)
	}
	return nil
}

// encodeBencodeString writes <length>:<bytes>.
func encodeBencodeString(buf *bytes.Buffer, s []byte) {
	buf.WriteString(strconv.Itoa(len(s)))
	buf.WriteByte(':')
	buf.Write(s)
}

// encodeBencodeInt writes i<number>e.
func encodeBencodeInt(buf *bytes.Buffer, i int64) {
	buf.WriteByte('i')
	buf.WriteString(strconv.FormatInt(i, 10))
	buf.WriteByte('e')
}

func encodeBencodeList(buf *bytes.Buffer, node *BNode) error {
	buf.WriteByte('l')
	for _, item := range node.List {
		if err := encodeBNode(buf, item); err != nil {
			return err
		}
	}
	buf.WriteByte('e')
	return nil
}

func encodeBencodeDict(buf *bytes.Buffer, node *BNode) error {
	buf.WriteByte('d')

	// Extract and sort keys lexicographically
	keys := make([]string, 0, len(node.Dict))
	for key := range node.Dict {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		encodeBencodeString(buf, []byte(key))
		if err := encodeBNode(buf, node.Dict[key]); err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
	}

	buf.WriteByte('e')
	return nil
}

// Marshal encodes a Go value in canonical bencoding. See FromValue for the
// supported types.
func Marshal(v any) ([]byte, error) {
	node, err := FromValue(v)
	if err != nil {
		return nil, err
	}
	return Encode(node)
}

// FromValue converts a Go value into a BNode.
//
// Supported: BNode and *BNode, string, []byte and byte arrays (strings),
// signed and unsigned integers, slices and arrays (lists), maps with string
// keys and structs (dictionaries). Struct fields use the `bencode` tag for
// their key, "-" skips a field and ",omitempty" drops zero values.
func FromValue(v any) (BNode, error) {
	switch x := v.(type) {
	case BNode:
		return x, nil
	case *BNode:
		if x == nil {
			return BNode{}, fmt.Errorf("bencode: %w: nil node", ErrInvalidNode)
		}
		return *x, nil
	case []byte:
		return NewBytes(x), nil
	case string:
		return NewString(x), nil
	}
	return fromReflect(reflect.ValueOf(v))
}

func fromReflect(v reflect.Value) (BNode, error) {
	switch v.Kind() {
	case reflect.Invalid:
		return BNode{}, fmt.Errorf("bencode: %w: nil value", ErrInvalidNode)

	case reflect.Interface, reflect.Pointer:
		if v.IsNil() {
			return BNode{}, fmt.Errorf("bencode: %w: nil %s", ErrInvalidNode, v.Type())
		}
		return FromValue(v.Elem().Interface())

	case reflect.String:
		return NewString(v.String()), nil

	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return NewInt(v.Int()), nil

	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		u := v.Uint()
		if u > math.MaxInt64 {
			return BNode{}, fmt.Errorf("bencode: %w: %d overflows int64", ErrInvalidNode, u)
		}
		return NewInt(int64(u)), nil

	case reflect.Slice, reflect.Array:
		if v.Type().Elem().Kind() == reflect.Uint8 {
			b := make([]byte, v.Len())
			reflect.Copy(reflect.ValueOf(b), v)
			return BNode{Type: BString, Str: b}, nil
		}
		r := BNode{Type: BList, List: make([]*BNode, 0, v.Len())}
		for i := 0; i < v.Len(); i++ {
			item, err := FromValue(v.Index(i).Interface())
			if err != nil {
				return BNode{}, fmt.Errorf("index %d: %w", i, err)
			}
			r.List = append(r.List, &item)
		}
		return r, nil

	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return BNode{}, fmt.Errorf("bencode: %w: map key type %s", ErrInvalidNode, v.Type().Key())
		}
		r := BNode{Type: BDict, Dict: make(map[string]*BNode, v.Len())}
		iter := v.MapRange()
		for iter.Next() {
			key := iter.Key().String()
			item, err := FromValue(iter.Value().Interface())
			if err != nil {
				return BNode{}, fmt.Errorf("key %q: %w", key, err)
			}
			r.Dict[key] = &item
		}
		return r, nil

	case reflect.Struct:
		return fromStruct(v)

	default:
		return BNode{}, fmt.Errorf("bencode: %w: unsupported type %s", ErrInvalidNode, v.Type())
	}
}

func fromStruct(v reflect.Value) (BNode, error) {
	t := v.Type()
	r := BNode{Type: BDict, Dict: make(map[string]*BNode, t.NumField())}

	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}

		key, opts, _ := strings.Cut(field.Tag.Get("bencode"), ",")
		if key == "-" {
			continue
		}
		if key == "" {
			key = field.Name
		}

		fv := v.Field(i)
		if opts == "omitempty" && fv.IsZero() {
			continue
		}

		item, err := FromValue(fv.Interface())
		if err != nil {
			return BNode{}, fmt.Errorf("field %s: %w", field.Name, err)
		}
		r.Dict[key] = &item
	}
	return r, nil
}
