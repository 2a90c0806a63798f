package bencode

import (
	"bytes"
	"fmt"
	"strconv"
)

// DefaultMaxDepth is the deepest list/dictionary nesting a Decoder accepts
// when MaxDepth is not set.
const DefaultMaxDepth = 512

// Decoder holds the decoding policy. The zero value is ready to use: it
// allows DefaultMaxDepth levels of nesting and DecodeAll rejects trailing bytes.
type Decoder struct {
	// MaxDepth limits container nesting. Values <= 0 mean DefaultMaxDepth.
	MaxDepth int
	// AllowTrailing makes DecodeAll ignore bytes after the first value.
	AllowTrailing bool
}

// Decode decodes the first bencoded value in data with the default policy and
// returns it together with the unconsumed remainder of data.
//
// Example:
// - 5:hello -> "hello", ""
// - i42ei7e -> 42, "i7e"
func Decode(data []byte) (BNode, []byte, error) {
	return Decoder{}.Decode(data)
}

// DecodeAll decodes a single value that must span all of data.
func DecodeAll(data []byte) (BNode, error) {
	return Decoder{}.DecodeAll(data)
}

// Decode decodes the first value in data and returns it with the remaining
// bytes. On error no partial value is returned.
func (d Decoder) Decode(data []byte) (BNode, []byte, error) {
	st := decodeState{data: data, maxDepth: d.MaxDepth}
	if st.maxDepth <= 0 {
		st.maxDepth = DefaultMaxDepth
	}

	node, rest, err := st.value(data, 0)
	if err != nil {
		return BNode{}, nil, err
	}
	return node, rest, nil
}

// DecodeAll decodes the first value in data. Bytes left over after it are an
// ErrTrailingData error unless AllowTrailing is set.
func (d Decoder) DecodeAll(data []byte) (BNode, error) {
	node, rest, err := d.Decode(data)
	if err != nil {
		return BNode{}, err
	}
	if len(rest) > 0 && !d.AllowTrailing {
		return BNode{}, &SyntaxError{
			Offset: len(data) - len(rest),
			Err:    ErrTrailingData,
			Detail: fmt.Sprintf("%d unconsumed bytes", len(rest)),
		}
	}
	return node, nil
}

// decodeState keeps the full input so errors can carry offsets.
type decodeState struct {
	data     []byte
	maxDepth int
}

func (st *decodeState) fail(s []byte, kind error, format string, args ...any) error {
	return &SyntaxError{
		Offset: len(st.data) - len(s),
		Err:    kind,
		Detail: fmt.Sprintf(format, args...),
	}
}

func (st *decodeState) value(s []byte, depth int) (BNode, []byte, error) {
	if len(s) == 0 {
		return BNode{}, nil, st.fail(s, ErrUnknownValueTag, "empty input")
	}

	switch ch := s[0]; {
	case ch >= '0' && ch <= '9':
		return st.decodeString(s)
	case ch == 'i':
		return st.decodeInt(s)
	case ch == 'l':
		return st.decodeList(s, depth+1)
	case ch == 'd':
		return st.decodeDict(s, depth+1)
	default:
		return BNode{}, nil, st.fail(s, ErrUnknownValueTag, "%q", ch)
	}
}

// decodeString decodes <length>:<bytes>. The declared length is checked
// against the remaining input before the value is copied out.
func (st *decodeState) decodeString(s []byte) (BNode, []byte, error) {
	colon := bytes.IndexByte(s, ':')
	digits := s
	if colon >= 0 {
		digits = s[:colon]
	}

	for i, c := range digits {
		if c < '0' || c > '9' {
			return BNode{}, nil, st.fail(s[i:], ErrMalformedLength, "unexpected %q in length", c)
		}
	}
	if colon < 0 {
		return BNode{}, nil, st.fail(s, ErrTruncatedInput, "missing ':' after string length")
	}
	if len(digits) > 1 && digits[0] == '0' {
		return BNode{}, nil, st.fail(s, ErrMalformedLength, "leading zero in %q", digits)
	}

	length, err := strconv.Atoi(string(digits))
	if err != nil {
		return BNode{}, nil, st.fail(s, ErrMalformedLength, "%q", digits)
	}

	body := s[colon+1:]
	if length > len(body) {
		return BNode{}, nil, st.fail(s, ErrTruncatedInput, "declared %d bytes, %d available", length, len(body))
	}

	str := make([]byte, length)
	copy(str, body[:length])

	return BNode{Type: BString, Str: str}, body[length:], nil
}

// decodeInt decodes i<number>e.
func (st *decodeState) decodeInt(s []byte) (BNode, []byte, error) {
	end := bytes.IndexByte(s, 'e')
	if end < 0 {
		return BNode{}, nil, st.fail(s, ErrTruncatedInput, "missing 'e' after integer")
	}

	text := s[1:end]
	if !validInteger(text) {
		return BNode{}, nil, st.fail(s, ErrMalformedInteger, "%q", text)
	}

	i, err := strconv.ParseInt(string(text), 10, 64)
	if err != nil {
		return BNode{}, nil, st.fail(s, ErrMalformedInteger, "%q out of range", text)
	}

	return BNode{Type: BInt, Int: i}, s[end+1:], nil
}

// validInteger accepts 0 and -?[1-9][0-9]*.
func validInteger(text []byte) bool {
	if len(text) > 0 && text[0] == '-' {
		text = text[1:]
		if len(text) == 0 || text[0] == '0' {
			return false
		}
	}
	if len(text) == 0 {
		return false
	}
	if text[0] == '0' && len(text) > 1 {
		return false
	}
	for _, c := range text {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

// decodeList decodes l<values>e.
func (st *decodeState) decodeList(s []byte, depth int) (BNode, []byte, error) {
	if depth > st.maxDepth {
		return BNode{}, nil, st.fail(s, ErrNestingTooDeep, "more than %d levels", st.maxDepth)
	}

	r := BNode{Type: BList, List: make([]*BNode, 0)}
	s = s[1:]

	for {
		if len(s) == 0 {
			return BNode{}, nil, st.fail(s, ErrTruncatedInput, "unterminated list")
		}
		if s[0] == 'e' {
			return r, s[1:], nil
		}

		item, rest, err := st.value(s, depth)
		if err != nil {
			return BNode{}, nil, err
		}
		r.List = append(r.List, &item)
		s = rest
	}
}

// decodeDict decodes d<key><value>...e. A repeated key overwrites the
// earlier value.
func (st *decodeState) decodeDict(s []byte, depth int) (BNode, []byte, error) {
	if depth > st.maxDepth {
		return BNode{}, nil, st.fail(s, ErrNestingTooDeep, "more than %d levels", st.maxDepth)
	}

	r := BNode{Type: BDict, Dict: make(map[string]*BNode)}
	s = s[1:]

	for {
		if len(s) == 0 {
			return BNode{}, nil, st.fail(s, ErrTruncatedInput, "unterminated dictionary")
		}
		if s[0] == 'e' {
			return r, s[1:], nil
		}

		key, rest, err := st.value(s, depth)
		if err != nil {
			return BNode{}, nil, err
		}
		if key.Type != BString {
			return BNode{}, nil, st.fail(s, ErrNonStringKey, "got %s", key.Type)
		}
		s = rest

		if len(s) == 0 {
			return BNode{}, nil, st.fail(s, ErrTruncatedInput, "missing value for key %q", key.Str)
		}
		val, rest, err := st.value(s, depth)
		if err != nil {
			return BNode{}, nil, err
		}
		r.Dict[string(key.Str)] = &val
		s = rest
	}
}
