package app

import (
	"crypto/sha1"
	"encoding/hex"
	"fmt"
	"os"
	"time"

	"github.com/lenaggar/bittorrent-go/app/bencode"
)

// HashSize is the width of the info hash and of every piece digest.
const HashSize = sha1.Size

// MetaInfo holds all metadata related information for the given torrent.
type MetaInfo struct {
	TrackerUrl  string
	Name        string
	Length      int64
	InfoHash    [HashSize]byte
	PieceLength int64
	Pieces      [][HashSize]byte

	// Optional fields, zero when absent.
	AnnounceList [][]string
	Comment      string
	CreatedBy    string
	CreationDate time.Time
	Private      bool

	// Info is the decoded info dictionary the hash was computed from.
	Info bencode.BNode
}

// Parser turns descriptor bytes into a MetaInfo under a decoding policy.
// The zero value rejects trailing bytes and uses the default nesting limit.
type Parser struct {
	Decoder bencode.Decoder
}

// ParseTorrent parses a torrent descriptor with the default policy.
func ParseTorrent(data []byte) (MetaInfo, error) {
	return Parser{}.Parse(data)
}

// ParseTorrentFile parses a torrent file to a MetaInfo object.
func ParseTorrentFile(filePath string) (MetaInfo, error) {
	return Parser{}.ParseFile(filePath)
}

// Parse decodes data and projects it onto MetaInfo.
func (p Parser) Parse(data []byte) (MetaInfo, error) {
	root, err := p.Decoder.DecodeAll(data)
	if err != nil {
		return MetaInfo{}, err
	}
	return NewMetaInfo(root)
}

// ParseFile reads and parses the descriptor at filePath.
func (p Parser) ParseFile(filePath string) (MetaInfo, error) {
	file, err := os.ReadFile(filePath)
	if err != nil {
		return MetaInfo{}, err
	}

	meta, err := p.Parse(file)
	if err != nil {
		return MetaInfo{}, fmt.Errorf("%s: %w", filePath, err)
	}
	return meta, nil
}

// NewMetaInfo projects a decoded torrent dictionary onto MetaInfo and computes
// its info hash. Missing or mistyped fields fail with a *SchemaError.
func NewMetaInfo(root bencode.BNode) (MetaInfo, error) {
	if root.Type != bencode.BDict {
		return MetaInfo{}, schemaErrorf("torrent", "expected dictionary, got %s", root.Type)
	}

	announce, err := requireString(root, "", "announce")
	if err != nil {
		return MetaInfo{}, err
	}

	info, ok := root.Lookup("info")
	if !ok {
		return MetaInfo{}, schemaErrorf("info", "missing")
	}
	if info.Type != bencode.BDict {
		return MetaInfo{}, schemaErrorf("info", "expected dictionary, got %s", info.Type)
	}

	length, err := requireInt(*info, "info.", "length")
	if err != nil {
		return MetaInfo{}, err
	}
	if length < 0 {
		return MetaInfo{}, schemaErrorf("info.length", "negative length %d", length)
	}

	name, err := requireString(*info, "info.", "name")
	if err != nil {
		return MetaInfo{}, err
	}

	pieceLength, err := requireInt(*info, "info.", "piece length")
	if err != nil {
		return MetaInfo{}, err
	}
	if pieceLength <= 0 {
		return MetaInfo{}, schemaErrorf("info.piece length", "must be positive, got %d", pieceLength)
	}

	piecesStr, err := requireString(*info, "info.", "pieces")
	if err != nil {
		return MetaInfo{}, err
	}
	pieces, err := splitPieces(piecesStr)
	if err != nil {
		return MetaInfo{}, err
	}

	infoHash, err := CalculateInfoHash(*info)
	if err != nil {
		return MetaInfo{}, err
	}

	result := MetaInfo{
		TrackerUrl:  string(announce),
		Name:        string(name),
		Length:      length,
		InfoHash:    infoHash,
		PieceLength: pieceLength,
		Pieces:      pieces,
		Info:        *info,
	}
	if err := result.readOptional(root, *info); err != nil {
		return MetaInfo{}, err
	}

	return result, nil
}

func (m *MetaInfo) readOptional(root, info bencode.BNode) error {
	if v, ok := root.Lookup("announce-list"); ok {
		tiers, err := announceList(*v)
		if err != nil {
			return err
		}
		m.AnnounceList = tiers
	}

	if v, ok := root.Lookup("comment"); ok {
		if v.Type != bencode.BString {
			return schemaErrorf("comment", "expected string, got %s", v.Type)
		}
		m.Comment = string(v.Str)
	}

	if v, ok := root.Lookup("created by"); ok {
		if v.Type != bencode.BString {
			return schemaErrorf("created by", "expected string, got %s", v.Type)
		}
		m.CreatedBy = string(v.Str)
	}

	if v, ok := root.Lookup("creation date"); ok {
		if v.Type != bencode.BInt {
			return schemaErrorf("creation date", "expected integer, got %s", v.Type)
		}
		m.CreationDate = time.Unix(v.Int, 0).UTC()
	}

	if v, ok := info.Lookup("private"); ok {
		if v.Type != bencode.BInt {
			return schemaErrorf("info.private", "expected integer, got %s", v.Type)
		}
		m.Private = v.Int == 1
	}

	return nil
}

func announceList(v bencode.BNode) ([][]string, error) {
	if v.Type != bencode.BList {
		return nil, schemaErrorf("announce-list", "expected list, got %s", v.Type)
	}

	tiers := make([][]string, 0, len(v.List))
	for i, tier := range v.List {
		if tier == nil || tier.Type != bencode.BList {
			return nil, schemaErrorf("announce-list", "tier %d is not a list", i)
		}
		urls := make([]string, 0, len(tier.List))
		for _, u := range tier.List {
			if u == nil || u.Type != bencode.BString {
				return nil, schemaErrorf("announce-list", "tier %d has a non-string entry", i)
			}
			urls = append(urls, string(u.Str))
		}
		tiers = append(tiers, urls)
	}
	return tiers, nil
}

func requireString(dict bencode.BNode, prefix, key string) ([]byte, error) {
	v, ok := dict.Lookup(key)
	if !ok {
		return nil, schemaErrorf(prefix+key, "missing")
	}
	if v.Type != bencode.BString {
		return nil, schemaErrorf(prefix+key, "expected string, got %s", v.Type)
	}
	return v.Str, nil
}

func requireInt(dict bencode.BNode, prefix, key string) (int64, error) {
	v, ok := dict.Lookup(key)
	if !ok {
		return 0, schemaErrorf(prefix+key, "missing")
	}
	if v.Type != bencode.BInt {
		return 0, schemaErrorf(prefix+key, "expected integer, got %s", v.Type)
	}
	return v.Int, nil
}

// Separate each piece, each piece hash is HashSize bytes long.
func splitPieces(piecesStr []byte) ([][HashSize]byte, error) {
	if len(piecesStr)%HashSize != 0 {
		return nil, schemaErrorf("info.pieces", "length %d is not a multiple of %d", len(piecesStr), HashSize)
	}

	pieces := make([][HashSize]byte, len(piecesStr)/HashSize)
	for i := range pieces {
		copy(pieces[i][:], piecesStr[i*HashSize:(i+1)*HashSize])
	}
	return pieces, nil
}

// CalculateInfoHash calculates the SHA1 hash of the canonical bencoding of the
// `info` dictionary, independent of any sibling keys in the torrent.
func CalculateInfoHash(infoDict bencode.BNode) ([HashSize]byte, error) {
	encodedInfo, err := bencode.Encode(infoDict)
	if err != nil {
		return [HashSize]byte{}, fmt.Errorf("encode info dictionary: %w", err)
	}
	return sha1.Sum(encodedInfo), nil
}

// InfoHashHex returns the info hash as lowercase hex.
func (m MetaInfo) InfoHashHex() string {
	return hex.EncodeToString(m.InfoHash[:])
}

// PieceHashesHex returns every piece digest as lowercase hex, in piece order.
func (m MetaInfo) PieceHashesHex() []string {
	hashes := make([]string, len(m.Pieces))
	for i, p := range m.Pieces {
		hashes[i] = hex.EncodeToString(p[:])
	}
	return hashes
}

// PieceSize returns the size of piece index. Every piece is PieceLength
// bytes except the last, which holds the remainder of Length.
func (m MetaInfo) PieceSize(index int) (int64, error) {
	if index < 0 || index >= len(m.Pieces) {
		return 0, fmt.Errorf("piece %d out of range [0, %d)", index, len(m.Pieces))
	}

	// pieces past the end of the content are empty
	if m.Length <= 0 || m.PieceLength <= 0 || int64(index) > (m.Length-1)/m.PieceLength {
		return 0, nil
	}
	start := int64(index) * m.PieceLength
	return min(m.PieceLength, m.Length-start), nil
}
