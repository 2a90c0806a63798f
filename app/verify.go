package app

import (
	"bytes"
	"crypto/sha1"
	"fmt"

	"github.com/lenaggar/bittorrent-go/app/bencode"
	zeebo "github.com/zeebo/bencode"
)

// rawTorrent keeps the info dictionary as it appears on disk, so hashing it
// does not depend on our own re-encoding.
type rawTorrent struct {
	Info zeebo.RawMessage `bencode:"info"`
}

// RawInfoHash hashes the bytes of the top-level info value exactly as they
// appear in data. For canonically encoded descriptors it equals the InfoHash
// computed by NewMetaInfo.
func RawInfoHash(data []byte) ([HashSize]byte, error) {
	var raw rawTorrent
	if err := zeebo.DecodeBytes(data, &raw); err != nil {
		return [HashSize]byte{}, fmt.Errorf("decode raw info: %w", err)
	}
	if len(raw.Info) == 0 {
		return [HashSize]byte{}, schemaErrorf("info", "missing")
	}
	return sha1.Sum(raw.Info), nil
}

// CanonicalReport compares a descriptor with its canonical re-encoding.
type CanonicalReport struct {
	Meta MetaInfo
	// RawInfoHash is the digest of the info bytes as stored.
	RawInfoHash [HashSize]byte
	// DocumentCanonical is true when the whole document re-encodes to the
	// same bytes.
	DocumentCanonical bool
}

// InfoCanonical reports whether the stored info dictionary hashes to the same
// value as its canonical encoding.
func (r CanonicalReport) InfoCanonical() bool {
	return r.RawInfoHash == r.Meta.InfoHash
}

// Verify parses data and checks whether it is canonically encoded. Trailing
// bytes allowed by the decoder are excluded from the comparison.
func (p Parser) Verify(data []byte) (CanonicalReport, error) {
	root, rest, err := p.Decoder.Decode(data)
	if err != nil {
		return CanonicalReport{}, err
	}
	if len(rest) > 0 && !p.Decoder.AllowTrailing {
		return CanonicalReport{}, &bencode.SyntaxError{
			Offset: len(data) - len(rest),
			Err:    bencode.ErrTrailingData,
			Detail: fmt.Sprintf("%d unconsumed bytes", len(rest)),
		}
	}
	document := data[:len(data)-len(rest)]

	meta, err := NewMetaInfo(root)
	if err != nil {
		return CanonicalReport{}, err
	}

	rawHash, err := RawInfoHash(document)
	if err != nil {
		return CanonicalReport{}, err
	}

	reencoded, err := bencode.Encode(root)
	if err != nil {
		return CanonicalReport{}, err
	}

	return CanonicalReport{
		Meta:              meta,
		RawInfoHash:       rawHash,
		DocumentCanonical: bytes.Equal(reencoded, document),
	}, nil
}
