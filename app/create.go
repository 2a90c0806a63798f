package app

import (
	"bytes"
	"crypto/sha1"
	"errors"
	"fmt"
	"io"
	"time"

	jackpal "github.com/jackpal/bencode-go"
)

// DefaultPieceLength is the piece size CreateTorrent uses when none is set.
const DefaultPieceLength = 256 * 1024

// MaxPieceLength is the largest piece size CreateTorrent accepts.
const MaxPieceLength = 1 << 30

// CreateOptions describes the descriptor CreateTorrent writes.
type CreateOptions struct {
	Announce     string
	Name         string
	PieceLength  int64
	Private      bool
	Comment      string
	CreatedBy    string
	CreationDate time.Time
}

// CreateTorrent reads content, hashes it piece by piece and writes a
// single-file torrent descriptor to w. The written bytes are parsed back
// before anything reaches w, so the returned MetaInfo describes exactly what
// was written.
func CreateTorrent(w io.Writer, content io.Reader, opts CreateOptions) (MetaInfo, error) {
	if opts.Announce == "" {
		return MetaInfo{}, errors.New("create torrent: announce URL is required")
	}
	if opts.Name == "" {
		return MetaInfo{}, errors.New("create torrent: name is required")
	}

	pieceLength := opts.PieceLength
	if pieceLength <= 0 {
		pieceLength = DefaultPieceLength
	}
	if pieceLength > MaxPieceLength {
		return MetaInfo{}, fmt.Errorf("create torrent: piece length %d exceeds %d", pieceLength, MaxPieceLength)
	}

	// Hash the content one piece at a time
	pieces := make([]byte, 0)
	var length int64

	for {
		h := sha1.New()
		n, err := io.CopyN(h, content, pieceLength)
		if n > 0 {
			pieces = h.Sum(pieces)
			length += n
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return MetaInfo{}, fmt.Errorf("create torrent: read content: %w", err)
		}
	}

	info := map[string]interface{}{
		"name":         opts.Name,
		"length":       length,
		"piece length": pieceLength,
		"pieces":       string(pieces),
	}
	if opts.Private {
		info["private"] = int64(1)
	}

	torrent := map[string]interface{}{
		"announce": opts.Announce,
		"info":     info,
	}
	if opts.Comment != "" {
		torrent["comment"] = opts.Comment
	}
	if opts.CreatedBy != "" {
		torrent["created by"] = opts.CreatedBy
	}
	if !opts.CreationDate.IsZero() {
		torrent["creation date"] = opts.CreationDate.Unix()
	}

	var out bytes.Buffer
	if err := jackpal.Marshal(&out, torrent); err != nil {
		return MetaInfo{}, fmt.Errorf("create torrent: encode: %w", err)
	}

	meta, err := ParseTorrent(out.Bytes())
	if err != nil {
		return MetaInfo{}, fmt.Errorf("create torrent: %w", err)
	}

	if _, err := w.Write(out.Bytes()); err != nil {
		return MetaInfo{}, fmt.Errorf("create torrent: write: %w", err)
	}
	return meta, nil
}
