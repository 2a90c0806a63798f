package app

import (
	"encoding/base32"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// ErrInvalidMagnet is returned for magnet links without a usable BitTorrent
// info hash.
var ErrInvalidMagnet = errors.New("invalid magnet link")

const btihPrefix = "urn:btih:"

// MagnetMetaInfo represents metadata for a magnet link.
type MagnetMetaInfo struct {
	TrackerUrl string
	Trackers   []string
	InfoHash   [HashSize]byte
	FileName   string
}

// ParseMagnetLink parses a magnet link to a MagnetMetaInfo object. The info
// hash may be given as 40 hex characters or 32 base32 characters.
func ParseMagnetLink(magnetLink string) (MagnetMetaInfo, error) {
	u, err := url.Parse(magnetLink)
	if err != nil {
		return MagnetMetaInfo{}, fmt.Errorf("%w: %v", ErrInvalidMagnet, err)
	}
	if u.Scheme != "magnet" {
		return MagnetMetaInfo{}, fmt.Errorf("%w: scheme %q", ErrInvalidMagnet, u.Scheme)
	}

	query, err := url.ParseQuery(u.RawQuery)
	if err != nil {
		return MagnetMetaInfo{}, fmt.Errorf("%w: %v", ErrInvalidMagnet, err)
	}

	result := MagnetMetaInfo{
		Trackers: query["tr"],
		FileName: query.Get("dn"),
	}
	if len(result.Trackers) > 0 {
		result.TrackerUrl = result.Trackers[0]
	}

	found := false
	for _, xt := range query["xt"] {
		if !strings.HasPrefix(xt, btihPrefix) {
			continue
		}
		hash, err := decodeBtih(strings.TrimPrefix(xt, btihPrefix))
		if err != nil {
			return MagnetMetaInfo{}, err
		}
		result.InfoHash = hash
		found = true
		break
	}
	if !found {
		return MagnetMetaInfo{}, fmt.Errorf("%w: no %s exact topic", ErrInvalidMagnet, btihPrefix)
	}

	return result, nil
}

func decodeBtih(s string) ([HashSize]byte, error) {
	var hash [HashSize]byte

	var raw []byte
	var err error
	switch len(s) {
	case 2 * HashSize:
		raw, err = hex.DecodeString(s)
	case 32:
		raw, err = base32.StdEncoding.DecodeString(strings.ToUpper(s))
	default:
		return hash, fmt.Errorf("%w: info hash %q has length %d", ErrInvalidMagnet, s, len(s))
	}
	if err != nil {
		return hash, fmt.Errorf("%w: info hash %q: %v", ErrInvalidMagnet, s, err)
	}

	copy(hash[:], raw)
	return hash, nil
}

// MagnetLink returns a magnet URI carrying the info hash, the name and every
// known tracker.
func (m MetaInfo) MagnetLink() string {
	var b strings.Builder
	b.WriteString("magnet:?xt=")
	b.WriteString(btihPrefix)
	b.WriteString(m.InfoHashHex())

	if m.Name != "" {
		b.WriteString("&dn=")
		b.WriteString(url.QueryEscape(m.Name))
	}

	seen := make(map[string]bool)
	addTracker := func(tr string) {
		if tr == "" || seen[tr] {
			return
		}
		seen[tr] = true
		b.WriteString("&tr=")
		b.WriteString(url.QueryEscape(tr))
	}

	addTracker(m.TrackerUrl)
	for _, tier := range m.AnnounceList {
		for _, tr := range tier {
			addTracker(tr)
		}
	}

	return b.String()
}
