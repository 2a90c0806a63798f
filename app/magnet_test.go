package app

import (
	"encoding/base32"
	"encoding/hex"
	"errors"
	"net/url"
	"testing"
)

func TestParseMagnetLink(t *testing.T) {
	link := "magnet:?xt=urn:btih:ad42ce8109f54c99613ce38f9b4d87e70f24a165&dn=magnet1.gif&tr=http%3A%2F%2Fbittorrent-test-tracker.codecrafters.io%2Fannounce"

	magnet, err := ParseMagnetLink(link)
	if err != nil {
		t.Fatalf("ParseMagnetLink: %v", err)
	}

	if got := hex.EncodeToString(magnet.InfoHash[:]); got != "ad42ce8109f54c99613ce38f9b4d87e70f24a165" {
		t.Errorf("InfoHash = %s", got)
	}
	if magnet.FileName != "magnet1.gif" {
		t.Errorf("FileName = %q", magnet.FileName)
	}
	if magnet.TrackerUrl != "http://bittorrent-test-tracker.codecrafters.io/announce" {
		t.Errorf("TrackerUrl = %q", magnet.TrackerUrl)
	}
	if len(magnet.Trackers) != 1 {
		t.Errorf("Trackers = %v", magnet.Trackers)
	}
}

func TestParseMagnetLinkBase32(t *testing.T) {
	raw, _ := hex.DecodeString("ad42ce8109f54c99613ce38f9b4d87e70f24a165")
	encoded := base32.StdEncoding.EncodeToString(raw)

	magnet, err := ParseMagnetLink("magnet:?xt=urn:btih:" + encoded)
	if err != nil {
		t.Fatalf("ParseMagnetLink: %v", err)
	}
	if hex.EncodeToString(magnet.InfoHash[:]) != "ad42ce8109f54c99613ce38f9b4d87e70f24a165" {
		t.Errorf("InfoHash = %x", magnet.InfoHash)
	}
	if magnet.TrackerUrl != "" || magnet.FileName != "" {
		t.Errorf("expected no tracker and no name, got %+v", magnet)
	}
}

func TestParseMagnetLinkErrors(t *testing.T) {
	tests := []struct {
		name string
		link string
	}{
		{"wrong scheme", "http://example.com/?xt=urn:btih:ad42ce8109f54c99613ce38f9b4d87e70f24a165"},
		{"no exact topic", "magnet:?dn=file"},
		{"other urn only", "magnet:?xt=urn:sha1:ad42ce8109f54c99613ce38f9b4d87e70f24a165"},
		{"short hash", "magnet:?xt=urn:btih:ad42ce"},
		{"bad hex", "magnet:?xt=urn:btih:zz42ce8109f54c99613ce38f9b4d87e70f24a165"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseMagnetLink(tt.link); !errors.Is(err, ErrInvalidMagnet) {
				t.Errorf("expected ErrInvalidMagnet, got %v", err)
			}
		})
	}
}

func TestMagnetLinkRoundTrip(t *testing.T) {
	meta, err := ParseTorrent(buildTorrent("http://t/announce", 5, "my file.txt", 5, make([]byte, 20)))
	if err != nil {
		t.Fatalf("ParseTorrent: %v", err)
	}
	meta.AnnounceList = [][]string{{"http://t/announce", "udp://backup:6969"}}

	link := meta.MagnetLink()
	if _, err := url.Parse(link); err != nil {
		t.Fatalf("MagnetLink produced an unparsable URI %q: %v", link, err)
	}

	magnet, err := ParseMagnetLink(link)
	if err != nil {
		t.Fatalf("ParseMagnetLink(%q): %v", link, err)
	}
	if magnet.InfoHash != meta.InfoHash {
		t.Errorf("InfoHash = %x, want %x", magnet.InfoHash, meta.InfoHash)
	}
	if magnet.FileName != "my file.txt" {
		t.Errorf("FileName = %q", magnet.FileName)
	}
	want := []string{"http://t/announce", "udp://backup:6969"}
	if len(magnet.Trackers) != len(want) {
		t.Fatalf("Trackers = %v, want %v", magnet.Trackers, want)
	}
	for i := range want {
		if magnet.Trackers[i] != want[i] {
			t.Errorf("Trackers[%d] = %q, want %q", i, magnet.Trackers[i], want[i])
		}
	}
}
