package app

import (
	"bytes"
	"crypto/sha1"
	"errors"
	"testing"

	"github.com/lenaggar/bittorrent-go/app/bencode"
)

func TestVerifyCanonical(t *testing.T) {
	data := buildTorrent("http://t/", 5, "f", 5, make([]byte, 20))

	report, err := Parser{}.Verify(data)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !report.DocumentCanonical {
		t.Error("DocumentCanonical = false, want true")
	}
	if !report.InfoCanonical() {
		t.Errorf("RawInfoHash %x differs from InfoHash %x", report.RawInfoHash, report.Meta.InfoHash)
	}
}

func TestVerifyNonCanonicalInfo(t *testing.T) {
	pieces := make([]byte, 20)

	var b bytes.Buffer
	b.WriteString("d8:announce9:http://t/4:infod4:name1:f6:lengthi5e12:piece lengthi5e6:pieces20:")
	b.Write(pieces)
	b.WriteString("ee")
	data := b.Bytes()

	report, err := Parser{}.Verify(data)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if report.DocumentCanonical {
		t.Error("DocumentCanonical = true for unsorted info keys")
	}
	if report.InfoCanonical() {
		t.Error("InfoCanonical = true for unsorted info keys")
	}

	stored := data[bytes.Index(data, []byte("d4:name")) : len(data)-1]
	if report.RawInfoHash != sha1.Sum(stored) {
		t.Errorf("RawInfoHash = %x, want the digest of the stored bytes", report.RawInfoHash)
	}
	if report.Meta.InfoHash != sha1.Sum(buildInfo(5, "f", 5, pieces)) {
		t.Errorf("InfoHash = %x, want the digest of the canonical bytes", report.Meta.InfoHash)
	}
}

func TestVerifyUnsortedTopLevelOnly(t *testing.T) {
	pieces := make([]byte, 20)

	var b bytes.Buffer
	b.WriteString("d4:info")
	b.Write(buildInfo(5, "f", 5, pieces))
	b.WriteString("8:announce9:http://t/e")

	report, err := Parser{}.Verify(b.Bytes())
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if report.DocumentCanonical {
		t.Error("DocumentCanonical = true for unsorted top-level keys")
	}
	if !report.InfoCanonical() {
		t.Error("InfoCanonical = false although info is sorted")
	}
}

func TestVerifyTrailing(t *testing.T) {
	data := append(buildTorrent("http://t/", 5, "f", 5, make([]byte, 20)), "junk"...)

	if _, err := (Parser{}).Verify(data); !errors.Is(err, bencode.ErrTrailingData) {
		t.Fatalf("expected ErrTrailingData, got %v", err)
	}

	report, err := Parser{Decoder: bencode.Decoder{AllowTrailing: true}}.Verify(data)
	if err != nil {
		t.Fatalf("Verify with AllowTrailing: %v", err)
	}
	if !report.DocumentCanonical {
		t.Error("trailing bytes should not count against canonical form")
	}
}

func TestRawInfoHashMissingInfo(t *testing.T) {
	if _, err := RawInfoHash([]byte("d8:announce1:ae")); !errors.Is(err, ErrSchemaViolation) {
		t.Errorf("expected ErrSchemaViolation, got %v", err)
	}
}
