package codexfs_test

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/codexfs/codexfs"
)

func TestEncodeDecodeFragmentMicroLZMA(t *testing.T) {
	src := []byte(strings.Repeat("fragment roundtrip data ", 20))

	compressed, err := codexfs.EncodeFragment(codexfs.CodecMicroLZMA, src)
	if err != nil {
		t.Fatalf("EncodeFragment: %v", err)
	}
	decoded, err := codexfs.DecodeFragment(codexfs.CodecMicroLZMA, compressed)
	if err != nil {
		t.Fatalf("DecodeFragment: %v", err)
	}
	if !bytes.Equal(decoded, src) {
		t.Fatal("decoded fragment does not match source")
	}
}

func TestDecodeFragmentUnregisteredCodec(t *testing.T) {
	_, err := codexfs.DecodeFragment(codexfs.ImageCodec(99), []byte("whatever"))
	if err == nil {
		t.Fatal("expected an error for an unregistered codec")
	}
	if !errors.Is(err, codexfs.ErrCodec) {
		t.Fatalf("expected ErrCodec, got %v", err)
	}
}

func TestRegisterCodecRoundtrip(t *testing.T) {
	const identity = codexfs.ImageCodec(200)
	codexfs.RegisterCodec(identity,
		func(src []byte) ([]byte, error) { return append([]byte(nil), src...), nil },
		func(src []byte) ([]byte, error) { return append([]byte(nil), src...), nil },
	)

	src := []byte("round trip through a custom registered codec")
	enc, err := codexfs.EncodeFragment(identity, src)
	if err != nil {
		t.Fatalf("EncodeFragment: %v", err)
	}
	dec, err := codexfs.DecodeFragment(identity, enc)
	if err != nil {
		t.Fatalf("DecodeFragment: %v", err)
	}
	if !bytes.Equal(dec, src) {
		t.Fatal("custom codec roundtrip mismatch")
	}
}

func TestImageCodecString(t *testing.T) {
	if got := codexfs.CodecMicroLZMA.String(); got != "microlzma" {
		t.Errorf("CodecMicroLZMA.String() = %q, want microlzma", got)
	}
	if got := codexfs.CodecZstd.String(); got != "zstd" {
		t.Errorf("CodecZstd.String() = %q, want zstd", got)
	}
}
