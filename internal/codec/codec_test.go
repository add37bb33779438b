package codec

import (
	"bytes"
	"testing"
)

func TestZlibRoundTrip(t *testing.T) {
	c, err := New(MethodZlib, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	data := []byte("the quick brown fox jumps over the lazy dog, repeatedly")
	compressed, err := c.Compress(data)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	decompressed, err := c.Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(data, decompressed) {
		t.Fatalf("round trip mismatch: got %q want %q", decompressed, data)
	}
}

func TestZstdRoundTrip(t *testing.T) {
	c, err := New(MethodZstd, 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	data := bytes.Repeat([]byte("gato"), 1024)
	compressed, err := c.Compress(data)
	if err != nil {
		t.Fatalf("Compress: %v", err)
	}
	if len(compressed) >= len(data) {
		t.Fatalf("expected compression to shrink repetitive data")
	}
	decompressed, err := c.Decompress(compressed)
	if err != nil {
		t.Fatalf("Decompress: %v", err)
	}
	if !bytes.Equal(data, decompressed) {
		t.Fatalf("round trip mismatch")
	}
}

func TestParseMethod(t *testing.T) {
	if m, err := ParseMethod("zstd"); err != nil || m != MethodZstd {
		t.Fatalf("ParseMethod(zstd) = %v, %v", m, err)
	}
	if m, err := ParseMethod("zlib"); err != nil || m != MethodZlib {
		t.Fatalf("ParseMethod(zlib) = %v, %v", m, err)
	}
	if _, err := ParseMethod("bogus"); err == nil {
		t.Fatalf("expected error for unknown method")
	}
}
