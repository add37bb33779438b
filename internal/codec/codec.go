// Package codec implements the two pluggable compression codecs Gato can
// use for blob and chunk payloads: Zlib (stdlib, matching the git-interop
// codec the teacher already carries) and Zstd (klauspost/compress, the
// teacher's primary compressor).
package codec

import (
	"bytes"
	"compress/zlib"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"
)

// Method identifies a compression codec.
type Method byte

const (
	MethodZlib Method = iota
	MethodZstd
)

func (m Method) String() string {
	switch m {
	case MethodZlib:
		return "zlib"
	case MethodZstd:
		return "zstd"
	default:
		return "unknown"
	}
}

// ParseMethod maps a gato.toml compression method name to a Method.
func ParseMethod(name string) (Method, error) {
	switch name {
	case "zlib", "Zlib":
		return MethodZlib, nil
	case "zstd", "Zstd":
		return MethodZstd, nil
	default:
		return 0, fmt.Errorf("unknown compression method %q", name)
	}
}

// Codec compresses and decompresses payloads for a single method.
type Codec interface {
	Method() Method
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// New returns the Codec implementation for method, at the given zlib/zstd
// compression level (level semantics differ per codec; 0 means default).
func New(method Method, level int) (Codec, error) {
	switch method {
	case MethodZlib:
		return &zlibCodec{level: level}, nil
	case MethodZstd:
		return &zstdCodec{level: level}, nil
	default:
		return nil, fmt.Errorf("unsupported compression method %v", method)
	}
}

type zlibCodec struct{ level int }

func (z *zlibCodec) Method() Method { return MethodZlib }

func (z *zlibCodec) Compress(data []byte) ([]byte, error) {
	level := z.level
	if level == 0 {
		level = zlib.DefaultCompression
	}
	var buf bytes.Buffer
	w, err := zlib.NewWriterLevel(&buf, level)
	if err != nil {
		return nil, fmt.Errorf("zlib writer: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		w.Close()
		return nil, fmt.Errorf("zlib compress: %w", err)
	}
	if err := w.Close(); err != nil {
		return nil, fmt.Errorf("zlib flush: %w", err)
	}
	return buf.Bytes(), nil
}

func (z *zlibCodec) Decompress(data []byte) ([]byte, error) {
	r, err := zlib.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("zlib reader: %w", err)
	}
	defer r.Close()
	out, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("zlib decompress: %w", err)
	}
	return out, nil
}

type zstdCodec struct{ level int }

func (z *zstdCodec) Method() Method { return MethodZstd }

func (z *zstdCodec) Compress(data []byte) ([]byte, error) {
	level := zstd.EncoderLevelFromZstd(z.level)
	if z.level == 0 {
		level = zstd.SpeedDefault
	}
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(level))
	if err != nil {
		return nil, fmt.Errorf("zstd writer: %w", err)
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

func (z *zstdCodec) Decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decompress: %w", err)
	}
	return out, nil
}
