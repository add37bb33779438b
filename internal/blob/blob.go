// Package blob implements Gato's tagged binary blob envelope: a file's
// content is stored either inline (Normal, small files) or as an ordered
// list of content-defined chunk hashes (Chunked, large files split by
// internal/chunker). The encoding follows the tagged canonical-bytes
// idiom internal/fsmerkle uses for its own node kinds (marker byte,
// uvarint-prefixed fields, no padding).
package blob

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/gato-vcs/gato/internal/cas"
	"github.com/gato-vcs/gato/internal/chunker"
	"github.com/gato-vcs/gato/internal/codec"
)

// Variant tags the two blob encodings.
type Variant byte

const (
	VariantNormal  Variant = 0x00
	VariantChunked Variant = 0x01
)

// ChunkThreshold is the file size above which Add stages a file as
// Chunked rather than Normal: files at or below 8 MiB are stored whole.
const ChunkThreshold = chunker.MaxSize

// Blob is the decoded form of a stored file's content descriptor.
type Blob struct {
	Variant Variant
	// Normal: Content holds the (decompressed) file bytes.
	Content []byte
	// Chunked: Chunks holds the ordered list of chunk hashes; each
	// chunk's compressed bytes are stored separately in the object store
	// under its own hash.
	Chunks []cas.Hash
}

// encodeNormal produces the canonical envelope bytes for a Normal blob, ready
// to be hashed and stored as a single object.
func encodeNormal(compressed []byte) []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(VariantNormal))
	writeUvarint(&buf, uint64(len(compressed)))
	buf.Write(compressed)
	return buf.Bytes()
}

// encodeChunked produces the canonical envelope bytes for a Chunked blob:
// an ordered list of 32-byte chunk hashes.
func encodeChunked(hashes []cas.Hash) []byte {
	var buf bytes.Buffer
	buf.WriteByte(byte(VariantChunked))
	writeUvarint(&buf, uint64(len(hashes)))
	for _, h := range hashes {
		buf.Write(h[:])
	}
	return buf.Bytes()
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	tmp := make([]byte, binary.MaxVarintLen64)
	n := binary.PutUvarint(tmp, v)
	buf.Write(tmp[:n])
}

// Store writes content to store as a blob, compressing with c, and
// choosing the Normal or Chunked encoding per ChunkThreshold. It returns
// the hash of the top-level blob envelope object.
func Store(store *cas.Store, c codec.Codec, content []byte) (cas.Hash, error) {
	if len(content) <= ChunkThreshold {
		compressed, err := c.Compress(content)
		if err != nil {
			return cas.Hash{}, fmt.Errorf("compress blob: %w", err)
		}
		envelope := encodeNormal(compressed)
		hash := cas.SumB3(envelope)
		if err := store.Put(hash, envelope); err != nil {
			return cas.Hash{}, fmt.Errorf("store blob: %w", err)
		}
		return hash, nil
	}

	parts := chunker.Split(content)
	hashes := make([]cas.Hash, 0, len(parts))
	for _, part := range parts {
		compressed, err := c.Compress(part.Data)
		if err != nil {
			return cas.Hash{}, fmt.Errorf("compress chunk: %w", err)
		}
		chunkHash := cas.SumB3(compressed)
		if err := store.Put(chunkHash, compressed); err != nil {
			return cas.Hash{}, fmt.Errorf("store chunk: %w", err)
		}
		hashes = append(hashes, chunkHash)
	}

	return StoreChunkedEnvelope(store, hashes)
}

// StoreChunkedEnvelope builds and stores the Chunked envelope for an
// already-staged, ordered list of chunk hashes (each chunk's compressed
// bytes already present in store, keyed by the hash of those compressed
// bytes). Callers that parallelize chunk compression themselves — the
// Add Pipeline's worker pool — use this instead of Store so chunk
// compression only happens once.
func StoreChunkedEnvelope(store *cas.Store, chunkHashes []cas.Hash) (cas.Hash, error) {
	envelope := encodeChunked(chunkHashes)
	hash := cas.SumB3(envelope)
	if err := store.Put(hash, envelope); err != nil {
		return cas.Hash{}, fmt.Errorf("store blob envelope: %w", err)
	}
	return hash, nil
}

// DryHash recomputes the hash content would get if staged right now,
// without writing anything to store: it compresses (and, past
// ChunkThreshold, chunks and compresses each chunk) exactly as Store
// would, then hashes the resulting envelope, discarding the compressed
// bytes instead of calling store.Put. Grounded on original_source's
// get_dry_chunck_hash (core/add/chunker/mod.rs), which builds the same
// chunked envelope with its own save_chunks call removed; used by the
// status command to tell "staged, unmodified," "staged, then modified
// again," and "untracked" apart without mutating the object store.
func DryHash(c codec.Codec, content []byte) (cas.Hash, error) {
	if len(content) <= ChunkThreshold {
		compressed, err := c.Compress(content)
		if err != nil {
			return cas.Hash{}, fmt.Errorf("compress blob: %w", err)
		}
		return cas.SumB3(encodeNormal(compressed)), nil
	}

	parts := chunker.Split(content)
	hashes := make([]cas.Hash, 0, len(parts))
	for _, part := range parts {
		compressed, err := c.Compress(part.Data)
		if err != nil {
			return cas.Hash{}, fmt.Errorf("compress chunk: %w", err)
		}
		hashes = append(hashes, cas.SumB3(compressed))
	}
	return cas.SumB3(encodeChunked(hashes)), nil
}

// Load reads a blob by its top-level hash and reconstructs its full,
// decompressed content.
func Load(store *cas.Store, c codec.Codec, hash cas.Hash) ([]byte, error) {
	envelope, err := store.Get(hash)
	if err != nil {
		return nil, fmt.Errorf("load blob envelope: %w", err)
	}
	if len(envelope) == 0 {
		return nil, fmt.Errorf("empty blob envelope for %s", hash)
	}

	variant := Variant(envelope[0])
	body := bytes.NewReader(envelope[1:])

	switch variant {
	case VariantNormal:
		n, err := binary.ReadUvarint(body)
		if err != nil {
			return nil, fmt.Errorf("read blob length: %w", err)
		}
		compressed := make([]byte, n)
		if _, err := io.ReadFull(body, compressed); err != nil {
			return nil, fmt.Errorf("read blob payload: %w", err)
		}
		return c.Decompress(compressed)

	case VariantChunked:
		count, err := binary.ReadUvarint(body)
		if err != nil {
			return nil, fmt.Errorf("read chunk count: %w", err)
		}
		var out bytes.Buffer
		for i := uint64(0); i < count; i++ {
			var h cas.Hash
			if _, err := body.Read(h[:]); err != nil {
				return nil, fmt.Errorf("read chunk hash %d: %w", i, err)
			}
			compressed, err := store.Get(h)
			if err != nil {
				return nil, fmt.Errorf("load chunk %s: %w", h, err)
			}
			raw, err := c.Decompress(compressed)
			if err != nil {
				return nil, fmt.Errorf("decompress chunk %s: %w", h, err)
			}
			out.Write(raw)
		}
		return out.Bytes(), nil

	default:
		return nil, fmt.Errorf("unknown blob variant %d", variant)
	}
}
